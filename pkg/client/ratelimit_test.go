// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 the wmpstat authors

package client

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiterEnforcesSpacing(t *testing.T) {
	l := newRateLimiter(20 * time.Millisecond)
	ctx := context.Background()

	var stamps []time.Time
	for i := 0; i < 4; i++ {
		require.NoError(t, l.wait(ctx))
		stamps = append(stamps, time.Now())
	}

	for i := 1; i < len(stamps); i++ {
		gap := stamps[i].Sub(stamps[i-1])
		assert.GreaterOrEqual(t, gap, 20*time.Millisecond, "gap %d", i)
	}
}

func TestRateLimiterFirstCallIsImmediate(t *testing.T) {
	l := newRateLimiter(time.Second)

	start := time.Now()
	require.NoError(t, l.wait(context.Background()))
	assert.Less(t, time.Since(start), 100*time.Millisecond)
}

func TestRateLimiterCancellation(t *testing.T) {
	l := newRateLimiter(time.Minute)
	require.NoError(t, l.wait(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, l.wait(ctx), context.Canceled)
}

func TestRateLimiterReset(t *testing.T) {
	l := newRateLimiter(time.Minute)
	require.NoError(t, l.wait(context.Background()))

	l.reset()
	start := time.Now()
	require.NoError(t, l.wait(context.Background()))
	assert.Less(t, time.Since(start), 100*time.Millisecond)
}
