// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 the wmpstat authors

package client

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestModeConfirmImmediate(t *testing.T) {
	m := &modeConfirm{
		poll:    time.Millisecond,
		timeout: 100 * time.Millisecond,
		check:   func() bool { return true },
	}
	assert.Equal(t, confirmConfirmed, m.run(context.Background()))
}

func TestModeConfirmAfterPolling(t *testing.T) {
	var calls atomic.Int32
	m := &modeConfirm{
		poll:    time.Millisecond,
		timeout: time.Second,
		check:   func() bool { return calls.Add(1) >= 5 },
	}
	assert.Equal(t, confirmConfirmed, m.run(context.Background()))
	assert.GreaterOrEqual(t, calls.Load(), int32(5))
}

func TestModeConfirmTimeout(t *testing.T) {
	m := &modeConfirm{
		poll:    2 * time.Millisecond,
		timeout: 20 * time.Millisecond,
		check:   func() bool { return false },
	}

	start := time.Now()
	assert.Equal(t, confirmTimedOut, m.run(context.Background()))
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

func TestModeConfirmCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m := &modeConfirm{
		poll:    time.Millisecond,
		timeout: time.Minute,
		check:   func() bool { return false },
	}
	assert.Equal(t, confirmTimedOut, m.run(ctx))
}

func TestConfirmResultString(t *testing.T) {
	assert.Equal(t, "pending", confirmPending.String())
	assert.Equal(t, "confirmed", confirmConfirmed.String())
	assert.Equal(t, "timed out", confirmTimedOut.String())
}
