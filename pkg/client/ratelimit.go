// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 the wmpstat authors

package client

import (
	"context"
	"sync"
	"time"
)

// rateLimiter enforces a minimum spacing between outbound commands. The
// device firmware cannot absorb back-to-back commands; a command issued
// too soon after the previous one is delayed, never dropped or
// reordered.
type rateLimiter struct {
	mu       sync.Mutex
	interval time.Duration
	next     time.Time
}

func newRateLimiter(interval time.Duration) *rateLimiter {
	return &rateLimiter{interval: interval}
}

// wait blocks until the next command slot, or until ctx is cancelled.
// Slots are handed out in call order: each caller reserves its slot
// under the lock before sleeping, so concurrent commands stay spaced.
func (l *rateLimiter) wait(ctx context.Context) error {
	l.mu.Lock()
	now := time.Now()
	slot := l.next
	if slot.Before(now) {
		slot = now
	}
	l.next = slot.Add(l.interval)
	l.mu.Unlock()

	delay := time.Until(slot)
	if delay <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// reset clears the spacing history. Called on every new connection.
func (l *rateLimiter) reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.next = time.Time{}
}
