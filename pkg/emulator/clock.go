// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 the wmpstat authors

package emulator

import (
	"sync"
	"time"
)

// Clock is the emulator's simulated datetime. It tracks an epoch set via
// CFG:DATETIME plus the real time elapsed since, so it keeps ticking
// between queries and survives reconnects. The zero epoch is
// 01/01/2001 00:00:00, matching factory-fresh hardware.
type Clock struct {
	mu   sync.Mutex
	base time.Time
	ref  time.Time
}

// NewClock creates a clock at the factory epoch.
func NewClock() *Clock {
	return &Clock{
		base: time.Date(2001, 1, 1, 0, 0, 0, 0, time.UTC),
		ref:  time.Now(),
	}
}

// Now returns the current simulated datetime.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.base.Add(time.Since(c.ref))
}

// Set moves the simulated clock to a new datetime.
func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.base = t
	c.ref = time.Now()
}
