// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 the wmpstat authors

package client

import (
	"context"
	"time"
)

// confirmResult is the outcome of a mode-change confirmation wait.
type confirmResult int

const (
	// confirmPending means the wait is still in progress (only ever an
	// internal intermediate value).
	confirmPending confirmResult = iota
	// confirmConfirmed means the device reported the requested mode.
	confirmConfirmed
	// confirmTimedOut means the timeout elapsed without confirmation.
	confirmTimedOut
)

func (r confirmResult) String() string {
	switch r {
	case confirmPending:
		return "pending"
	case confirmConfirmed:
		return "confirmed"
	case confirmTimedOut:
		return "timed out"
	}
	return "unknown"
}

// modeConfirm polls a condition until it holds or a deadline passes.
//
// Powering on before a mode change is confirmed risks the device
// starting in its previous mode, because change notifications arrive in
// arbitrary order. The engine therefore waits for the observed mode to
// match before sending power-on, bounded by a timeout after which the
// power-on is abandoned entirely.
type modeConfirm struct {
	poll    time.Duration
	timeout time.Duration
	check   func() bool
}

// run polls check every poll period until it returns true, the timeout
// elapses, or ctx is cancelled (reported as a timeout: the power-on must
// not be sent either way).
func (m *modeConfirm) run(ctx context.Context) confirmResult {
	if m.check() {
		return confirmConfirmed
	}

	deadline := time.Now().Add(m.timeout)
	ticker := time.NewTicker(m.poll)
	defer ticker.Stop()

	state := confirmPending
	for state == confirmPending {
		select {
		case <-ctx.Done():
			state = confirmTimedOut
		case <-ticker.C:
			if m.check() {
				state = confirmConfirmed
			} else if !time.Now().Before(deadline) {
				state = confirmTimedOut
			}
		}
	}
	return state
}
