// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 the wmpstat authors

// Package emulator implements a WMP gateway device emulator for testing
// clients against realistic device behavior: immediate ACKs, delayed and
// possibly reordered change notifications, silent unsupported features,
// and protocol-compliance observation.
package emulator

import "time"

// Timing defaults for realistic device behavior.
const (
	// ResponseDelayMin is the minimum CHN notification delay.
	ResponseDelayMin = 100 * time.Millisecond

	// ResponseDelayMax is the maximum delay for ordinary functions.
	ResponseDelayMax = 250 * time.Millisecond

	// OnOffDelayMax is the maximum delay for ONOFF, which real hardware
	// can stretch to several seconds (compressor cycle latency).
	OnOffDelayMax = 5 * time.Second

	// SocketIdleTimeout is how long a real device tolerates an idle
	// socket before closing it. The emulator only observes and logs.
	SocketIdleTimeout = 60 * time.Second

	// MinReconnectInterval is the minimum time a client must wait
	// between closing a connection and opening the next one.
	MinReconnectInterval = 1 * time.Second
)

// Setpoint limits in tenths of a degree.
const (
	SetpointDefaultMin = 180
	SetpointDefaultMax = 300
)

// setpointRange is a [min,max] pair in tenths of a degree.
type setpointRange struct {
	min, max int
}

// modeSetpointRanges are the mode-dependent setpoint bounds used when
// dynamic limits are enabled.
var modeSetpointRanges = map[string]setpointRange{
	"AUTO": {180, 300},
	"HEAT": {200, 300},
	"COOL": {180, 250},
	"DRY":  {180, 250},
	"FAN":  {180, 300},
}

// operationModes is the advertised LIMITS:MODE list.
var operationModes = []string{"AUTO", "HEAT", "DRY", "COOL", "FAN"}
