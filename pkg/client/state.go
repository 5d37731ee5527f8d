// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 the wmpstat authors

package client

import (
	"sync"

	"github.com/hvackit/wmpstat/pkg/wmp"
)

// ConnectionState is the engine's link state.
type ConnectionState int

const (
	// Disconnected means no socket exists. The engine starts here and
	// returns here on every teardown.
	Disconnected ConnectionState = iota
	// Connecting covers dialing and the discovery sequence.
	Connecting
	// Authenticated is reached once the device identification reply has
	// been parsed. Background polling runs only in this state.
	Authenticated
)

func (s ConnectionState) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Authenticated:
		return "authenticated"
	}
	return "unknown"
}

// Capabilities holds the value lists and setpoint bounds discovered from
// LIMITS replies. Lists are replaced whole, never merged.
type Capabilities struct {
	Modes       []string
	FanSpeeds   []string
	VaneUD      []string
	VaneLR      []string
	SetpointMin int // tenths of a degree; zero until discovered
	SetpointMax int
}

// deviceState tracks the last observed value of every device function
// plus the discovered identity and capabilities. Values arrive on the
// read loop; getters may be called from any goroutine.
type deviceState struct {
	mu       sync.Mutex
	values   map[string]string
	identity wmp.Identity
	hasID    bool
	caps     Capabilities
}

func newDeviceState() *deviceState {
	return &deviceState{values: make(map[string]string)}
}

// setValue records a change notification. The device's null temperature
// sentinel is translated to an absent value, never stored literally.
// Returns the previous value for change detection.
func (d *deviceState) setValue(function, value string) (previous string, had bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	previous, had = d.values[function]
	if wmp.IsNullTemp(function, value) {
		delete(d.values, function)
		return previous, had
	}
	d.values[function] = value
	return previous, had
}

// value returns the last observed value of a function; ok is false when
// the value has never been reported (or was reported as null).
func (d *deviceState) value(function string) (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	v, ok := d.values[function]
	return v, ok
}

func (d *deviceState) setIdentity(id wmp.Identity) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.identity = id
	d.hasID = true
}

func (d *deviceState) getIdentity() (wmp.Identity, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.identity, d.hasID
}

func (d *deviceState) setCapabilityList(function string, values []string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	switch function {
	case wmp.FunctionMode:
		d.caps.Modes = values
	case wmp.FunctionFanSpeed:
		d.caps.FanSpeeds = values
	case wmp.FunctionVaneUpDown:
		d.caps.VaneUD = values
	case wmp.FunctionVaneLeftRight:
		d.caps.VaneLR = values
	}
}

func (d *deviceState) setSetpointBounds(min, max int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.caps.SetpointMin = min
	d.caps.SetpointMax = max
}

// capabilities returns a copy of the discovered capability lists.
func (d *deviceState) capabilities() Capabilities {
	d.mu.Lock()
	defer d.mu.Unlock()
	caps := d.caps
	caps.Modes = append([]string(nil), d.caps.Modes...)
	caps.FanSpeeds = append([]string(nil), d.caps.FanSpeeds...)
	caps.VaneUD = append([]string(nil), d.caps.VaneUD...)
	caps.VaneLR = append([]string(nil), d.caps.VaneLR...)
	return caps
}

// reset clears per-connection capability state. Observed function values
// are kept: the device record outlives the socket, and a stale reading
// beats none until the next full poll.
func (d *deviceState) reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.caps = Capabilities{}
}
