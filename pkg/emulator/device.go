// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 the wmpstat authors

package emulator

import (
	"sync"

	"github.com/hvackit/wmpstat/pkg/wmp"
)

// functionOrder fixes the order wildcard GET replies enumerate functions.
var functionOrder = []string{
	wmp.FunctionMode,
	wmp.FunctionSetpoint,
	wmp.FunctionOnOff,
	wmp.FunctionFanSpeed,
	wmp.FunctionAmbientTemp,
	wmp.FunctionVaneUpDown,
	wmp.FunctionVaneLeftRight,
	wmp.FunctionErrorStatus,
	wmp.FunctionErrorCode,
}

// Device is the canonical device record. One instance models one physical
// device: it is shared by every accepted connection and survives client
// disconnect/reconnect cycles for the lifetime of the process.
type Device struct {
	mu    sync.Mutex
	units map[string]map[string]string
}

// NewDevice creates a device record seeded with power-off defaults for
// the single managed unit.
func NewDevice() *Device {
	return &Device{
		units: map[string]map[string]string{
			wmp.DefaultAddress: {
				wmp.FunctionMode:          wmp.ModeAuto,
				wmp.FunctionSetpoint:      "210",
				wmp.FunctionOnOff:         wmp.PowerOff,
				wmp.FunctionFanSpeed:      "AUTO",
				wmp.FunctionAmbientTemp:   "180",
				wmp.FunctionVaneUpDown:    "AUTO",
				wmp.FunctionVaneLeftRight: "AUTO",
				wmp.FunctionErrorStatus:   "OK",
				wmp.FunctionErrorCode:     "",
			},
		},
	}
}

// Get returns the stored value for a unit's function.
func (d *Device) Get(address, function string) (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	unit, ok := d.units[address]
	if !ok {
		return "", false
	}
	value, ok := unit[function]
	return value, ok
}

// Set stores a value, reporting whether the unit exists and whether the
// value actually changed. Functions are only ever overwritten, never
// removed.
func (d *Device) Set(address, function, value string) (changed, ok bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	unit, ok := d.units[address]
	if !ok {
		return false, false
	}
	if unit[function] == value {
		return false, true
	}
	unit[function] = value
	return true, true
}

// FunctionValue pairs a function with its current value.
type FunctionValue struct {
	Function string
	Value    string
}

// Snapshot returns every function of a unit in wildcard-reply order.
func (d *Device) Snapshot(address string) ([]FunctionValue, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	unit, ok := d.units[address]
	if !ok {
		return nil, false
	}
	values := make([]FunctionValue, 0, len(unit))
	for _, fn := range functionOrder {
		if v, ok := unit[fn]; ok {
			values = append(values, FunctionValue{Function: fn, Value: v})
		}
	}
	return values, true
}
