// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 the wmpstat authors

package emulator

import (
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/hvackit/wmpstat/pkg/wmp"
)

// deviceIdentity is the fixed ID reply payload.
var deviceIdentity = wmp.Identity{
	Model:    "IS-IR-WMP-1",
	MAC:      "001DC9A2C911",
	IP:       "192.168.100.246",
	Protocol: "ASCII",
	Version:  "v0.0.1",
	RSSI:     -44,
}

// Limits holds the advertised capability lists. A nil list marks the
// feature as disabled: the device stays silent on its LIMITS queries.
type Limits struct {
	VaneUD   []string
	VaneLR   []string
	FanSpeed []string

	// DynamicSetpoint makes LIMITS:SETPTEMP depend on the current mode.
	DynamicSetpoint bool
}

// Change describes an accepted SET that altered canonical state and
// needs a delayed CHN notification.
type Change struct {
	Address  string
	Function string
	Value    string
}

// Processor answers protocol commands against the canonical device
// record. Replies are synchronous; accepted changes are returned to the
// caller for delayed notification scheduling.
type Processor struct {
	device *Device
	clock  *Clock
	limits Limits
	logf   func(format string, args ...any)
}

// NewProcessor creates a command processor over a shared device record
// and simulated clock.
func NewProcessor(device *Device, clock *Clock, limits Limits) *Processor {
	return &Processor{
		device: device,
		clock:  clock,
		limits: limits,
		logf:   log.Printf,
	}
}

// SetLogf overrides the processor's log sink.
func (p *Processor) SetLogf(logf func(format string, args ...any)) {
	p.logf = logf
}

// HandleLine processes one inbound line and returns the immediate reply
// bytes (zero or more device-terminated lines) plus any accepted
// changes. A malformed SET is refused with ERR; other unrecognized
// lines get no reply, matching real firmware tolerance for garbage.
func (p *Processor) HandleLine(line string) (reply []byte, changes []Change) {
	m, err := wmp.DecodeLine(line)
	if err != nil {
		if strings.HasPrefix(strings.TrimSpace(line), wmp.VerbSet+",") {
			p.logf("[EMU] refusing malformed set %q", line)
			return p.encodeReply(wmp.NewErr()), nil
		}
		p.logf("[EMU] ignoring unrecognized line %q", line)
		return nil, nil
	}

	switch m.Verb {
	case wmp.VerbID:
		return p.encodeReply(&wmp.Message{Verb: wmp.VerbID, Identity: &deviceIdentity}), nil

	case wmp.VerbPing:
		return p.encodeReply(wmp.NewPong()), nil

	case wmp.VerbGet:
		return p.handleGet(m), nil

	case wmp.VerbSet:
		return p.handleSet(m)

	case wmp.VerbLimits:
		return p.handleLimits(m), nil

	case wmp.VerbConfig:
		return p.handleConfig(m), nil
	}

	return nil, nil
}

// handleGet answers GET with the stored value, or one CHN per function
// for the wildcard.
func (p *Processor) handleGet(m *wmp.Message) []byte {
	if m.Function == wmp.FunctionWildcard {
		snapshot, ok := p.device.Snapshot(m.Address)
		if !ok {
			return p.encodeReply(wmp.NewErr())
		}
		var reply []byte
		for _, fv := range snapshot {
			reply = append(reply, p.encodeReply(wmp.NewChange(m.Address, fv.Function, fv.Value))...)
		}
		return reply
	}

	value, ok := p.device.Get(m.Address, m.Function)
	if !ok {
		return p.encodeReply(wmp.NewErr())
	}
	return p.encodeReply(wmp.NewChange(m.Address, m.Function, value))
}

// handleSet validates write legality, ACKs immediately, and reports the
// change for delayed notification. A SET to the current value is ACKed
// with no notification: nothing changed.
func (p *Processor) handleSet(m *wmp.Message) ([]byte, []Change) {
	if !wmp.IsWritable(m.Function) {
		return p.encodeReply(wmp.NewErr()), nil
	}
	changed, ok := p.device.Set(m.Address, m.Function, m.Value)
	if !ok {
		return p.encodeReply(wmp.NewErr()), nil
	}
	if !changed {
		return p.encodeReply(wmp.NewAck()), nil
	}
	return p.encodeReply(wmp.NewAck()), []Change{{
		Address:  m.Address,
		Function: m.Function,
		Value:    m.Value,
	}}
}

// handleLimits answers capability queries. Disabled features produce no
// reply at all: real devices simply do not answer for unsupported
// features, and clients depend on that silence.
func (p *Processor) handleLimits(m *wmp.Message) []byte {
	switch m.Function {
	case wmp.FunctionFanSpeed:
		if p.limits.FanSpeed == nil {
			return nil
		}
		return p.encodeReply(wmp.NewLimitsReply(m.Function, p.limits.FanSpeed))

	case wmp.FunctionVaneUpDown:
		if p.limits.VaneUD == nil {
			return nil
		}
		return p.encodeReply(wmp.NewLimitsReply(m.Function, p.limits.VaneUD))

	case wmp.FunctionVaneLeftRight:
		if p.limits.VaneLR == nil {
			return nil
		}
		return p.encodeReply(wmp.NewLimitsReply(m.Function, p.limits.VaneLR))

	case wmp.FunctionSetpoint:
		r := p.setpointRange()
		return p.encodeReply(wmp.NewLimitsReply(m.Function, []string{
			strconv.Itoa(r.min), strconv.Itoa(r.max),
		}))

	case wmp.FunctionMode:
		return p.encodeReply(wmp.NewLimitsReply(m.Function, operationModes))
	}

	return nil
}

// setpointRange resolves the active setpoint bounds, consulting the
// current mode when dynamic limits are enabled.
func (p *Processor) setpointRange() setpointRange {
	if !p.limits.DynamicSetpoint {
		return setpointRange{SetpointDefaultMin, SetpointDefaultMax}
	}
	mode, _ := p.device.Get(wmp.DefaultAddress, wmp.FunctionMode)
	if r, ok := modeSetpointRanges[mode]; ok {
		return r
	}
	return setpointRange{SetpointDefaultMin, SetpointDefaultMax}
}

// handleConfig answers CFG:DATETIME queries and sets. Other config items
// are ignored.
func (p *Processor) handleConfig(m *wmp.Message) []byte {
	if m.Function != wmp.ConfigDateTime {
		return nil
	}

	if m.Value == "" {
		now := p.clock.Now().Format(wmp.DateTimeLayout)
		return p.encodeReply(wmp.NewConfigSet(wmp.ConfigDateTime, now))
	}

	t, err := time.ParseInLocation(wmp.DateTimeLayout, m.Value, time.UTC)
	if err != nil {
		p.logf("[EMU] invalid datetime %q", m.Value)
		return p.encodeReply(wmp.NewErr())
	}
	p.clock.Set(t)
	p.logf("[EMU] internal clock set to %s", m.Value)
	return p.encodeReply(wmp.NewAck())
}

func (p *Processor) encodeReply(m *wmp.Message) []byte {
	data, err := wmp.EncodeDevice(m)
	if err != nil {
		p.logf("[EMU] encode reply: %v", err)
		return nil
	}
	return data
}
