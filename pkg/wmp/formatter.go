// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 the wmpstat authors

package wmp

import (
	"fmt"
	"strings"
)

// FormatMessage formats a decoded message into a human-readable string
// for monitor output.
func FormatMessage(m *Message) string {
	timestamp := m.Timestamp.Format("15:04:05.000")
	result := fmt.Sprintf("[%s] %s\n", timestamp, formatVerbLine(m))

	switch m.Verb {
	case VerbID:
		if m.Identity != nil {
			id := m.Identity
			result += fmt.Sprintf("  Model: %s, MAC: %s, IP: %s, Firmware: %s, RSSI: %d dBm\n",
				id.Model, id.MAC, id.IP, id.Version, id.RSSI)
		}
	case VerbChange, VerbSet:
		result += "  " + formatFunctionValue(m.Function, m.Value) + "\n"
	case VerbLimits:
		if m.Values != nil {
			result += fmt.Sprintf("  %s: {%s}\n", formatFunctionName(m.Function), strings.Join(m.Values, ", "))
		}
	case VerbConfig:
		if m.Value != "" {
			result += fmt.Sprintf("  %s = %s\n", m.Function, m.Value)
		}
	}

	return result
}

// formatVerbLine renders the one-line summary for a message.
func formatVerbLine(m *Message) string {
	switch m.Verb {
	case VerbGet:
		return fmt.Sprintf("GET unit=%s function=%s", m.Address, m.Function)
	case VerbSet:
		return fmt.Sprintf("SET unit=%s function=%s", m.Address, m.Function)
	case VerbChange:
		return fmt.Sprintf("CHANGE unit=%s function=%s", m.Address, m.Function)
	case VerbLimits:
		return fmt.Sprintf("LIMITS function=%s", m.Function)
	case VerbConfig:
		return fmt.Sprintf("CFG item=%s", m.Function)
	case VerbID:
		if m.Identity != nil {
			return "IDENTIFY (reply)"
		}
		return "IDENTIFY (request)"
	default:
		return m.Verb
	}
}

// formatFunctionName returns the human-readable name for a function.
func formatFunctionName(function string) string {
	switch function {
	case FunctionOnOff:
		return "Power"
	case FunctionMode:
		return "Mode"
	case FunctionSetpoint:
		return "Setpoint"
	case FunctionFanSpeed:
		return "Fan speed"
	case FunctionVaneUpDown:
		return "Vertical vane"
	case FunctionVaneLeftRight:
		return "Horizontal vane"
	case FunctionAmbientTemp:
		return "Ambient temperature"
	case FunctionErrorStatus:
		return "Error status"
	case FunctionErrorCode:
		return "Error code"
	default:
		return function
	}
}

// formatFunctionValue renders a function value, converting tenths-encoded
// temperatures to decimal degrees.
func formatFunctionValue(function, value string) string {
	name := formatFunctionName(function)
	switch function {
	case FunctionSetpoint, FunctionAmbientTemp:
		if deg, ok := ParseTenths(value); ok {
			return fmt.Sprintf("%s: %.1f°C", name, deg)
		}
		return fmt.Sprintf("%s: (no reading)", name)
	default:
		return fmt.Sprintf("%s: %s", name, value)
	}
}
