// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 the wmpstat authors

package wmp

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrUnknownLine reports a line that matches no recognized protocol shape.
// Decode failure is not fatal: callers log the line and move on.
var ErrUnknownLine = errors.New("wmp: unrecognized line")

// DecodeLine parses one protocol line (terminators already stripped or
// still attached, both are accepted) into a typed Message.
func DecodeLine(line string) (*Message, error) {
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return nil, ErrUnknownLine
	}

	m := &Message{Timestamp: time.Now()}

	// Bare verbs carry no arguments.
	switch line {
	case VerbID, VerbPing, VerbPong, VerbAck, VerbErr:
		m.Verb = line
		return m, nil
	}

	head, rest, found := strings.Cut(line, ":")
	if !found {
		return nil, fmt.Errorf("%w: %q", ErrUnknownLine, line)
	}

	verb, address, _ := strings.Cut(head, ",")
	m.Verb = verb
	m.Address = address

	switch verb {
	case VerbID:
		id, err := parseIdentity(rest)
		if err != nil {
			return nil, err
		}
		m.Identity = id

	case VerbGet:
		if address == "" || rest == "" {
			return nil, fmt.Errorf("%w: %q", ErrUnknownLine, line)
		}
		m.Function = rest

	case VerbSet, VerbChange:
		function, value, ok := strings.Cut(rest, ",")
		if address == "" || function == "" || !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownLine, line)
		}
		m.Function = function
		m.Value = value

	case VerbLimits:
		function, value, hasValue := strings.Cut(rest, ",")
		if function == "" {
			return nil, fmt.Errorf("%w: %q", ErrUnknownLine, line)
		}
		m.Function = function
		if hasValue {
			values, err := ParseLimitList(value)
			if err != nil {
				return nil, err
			}
			m.Value = value
			m.Values = values
		}

	case VerbConfig:
		item, value, _ := strings.Cut(rest, ",")
		if item == "" {
			return nil, fmt.Errorf("%w: %q", ErrUnknownLine, line)
		}
		m.Function = item
		m.Value = value

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownLine, line)
	}

	return m, nil
}

// DecodeBatch splits a chunk of received data into lines and decodes each.
// Unrecognized lines are skipped; the bad slice reports them for logging.
func DecodeBatch(data string) (msgs []*Message, bad []string) {
	for _, line := range strings.Split(data, "\n") {
		line = strings.Trim(line, "\r")
		if line == "" {
			continue
		}
		m, err := DecodeLine(line)
		if err != nil {
			bad = append(bad, line)
			continue
		}
		msgs = append(msgs, m)
	}
	return msgs, bad
}

// parseIdentity parses the ID reply payload:
// Model,MAC,IP,Protocol,Version,RSSI
func parseIdentity(args string) (*Identity, error) {
	fields := strings.Split(args, ",")
	if len(fields) < 6 {
		return nil, fmt.Errorf("%w: ID reply with %d fields", ErrUnknownLine, len(fields))
	}
	rssi, err := strconv.Atoi(fields[5])
	if err != nil {
		return nil, fmt.Errorf("%w: ID reply RSSI %q", ErrUnknownLine, fields[5])
	}
	return &Identity{
		Model:    fields[0],
		MAC:      fields[1],
		IP:       fields[2],
		Protocol: fields[3],
		Version:  fields[4],
		RSSI:     rssi,
	}, nil
}

// ParseLimitList parses a bracketed value list: "[AUTO,1,2,3]".
func ParseLimitList(value string) ([]string, error) {
	if len(value) < 2 || value[0] != '[' || value[len(value)-1] != ']' {
		return nil, fmt.Errorf("%w: limit list %q", ErrUnknownLine, value)
	}
	inner := value[1 : len(value)-1]
	if inner == "" {
		return nil, nil
	}
	return strings.Split(inner, ","), nil
}

// ParseSetpointRange interprets a LIMITS value list as a numeric
// [min,max] pair in tenths of a degree.
func ParseSetpointRange(values []string) (min, max int, err error) {
	if len(values) != 2 {
		return 0, 0, fmt.Errorf("wmp: setpoint range needs 2 values, got %d", len(values))
	}
	min, err = strconv.Atoi(values[0])
	if err != nil {
		return 0, 0, fmt.Errorf("wmp: setpoint range min %q: %w", values[0], err)
	}
	max, err = strconv.Atoi(values[1])
	if err != nil {
		return 0, 0, fmt.Errorf("wmp: setpoint range max %q: %w", values[1], err)
	}
	return min, max, nil
}
