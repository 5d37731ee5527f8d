// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 the wmpstat authors

package wmp

import (
	"fmt"
	"strings"
)

// EncodeClient encodes a message for the client->device direction,
// terminated with a bare carriage return.
func EncodeClient(m *Message) ([]byte, error) {
	line, err := formatMessage(m)
	if err != nil {
		return nil, err
	}
	return []byte(line + TerminatorClient), nil
}

// EncodeDevice encodes a message for the device->client direction,
// terminated with CRLF.
func EncodeDevice(m *Message) ([]byte, error) {
	line, err := formatMessage(m)
	if err != nil {
		return nil, err
	}
	return []byte(line + TerminatorDevice), nil
}

// MustEncodeClient is EncodeClient for messages built by the command
// constructors, which cannot fail.
func MustEncodeClient(m *Message) []byte {
	data, err := EncodeClient(m)
	if err != nil {
		panic(fmt.Sprintf("wmp: encode error: %v", err))
	}
	return data
}

// formatMessage renders a message as a single unterminated line.
func formatMessage(m *Message) (string, error) {
	switch m.Verb {
	case VerbPing, VerbPong, VerbAck, VerbErr:
		return m.Verb, nil

	case VerbID:
		if m.Identity == nil {
			return VerbID, nil
		}
		id := m.Identity
		return fmt.Sprintf("ID:%s,%s,%s,%s,%s,%d",
			id.Model, id.MAC, id.IP, id.Protocol, id.Version, id.RSSI), nil

	case VerbGet:
		return fmt.Sprintf("GET,%s:%s", m.Address, m.Function), nil

	case VerbSet:
		return fmt.Sprintf("SET,%s:%s,%s", m.Address, m.Function, m.Value), nil

	case VerbChange:
		return fmt.Sprintf("CHN,%s:%s,%s", m.Address, m.Function, m.Value), nil

	case VerbLimits:
		if m.Values == nil && m.Value == "" {
			return fmt.Sprintf("LIMITS:%s", m.Function), nil
		}
		return fmt.Sprintf("LIMITS:%s,%s", m.Function, FormatLimitList(m.Values)), nil

	case VerbConfig:
		if m.Value == "" {
			return fmt.Sprintf("CFG:%s", m.Function), nil
		}
		return fmt.Sprintf("CFG:%s,%s", m.Function, m.Value), nil
	}

	return "", fmt.Errorf("wmp: cannot encode verb %q", m.Verb)
}

// FormatLimitList renders a value list in bracketed comma form.
func FormatLimitList(values []string) string {
	return "[" + strings.Join(values, ",") + "]"
}
