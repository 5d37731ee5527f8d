// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 the wmpstat authors

package wmp

import (
	"strconv"
	"time"
)

// Message represents one decoded WMP protocol line.
//
// Which fields are populated depends on the verb: GET/SET/CHN carry an
// address and function, LIMITS a function and value list, CFG an item and
// optional value, an ID reply carries Identity. PING/PONG/ACK/ERR are bare.
type Message struct {
	Verb     string
	Address  string   // unit address for GET/SET/CHN ("1")
	Function string   // function for GET/SET/CHN/LIMITS, item for CFG
	Value    string   // SET/CHN value, CFG value, raw LIMITS value
	Values   []string // parsed LIMITS reply list

	// Identity is set for ID replies only.
	Identity *Identity

	Timestamp time.Time
}

// Identity is the payload of an ID reply:
// ID:Model,MAC,IP,Protocol,Version,RSSI
type Identity struct {
	Model    string
	MAC      string
	IP       string
	Protocol string
	Version  string
	RSSI     int
}

// FormatTenths encodes decimal degrees as the protocol's tenths-of-degree
// integer (21.5 -> "215").
func FormatTenths(degrees float64) string {
	tenths := int(degrees*10 + 0.5)
	if degrees < 0 {
		tenths = int(degrees*10 - 0.5)
	}
	return strconv.Itoa(tenths)
}

// ParseTenths decodes a tenths-of-degree integer into decimal degrees.
// The second return is false for the null sentinel or a non-numeric value.
func ParseTenths(value string) (float64, bool) {
	if value == "" || value == NullTempValue {
		return 0, false
	}
	tenths, err := strconv.Atoi(value)
	if err != nil {
		return 0, false
	}
	return float64(tenths) / 10, true
}
