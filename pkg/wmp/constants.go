// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 the wmpstat authors

// Package wmp provides a Go implementation of the WMP line protocol codec.
//
// WMP is an ASCII, line-oriented control protocol spoken by HVAC gateway
// devices. This package provides line parsing and formatting, typed
// messages, and the function/mode vocabulary shared by the client engine
// and the device emulator.
package wmp

// Protocol verbs
const (
	VerbID     = "ID"
	VerbGet    = "GET"
	VerbSet    = "SET"
	VerbChange = "CHN"
	VerbLimits = "LIMITS"
	VerbConfig = "CFG"
	VerbPing   = "PING"
	VerbPong   = "PONG"
	VerbAck    = "ACK"
	VerbErr    = "ERR"
)

// Line terminators. Commands travel to the device terminated with a bare
// carriage return; the device answers with CRLF.
const (
	TerminatorClient = "\r"
	TerminatorDevice = "\r\n"
)

// Function identifiers
const (
	FunctionOnOff         = "ONOFF"
	FunctionMode          = "MODE"
	FunctionSetpoint      = "SETPTEMP"
	FunctionFanSpeed      = "FANSP"
	FunctionVaneUpDown    = "VANEUD"
	FunctionVaneLeftRight = "VANELR"
	FunctionAmbientTemp   = "AMBTEMP"
	FunctionErrorStatus   = "ERRSTATUS"
	FunctionErrorCode     = "ERRCODE"
)

// FunctionWildcard on a GET requests every function for an address.
const FunctionWildcard = "*"

// Operation modes
const (
	ModeAuto = "AUTO"
	ModeHeat = "HEAT"
	ModeDry  = "DRY"
	ModeFan  = "FAN"
	ModeCool = "COOL"
)

// Power values
const (
	PowerOn  = "ON"
	PowerOff = "OFF"
)

// Config items
const (
	ConfigDateTime = "DATETIME"
)

// DateTimeLayout is the wire format of CFG:DATETIME values
// (DD/MM/YYYY HH:MM:SS).
const DateTimeLayout = "02/01/2006 15:04:05"

// DefaultAddress is the single managed unit address.
const DefaultAddress = "1"

// NullTempValue is the device's sentinel for "no reading" on temperature
// functions. It is translated to an absent value, never stored literally.
const NullTempValue = "32768"

// writableFunctions is the set of functions a SET may target.
var writableFunctions = map[string]bool{
	FunctionOnOff:         true,
	FunctionMode:          true,
	FunctionSetpoint:      true,
	FunctionVaneLeftRight: true,
	FunctionVaneUpDown:    true,
	FunctionFanSpeed:      true,
}

// IsWritable reports whether a function accepts SET commands.
func IsWritable(function string) bool {
	return writableFunctions[function]
}

// IsNullTemp reports whether a value is the null sentinel for a
// temperature-valued function.
func IsNullTemp(function, value string) bool {
	return (function == FunctionSetpoint || function == FunctionAmbientTemp) &&
		value == NullTempValue
}
