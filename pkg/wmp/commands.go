// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 the wmpstat authors

package wmp

import "time"

// Command builder functions create Message structs ready for encoding.
// These ensure correct field usage per the WMP line grammar.

// NewIDRequest creates a bare ID identification request.
func NewIDRequest() *Message {
	return &Message{Verb: VerbID, Timestamp: time.Now()}
}

// NewGet creates a GET,<addr>:<function> request.
// Use FunctionWildcard to request every function for the address.
func NewGet(address, function string) *Message {
	return &Message{Verb: VerbGet, Address: address, Function: function, Timestamp: time.Now()}
}

// NewSet creates a SET,<addr>:<function>,<value> command.
func NewSet(address, function, value string) *Message {
	return &Message{Verb: VerbSet, Address: address, Function: function, Value: value, Timestamp: time.Now()}
}

// NewChange creates a CHN,<addr>:<function>,<value> notification.
func NewChange(address, function, value string) *Message {
	return &Message{Verb: VerbChange, Address: address, Function: function, Value: value, Timestamp: time.Now()}
}

// NewLimitsQuery creates a LIMITS:<function> capability query.
func NewLimitsQuery(function string) *Message {
	return &Message{Verb: VerbLimits, Function: function, Timestamp: time.Now()}
}

// NewLimitsReply creates a LIMITS:<function>,[...] capability reply.
func NewLimitsReply(function string, values []string) *Message {
	return &Message{
		Verb:      VerbLimits,
		Function:  function,
		Value:     FormatLimitList(values),
		Values:    values,
		Timestamp: time.Now(),
	}
}

// NewConfigQuery creates a CFG:<item> query.
func NewConfigQuery(item string) *Message {
	return &Message{Verb: VerbConfig, Function: item, Timestamp: time.Now()}
}

// NewConfigSet creates a CFG:<item>,<value> command.
func NewConfigSet(item, value string) *Message {
	return &Message{Verb: VerbConfig, Function: item, Value: value, Timestamp: time.Now()}
}

// NewPing creates a keepalive request.
func NewPing() *Message {
	return &Message{Verb: VerbPing, Timestamp: time.Now()}
}

// NewPong creates a keepalive reply.
func NewPong() *Message {
	return &Message{Verb: VerbPong, Timestamp: time.Now()}
}

// NewAck creates an ACK reply.
func NewAck() *Message {
	return &Message{Verb: VerbAck, Timestamp: time.Now()}
}

// NewErr creates an ERR reply.
func NewErr() *Message {
	return &Message{Verb: VerbErr, Timestamp: time.Now()}
}
