// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 the wmpstat authors

package client

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestObserverRegistryDelivery(t *testing.T) {
	r := newObserverRegistry(func(string, ...any) {})

	var updates int
	var got error
	r.subscribeUpdates(func() { updates++ })
	r.subscribeErrors(func(err error) { got = err })

	r.notifyUpdate()
	r.notifyUpdate()
	assert.Equal(t, 2, updates)

	want := errors.New("boom")
	r.notifyError(want)
	assert.Equal(t, want, got)
}

// A panicking subscriber must not block delivery to the others.
func TestObserverRegistryPanicIsolation(t *testing.T) {
	var logged bool
	r := newObserverRegistry(func(string, ...any) { logged = true })

	var delivered int
	r.subscribeUpdates(func() { panic("bad subscriber") })
	r.subscribeUpdates(func() { delivered++ })
	r.subscribeUpdates(func() { delivered++ })

	r.notifyUpdate()
	assert.Equal(t, 2, delivered)
	assert.True(t, logged)
}

func TestObserverRegistryUnsubscribe(t *testing.T) {
	r := newObserverRegistry(func(string, ...any) {})

	var a, b int
	ha := r.subscribeUpdates(func() { a++ })
	r.subscribeUpdates(func() { b++ })

	r.notifyUpdate()
	r.unsubscribe(ha)
	r.notifyUpdate()

	assert.Equal(t, 1, a)
	assert.Equal(t, 2, b)
}
