// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 the wmpstat authors

package client

import (
	"sync"
)

// SubscriberHandle identifies one registered subscriber for later
// removal.
type SubscriberHandle int

// observerRegistry delivers state-change and error notifications to
// registered subscribers. Delivery is defensive: a panicking subscriber
// is recovered and logged so the remaining subscribers still run.
type observerRegistry struct {
	mu      sync.Mutex
	next    SubscriberHandle
	updates map[SubscriberHandle]func()
	errors  map[SubscriberHandle]func(error)
	logf    func(format string, args ...any)
}

func newObserverRegistry(logf func(format string, args ...any)) *observerRegistry {
	return &observerRegistry{
		updates: make(map[SubscriberHandle]func()),
		errors:  make(map[SubscriberHandle]func(error)),
		logf:    logf,
	}
}

func (r *observerRegistry) subscribeUpdates(fn func()) SubscriberHandle {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.next++
	r.updates[r.next] = fn
	return r.next
}

func (r *observerRegistry) subscribeErrors(fn func(error)) SubscriberHandle {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.next++
	r.errors[r.next] = fn
	return r.next
}

func (r *observerRegistry) unsubscribe(h SubscriberHandle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.updates, h)
	delete(r.errors, h)
}

func (r *observerRegistry) notifyUpdate() {
	for _, fn := range r.updateSnapshot() {
		r.deliver(func() { fn() })
	}
}

func (r *observerRegistry) notifyError(err error) {
	for _, fn := range r.errorSnapshot() {
		r.deliver(func() { fn(err) })
	}
}

func (r *observerRegistry) updateSnapshot() []func() {
	r.mu.Lock()
	defer r.mu.Unlock()
	fns := make([]func(), 0, len(r.updates))
	for _, fn := range r.updates {
		fns = append(fns, fn)
	}
	return fns
}

func (r *observerRegistry) errorSnapshot() []func(error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fns := make([]func(error), 0, len(r.errors))
	for _, fn := range r.errors {
		fns = append(fns, fn)
	}
	return fns
}

// deliver invokes one subscriber, containing any panic.
func (r *observerRegistry) deliver(fn func()) {
	defer func() {
		if v := recover(); v != nil {
			r.logf("[CLIENT] subscriber panic: %v", v)
		}
	}()
	fn()
}
