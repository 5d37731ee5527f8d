// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 the wmpstat authors

package emulator

import (
	"math/rand"
	"sync"
	"time"

	"github.com/hvackit/wmpstat/pkg/wmp"
)

// Scheduler emits delayed CHN notifications for accepted changes.
//
// Each change gets an independent random delay: short for ordinary
// functions, up to several seconds for ONOFF. Changes arriving in one
// batch are shuffled before scheduling, because real devices deliver
// confirmations out of submission order and clients must tolerate that.
//
// A later change to a function with an undelivered notification cancels
// and replaces the pending one, so a rapid SET sequence yields one
// notification carrying the final value.
type Scheduler struct {
	mu      sync.Mutex
	rng     *rand.Rand
	send    func(data []byte)
	pending map[string]*time.Timer
	stopped bool

	minDelay      time.Duration
	maxDelay      time.Duration
	onOffMaxDelay time.Duration
}

// NewScheduler creates a scheduler delivering encoded notifications
// through send. A zero seed selects a time-based seed; tests pass a
// fixed seed to make delays and shuffle order reproducible.
func NewScheduler(seed int64, send func(data []byte)) *Scheduler {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Scheduler{
		rng:           rand.New(rand.NewSource(seed)),
		send:          send,
		pending:       make(map[string]*time.Timer),
		minDelay:      ResponseDelayMin,
		maxDelay:      ResponseDelayMax,
		onOffMaxDelay: OnOffDelayMax,
	}
}

// SetDelayBounds overrides the delay windows. Tests use tight bounds to
// keep wall-clock time down.
func (s *Scheduler) SetDelayBounds(min, max, onOffMax time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.minDelay = min
	s.maxDelay = max
	s.onOffMaxDelay = onOffMax
}

// Notify schedules delayed notifications for one batch of changes.
func (s *Scheduler) Notify(changes []Change) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}

	// Shuffle within the batch: relative order is deliberately not
	// preserved.
	shuffled := make([]Change, len(changes))
	copy(shuffled, changes)
	s.rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	for _, ch := range shuffled {
		s.scheduleLocked(ch, s.delayForLocked(ch.Function))
	}
}

// scheduleLocked arms a timer for one change, replacing any pending
// notification for the same function.
func (s *Scheduler) scheduleLocked(ch Change, delay time.Duration) {
	key := ch.Address + ":" + ch.Function
	if timer, ok := s.pending[key]; ok {
		timer.Stop()
	}

	data, err := wmp.EncodeDevice(wmp.NewChange(ch.Address, ch.Function, ch.Value))
	if err != nil {
		return
	}
	s.pending[key] = time.AfterFunc(delay, func() {
		s.mu.Lock()
		if s.stopped {
			s.mu.Unlock()
			return
		}
		delete(s.pending, key)
		s.mu.Unlock()
		s.send(data)
	})
}

// delayForLocked draws a random delay for a function.
func (s *Scheduler) delayForLocked(function string) time.Duration {
	max := s.maxDelay
	if function == wmp.FunctionOnOff {
		max = s.onOffMaxDelay
	}
	return s.minDelay + time.Duration(s.rng.Float64()*float64(max-s.minDelay))
}

// PendingCount returns the number of undelivered notifications.
func (s *Scheduler) PendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Stop cancels every pending notification. Used on connection teardown.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	for key, timer := range s.pending {
		timer.Stop()
		delete(s.pending, key)
	}
}
