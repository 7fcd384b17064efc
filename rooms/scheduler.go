// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package rooms

import (
	"errors"
	"sync"
	"time"

	"github.com/bureau-foundation/huddle/lib/clock"
)

// ErrInvalidDuration is returned by Scheduler.Arm for a non-positive
// duration.
var ErrInvalidDuration = errors.New("rooms: timer duration must be positive")

// Scheduler holds at most one pending deferred call per key.
//
// When a timer expires the Scheduler calls fire(key, generation) on
// the clock's goroutine without holding its own lock. The callback is
// expected to take whatever lock guards key and then call Claim: if
// the key was disarmed or re-armed in the meantime, Claim returns false
// and the firing must be dropped. This is what makes Disarm safe to
// call concurrently with an expiring timer.
type Scheduler struct {
	clock clock.Clock
	fire  func(key string, generation uint64)

	mu         sync.Mutex
	pending    map[string]*pendingTimer
	generation uint64
	stopped    bool
}

type pendingTimer struct {
	generation uint64
	deadline   time.Time
	timer      *clock.Timer
}

// NewScheduler returns a Scheduler that calls fire when a timer
// expires.
func NewScheduler(clk clock.Clock, fire func(key string, generation uint64)) *Scheduler {
	return &Scheduler{
		clock:   clk,
		fire:    fire,
		pending: make(map[string]*pendingTimer),
	}
}

// Arm schedules a firing for key after d, replacing any pending timer
// for key. Returns the new timer's generation.
func (s *Scheduler) Arm(key string, d time.Duration) (uint64, error) {
	if d <= 0 {
		return 0, ErrInvalidDuration
	}

	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return 0, errors.New("rooms: scheduler stopped")
	}
	if existing, ok := s.pending[key]; ok {
		existing.timer.Stop()
		delete(s.pending, key)
	}
	s.generation++
	generation := s.generation
	entry := &pendingTimer{
		generation: generation,
		deadline:   s.clock.Now().Add(d),
	}
	s.pending[key] = entry
	s.mu.Unlock()

	// AfterFunc is called without s.mu held: the fake clock may run
	// callbacks synchronously and the callback re-enters Claim.
	timer := s.clock.AfterFunc(d, func() { s.fire(key, generation) })

	s.mu.Lock()
	defer s.mu.Unlock()
	if current, ok := s.pending[key]; ok && current == entry {
		entry.timer = timer
	} else {
		// Disarmed or re-armed before we got the handle back.
		timer.Stop()
	}
	return generation, nil
}

// Disarm cancels the pending timer for key. Returns false if nothing
// was armed.
func (s *Scheduler) Disarm(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.pending[key]
	if !ok {
		return false
	}
	if entry.timer != nil {
		entry.timer.Stop()
	}
	delete(s.pending, key)
	return true
}

// Claim consumes the pending entry for key if it is still the timer
// identified by generation. A true result means the caller owns this
// firing; false means the firing is stale.
func (s *Scheduler) Claim(key string, generation uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.pending[key]
	if !ok || entry.generation != generation {
		return false
	}
	delete(s.pending, key)
	return true
}

// Armed reports whether key has a pending timer.
func (s *Scheduler) Armed(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.pending[key]
	return ok
}

// Deadline returns when key's pending timer is due.
func (s *Scheduler) Deadline(key string) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.pending[key]
	if !ok {
		return time.Time{}, false
	}
	return entry.deadline, true
}

// Len returns the number of pending timers.
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Stop cancels every pending timer. Subsequent Arm calls fail.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, entry := range s.pending {
		if entry.timer != nil {
			entry.timer.Stop()
		}
		delete(s.pending, key)
	}
	s.stopped = true
}
