// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package rooms

import "sync"

// State is a room's presence state.
type State int

const (
	// StateActive: at least one member is in the voice channel, or
	// the room has not yet been observed empty.
	StateActive State = iota

	// StateIdleCountdown: the voice channel is empty and a teardown
	// timer is armed.
	StateIdleCountdown
)

func (s State) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateIdleCountdown:
		return "idle"
	default:
		return "unknown"
	}
}

// Transition is the edge a presence change produced.
type Transition int

const (
	// TransitionNone: occupancy changed without crossing zero.
	TransitionNone Transition = iota

	// TransitionIdle: occupancy dropped to zero.
	TransitionIdle

	// TransitionActive: occupancy rose from zero.
	TransitionActive
)

func (t Transition) String() string {
	switch t {
	case TransitionIdle:
		return "idle"
	case TransitionActive:
		return "active"
	default:
		return "none"
	}
}

// PresenceTracker counts voice channel occupants for tracked channels
// and reports when a count crosses zero. It knows nothing about rooms
// or timers.
type PresenceTracker struct {
	mu        sync.Mutex
	occupancy map[ChannelID]int
}

// NewPresenceTracker returns an empty tracker.
func NewPresenceTracker() *PresenceTracker {
	return &PresenceTracker{occupancy: make(map[ChannelID]int)}
}

// Seed starts tracking channel at the given occupancy, replacing any
// previous count. Negative counts are stored as zero.
func (p *PresenceTracker) Seed(channel ChannelID, occupancy int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.occupancy[channel] = max(occupancy, 0)
}

// Forget stops tracking channel.
func (p *PresenceTracker) Forget(channel ChannelID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.occupancy, channel)
}

// Occupancy returns the tracked count for channel.
func (p *PresenceTracker) Occupancy(channel ChannelID) (int, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	count, ok := p.occupancy[channel]
	return count, ok
}

// Observe applies delta to channel's count. The second result is false
// if the channel is not tracked, in which case nothing changes. The
// count never goes below zero: a leave reported for a member the
// tracker never saw join is absorbed.
func (p *PresenceTracker) Observe(channel ChannelID, delta int) (Transition, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	before, ok := p.occupancy[channel]
	if !ok {
		return TransitionNone, false
	}
	after := max(before+delta, 0)
	p.occupancy[channel] = after
	return transition(before, after), true
}

// Reconcile replaces channel's count with occupancy as read from the
// chat service and reports the transition from the previous count.
// The second result is false if the channel is not tracked.
func (p *PresenceTracker) Reconcile(channel ChannelID, occupancy int) (Transition, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	before, ok := p.occupancy[channel]
	if !ok {
		return TransitionNone, false
	}
	after := max(occupancy, 0)
	p.occupancy[channel] = after
	return transition(before, after), true
}

func transition(before, after int) Transition {
	switch {
	case before > 0 && after == 0:
		return TransitionIdle
	case before == 0 && after > 0:
		return TransitionActive
	default:
		return TransitionNone
	}
}
