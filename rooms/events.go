// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package rooms

import (
	"context"
	"time"
)

// Lifecycle event types passed to Publisher.Publish.
const (
	EventCreated  = "created"
	EventExtended = "extended"
	EventIdle     = "idle"
	EventActive   = "active"
	EventTeardown = "teardown"
)

// Event is the payload of every lifecycle event.
type Event struct {
	Type    string     `json:"type"`
	Room    string     `json:"room"`
	Owner   MemberID   `json:"owner_id"`
	Members []MemberID `json:"members"`
	At      time.Time  `json:"at"`

	// ArchiveID is set on teardown events.
	ArchiveID string `json:"archive_id,omitempty"`
}

func (m *Manager) publish(ctx context.Context, eventType string, room Room, archiveID string) {
	if m.publisher == nil {
		return
	}
	event := Event{
		Type:      eventType,
		Room:      room.Name,
		Owner:     room.OwnerID,
		Members:   room.clone().Members,
		At:        m.clock.Now(),
		ArchiveID: archiveID,
	}
	if err := m.publisher.Publish(ctx, eventType, event); err != nil {
		m.logger.Warn("publishing room event failed",
			"room", room.Name,
			"event", eventType,
			"error", err,
		)
	}
}
