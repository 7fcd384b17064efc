// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package rooms

import (
	"fmt"
	"slices"
	"time"

	"github.com/bureau-foundation/huddle/lib/codec"
)

// Room is an active meeting room. Values returned by the Registry and
// Manager are copies; mutating them has no effect.
type Room struct {
	// Name is "{owner display name}s_room_{n}". Immutable.
	Name string

	OwnerID MemberID

	// Members always includes OwnerID, first.
	Members []MemberID

	VoiceChannel ChannelID
	TextChannel  ChannelID
	Role         RoleID

	CreatedAt time.Time
}

// HasMember reports whether id is a member of the room.
func (r Room) HasMember(id MemberID) bool {
	return slices.Contains(r.Members, id)
}

func (r Room) clone() Room {
	r.Members = slices.Clone(r.Members)
	return r
}

// roomRecord is the stored form of a Room. The field names match the
// records the bot has always written ("voice", "chat", "role"), so
// existing stores rehydrate unchanged.
type roomRecord struct {
	Name      string   `cbor:"name"`
	OwnerID   string   `cbor:"owner_id"`
	Members   []string `cbor:"members"`
	Voice     string   `cbor:"voice"`
	Chat      string   `cbor:"chat"`
	Role      string   `cbor:"role"`
	CreatedAt int64    `cbor:"created_at_ms,omitempty"`
}

// EncodeRecord returns the stored form of room.
func EncodeRecord(room Room) ([]byte, error) {
	record := roomRecord{
		Name:    room.Name,
		OwnerID: string(room.OwnerID),
		Voice:   string(room.VoiceChannel),
		Chat:    string(room.TextChannel),
		Role:    string(room.Role),
	}
	for _, member := range room.Members {
		record.Members = append(record.Members, string(member))
	}
	if !room.CreatedAt.IsZero() {
		record.CreatedAt = room.CreatedAt.UnixMilli()
	}
	data, err := codec.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("rooms: encoding %s: %w", room.Name, err)
	}
	return data, nil
}

// DecodeRecord parses a stored room. The owner is added to Members if
// the record omitted it.
func DecodeRecord(data []byte) (Room, error) {
	var record roomRecord
	if err := codec.Unmarshal(data, &record); err != nil {
		return Room{}, fmt.Errorf("rooms: decoding record: %w", err)
	}
	if record.OwnerID == "" {
		return Room{}, fmt.Errorf("rooms: record %q has no owner", record.Name)
	}

	room := Room{
		Name:         record.Name,
		OwnerID:      MemberID(record.OwnerID),
		VoiceChannel: ChannelID(record.Voice),
		TextChannel:  ChannelID(record.Chat),
		Role:         RoleID(record.Role),
	}
	if record.CreatedAt != 0 {
		room.CreatedAt = time.UnixMilli(record.CreatedAt).UTC()
	}
	room.Members = append(room.Members, room.OwnerID)
	for _, member := range record.Members {
		if id := MemberID(member); !room.HasMember(id) {
			room.Members = append(room.Members, id)
		}
	}
	return room, nil
}

// RoomName returns the n-th candidate name for an owner display name.
func RoomName(displayName string, n int) string {
	return fmt.Sprintf("%ss_room_%d", displayName, n)
}
