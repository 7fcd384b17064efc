// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package rooms

import (
	"errors"
	"fmt"
	"slices"
	"testing"
	"time"

	"github.com/bureau-foundation/huddle/lib/codec"
)

func TestRoomName(t *testing.T) {
	if got := RoomName("Alice", 3); got != "Alices_room_3" {
		t.Fatalf("RoomName = %q", got)
	}
}

func TestRecordRoundTrip(t *testing.T) {
	room := Room{
		Name:         "alices_room_1",
		OwnerID:      "alice",
		Members:      []MemberID{"alice", "bob"},
		VoiceChannel: "voice-1",
		TextChannel:  "text-2",
		Role:         "role-3",
		CreatedAt:    time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	data, err := EncodeRecord(room)
	if err != nil {
		t.Fatalf("EncodeRecord: %v", err)
	}
	decoded, err := DecodeRecord(data)
	if err != nil {
		t.Fatalf("DecodeRecord: %v", err)
	}
	if decoded.Name != room.Name || decoded.OwnerID != room.OwnerID ||
		decoded.VoiceChannel != room.VoiceChannel || decoded.TextChannel != room.TextChannel ||
		decoded.Role != room.Role || !decoded.CreatedAt.Equal(room.CreatedAt) ||
		!slices.Equal(decoded.Members, room.Members) {
		t.Fatalf("round trip = %+v, want %+v", decoded, room)
	}
}

func TestDecodeRecordWireNames(t *testing.T) {
	// Records written before created_at_ms existed, with the owner
	// missing from members and a duplicate member.
	data, err := codec.Marshal(map[string]any{
		"name":     "bobs_room_2",
		"owner_id": "bob",
		"members":  []string{"carol", "carol"},
		"voice":    "v",
		"chat":     "c",
		"role":     "r",
	})
	if err != nil {
		t.Fatal(err)
	}
	room, err := DecodeRecord(data)
	if err != nil {
		t.Fatalf("DecodeRecord: %v", err)
	}
	if !slices.Equal(room.Members, []MemberID{"bob", "carol"}) {
		t.Errorf("Members = %v, want [bob carol]", room.Members)
	}
	if room.VoiceChannel != "v" || room.TextChannel != "c" || room.Role != "r" {
		t.Errorf("handles = %s %s %s", room.VoiceChannel, room.TextChannel, room.Role)
	}
	if !room.CreatedAt.IsZero() {
		t.Errorf("CreatedAt = %v, want zero", room.CreatedAt)
	}
}

func TestDecodeRecordRejects(t *testing.T) {
	if _, err := DecodeRecord([]byte{0xff, 0x00}); err == nil {
		t.Error("garbage decoded without error")
	}
	data, _ := codec.Marshal(map[string]any{"name": "x"})
	if _, err := DecodeRecord(data); err == nil {
		t.Error("record without owner decoded without error")
	}
}

func TestErrorMatching(t *testing.T) {
	cause := errors.New("HTTP 403")
	err := fmt.Errorf("creating room: %w", &Error{
		Kind: KindProvisioning, Room: "r", Op: "create role", Err: cause,
	})

	if !errors.Is(err, ErrProvisioning) {
		t.Error("errors.Is(err, ErrProvisioning) = false")
	}
	if errors.Is(err, ErrDelivery) {
		t.Error("errors.Is(err, ErrDelivery) = true")
	}
	if !errors.Is(err, cause) {
		t.Error("cause not reachable through Unwrap")
	}
	var roomErr *Error
	if !errors.As(err, &roomErr) || roomErr.Op != "create role" {
		t.Errorf("errors.As = %v", roomErr)
	}

	want := "rooms: delivery failure: r (bob): mail transcript: HTTP 403"
	got := (&Error{Kind: KindDelivery, Room: "r", Op: "mail transcript", Member: "bob", Err: cause}).Error()
	if got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}
