// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package rooms

import (
	"context"
	"fmt"
	"slices"
)

// RehydrateResult counts what Rehydrate did with the stored records.
type RehydrateResult struct {
	// Restored rooms are back in the registry.
	Restored int

	// Skipped records could not be decoded or resolved. They stay in
	// the store.
	Skipped int

	// Armed rooms had an empty voice channel and got a fresh idle
	// countdown.
	Armed int
}

// Rehydrate rebuilds the registry from the store. Call it once after
// NewManager, before presence changes are fed in.
//
// Each record's channels and role are resolved on the transport. A
// record that does not decode or whose resources no longer exist is
// reported as a KindResolution error and left in the store for an
// operator; Rehydrate itself fails only when the store cannot be read.
// A restored room with an empty voice channel starts a full-length
// idle countdown, regardless of how long it had been idle before the
// restart, and its owner is told.
func (m *Manager) Rehydrate(ctx context.Context) (RehydrateResult, error) {
	var result RehydrateResult

	records, err := m.store.ListAll(ctx, m.collection)
	if err != nil {
		return result, &Error{Kind: KindPersistence, Op: "list rooms", Err: err}
	}

	names := make([]string, 0, len(records))
	for name := range records {
		names = append(names, name)
	}
	slices.Sort(names)

	for _, name := range names {
		restored, armed, err := m.rehydrateOne(ctx, name, records[name])
		if err != nil {
			m.handle(ctx, err)
			result.Skipped++
			continue
		}
		if restored {
			result.Restored++
		}
		if armed {
			result.Armed++
		}
	}

	m.logger.Info("rooms rehydrated",
		"collection", m.collection,
		"restored", result.Restored,
		"skipped", result.Skipped,
		"armed", result.Armed,
	)
	return result, nil
}

func (m *Manager) rehydrateOne(ctx context.Context, name string, data []byte) (restored, armed bool, err error) {
	room, err := DecodeRecord(data)
	if err != nil {
		return false, false, &Error{Kind: KindResolution, Room: name, Op: "decode record", Err: err}
	}
	// The key is authoritative: purge and lookup both go by it.
	room.Name = name

	unlockOwner := m.locks.Lock(ownerKey(room.OwnerID))
	defer unlockOwner()

	if _, ok := m.registry.Get(name); ok {
		return false, false, nil
	}
	if other, ok := m.registry.GetByOwner(room.OwnerID); ok {
		return false, false, &Error{
			Kind: KindResolution, Room: name, Op: "restore room",
			Err: fmt.Errorf("owner %s already has room %s", room.OwnerID, other.Name),
		}
	}

	voice, err := m.transport.ResolveChannel(ctx, room.VoiceChannel)
	if err != nil {
		return false, false, &Error{Kind: KindResolution, Room: name, Op: "resolve voice channel", Err: err}
	}
	if _, err := m.transport.ResolveChannel(ctx, room.TextChannel); err != nil {
		return false, false, &Error{Kind: KindResolution, Room: name, Op: "resolve text channel", Err: err}
	}
	if err := m.transport.ResolveRole(ctx, room.Role); err != nil {
		return false, false, &Error{Kind: KindResolution, Room: name, Op: "resolve role", Err: err}
	}
	if room.CreatedAt.IsZero() {
		room.CreatedAt = voice.CreatedAt
	}

	unlock := m.locks.Lock(roomKey(name))
	defer unlock()

	m.registry.Put(room)
	// Presence changes before Put were dropped; later ones wait on the
	// room lock. Read the count again so the seed covers both.
	occupancy := voice.Occupancy
	if info, err := m.transport.ResolveChannel(ctx, room.VoiceChannel); err != nil {
		m.logger.Warn("rereading voice occupancy of restored room failed",
			"room", name,
			"error", err,
		)
	} else {
		occupancy = info.Occupancy
	}
	m.tracker.Seed(room.VoiceChannel, occupancy)
	if occupancy == 0 && m.arm(ctx, room) {
		armed = true
		m.notifyMember(ctx, room.OwnerID, idleOwnerNotice(room.Name, m.idleTimeout))
	}
	m.logger.Info("room restored",
		"room", name,
		"owner_id", room.OwnerID,
		"occupancy", occupancy,
		"armed", armed,
	)
	return true, armed, nil
}

// persist mirrors room to the store. Caller holds the room lock. A
// failed write is reported; the registry stays authoritative.
func (m *Manager) persist(ctx context.Context, room Room) {
	data, err := EncodeRecord(room)
	if err == nil {
		err = m.store.Put(ctx, m.collection, room.Name, data)
	}
	if err != nil {
		m.handle(ctx, &Error{Kind: KindPersistence, Room: room.Name, Op: "write record", Err: err})
	}
}

// unpersist removes name's record. Caller holds the room lock.
func (m *Manager) unpersist(ctx context.Context, name string) {
	if err := m.store.Delete(ctx, m.collection, name); err != nil {
		m.handle(ctx, &Error{Kind: KindPersistence, Room: name, Op: "delete record", Err: err})
	}
}
