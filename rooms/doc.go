// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package rooms manages ephemeral meeting rooms: a voice channel, a
// text channel, and an access role shared by a dynamic set of members.
//
// A [Manager] owns the lifecycle. [Manager.Request] creates a room for
// an owner, or extends the owner's existing room with more members.
// [Manager.HandlePresence] consumes voice occupancy changes; when a
// room's voice channel empties, the room enters an idle countdown, and
// when anyone joins again the countdown is cancelled. If the countdown
// expires, the room is torn down: the text channel transcript is
// rendered to HTML and mailed to every member with a known contact
// address, then the role and both channels are deleted and the room is
// forgotten.
//
// Every room is mirrored to a [Store] so that [Manager.Rehydrate] can
// rebuild the registry after a restart. Rooms whose voice channel is
// empty at rehydration get a fresh full-length countdown.
//
// # Concurrency
//
// Transport events and timer firings may arrive on any goroutine. All
// reads-then-writes of one room happen under that room's lock; requests
// from one owner are serialized under the owner's lock. Lock order is
// owner, then room, then the [Scheduler]'s internal mutex. Timer
// callbacks take the room lock and then [Scheduler.Claim] the timer,
// so a countdown cancelled before its callback got the lock never
// tears anything down.
//
// The package does not talk to any chat service, database, or mail
// server directly. Callers supply a [Transport], [Store], [Directory],
// and [Mailer].
package rooms
