// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package rooms

import "context"

// deletedChannelName is what room channels are renamed to just before
// deletion, so a channel whose delete fails is visibly dead.
const deletedChannelName = "DELETED"

// teardownLocked exports the room's transcript, then releases its
// role and channels and forgets it. Every step is attempted once;
// failures are reported and never stop later steps. The owner is sent
// notice once the room is gone. Caller holds the room lock and has
// already disarmed or claimed its countdown.
func (m *Manager) teardownLocked(ctx context.Context, room Room, notice string) {
	result, err := m.exporter.Export(ctx, room)
	if err != nil {
		m.handle(ctx, err)
	}
	for _, failure := range result.Failures {
		m.handle(ctx, failure)
	}
	m.logger.Info("transcript exported",
		"room", room.Name,
		"archive_id", result.ArchiveID,
		"delivered", len(result.Delivered),
		"skipped", len(result.Skipped),
		"failed", len(result.Failures),
	)

	if err := m.transport.ResolveRole(ctx, room.Role); err != nil {
		m.handle(ctx, &Error{Kind: KindTeardownResource, Room: room.Name, Op: "resolve role", Err: err})
	} else if err := m.transport.DeleteRole(ctx, room.Role); err != nil {
		m.handle(ctx, &Error{Kind: KindTeardownResource, Room: room.Name, Op: "delete role", Err: err})
	}

	for _, channel := range []struct {
		id   ChannelID
		kind ChannelKind
	}{
		{room.VoiceChannel, ChannelVoice},
		{room.TextChannel, ChannelText},
	} {
		if err := m.transport.RenameChannel(ctx, channel.id, deletedChannelName); err != nil {
			m.handle(ctx, &Error{Kind: KindTeardownResource, Room: room.Name, Op: "rename " + channel.kind.String() + " channel", Err: err})
		}
		if err := m.transport.DeleteChannel(ctx, channel.id); err != nil {
			m.handle(ctx, &Error{Kind: KindTeardownResource, Room: room.Name, Op: "delete " + channel.kind.String() + " channel", Err: err})
		}
	}

	m.registry.Remove(room.Name)
	m.tracker.Forget(room.VoiceChannel)
	m.scheduler.Disarm(room.Name)
	m.unpersist(ctx, room.Name)

	m.logger.Info("room torn down", "room", room.Name, "owner_id", room.OwnerID)
	m.notifyMember(ctx, room.OwnerID, notice)
	m.publish(ctx, EventTeardown, room, result.ArchiveID)
}
