// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package rooms

import (
	"context"
	"log/slog"
	"time"

	"github.com/bureau-foundation/huddle/lib/clock"
)

// Provisioner allocates the role and channels of new rooms and grants
// the role to members. It reserves names in the Registry but never
// stores provisioned rooms there; that is the Manager's job, so that
// the store write and the registry insert share a critical section.
type Provisioner struct {
	transport     Transport
	registry      *Registry
	clock         clock.Clock
	category      ChannelID
	everyoneGroup string
	idleTimeout   time.Duration
	logger        *slog.Logger
}

// Create provisions a room for owner. The role is granted to owner and
// to each initial member; members whose grant fails are logged and
// left out of the returned room. Any failure to create the role or a
// channel, or to grant the role to the owner, aborts the creation:
// the name reservation is released, every resource created so far is
// deleted best-effort, and a KindProvisioning error is returned.
func (p *Provisioner) Create(ctx context.Context, owner Member, initial []MemberID) (Room, error) {
	name := p.registry.Reserve(ownerLabel(owner), owner.ID)

	room := Room{
		Name:      name,
		OwnerID:   owner.ID,
		Members:   []MemberID{owner.ID},
		CreatedAt: p.clock.Now(),
	}

	var cleanup []func(context.Context)
	abort := func(op string, err error) (Room, error) {
		for i := len(cleanup) - 1; i >= 0; i-- {
			cleanup[i](context.WithoutCancel(ctx))
		}
		p.registry.Release(name)
		return Room{}, &Error{Kind: KindProvisioning, Room: name, Op: op, Err: err}
	}

	role, err := p.transport.CreateRole(ctx, name)
	if err != nil {
		return abort("create role", err)
	}
	room.Role = role
	cleanup = append(cleanup, func(ctx context.Context) {
		if err := p.transport.DeleteRole(ctx, role); err != nil {
			p.logger.Warn("cleanup of role failed", "room", name, "role", role, "error", err)
		}
	})

	voice, err := p.transport.CreateChannel(ctx, ChannelSpec{
		Kind:   ChannelVoice,
		Name:   name,
		Parent: p.category,
		Overwrites: []Overwrite{
			{Subject: string(role), Visible: true},
		},
	})
	if err != nil {
		return abort("create voice channel", err)
	}
	room.VoiceChannel = voice
	cleanup = append(cleanup, p.deleteChannelFunc(name, voice))

	text, err := p.transport.CreateChannel(ctx, ChannelSpec{
		Kind:       ChannelText,
		Name:       name,
		Parent:     p.category,
		Overwrites: p.textOverwrites(role),
	})
	if err != nil {
		return abort("create text channel", err)
	}
	room.TextChannel = text
	cleanup = append(cleanup, p.deleteChannelFunc(name, text))

	if err := p.transport.GrantRole(ctx, owner.ID, role); err != nil {
		return abort("grant role to owner", err)
	}

	for _, line := range bannerLines(p.idleTimeout) {
		if err := p.transport.SendToChannel(ctx, text, line); err != nil {
			p.logger.Warn("posting channel banner failed", "room", name, "error", err)
			break
		}
	}

	room, _ = p.grant(ctx, room, initial)
	return room, nil
}

// Extend grants the room's role to each of members not already in the
// room and returns the updated room along with the members actually
// added. Members already present are skipped, so repeating a call is a
// no-op. A failed grant leaves that member out and is logged.
func (p *Provisioner) Extend(ctx context.Context, room Room, members []MemberID) (Room, []MemberID) {
	return p.grant(ctx, room.clone(), members)
}

func (p *Provisioner) grant(ctx context.Context, room Room, members []MemberID) (Room, []MemberID) {
	var added []MemberID
	for _, member := range members {
		if member == "" || room.HasMember(member) {
			continue
		}
		if err := p.transport.GrantRole(ctx, member, room.Role); err != nil {
			p.logger.Warn("granting room role failed",
				"room", room.Name,
				"member", member,
				"error", err,
			)
			continue
		}
		room.Members = append(room.Members, member)
		added = append(added, member)
	}
	return room, added
}

func (p *Provisioner) textOverwrites(role RoleID) []Overwrite {
	var overwrites []Overwrite
	if p.everyoneGroup != "" {
		overwrites = append(overwrites, Overwrite{Subject: p.everyoneGroup, Visible: false})
	}
	return append(overwrites, Overwrite{Subject: string(role), Visible: true})
}

func (p *Provisioner) deleteChannelFunc(name string, channel ChannelID) func(context.Context) {
	return func(ctx context.Context) {
		if err := p.transport.DeleteChannel(ctx, channel); err != nil {
			p.logger.Warn("cleanup of channel failed", "room", name, "channel", channel, "error", err)
		}
	}
}

// ownerLabel is the name rooms are derived from: the owner's display
// name, or the account name for members without one.
func ownerLabel(owner Member) string {
	if owner.DisplayName != "" {
		return owner.DisplayName
	}
	if owner.Username != "" {
		return owner.Username
	}
	return string(owner.ID)
}
