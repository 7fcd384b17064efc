// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package rooms

import (
	"context"
	"time"
)

// MemberID identifies a community member on the chat transport.
type MemberID string

// ChannelID is an opaque handle to a transport channel.
type ChannelID string

// RoleID is an opaque handle to a transport role.
type RoleID string

// ChannelKind distinguishes voice from text channels.
type ChannelKind int

const (
	ChannelVoice ChannelKind = iota
	ChannelText
)

func (k ChannelKind) String() string {
	switch k {
	case ChannelVoice:
		return "voice"
	case ChannelText:
		return "text"
	default:
		return "unknown"
	}
}

// Overwrite sets channel visibility for one role or group.
type Overwrite struct {
	// Subject is a role or group identifier.
	Subject string
	Visible bool
}

// ChannelSpec describes a channel to create.
type ChannelSpec struct {
	Kind       ChannelKind
	Name       string
	Parent     ChannelID
	Overwrites []Overwrite
}

// ChannelInfo is the live state of a channel.
type ChannelInfo struct {
	ID ChannelID

	// Occupancy is the number of members connected to a voice
	// channel. Always zero for text channels.
	Occupancy int

	CreatedAt time.Time
}

// Member is a resolved community member.
type Member struct {
	ID MemberID

	// DisplayName is the member's server nickname. Empty for members
	// who have not been verified.
	DisplayName string

	// Username is the account name, always present.
	Username string
}

// Attachment is a file attached to a message.
type Attachment struct {
	Name string
	URL  string
}

// HistoryMessage is one message from a text channel's history.
type HistoryMessage struct {
	Author      MemberID
	Text        string
	Attachments []Attachment
	SentAt      time.Time
}

// PresenceChange reports that Delta members joined (positive) or left
// (negative) a voice channel. A member moving between two channels is
// reported as two changes.
type PresenceChange struct {
	Channel ChannelID
	Delta   int
}

// Mail is one transcript message.
type Mail struct {
	// From is empty when the Mailer supplies its own sender.
	From    string
	To      string
	Subject string
	HTML    string
}

// Transport is the chat service the rooms live on. Implementations
// must be safe for concurrent use.
type Transport interface {
	CreateRole(ctx context.Context, name string) (RoleID, error)
	GrantRole(ctx context.Context, member MemberID, role RoleID) error
	DeleteRole(ctx context.Context, role RoleID) error

	// ResolveRole returns an error if the role no longer exists.
	ResolveRole(ctx context.Context, role RoleID) error

	CreateChannel(ctx context.Context, spec ChannelSpec) (ChannelID, error)
	RenameChannel(ctx context.Context, channel ChannelID, name string) error
	DeleteChannel(ctx context.Context, channel ChannelID) error

	// ResolveChannel returns the channel's live state, or an error if
	// the channel no longer exists.
	ResolveChannel(ctx context.Context, channel ChannelID) (ChannelInfo, error)

	// FetchHistory returns every message in a text channel, newest
	// first.
	FetchHistory(ctx context.Context, channel ChannelID) ([]HistoryMessage, error)

	ResolveMember(ctx context.Context, member MemberID) (Member, error)
	SendDirect(ctx context.Context, member MemberID, text string) error
	SendToChannel(ctx context.Context, channel ChannelID, text string) error
}

// Store persists room records. lib/recordstore backends satisfy it.
type Store interface {
	Put(ctx context.Context, collection, key string, data []byte) error
	Delete(ctx context.Context, collection, key string) error
	ListAll(ctx context.Context, collection string) (map[string][]byte, error)
}

// Directory maps members to mail addresses.
type Directory interface {
	// ResolveContactAddress returns the member's address, or false if
	// the member has none.
	ResolveContactAddress(ctx context.Context, member MemberID) (string, bool, error)
}

// DirectoryFunc adapts a function to Directory.
type DirectoryFunc func(ctx context.Context, member MemberID) (string, bool, error)

func (f DirectoryFunc) ResolveContactAddress(ctx context.Context, member MemberID) (string, bool, error) {
	return f(ctx, member)
}

// Mailer delivers transcript mail.
type Mailer interface {
	Send(ctx context.Context, mail Mail) error
}

// Publisher receives lifecycle events. lib/roomevents satisfies it.
type Publisher interface {
	Publish(ctx context.Context, eventType string, payload any) error
}
