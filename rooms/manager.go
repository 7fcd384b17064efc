// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package rooms

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/bureau-foundation/huddle/lib/clock"
)

// DefaultCollection is the store collection rooms are mirrored to.
const DefaultCollection = "active_meetings"

// DefaultMailSubjectPrefix starts every transcript subject line.
const DefaultMailSubjectPrefix = "Meeting Room"

// Config holds the collaborators and settings for a Manager.
type Config struct {
	// Transport is the chat service. Required.
	Transport Transport

	// Store mirrors rooms across restarts. Required.
	Store Store

	// Directory and Mailer deliver transcripts. If either is nil,
	// transcripts are rendered but not mailed.
	Directory Directory
	Mailer    Mailer

	// Publisher receives lifecycle events. Optional.
	Publisher Publisher

	// Reporter receives every handled error. Optional.
	Reporter Reporter

	// Clock defaults to clock.Real().
	Clock clock.Clock

	Logger *slog.Logger

	// IdleTimeout is how long a room's voice channel may stay empty
	// before the room is torn down. Required.
	IdleTimeout time.Duration

	// CategoryID is the parent of every room channel.
	CategoryID ChannelID

	// EveryoneGroup is hidden from room text channels.
	EveryoneGroup string

	// Collection defaults to DefaultCollection.
	Collection string

	// ArmOnCreate starts the idle countdown for a new room whose
	// voice channel is empty, instead of waiting for the first
	// member to join and leave.
	ArmOnCreate bool

	// MailFrom is the sender of transcript mail.
	MailFrom string

	// MailSubjectPrefix defaults to DefaultMailSubjectPrefix.
	MailSubjectPrefix string
}

// Manager owns the lifecycle of every room in the process. Create it
// with NewManager, call Rehydrate once at startup, then feed it
// requests and presence changes from any goroutine.
type Manager struct {
	transport   Transport
	store       Store
	publisher   Publisher
	reporter    Reporter
	clock       clock.Clock
	logger      *slog.Logger
	idleTimeout time.Duration
	collection  string
	armOnCreate bool

	registry    *Registry
	tracker     *PresenceTracker
	scheduler   *Scheduler
	provisioner *Provisioner
	exporter    *Exporter
	locks       *keyedMutex

	closed atomic.Bool
}

// NewManager validates config and returns a Manager with an empty
// registry.
func NewManager(config Config) (*Manager, error) {
	if config.Transport == nil {
		return nil, errors.New("rooms: Config.Transport is required")
	}
	if config.Store == nil {
		return nil, errors.New("rooms: Config.Store is required")
	}
	if config.IdleTimeout <= 0 {
		return nil, fmt.Errorf("rooms: Config.IdleTimeout must be positive, got %s", config.IdleTimeout)
	}
	if config.Clock == nil {
		config.Clock = clock.Real()
	}
	if config.Logger == nil {
		config.Logger = slog.New(slog.DiscardHandler)
	}
	if config.Collection == "" {
		config.Collection = DefaultCollection
	}
	if config.MailSubjectPrefix == "" {
		config.MailSubjectPrefix = DefaultMailSubjectPrefix
	}

	manager := &Manager{
		transport:   config.Transport,
		store:       config.Store,
		publisher:   config.Publisher,
		reporter:    config.Reporter,
		clock:       config.Clock,
		logger:      config.Logger,
		idleTimeout: config.IdleTimeout,
		collection:  config.Collection,
		armOnCreate: config.ArmOnCreate,
		registry:    NewRegistry(),
		tracker:     NewPresenceTracker(),
		locks:       newKeyedMutex(),
	}
	manager.scheduler = NewScheduler(config.Clock, manager.onTimerFire)
	manager.provisioner = &Provisioner{
		transport:     config.Transport,
		registry:      manager.registry,
		clock:         config.Clock,
		category:      config.CategoryID,
		everyoneGroup: config.EveryoneGroup,
		idleTimeout:   config.IdleTimeout,
		logger:        config.Logger,
	}
	directory := config.Directory
	if directory == nil || config.Mailer == nil {
		directory = noDirectory{}
	}
	manager.exporter = &Exporter{
		transport:     config.Transport,
		directory:     directory,
		mailer:        config.Mailer,
		clock:         config.Clock,
		from:          config.MailFrom,
		subjectPrefix: config.MailSubjectPrefix,
		logger:        config.Logger,
	}
	return manager, nil
}

// noDirectory resolves no addresses, so the exporter skips every
// member without touching its mailer.
type noDirectory struct{}

func (noDirectory) ResolveContactAddress(context.Context, MemberID) (string, bool, error) {
	return "", false, nil
}

// Request handles a room request from owner mentioning members. If the
// owner has no room, one is created with the mentioned members;
// otherwise the mentioned members are added to the existing room.
// Concurrent requests from one owner are serialized, so the second of
// two simultaneous requests always extends the room the first created.
func (m *Manager) Request(ctx context.Context, owner MemberID, members []MemberID) (Room, error) {
	if m.closed.Load() {
		return Room{}, errors.New("rooms: manager closed")
	}
	unlockOwner := m.locks.Lock(ownerKey(owner))
	defer unlockOwner()

	if existing, ok := m.registry.GetByOwner(owner); ok {
		if room, extended := m.extend(ctx, existing.Name, members); extended {
			return room, nil
		}
		// Torn down between the lookup and the room lock; the owner
		// gets a fresh room.
	}
	return m.create(ctx, owner, members)
}

func (m *Manager) extend(ctx context.Context, name string, members []MemberID) (Room, bool) {
	unlock := m.locks.Lock(roomKey(name))
	defer unlock()

	room, ok := m.registry.Get(name)
	if !ok {
		return Room{}, false
	}
	updated, added := m.provisioner.Extend(ctx, room, members)
	if len(added) == 0 {
		return updated, true
	}
	m.registry.Put(updated)
	m.persist(ctx, updated)

	m.logger.Info("room extended",
		"room", updated.Name,
		"owner_id", updated.OwnerID,
		"added", len(added),
		"members", len(updated.Members),
	)
	ownerName := m.memberLabel(ctx, updated.OwnerID)
	for _, member := range added {
		m.notifyMember(ctx, member, addedNotice(updated.Name, ownerName))
	}
	m.publish(ctx, EventExtended, updated, "")
	return updated, true
}

func (m *Manager) create(ctx context.Context, ownerID MemberID, members []MemberID) (Room, error) {
	owner, err := m.transport.ResolveMember(ctx, ownerID)
	if err != nil {
		err = &Error{Kind: KindResolution, Op: "resolve owner", Member: ownerID, Err: err}
		m.handle(ctx, err)
		m.notifyMember(ctx, ownerID, failedNotice())
		return Room{}, err
	}

	room, err := m.provisioner.Create(ctx, owner, members)
	if err != nil {
		m.handle(ctx, err)
		m.notifyMember(ctx, ownerID, failedNotice())
		return Room{}, err
	}

	unlock := m.locks.Lock(roomKey(room.Name))
	m.registry.Put(room)
	m.persist(ctx, room)

	// Members may have joined the voice channel before the room was
	// registered. Their presence events were ignored, so start from
	// the channel's live occupancy.
	occupancy := 0
	if info, err := m.transport.ResolveChannel(ctx, room.VoiceChannel); err != nil {
		m.logger.Warn("reading voice occupancy of new room failed",
			"room", room.Name,
			"error", err,
		)
	} else {
		occupancy = info.Occupancy
	}
	m.tracker.Seed(room.VoiceChannel, occupancy)
	if m.armOnCreate && occupancy == 0 {
		m.arm(ctx, room)
	}
	unlock()

	m.logger.Info("room created",
		"room", room.Name,
		"owner_id", room.OwnerID,
		"voice_channel", room.VoiceChannel,
		"text_channel", room.TextChannel,
		"role", room.Role,
		"members", len(room.Members),
	)
	m.notifyMember(ctx, room.OwnerID, createdNotice(room.Name, m.idleTimeout))
	ownerName := ownerLabel(owner)
	for _, member := range room.Members[1:] {
		m.notifyMember(ctx, member, addedNotice(room.Name, ownerName))
	}
	m.publish(ctx, EventCreated, room, "")
	return room, nil
}

// HandlePresence applies a voice occupancy change. Changes for
// channels that are not room voice channels are ignored.
func (m *Manager) HandlePresence(ctx context.Context, change PresenceChange) {
	if change.Delta == 0 || m.closed.Load() {
		return
	}
	candidate, ok := m.registry.GetByVoiceChannel(change.Channel)
	if !ok {
		return
	}

	unlock := m.locks.Lock(roomKey(candidate.Name))
	defer unlock()

	room, ok := m.registry.Get(candidate.Name)
	if !ok || room.VoiceChannel != change.Channel {
		return
	}

	transition, tracked := m.observe(ctx, room, change.Delta)
	if !tracked {
		return
	}
	switch transition {
	case TransitionIdle:
		if !m.arm(ctx, room) {
			return
		}
		m.logger.Info("room idle", "room", room.Name, "timeout", m.idleTimeout)
		if err := m.transport.SendToChannel(ctx, room.TextChannel, idleChannelNotice(m.idleTimeout)); err != nil {
			m.logger.Warn("posting idle notice failed", "room", room.Name, "error", err)
		}
		m.notifyMember(ctx, room.OwnerID, idleOwnerNotice(room.Name, m.idleTimeout))
		m.publish(ctx, EventIdle, room, "")
	case TransitionActive:
		if m.scheduler.Disarm(room.Name) {
			m.logger.Info("room active again", "room", room.Name)
			m.publish(ctx, EventActive, room, "")
		}
	}
}

// observe updates the tracked occupancy of room's voice channel. The
// chat service's live count is authoritative, since an event may
// describe a join that count already includes; delta is applied only
// when the count cannot be read. Caller holds the room lock.
func (m *Manager) observe(ctx context.Context, room Room, delta int) (Transition, bool) {
	if _, tracked := m.tracker.Occupancy(room.VoiceChannel); !tracked {
		return TransitionNone, false
	}
	info, err := m.transport.ResolveChannel(ctx, room.VoiceChannel)
	if err != nil {
		m.logger.Warn("reading voice occupancy failed, applying event delta",
			"room", room.Name,
			"delta", delta,
			"error", err,
		)
		return m.tracker.Observe(room.VoiceChannel, delta)
	}
	return m.tracker.Reconcile(room.VoiceChannel, info.Occupancy)
}

// arm starts the idle countdown for room. Caller holds the room lock.
func (m *Manager) arm(ctx context.Context, room Room) bool {
	if _, err := m.scheduler.Arm(room.Name, m.idleTimeout); err != nil {
		m.logger.Warn("arming idle countdown failed", "room", room.Name, "error", err)
		return false
	}
	return true
}

// onTimerFire runs on the clock's goroutine when an idle countdown
// expires.
func (m *Manager) onTimerFire(name string, generation uint64) {
	unlock := m.locks.Lock(roomKey(name))
	defer unlock()

	if !m.scheduler.Claim(name, generation) {
		return
	}
	room, ok := m.registry.Get(name)
	if !ok {
		return
	}
	m.logger.Info("idle countdown expired", "room", name, "timeout", m.idleTimeout)
	m.teardownLocked(context.Background(), room, expiredNotice(room.Name, m.idleTimeout))
}

// Teardown ends the room called name immediately, exporting and
// releasing it as an expired countdown would. The owner is told the
// room was closed rather than that it expired. Returns false if no
// such room exists.
func (m *Manager) Teardown(ctx context.Context, name string) bool {
	unlock := m.locks.Lock(roomKey(name))
	defer unlock()

	room, ok := m.registry.Get(name)
	if !ok {
		return false
	}
	m.scheduler.Disarm(name)
	m.logger.Info("room closed on request", "room", name)
	m.teardownLocked(ctx, room, closedNotice(room.Name))
	return true
}

// Room returns the active room called name.
func (m *Manager) Room(name string) (Room, bool) {
	return m.registry.Get(name)
}

// RoomByOwner returns owner's active room.
func (m *Manager) RoomByOwner(owner MemberID) (Room, bool) {
	return m.registry.GetByOwner(owner)
}

// Rooms returns every active room, ordered by name.
func (m *Manager) Rooms() []Room {
	return m.registry.All()
}

// State returns the presence state of the room called name.
func (m *Manager) State(name string) (State, bool) {
	if _, ok := m.registry.Get(name); !ok {
		return StateActive, false
	}
	if m.scheduler.Armed(name) {
		return StateIdleCountdown, true
	}
	return StateActive, true
}

// Deadline returns when the room's idle countdown expires, if one is
// running.
func (m *Manager) Deadline(name string) (time.Time, bool) {
	return m.scheduler.Deadline(name)
}

// Close cancels every pending countdown. Rooms stay in the store and
// are rehydrated, with fresh countdowns, on the next start.
func (m *Manager) Close() {
	if m.closed.Swap(true) {
		return
	}
	m.scheduler.Stop()
}

// handle logs err and forwards it to the reporter.
func (m *Manager) handle(ctx context.Context, err error) {
	var roomErr *Error
	if errors.As(err, &roomErr) {
		m.logger.Error("room operation failed",
			"kind", roomErr.Kind.String(),
			"room", roomErr.Room,
			"op", roomErr.Op,
			"member", roomErr.Member,
			"error", roomErr.Err,
		)
	} else {
		m.logger.Error("room operation failed", "error", err)
	}
	if m.reporter != nil {
		m.reporter.Report(ctx, err)
	}
}

func (m *Manager) notifyMember(ctx context.Context, member MemberID, text string) {
	if err := m.transport.SendDirect(ctx, member, text); err != nil {
		m.logger.Warn("direct message failed", "member", member, "error", err)
	}
}

// memberLabel is the name used for member in notices.
func (m *Manager) memberLabel(ctx context.Context, id MemberID) string {
	member, err := m.transport.ResolveMember(ctx, id)
	if err != nil {
		return string(id)
	}
	return ownerLabel(member)
}
