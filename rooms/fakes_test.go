// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package rooms

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"
)

var errInjected = errors.New("injected failure")

// fakeTransport is an in-memory chat service. Failures are injected
// per operation name via failOn.
type fakeTransport struct {
	mu sync.Mutex

	nextID    int
	roles     map[RoleID]string
	channels  map[ChannelID]*fakeChannel
	members   map[MemberID]Member
	grants    map[RoleID][]MemberID
	direct    map[MemberID][]string
	failOn    map[string]error
	calls     []string
	createdAt time.Time

	// voiceOccupancy is the occupancy of new voice channels, as if
	// members joined before the creator saw the channel.
	voiceOccupancy int
}

type fakeChannel struct {
	spec      ChannelSpec
	name      string
	occupancy int
	messages  []string
	history   []HistoryMessage
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		roles:     make(map[RoleID]string),
		channels:  make(map[ChannelID]*fakeChannel),
		members:   make(map[MemberID]Member),
		grants:    make(map[RoleID][]MemberID),
		direct:    make(map[MemberID][]string),
		failOn:    make(map[string]error),
		createdAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func (f *fakeTransport) addMember(id MemberID, displayName, username string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.members[id] = Member{ID: id, DisplayName: displayName, Username: username}
}

func (f *fakeTransport) fail(op string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.failOn, op)
		return
	}
	f.failOn[op] = err
}

// record notes a call and returns the injected failure for op, if any.
// Caller holds f.mu.
func (f *fakeTransport) record(op string) error {
	f.calls = append(f.calls, op)
	return f.failOn[op]
}

func (f *fakeTransport) callCount(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, call := range f.calls {
		if call == op {
			count++
		}
	}
	return count
}

func (f *fakeTransport) CreateRole(_ context.Context, name string) (RoleID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("CreateRole"); err != nil {
		return "", err
	}
	f.nextID++
	id := RoleID(fmt.Sprintf("role-%d", f.nextID))
	f.roles[id] = name
	return id, nil
}

func (f *fakeTransport) GrantRole(_ context.Context, member MemberID, role RoleID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("GrantRole"); err != nil {
		return err
	}
	if err := f.failOn["GrantRole:"+string(member)]; err != nil {
		return err
	}
	if _, ok := f.roles[role]; !ok {
		return fmt.Errorf("role %s not found", role)
	}
	f.grants[role] = append(f.grants[role], member)
	return nil
}

func (f *fakeTransport) DeleteRole(_ context.Context, role RoleID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("DeleteRole"); err != nil {
		return err
	}
	delete(f.roles, role)
	delete(f.grants, role)
	return nil
}

func (f *fakeTransport) ResolveRole(_ context.Context, role RoleID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("ResolveRole"); err != nil {
		return err
	}
	if _, ok := f.roles[role]; !ok {
		return fmt.Errorf("role %s not found", role)
	}
	return nil
}

func (f *fakeTransport) CreateChannel(_ context.Context, spec ChannelSpec) (ChannelID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("CreateChannel:" + spec.Kind.String()); err != nil {
		return "", err
	}
	f.nextID++
	id := ChannelID(fmt.Sprintf("%s-%d", spec.Kind, f.nextID))
	f.channels[id] = &fakeChannel{spec: spec, name: spec.Name}
	if spec.Kind == ChannelVoice {
		f.channels[id].occupancy = f.voiceOccupancy
	}
	return id, nil
}

func (f *fakeTransport) RenameChannel(_ context.Context, channel ChannelID, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("RenameChannel"); err != nil {
		return err
	}
	c, ok := f.channels[channel]
	if !ok {
		return fmt.Errorf("channel %s not found", channel)
	}
	c.name = name
	return nil
}

func (f *fakeTransport) DeleteChannel(_ context.Context, channel ChannelID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("DeleteChannel"); err != nil {
		return err
	}
	if _, ok := f.channels[channel]; !ok {
		return fmt.Errorf("channel %s not found", channel)
	}
	delete(f.channels, channel)
	return nil
}

func (f *fakeTransport) ResolveChannel(_ context.Context, channel ChannelID) (ChannelInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("ResolveChannel"); err != nil {
		return ChannelInfo{}, err
	}
	c, ok := f.channels[channel]
	if !ok {
		return ChannelInfo{}, fmt.Errorf("channel %s not found", channel)
	}
	return ChannelInfo{ID: channel, Occupancy: c.occupancy, CreatedAt: f.createdAt}, nil
}

func (f *fakeTransport) FetchHistory(_ context.Context, channel ChannelID) ([]HistoryMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("FetchHistory"); err != nil {
		return nil, err
	}
	c, ok := f.channels[channel]
	if !ok {
		return nil, fmt.Errorf("channel %s not found", channel)
	}
	// Newest first, like the real service.
	history := slices.Clone(c.history)
	slices.Reverse(history)
	return history, nil
}

func (f *fakeTransport) ResolveMember(_ context.Context, member MemberID) (Member, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("ResolveMember"); err != nil {
		return Member{}, err
	}
	m, ok := f.members[member]
	if !ok {
		return Member{}, fmt.Errorf("member %s not found", member)
	}
	return m, nil
}

func (f *fakeTransport) SendDirect(_ context.Context, member MemberID, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("SendDirect"); err != nil {
		return err
	}
	f.direct[member] = append(f.direct[member], text)
	return nil
}

func (f *fakeTransport) SendToChannel(_ context.Context, channel ChannelID, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("SendToChannel"); err != nil {
		return err
	}
	c, ok := f.channels[channel]
	if !ok {
		return fmt.Errorf("channel %s not found", channel)
	}
	c.messages = append(c.messages, text)
	return nil
}

// Test-side accessors.

func (f *fakeTransport) setOccupancy(channel ChannelID, n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.channels[channel].occupancy = n
}

// moveOccupancy changes channel's occupancy by delta, never below
// zero, as a member joining or leaving would.
func (f *fakeTransport) moveOccupancy(channel ChannelID, delta int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c, ok := f.channels[channel]; ok {
		c.occupancy = max(c.occupancy+delta, 0)
	}
}

func (f *fakeTransport) setVoiceOccupancy(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.voiceOccupancy = n
}

// say appends a message to channel history, oldest first.
func (f *fakeTransport) say(channel ChannelID, author MemberID, text string, attachments ...Attachment) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := f.channels[channel]
	c.history = append(c.history, HistoryMessage{
		Author:      author,
		Text:        text,
		Attachments: attachments,
		SentAt:      f.createdAt.Add(time.Duration(len(c.history)) * time.Second),
	})
}

func (f *fakeTransport) hasChannel(channel ChannelID) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.channels[channel]
	return ok
}

func (f *fakeTransport) channelSpec(channel ChannelID) ChannelSpec {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.channels[channel].spec
}

func (f *fakeTransport) channelMessages(channel ChannelID) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.channels[channel].messages)
}

func (f *fakeTransport) hasRole(role RoleID) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.roles[role]
	return ok
}

func (f *fakeTransport) granted(role RoleID) []MemberID {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.grants[role])
}

func (f *fakeTransport) directMessages(member MemberID) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.direct[member])
}

func (f *fakeTransport) liveChannels() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.channels)
}

func (f *fakeTransport) liveRoles() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.roles)
}

// memStore is an in-memory Store.
type memStore struct {
	mu          sync.Mutex
	collections map[string]map[string][]byte
	failPut     error
	failDelete  error
}

func newMemStore() *memStore {
	return &memStore{collections: make(map[string]map[string][]byte)}
}

func (s *memStore) Put(_ context.Context, collection, key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failPut != nil {
		return s.failPut
	}
	if s.collections[collection] == nil {
		s.collections[collection] = make(map[string][]byte)
	}
	s.collections[collection][key] = slices.Clone(data)
	return nil
}

func (s *memStore) Delete(_ context.Context, collection, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failDelete != nil {
		return s.failDelete
	}
	delete(s.collections[collection], key)
	return nil
}

func (s *memStore) ListAll(_ context.Context, collection string) (map[string][]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return maps.Clone(s.collections[collection]), nil
}

func (s *memStore) get(collection, key string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.collections[collection][key]
	return data, ok
}

func (s *memStore) len(collection string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.collections[collection])
}

// fakeMailer records sent mail and fails for addresses in failFor.
type fakeMailer struct {
	mu      sync.Mutex
	sent    []Mail
	failFor map[string]error
}

func (m *fakeMailer) Send(_ context.Context, mail Mail) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failFor[mail.To]; err != nil {
		return err
	}
	m.sent = append(m.sent, mail)
	return nil
}

func (m *fakeMailer) recipients() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var to []string
	for _, mail := range m.sent {
		to = append(to, mail.To)
	}
	slices.Sort(to)
	return to
}

func (m *fakeMailer) mails() []Mail {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.sent)
}

// addressBook is a Directory backed by a map.
type addressBook map[MemberID]string

func (b addressBook) ResolveContactAddress(_ context.Context, member MemberID) (string, bool, error) {
	address, ok := b[member]
	return address, ok, nil
}

// recordingReporter collects reported errors.
type recordingReporter struct {
	mu   sync.Mutex
	errs []error
}

func (r *recordingReporter) Report(_ context.Context, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs = append(r.errs, err)
}

func (r *recordingReporter) count(target error) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, err := range r.errs {
		if errors.Is(err, target) {
			count++
		}
	}
	return count
}

// recordingPublisher collects published event types.
type recordingPublisher struct {
	mu     sync.Mutex
	events []Event
}

func (p *recordingPublisher) Publish(_ context.Context, eventType string, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, payload.(Event))
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var types []string
	for _, event := range p.events {
		types = append(types, event.Type)
	}
	return types
}

// joiningTransport has a member join the channel the first time
// occupancy is read, and delivers the join event from another
// goroutine while the reader still holds whatever locks it took. The
// join lands before that first read returns its count, or after it
// when joinAfterRead is set.
type joiningTransport struct {
	*fakeTransport
	manager       *Manager
	joinAfterRead bool

	once   sync.Once
	joined chan struct{}
}

func newJoiningTransport(inner *fakeTransport) *joiningTransport {
	return &joiningTransport{fakeTransport: inner, joined: make(chan struct{})}
}

func (j *joiningTransport) ResolveChannel(ctx context.Context, channel ChannelID) (ChannelInfo, error) {
	first := false
	j.once.Do(func() { first = true })
	if !first {
		return j.fakeTransport.ResolveChannel(ctx, channel)
	}
	if j.joinAfterRead {
		info, err := j.fakeTransport.ResolveChannel(ctx, channel)
		j.join(channel)
		return info, err
	}
	j.join(channel)
	return j.fakeTransport.ResolveChannel(ctx, channel)
}

func (j *joiningTransport) join(channel ChannelID) {
	j.moveOccupancy(channel, 1)
	go func() {
		defer close(j.joined)
		j.manager.HandlePresence(context.Background(), PresenceChange{Channel: channel, Delta: 1})
	}()
}

// waiters returns how many goroutines hold or wait for key.
func (k *keyedMutex) waiters(key string) int {
	k.mu.Lock()
	defer k.mu.Unlock()
	if lock, ok := k.locks[key]; ok {
		return lock.refs
	}
	return 0
}
