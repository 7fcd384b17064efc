// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package rooms

import (
	"cmp"
	"slices"
	"strconv"
	"sync"
)

// Registry is the in-memory set of active rooms, keyed by name. It
// performs no I/O. All methods are safe for concurrent use and return
// copies.
//
// Besides provisioned rooms, the registry holds reservations: names
// claimed by a creation that has not finished provisioning. A reserved
// name is invisible to lookups but is never handed out twice.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*registryEntry
}

type registryEntry struct {
	reserved bool
	owner    MemberID
	room     Room
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*registryEntry)}
}

// Reserve claims the first free name RoomName(displayName, n) for
// n = 1, 2, ... and returns it. The search and the claim happen under
// one lock, so concurrent callers never receive the same name.
func (r *Registry) Reserve(displayName string, owner MemberID) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	for n := 1; ; n++ {
		name := RoomName(displayName, n)
		if _, taken := r.entries[name]; taken {
			continue
		}
		r.entries[name] = &registryEntry{reserved: true, owner: owner}
		return name
	}
}

// Release drops a reservation. It does nothing if name is not reserved
// (including when it has since been provisioned).
func (r *Registry) Release(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if entry, ok := r.entries[name]; ok && entry.reserved {
		delete(r.entries, name)
	}
}

// Put stores room under room.Name, replacing a reservation or an
// earlier value.
func (r *Registry) Put(room Room) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[room.Name] = &registryEntry{owner: room.OwnerID, room: room.clone()}
}

// Remove deletes the room and reports whether it was present.
func (r *Registry) Remove(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.entries[name]
	if !ok || entry.reserved {
		return false
	}
	delete(r.entries, name)
	return true
}

// Get returns the provisioned room called name.
func (r *Registry) Get(name string) (Room, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.entries[name]
	if !ok || entry.reserved {
		return Room{}, false
	}
	return entry.room.clone(), true
}

// GetByOwner returns the provisioned room owned by owner.
func (r *Registry) GetByOwner(owner MemberID) (Room, bool) {
	return r.find(func(room Room) bool { return room.OwnerID == owner })
}

// GetByVoiceChannel returns the provisioned room whose voice channel
// is channel.
func (r *Registry) GetByVoiceChannel(channel ChannelID) (Room, bool) {
	return r.find(func(room Room) bool { return room.VoiceChannel == channel })
}

func (r *Registry) find(match func(Room) bool) (Room, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, entry := range r.entries {
		if !entry.reserved && match(entry.room) {
			return entry.room.clone(), true
		}
	}
	return Room{}, false
}

// All returns every provisioned room, ordered by name.
func (r *Registry) All() []Room {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rooms := make([]Room, 0, len(r.entries))
	for _, entry := range r.entries {
		if !entry.reserved {
			rooms = append(rooms, entry.room.clone())
		}
	}
	slices.SortFunc(rooms, func(a, b Room) int {
		return cmp.Compare(a.Name, b.Name)
	})
	return rooms
}

// Len returns the number of provisioned rooms.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	count := 0
	for _, entry := range r.entries {
		if !entry.reserved {
			count++
		}
	}
	return count
}

// String is used in debug logging.
func (r *Registry) String() string {
	return "registry(" + strconv.Itoa(r.Len()) + " rooms)"
}
