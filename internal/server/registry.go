// Package server coordinates room creation, membership transitions, and
// message relay for the Parley chat system via the Registry type.
package server

import (
	"fmt"
	"log"
	"sync"

	"github.com/samber/lo"
)

// Registry is the process-wide directory of active rooms, keyed by name.
//
// A single RWMutex guards the room map, every room's member set, and every
// session's current-room pointer, so each compound transition (create, join,
// leave, kick, close, teardown) is one atomic step: a session is a member of
// a room exactly when that room is its current room, at every observable
// point. Broadcast and notify only take the read lock and perform
// non-blocking sends.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*Room
}

// NewRegistry creates an empty room registry. The registry is injected into
// the acceptor and gateway rather than living in a package global.
func NewRegistry() *Registry {
	return &Registry{rooms: make(map[string]*Room)}
}

// Create inserts a new room with s as owner and sole initial member, failing
// with ErrRoomExists when the name is taken. If s currently occupies another
// room it implicitly leaves it first, with the usual notification and
// empty-room cleanup.
func (r *Registry) Create(s *Session, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.rooms[name]; exists {
		return ErrRoomExists
	}

	r.leaveCurrentLocked(s, causeLeft)

	room := newRoom(name, s.name)
	room.addLocked(s)
	r.rooms[name] = room
	log.Printf("session %s: created room %q", s.id, name)
	return nil
}

// Join adds s to the named room and notifies all members, including s.
// Fails with ErrRoomNotFound if no such room exists; in that case the
// session's current membership is untouched.
func (r *Registry) Join(s *Session, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, exists := r.rooms[name]
	if !exists {
		return ErrRoomNotFound
	}

	r.leaveCurrentLocked(s, causeLeft)

	room.addLocked(s)
	room.notifyLocked(s.name + " joined the room.")
	return nil
}

// Leave removes s from its current room, notifies the remaining members, and
// deletes the room when it became empty. Fails with ErrNotInRoom when the
// session occupies no room.
func (r *Registry) Leave(s *Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s.room == nil {
		return ErrNotInRoom
	}
	r.leaveCurrentLocked(s, causeLeft)
	return nil
}

// Kick removes the named member from the caller's current room. Only the
// room owner may kick; the target is notified individually and the remaining
// members collectively. As in the original system, kicking never triggers
// empty-room cleanup, and an owner may kick themself.
func (r *Registry) Kick(s *Session, target string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	room := s.room
	if room == nil || room.owner != s.name {
		return ErrNotOwner
	}

	member := room.memberByNameLocked(target)
	if member == nil {
		return ErrMemberNotFound
	}

	room.removeLocked(member)
	member.deliver(fmt.Sprintf("You have been kicked from room '%s'.", room.name))
	room.notifyLocked(target + " was kicked by owner.")
	log.Printf("session %s: kicked %q from room %q", s.id, target, room.name)
	return nil
}

// CloseRoom dissolves the caller's current room: every member is notified,
// every non-caller member's room pointer is cleared with an individual
// notice, and the room is removed from the registry. Owner only.
func (r *Registry) CloseRoom(s *Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	room := s.room
	if room == nil || room.owner != s.name {
		return ErrNotOwner
	}

	room.notifyLocked("Room is closed by owner.")
	for m := range room.members {
		if m == s {
			continue
		}
		room.removeLocked(m)
		m.deliver("Disconnected. Room closed.")
	}
	room.removeLocked(s)
	delete(r.rooms, room.name)
	log.Printf("session %s: closed room %q", s.id, room.name)
	return nil
}

// Broadcast relays a chat line from s to the other members of its current
// room. Fails with ErrNotInRoom when the session occupies no room.
func (r *Registry) Broadcast(s *Session, text string) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if s.room == nil {
		return ErrNotInRoom
	}
	s.room.broadcastLocked(s, text)
	return nil
}

// Drop runs the teardown transition for a session that is going away, on
// either the clean-exit or the disconnect path. It is a no-op for sessions
// that occupy no room.
func (r *Registry) Drop(s *Session, cause partCause) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.leaveCurrentLocked(s, cause)
}

// List returns a point-in-time snapshot of (name, owner) pairs in no
// particular order.
func (r *Registry) List() []RoomInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return lo.MapToSlice(r.rooms, func(name string, room *Room) RoomInfo {
		return RoomInfo{Name: name, Owner: room.owner}
	})
}

// Lookup returns the room registered under name.
func (r *Registry) Lookup(name string) (*Room, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	room, exists := r.rooms[name]
	if !exists {
		return nil, ErrRoomNotFound
	}
	return room, nil
}

// memberNames returns the display names of the members of the named room.
// Debug surface only.
func (r *Registry) memberNames(name string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	room, exists := r.rooms[name]
	if !exists {
		return nil
	}
	return lo.Map(lo.Keys(room.members), func(m *Session, _ int) string {
		return m.name
	})
}

// leaveCurrentLocked removes s from its current room, if any, notifies the
// remaining members, and deletes the room from the registry when its member
// set became empty. Caller holds the write lock.
func (r *Registry) leaveCurrentLocked(s *Session, cause partCause) {
	room := s.room
	if room == nil {
		return
	}

	room.removeLocked(s)
	room.notifyLocked(partNotice(s.name, cause))
	if room.emptyLocked() {
		delete(r.rooms, room.name)
		log.Printf("room %q removed: last member gone", room.name)
	}
}
