// Package server models chat rooms: a named group of sessions with a fixed
// owner and a broadcast/notify surface.
package server

import "fmt"

// Room is a named group of sessions. The owner is fixed at creation and is
// never reassigned, even if the owner leaves or disconnects.
//
// The member set and every session's current-room pointer are guarded by the
// owning Registry's mutex; the lowercase methods below assume the caller
// holds it. Delivery itself is a non-blocking push onto each member's
// outbound buffer, so holding the lock across a notify never blocks on a
// peer's socket.
type Room struct {
	name    string
	owner   string
	members map[*Session]struct{}
}

func newRoom(name, owner string) *Room {
	return &Room{
		name:    name,
		owner:   owner,
		members: make(map[*Session]struct{}),
	}
}

// Name returns the registry key of the room.
func (r *Room) Name() string { return r.name }

// Owner returns the display name of the creator.
func (r *Room) Owner() string { return r.owner }

func (r *Room) addLocked(s *Session) {
	r.members[s] = struct{}{}
	s.room = r
}

func (r *Room) removeLocked(s *Session) {
	delete(r.members, s)
	s.room = nil
}

func (r *Room) emptyLocked() bool {
	return len(r.members) == 0
}

// memberByNameLocked returns some member with the given display name, or nil.
// Display names are not unique; with duplicates the pick is arbitrary, as in
// the original system.
func (r *Room) memberByNameLocked(name string) *Session {
	for m := range r.members {
		if m.name == name {
			return m
		}
	}
	return nil
}

// notifyLocked delivers msg, prefixed with the room tag, to every member
// including the sender of whatever triggered it.
func (r *Room) notifyLocked(msg string) {
	line := fmt.Sprintf("[%s] %s", r.name, msg)
	for m := range r.members {
		m.deliver(line)
	}
}

// broadcastLocked relays a chat line from sender to all other members.
func (r *Room) broadcastLocked(sender *Session, text string) {
	line := fmt.Sprintf("[%s] %s: %s", r.name, sender.name, text)
	for m := range r.members {
		if m == sender {
			continue
		}
		m.deliver(line)
	}
}
