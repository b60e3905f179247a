// Package server declares the sentinel errors returned by registry
// operations; the dispatcher maps them onto client-facing reply lines.
package server

import "errors"

var (
	// ErrRoomExists reports a create attempt with an already-registered name.
	ErrRoomExists = errors.New("room already exists")

	// ErrRoomNotFound reports a join or lookup for an unknown room name.
	ErrRoomNotFound = errors.New("room not found")

	// ErrNotInRoom reports a room-scoped operation by a roomless session.
	ErrNotInRoom = errors.New("not in a room")

	// ErrNotOwner reports an owner-only operation by a non-owner. It also
	// covers the roomless case, mirroring the single client-facing reply.
	ErrNotOwner = errors.New("not the owner or not in a room")

	// ErrMemberNotFound reports a kick target absent from the room.
	ErrMemberNotFound = errors.New("member not found in room")
)
