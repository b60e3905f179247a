// Package server parses decoded lines into commands or plain chat text and
// invokes the matching registry operations.
package server

import (
	"errors"
	"fmt"
	"strings"
)

// errExit signals that the session's read loop should terminate and run the
// clean-exit teardown path.
var errExit = errors.New("session exit requested")

// dispatch interprets one decoded line for s. Command tokens are
// case-sensitive except the literal exit; anything that matches no command
// is relayed as plain chat text. Command-level failures are surfaced to the
// issuing client only and never terminate the session.
func dispatch(s *Session, line string) error {
	switch {
	case strings.HasPrefix(line, "/create "):
		handleCreate(s, strings.TrimSpace(line[len("/create "):]))
	case strings.HasPrefix(line, "/join "):
		handleJoin(s, strings.TrimSpace(line[len("/join "):]))
	case line == "/rooms":
		handleRooms(s)
	case line == "/leave":
		handleLeave(s)
	case strings.HasPrefix(line, "/kick "):
		handleKick(s, strings.TrimSpace(line[len("/kick "):]))
	case line == "/close":
		handleClose(s)
	case strings.EqualFold(line, "exit"):
		return errExit
	default:
		handleChat(s, line)
	}
	return nil
}

func handleCreate(s *Session, name string) {
	if err := s.registry.Create(s, name); err != nil {
		s.deliver("Room already exists.")
		return
	}
	s.deliver(fmt.Sprintf("Room '%s' created and joined.", name))
}

func handleJoin(s *Session, name string) {
	if err := s.registry.Join(s, name); err != nil {
		s.deliver("Room not found.")
	}
	// Success is announced by the room-wide join notification.
}

func handleRooms(s *Session) {
	var sb strings.Builder
	sb.WriteString("Available rooms:\n")
	for _, info := range s.registry.List() {
		sb.WriteString(fmt.Sprintf("- %s (Owner: %s)\n", info.Name, info.Owner))
	}
	s.deliver(sb.String())
}

func handleLeave(s *Session) {
	if err := s.registry.Leave(s); err != nil {
		s.deliver("You are not in any room.")
		return
	}
	s.deliver("You left the room.")
}

func handleKick(s *Session, target string) {
	err := s.registry.Kick(s, target)
	switch {
	case errors.Is(err, ErrNotOwner):
		s.deliver("You are not the owner or not in a room.")
	case errors.Is(err, ErrMemberNotFound):
		s.deliver("User not found in room.")
	}
}

func handleClose(s *Session) {
	if err := s.registry.CloseRoom(s); err != nil {
		s.deliver("You are not the owner or not in a room.")
	}
}

func handleChat(s *Session, text string) {
	if err := s.registry.Broadcast(s, text); err != nil {
		s.deliver("Join a room to chat. Use /rooms or /join <name>.")
	}
}
