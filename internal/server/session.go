// Package server manages individual client sessions, handling the handshake,
// the read/dispatch loop, the outbound writer pump, rate limiting, and
// lifecycle control for each connection.
package server

import (
	"errors"
	"log"
	"sync"

	"github.com/google/uuid"

	"github.com/parley-chat/parley/internal/wire"
)

func wireClosed(err error) bool   { return errors.Is(err, wire.ErrClosed) }
func wireProtocol(err error) bool { return errors.Is(err, wire.ErrProtocol) }

const sendBufferSize = 256

// Session represents the server-side state of one connected client: its
// identity, its current-room back-reference, and the read/dispatch loop.
// The identity is assigned once during the handshake and is immutable
// afterwards; it is neither validated nor unique.
type Session struct {
	id       string
	name     string
	conn     wire.Conn
	registry *Registry

	send chan string
	done chan struct{}

	limiter *rateLimiter

	// room is the lookup back-reference to the occupied room, or nil.
	// Guarded by the registry mutex, like room member sets.
	room *Room

	teardownOnce sync.Once
}

// NewSession creates a session bound to conn. The session's outbound buffer
// and rate limiter are sized from the active configuration.
func NewSession(conn wire.Conn, registry *Registry) *Session {
	cfg := currentConfig()
	return &Session{
		id:       uuid.NewString(),
		conn:     conn,
		registry: registry,
		send:     make(chan string, sendBufferSize),
		done:     make(chan struct{}),
		limiter:  newRateLimiter(cfg.RateLimitBurst, cfg.RateLimitRefillInterval),
	}
}

// Name returns the display name bound during the handshake, or the empty
// string before it.
func (s *Session) Name() string { return s.name }

// Run performs the handshake and then drives the read/dispatch loop until
// the client exits, disconnects, or a protocol fault occurs. Teardown runs
// exactly once regardless of which exit condition fired.
func (s *Session) Run() {
	go s.writePump()

	cause := causeDisconnected
	defer func() {
		s.teardown(cause)
	}()

	s.deliver("Enter your name:")
	name, err := s.conn.ReadFrame()
	if err != nil {
		log.Printf("session %s (%s): handshake aborted: %v", s.id, s.conn.RemoteAddr(), err)
		return
	}
	s.name = name
	s.deliver("Welcome, " + s.name + ". Type /help for options.")
	log.Printf("session %s (%s): identity %q bound", s.id, s.conn.RemoteAddr(), s.name)

	for {
		line, err := s.conn.ReadFrame()
		if err != nil {
			s.logReadError(err)
			return
		}

		if !s.limiter.allow() {
			log.Printf("session %s: rate limit exceeded; discarding frame", s.id)
			continue
		}

		if err := dispatch(s, line); err != nil {
			// The only dispatch error is the exit sentinel.
			cause = causeLeft
			return
		}
	}
}

func (s *Session) logReadError(err error) {
	switch {
	case wireClosed(err):
		log.Printf("session %s (%q): disconnected", s.id, s.name)
	case wireProtocol(err):
		log.Printf("session %s (%q): protocol error: %v", s.id, s.name, err)
	default:
		log.Printf("session %s (%q): read error: %v", s.id, s.name, err)
	}
}

// deliver queues one outbound frame without blocking. When the buffer is
// full the frame is dropped and logged; the session is not evicted. Safe to
// call while holding the registry lock.
func (s *Session) deliver(msg string) bool {
	select {
	case s.send <- msg:
		return true
	default:
		log.Printf("session %s (%q): send buffer full; dropping frame", s.id, s.name)
		return false
	}
}

// writePump is the single writer for the connection: it drains the outbound
// buffer and performs every socket write, so broadcasts never contend for
// the socket. A write failure closes the connection, which in turn fails the
// read loop and triggers teardown.
func (s *Session) writePump() {
	for {
		select {
		case msg := <-s.send:
			if err := s.conn.WriteFrame(msg); err != nil {
				if !isExpectedCloseError(err) {
					log.Printf("session %s (%q): write error: %v", s.id, s.name, err)
				}
				_ = s.conn.Close()
				return
			}
		case <-s.done:
			// Flush what is already queued before stopping.
			for {
				select {
				case msg := <-s.send:
					if err := s.conn.WriteFrame(msg); err != nil {
						return
					}
				default:
					return
				}
			}
		}
	}
}

// teardown leaves the current room (notifying room-mates), closes the
// connection, and stops the writer pump. It runs at most once.
func (s *Session) teardown(cause partCause) {
	s.teardownOnce.Do(func() {
		s.registry.Drop(s, cause)
		close(s.done)
		if err := s.conn.Close(); err != nil && !isExpectedCloseError(err) {
			log.Printf("session %s: error closing connection: %v", s.id, err)
		}
		log.Printf("session %s (%q): closed", s.id, s.name)
	})
}
