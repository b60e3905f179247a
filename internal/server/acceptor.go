// Package server implements the TCP acceptor: it listens on the configured
// address, spawns one session per accepted connection, and coordinates
// graceful shutdown of all live sessions.
package server

import (
	"context"
	"fmt"
	"log"
	"net"
	"sync"
	"time"

	"github.com/parley-chat/parley/internal/wire"
)

// Server accepts chat-protocol connections and runs one Session per
// connection. The Registry is injected at construction time.
type Server struct {
	registry *Registry

	mu       sync.Mutex
	listener net.Listener
	sessions map[*Session]struct{}
	closing  bool

	wg   sync.WaitGroup
	done chan struct{}
}

// NewServer creates a server bound to the given registry. Call Listen and
// then Serve to start accepting connections.
func NewServer(registry *Registry) *Server {
	return &Server{
		registry: registry,
		sessions: make(map[*Session]struct{}),
		done:     make(chan struct{}),
	}
}

// Listen binds the TCP listening socket. A bind failure is fatal to the
// process by design; callers are expected to exit on error.
func (srv *Server) Listen(addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}

	srv.mu.Lock()
	srv.listener = listener
	srv.mu.Unlock()

	log.Printf("Chat server listening on %s", listener.Addr())
	return nil
}

// Addr returns the bound listener address, useful when listening on :0.
func (srv *Server) Addr() net.Addr {
	srv.mu.Lock()
	defer srv.mu.Unlock()
	if srv.listener == nil {
		return nil
	}
	return srv.listener.Addr()
}

// Serve runs the accept loop: accept a connection, construct a session bound
// to it, run the session concurrently, and immediately resume accepting.
// An accept failure outside of shutdown is fatal and returned to the caller;
// during shutdown Serve returns nil.
func (srv *Server) Serve() error {
	srv.mu.Lock()
	listener := srv.listener
	srv.mu.Unlock()
	if listener == nil {
		return fmt.Errorf("serve: no active listener, call Listen first")
	}

	for {
		conn, err := listener.Accept()
		if err != nil {
			select {
			case <-srv.done:
				return nil
			default:
				return fmt.Errorf("accept: %w", err)
			}
		}

		session := NewSession(wire.NewConn(conn, currentConfig().MaxFrameSize), srv.registry)
		srv.runSession(session)
	}
}

// runSession tracks the session and drives its lifecycle in a goroutine.
// Shared by the TCP acceptor and the WebSocket gateway so shutdown reaches
// every live connection regardless of transport.
func (srv *Server) runSession(session *Session) {
	srv.mu.Lock()
	if srv.closing {
		srv.mu.Unlock()
		_ = session.conn.Close()
		return
	}
	srv.sessions[session] = struct{}{}
	srv.mu.Unlock()

	srv.wg.Add(1)
	go func() {
		defer func() {
			srv.mu.Lock()
			delete(srv.sessions, session)
			srv.mu.Unlock()
			srv.wg.Done()
		}()
		session.Run()
	}()
}

// Shutdown stops accepting, closes every live session connection, and waits
// for all session goroutines to finish or the timeout to elapse.
func (srv *Server) Shutdown(timeout time.Duration) error {
	log.Println("Initiating chat server shutdown...")

	srv.mu.Lock()
	srv.closing = true
	listener := srv.listener
	sessions := make([]*Session, 0, len(srv.sessions))
	for s := range srv.sessions {
		sessions = append(sessions, s)
	}
	srv.mu.Unlock()

	close(srv.done)
	if listener != nil {
		_ = listener.Close()
	}

	for _, s := range sessions {
		if err := s.conn.Close(); err != nil && !isExpectedCloseError(err) {
			log.Printf("Error closing session connection from %s: %v", s.conn.RemoteAddr(), err)
		}
	}

	finished := make(chan struct{})
	go func() {
		srv.wg.Wait()
		close(finished)
	}()

	select {
	case <-finished:
		log.Println("Chat server shutdown completed")
		return nil
	case <-time.After(timeout):
		log.Println("Chat server shutdown timeout reached, some sessions may still be running")
		return context.DeadlineExceeded
	}
}
