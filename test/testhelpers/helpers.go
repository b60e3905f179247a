// Package testhelpers provides common utilities for testing the Parley
// server end to end.
//
// It wraps a raw TCP connection with frame-aware, deadline-guarded send and
// receive helpers so integration tests can script entire chat sessions
// without duplicating protocol plumbing.
package testhelpers

import (
	"bufio"
	"errors"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/parley-chat/parley/internal/wire"
)

// DefaultTimeout bounds every single receive operation in tests.
const DefaultTimeout = 2 * time.Second

// ChatClient is a scripted protocol client for integration tests.
type ChatClient struct {
	t    *testing.T
	conn net.Conn
	r    *bufio.Reader
}

// Dial connects to the chat server at addr.
func Dial(t *testing.T, addr string) *ChatClient {
	t.Helper()

	conn, err := net.DialTimeout("tcp", addr, DefaultTimeout)
	if err != nil {
		t.Fatalf("Failed to dial chat server at %s: %v", addr, err)
	}

	c := &ChatClient{t: t, conn: conn, r: bufio.NewReader(conn)}
	t.Cleanup(c.Close)
	return c
}

// Handshake consumes the greeting and binds the given display name.
func (c *ChatClient) Handshake(name string) {
	c.t.Helper()
	c.ExpectContains("Enter your name:")
	c.Send(name)
	c.ExpectContains("Welcome, " + name)
}

// Send writes one frame to the server.
func (c *ChatClient) Send(line string) {
	c.t.Helper()
	if err := wire.WriteString(c.conn, line); err != nil {
		c.t.Fatalf("Failed to send %q: %v", line, err)
	}
}

// Recv reads one frame, failing the test after DefaultTimeout.
func (c *ChatClient) Recv() string {
	c.t.Helper()

	line, err := c.recv()
	if err != nil {
		c.t.Fatalf("Failed to receive frame: %v", err)
	}
	return line
}

func (c *ChatClient) recv() (string, error) {
	if err := c.conn.SetReadDeadline(time.Now().Add(DefaultTimeout)); err != nil {
		return "", err
	}
	return wire.ReadString(c.r, 0)
}

// ExpectContains reads frames until one contains substr, failing the test on
// timeout. Intervening frames are discarded, which lets tests ignore
// notifications they do not care about.
func (c *ChatClient) ExpectContains(substr string) string {
	c.t.Helper()

	deadline := time.Now().Add(DefaultTimeout)
	for time.Now().Before(deadline) {
		line, err := c.recv()
		if err != nil {
			c.t.Fatalf("Connection failed while waiting for %q: %v", substr, err)
		}
		if strings.Contains(line, substr) {
			return line
		}
	}
	c.t.Fatalf("Timed out waiting for frame containing %q", substr)
	return ""
}

// ExpectSilence asserts that no frame arrives within the given window.
func (c *ChatClient) ExpectSilence(window time.Duration) {
	c.t.Helper()

	if err := c.conn.SetReadDeadline(time.Now().Add(window)); err != nil {
		c.t.Fatalf("Failed to set read deadline: %v", err)
	}
	line, err := wire.ReadString(c.r, 0)
	if err == nil {
		c.t.Fatalf("Expected silence, received %q", line)
	}
	if !isTimeout(err) {
		c.t.Fatalf("Expected read timeout, got: %v", err)
	}
}

// ExpectClosed asserts that the server closes the connection.
func (c *ChatClient) ExpectClosed() {
	c.t.Helper()

	line, err := c.recv()
	if err == nil {
		c.t.Fatalf("Expected closed connection, received %q", line)
	}
}

// Close shuts the underlying connection down; safe to call twice.
func (c *ChatClient) Close() {
	_ = c.conn.Close()
}

func isTimeout(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	// Deadline errors may arrive wrapped by the codec.
	return strings.Contains(err.Error(), "i/o timeout")
}
