// Package wire implements the framed string protocol spoken between the
// Parley server and its clients: every message travels as a 2-byte unsigned
// big-endian byte length followed by that many UTF-8 bytes, in both
// directions. The package also defines the Conn abstraction that lets the
// rest of the server treat TCP sockets and WebSocket connections uniformly.
package wire

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
)

// MaxFrameSize is the largest payload the 2-byte length prefix can describe.
// Configured caps may only lower this value.
const MaxFrameSize = 65535

const headerSize = 2

var (
	// ErrClosed reports that the peer disconnected or reset the connection.
	// It marks a normal termination path, not a user-visible failure.
	ErrClosed = errors.New("wire: connection closed")

	// ErrProtocol reports a malformed or oversized frame. The connection is
	// unusable afterwards and must be closed.
	ErrProtocol = errors.New("wire: protocol error")
)

// Conn is a bidirectional frame stream. Implementations exist for raw TCP
// connections (NewConn) and for WebSocket connections (in the server
// package); chat logic never touches the transport directly.
type Conn interface {
	// ReadFrame blocks until a complete frame arrives and returns its
	// payload. It fails with ErrClosed when the peer disconnects and with
	// ErrProtocol when the stream is corrupt.
	ReadFrame() (string, error)

	// WriteFrame encodes and sends a single frame.
	WriteFrame(s string) error

	// Close closes the underlying connection.
	Close() error

	// RemoteAddr returns the peer address for logging.
	RemoteAddr() string
}

// WriteString encodes s as one length-prefixed frame onto w.
func WriteString(w io.Writer, s string) error {
	body := []byte(s)
	if len(body) > MaxFrameSize {
		return fmt.Errorf("%w: frame of %d bytes exceeds wire limit %d", ErrProtocol, len(body), MaxFrameSize)
	}

	packet := make([]byte, headerSize+len(body))
	binary.BigEndian.PutUint16(packet[:headerSize], uint16(len(body)))
	copy(packet[headerSize:], body)

	if _, err := w.Write(packet); err != nil {
		return wrapNetErr(err)
	}
	return nil
}

// ReadString blocks until one complete frame is available on r and returns
// the decoded payload. Frames longer than limit fail with ErrProtocol.
func ReadString(r io.Reader, limit int) (string, error) {
	if limit <= 0 || limit > MaxFrameSize {
		limit = MaxFrameSize
	}

	header := make([]byte, headerSize)
	if _, err := io.ReadFull(r, header); err != nil {
		return "", wrapNetErr(err)
	}

	length := int(binary.BigEndian.Uint16(header))
	if length > limit {
		return "", fmt.Errorf("%w: announced frame of %d bytes exceeds limit %d", ErrProtocol, length, limit)
	}

	body := make([]byte, length)
	if _, err := io.ReadFull(r, body); err != nil {
		return "", wrapNetErr(err)
	}
	return string(body), nil
}

// wrapNetErr maps transport-level failures onto ErrClosed so callers can
// treat every flavor of disconnect the same way.
func wrapNetErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, net.ErrClosed) || isResetErr(err) {
		return fmt.Errorf("%w: %v", ErrClosed, err)
	}
	return err
}

func isResetErr(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "connection reset by peer") ||
		strings.Contains(msg, "broken pipe") ||
		strings.Contains(msg, "use of closed network connection")
}

type netConn struct {
	conn  net.Conn
	r     *bufio.Reader
	limit int
}

// NewConn wraps a net.Conn as a frame Conn. Incoming frames longer than
// limit fail with ErrProtocol; limit values outside (0, MaxFrameSize] fall
// back to MaxFrameSize.
func NewConn(conn net.Conn, limit int) Conn {
	if limit <= 0 || limit > MaxFrameSize {
		limit = MaxFrameSize
	}
	return &netConn{
		conn:  conn,
		r:     bufio.NewReader(conn),
		limit: limit,
	}
}

func (c *netConn) ReadFrame() (string, error) {
	return ReadString(c.r, c.limit)
}

func (c *netConn) WriteFrame(s string) error {
	return WriteString(c.conn, s)
}

func (c *netConn) Close() error {
	return c.conn.Close()
}

func (c *netConn) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}
