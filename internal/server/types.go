// Package server defines shared types and utility helpers that are reused
// across session, room, and registry logic.
package server

import "strings"

// RoomInfo is the point-in-time listing entry produced by Registry.List.
// The set may change the instant after the snapshot is taken; it is used for
// display only, never for control decisions.
type RoomInfo struct {
	Name  string
	Owner string
}

// partCause distinguishes the two teardown flavors a room announces when a
// member goes away.
type partCause int

const (
	causeLeft partCause = iota
	causeDisconnected
)

// partNotice returns the room notification text for a departing member.
func partNotice(name string, cause partCause) string {
	if cause == causeDisconnected {
		return name + " disconnected."
	}
	return name + " left the room."
}

// isExpectedCloseError checks if an error is expected during connection closure.
func isExpectedCloseError(err error) bool {
	if err == nil {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "use of closed network connection") ||
		strings.Contains(errStr, "websocket: close sent") ||
		strings.Contains(errStr, "broken pipe")
}
