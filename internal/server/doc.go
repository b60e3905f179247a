// Package server implements the core multi-room chat service for Parley.
//
// The implementation is organized into specialized files for configuration,
// the room registry, rooms, sessions, command dispatch, the TCP acceptor,
// and the WebSocket gateway to keep the codebase maintainable and testable
// as the project grows.
package server
