package server

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatchCreateAndReply(t *testing.T) {
	reg := NewRegistry()
	alice := newTestSession(reg, "alice")

	require.NoError(t, dispatch(alice, "/create lobby"))
	assert.Contains(t, drain(alice), "Room 'lobby' created and joined.")

	bob := newTestSession(reg, "bob")
	require.NoError(t, dispatch(bob, "/create lobby"))
	assert.Contains(t, drain(bob), "Room already exists.")
}

func TestDispatchJoinFailure(t *testing.T) {
	reg := NewRegistry()
	alice := newTestSession(reg, "alice")

	require.NoError(t, dispatch(alice, "/join nowhere"))
	assert.Contains(t, drain(alice), "Room not found.")
}

func TestDispatchRoomsListing(t *testing.T) {
	reg := NewRegistry()
	alice := newTestSession(reg, "alice")
	require.NoError(t, dispatch(alice, "/create lobby"))
	drain(alice)

	require.NoError(t, dispatch(alice, "/rooms"))
	frames := drain(alice)
	require.Len(t, frames, 1)
	assert.True(t, strings.HasPrefix(frames[0], "Available rooms:\n"))
	assert.Contains(t, frames[0], "- lobby (Owner: alice)\n")
}

func TestDispatchRoomsListingEmpty(t *testing.T) {
	reg := NewRegistry()
	alice := newTestSession(reg, "alice")

	require.NoError(t, dispatch(alice, "/rooms"))
	assert.Equal(t, []string{"Available rooms:\n"}, drain(alice))
}

func TestDispatchLeaveReplies(t *testing.T) {
	reg := NewRegistry()
	alice := newTestSession(reg, "alice")

	require.NoError(t, dispatch(alice, "/leave"))
	assert.Contains(t, drain(alice), "You are not in any room.")

	require.NoError(t, dispatch(alice, "/create lobby"))
	drain(alice)
	require.NoError(t, dispatch(alice, "/leave"))
	assert.Contains(t, drain(alice), "You left the room.")
}

func TestDispatchKickErrorMapping(t *testing.T) {
	reg := NewRegistry()
	alice := newTestSession(reg, "alice")
	bob := newTestSession(reg, "bob")

	require.NoError(t, dispatch(bob, "/kick alice"))
	assert.Contains(t, drain(bob), "You are not the owner or not in a room.")

	require.NoError(t, dispatch(alice, "/create lobby"))
	drain(alice)
	require.NoError(t, dispatch(alice, "/kick bob"))
	assert.Contains(t, drain(alice), "User not found in room.")
}

func TestDispatchCloseRequiresOwner(t *testing.T) {
	reg := NewRegistry()
	alice := newTestSession(reg, "alice")
	bob := newTestSession(reg, "bob")

	require.NoError(t, dispatch(alice, "/create lobby"))
	require.NoError(t, reg.Join(bob, "lobby"))
	drain(bob)

	require.NoError(t, dispatch(bob, "/close"))
	assert.Contains(t, drain(bob), "You are not the owner or not in a room.")
}

func TestDispatchChatRequiresRoom(t *testing.T) {
	reg := NewRegistry()
	alice := newTestSession(reg, "alice")

	require.NoError(t, dispatch(alice, "hello?"))
	assert.Contains(t, drain(alice), "Join a room to chat. Use /rooms or /join <name>.")
}

func TestDispatchExitIsCaseInsensitive(t *testing.T) {
	reg := NewRegistry()
	alice := newTestSession(reg, "alice")

	for _, line := range []string{"exit", "EXIT", "Exit"} {
		require.ErrorIs(t, dispatch(alice, line), errExit)
	}
}

func TestDispatchCommandTokensAreCaseSensitive(t *testing.T) {
	reg := NewRegistry()
	alice := newTestSession(reg, "alice")

	// "/Rooms" matches no command and is treated as chat text.
	require.NoError(t, dispatch(alice, "/Rooms"))
	assert.Contains(t, drain(alice), "Join a room to chat. Use /rooms or /join <name>.")
}

func TestDispatchBareCommandTokenFallsThroughToChat(t *testing.T) {
	reg := NewRegistry()
	alice := newTestSession(reg, "alice")

	// Without the trailing space "/create" matches nothing, as in the
	// original system, and is relayed as chat text.
	require.NoError(t, dispatch(alice, "/create"))
	assert.Contains(t, drain(alice), "Join a room to chat. Use /rooms or /join <name>.")
	assert.Empty(t, reg.List())
}

func TestDispatchChatRelayedToRoomMates(t *testing.T) {
	reg := NewRegistry()
	alice := newTestSession(reg, "alice")
	bob := newTestSession(reg, "bob")

	require.NoError(t, dispatch(alice, "/create lobby"))
	require.NoError(t, dispatch(bob, "/join lobby"))
	drain(alice)
	drain(bob)

	require.NoError(t, dispatch(bob, "hi"))
	assert.Equal(t, []string{"[lobby] bob: hi"}, drain(alice))
	assert.Empty(t, drain(bob))
}
