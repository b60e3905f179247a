package server

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// nopConn satisfies wire.Conn for sessions that never touch the network in
// unit tests; outbound frames are inspected on the session's send buffer.
type nopConn struct{}

func (nopConn) ReadFrame() (string, error) { return "", nil }
func (nopConn) WriteFrame(string) error    { return nil }
func (nopConn) Close() error               { return nil }
func (nopConn) RemoteAddr() string         { return "test" }

func newTestSession(reg *Registry, name string) *Session {
	s := NewSession(nopConn{}, reg)
	s.name = name
	return s
}

// drain returns every frame currently queued for the session.
func drain(s *Session) []string {
	var frames []string
	for {
		select {
		case msg := <-s.send:
			frames = append(frames, msg)
		default:
			return frames
		}
	}
}

func roomNames(reg *Registry) []string {
	var names []string
	for _, info := range reg.List() {
		names = append(names, info.Name)
	}
	return names
}

func TestCreateRejectsDuplicateName(t *testing.T) {
	reg := NewRegistry()
	alice := newTestSession(reg, "alice")
	bob := newTestSession(reg, "bob")

	require.NoError(t, reg.Create(alice, "lobby"))
	require.ErrorIs(t, reg.Create(bob, "lobby"), ErrRoomExists)

	// The loser keeps whatever membership it had (none).
	assert.Nil(t, bob.room)
	assert.Equal(t, []string{"lobby"}, roomNames(reg))
}

func TestConcurrentCreateSingleWinner(t *testing.T) {
	reg := NewRegistry()

	const workers = 16
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s := newTestSession(reg, fmt.Sprintf("user-%d", i))
			errs[i] = reg.Create(s, "contested")
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
		} else {
			require.ErrorIs(t, err, ErrRoomExists)
		}
	}
	assert.Equal(t, 1, winners)
}

func TestJoinMaintainsBidirectionalInvariant(t *testing.T) {
	reg := NewRegistry()
	alice := newTestSession(reg, "alice")
	bob := newTestSession(reg, "bob")

	require.NoError(t, reg.Create(alice, "lobby"))
	require.Equal(t, "lobby", alice.room.Name())

	drain(alice)
	require.NoError(t, reg.Join(bob, "lobby"))

	require.NotNil(t, bob.room)
	assert.Equal(t, alice.room, bob.room)
	assert.Contains(t, bob.room.members, bob)
	assert.Contains(t, drain(alice), "[lobby] bob joined the room.")
	// The joiner receives the join notification too.
	assert.Contains(t, drain(bob), "[lobby] bob joined the room.")
}

func TestJoinUnknownRoomLeavesMembershipUntouched(t *testing.T) {
	reg := NewRegistry()
	alice := newTestSession(reg, "alice")
	require.NoError(t, reg.Create(alice, "lobby"))

	require.ErrorIs(t, reg.Join(alice, "nowhere"), ErrRoomNotFound)
	assert.Equal(t, "lobby", alice.room.Name())
}

func TestJoinImplicitlyLeavesCurrentRoom(t *testing.T) {
	reg := NewRegistry()
	alice := newTestSession(reg, "alice")
	bob := newTestSession(reg, "bob")

	require.NoError(t, reg.Create(alice, "one"))
	require.NoError(t, reg.Create(bob, "two"))

	drain(bob)
	require.NoError(t, reg.Join(alice, "two"))

	// "one" emptied out and disappeared; alice is only a member of "two".
	assert.Equal(t, []string{"two"}, roomNames(reg))
	assert.Equal(t, "two", alice.room.Name())
	messages := drain(bob)
	assert.Contains(t, messages, "[two] alice joined the room.")
}

func TestLeaveRemovesEmptyRoom(t *testing.T) {
	reg := NewRegistry()
	alice := newTestSession(reg, "alice")

	require.NoError(t, reg.Create(alice, "lobby"))
	require.NoError(t, reg.Leave(alice))

	assert.Nil(t, alice.room)
	assert.Empty(t, reg.List())
	require.ErrorIs(t, reg.Leave(alice), ErrNotInRoom)
}

func TestLeaveNotifiesRemainingMembers(t *testing.T) {
	reg := NewRegistry()
	alice := newTestSession(reg, "alice")
	bob := newTestSession(reg, "bob")

	require.NoError(t, reg.Create(alice, "lobby"))
	require.NoError(t, reg.Join(bob, "lobby"))
	drain(alice)
	drain(bob)

	require.NoError(t, reg.Leave(bob))

	assert.Contains(t, drain(alice), "[lobby] bob left the room.")
	assert.Empty(t, drain(bob))
	assert.Equal(t, []string{"lobby"}, roomNames(reg))
}

func TestKickRequiresOwnership(t *testing.T) {
	reg := NewRegistry()
	alice := newTestSession(reg, "alice")
	bob := newTestSession(reg, "bob")

	require.NoError(t, reg.Create(alice, "lobby"))
	require.NoError(t, reg.Join(bob, "lobby"))

	require.ErrorIs(t, reg.Kick(bob, "alice"), ErrNotOwner)
	require.NotNil(t, alice.room)

	roomless := newTestSession(reg, "carol")
	require.ErrorIs(t, reg.Kick(roomless, "bob"), ErrNotOwner)
}

func TestKickRemovesTargetAndNotifies(t *testing.T) {
	reg := NewRegistry()
	alice := newTestSession(reg, "alice")
	bob := newTestSession(reg, "bob")

	require.NoError(t, reg.Create(alice, "lobby"))
	require.NoError(t, reg.Join(bob, "lobby"))
	drain(alice)
	drain(bob)

	require.NoError(t, reg.Kick(alice, "bob"))

	assert.Nil(t, bob.room)
	bobMsgs := drain(bob)
	assert.Contains(t, bobMsgs, "You have been kicked from room 'lobby'.")
	assert.NotContains(t, bobMsgs, "[lobby] bob was kicked by owner.")
	assert.Contains(t, drain(alice), "[lobby] bob was kicked by owner.")

	require.ErrorIs(t, reg.Kick(alice, "bob"), ErrMemberNotFound)
}

func TestKickNeverRemovesEmptyRoom(t *testing.T) {
	reg := NewRegistry()
	alice := newTestSession(reg, "alice")

	require.NoError(t, reg.Create(alice, "lobby"))

	// Owner self-kick empties the room, yet the room stays registered: the
	// kick path deliberately skips the empty-room check.
	require.NoError(t, reg.Kick(alice, "alice"))
	assert.Nil(t, alice.room)
	assert.Equal(t, []string{"lobby"}, roomNames(reg))
}

func TestCloseRoomClearsEveryMember(t *testing.T) {
	reg := NewRegistry()
	alice := newTestSession(reg, "alice")
	bob := newTestSession(reg, "bob")

	require.NoError(t, reg.Create(alice, "lobby"))
	require.NoError(t, reg.Join(bob, "lobby"))
	drain(alice)
	drain(bob)

	require.ErrorIs(t, reg.CloseRoom(bob), ErrNotOwner)
	require.NoError(t, reg.CloseRoom(alice))

	assert.Nil(t, alice.room)
	assert.Nil(t, bob.room)
	assert.Empty(t, reg.List())

	bobMsgs := drain(bob)
	assert.Contains(t, bobMsgs, "[lobby] Room is closed by owner.")
	assert.Contains(t, bobMsgs, "Disconnected. Room closed.")

	aliceMsgs := drain(alice)
	assert.Contains(t, aliceMsgs, "[lobby] Room is closed by owner.")
	assert.NotContains(t, aliceMsgs, "Disconnected. Room closed.")
}

func TestBroadcastExcludesSender(t *testing.T) {
	reg := NewRegistry()
	alice := newTestSession(reg, "alice")
	bob := newTestSession(reg, "bob")

	require.NoError(t, reg.Create(alice, "lobby"))
	require.NoError(t, reg.Join(bob, "lobby"))
	drain(alice)
	drain(bob)

	require.NoError(t, reg.Broadcast(bob, "hi"))

	assert.Equal(t, []string{"[lobby] bob: hi"}, drain(alice))
	assert.Empty(t, drain(bob))
}

func TestBroadcastWithoutRoom(t *testing.T) {
	reg := NewRegistry()
	alice := newTestSession(reg, "alice")

	require.ErrorIs(t, reg.Broadcast(alice, "hi"), ErrNotInRoom)
}

func TestDropNotifiesDisconnect(t *testing.T) {
	reg := NewRegistry()
	alice := newTestSession(reg, "alice")
	bob := newTestSession(reg, "bob")

	require.NoError(t, reg.Create(alice, "lobby"))
	require.NoError(t, reg.Join(bob, "lobby"))
	drain(alice)

	reg.Drop(bob, causeDisconnected)

	assert.Contains(t, drain(alice), "[lobby] bob disconnected.")
	assert.Nil(t, bob.room)

	// Dropping a roomless session is a no-op.
	reg.Drop(bob, causeDisconnected)
	assert.Equal(t, []string{"lobby"}, roomNames(reg))
}

func TestOwnerIsFixedAtCreation(t *testing.T) {
	reg := NewRegistry()
	alice := newTestSession(reg, "alice")
	bob := newTestSession(reg, "bob")

	require.NoError(t, reg.Create(alice, "lobby"))
	require.NoError(t, reg.Join(bob, "lobby"))
	require.NoError(t, reg.Leave(alice))

	// The owner left; ownership is not reassigned.
	room, err := reg.Lookup("lobby")
	require.NoError(t, err)
	assert.Equal(t, "alice", room.Owner())
	require.ErrorIs(t, reg.CloseRoom(bob), ErrNotOwner)
}
