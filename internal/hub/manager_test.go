package hub

import (
	"context"
	"testing"
	"time"

	"crewline/internal/event"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// newTestClient builds an active client without a websocket connection so
// room and delivery behavior can be exercised in isolation.
func newTestClient(id, userID string) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Client{
		ID:         id,
		egress:     make(chan event.WsEvent, sendBufSize),
		state:      StateActive,
		userID:     userID,
		rooms:      make(map[string]struct{}),
		ctx:        ctx,
		cancel:     cancel,
		authTimer:  time.NewTimer(time.Hour),
		connClosed: make(chan struct{}),
	}
	c.connClosedOnce.Do(func() { close(c.connClosed) })
	return c
}

func newTestHub(t *testing.T) *Hub {
	t.Helper()
	h := NewHub(NewPresenceRegistry(), &Gateway{logger: zap.NewNop()}, zap.NewNop())
	t.Cleanup(h.Stop)
	return h
}

func receiveEvent(t *testing.T, c *Client) event.WsEvent {
	t.Helper()
	select {
	case ev := <-c.egress:
		return ev
	case <-time.After(time.Second):
		t.Fatalf("client %s received no event", c.ID)
		return event.WsEvent{}
	}
}

func assertNoEvent(t *testing.T, c *Client) {
	t.Helper()
	select {
	case ev := <-c.egress:
		t.Fatalf("client %s unexpectedly received %q", c.ID, ev.Event)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubRoomMembership(t *testing.T) {
	h := newTestHub(t)
	c := newTestClient("c1", "u1")

	h.JoinRoom(c, RoomChatPrefix+"abc")
	assert.True(t, c.InRoom(RoomChatPrefix+"abc"))

	h.LeaveRoom(c, RoomChatPrefix+"abc")
	assert.False(t, c.InRoom(RoomChatPrefix+"abc"))
	assert.Empty(t, c.Rooms())
}

func TestHubPublishExcludesSender(t *testing.T) {
	h := newTestHub(t)
	sender := newTestClient("c1", "u1")
	peer := newTestClient("c2", "u2")
	outsider := newTestClient("c3", "u3")

	room := RoomChatPrefix + "abc"
	h.JoinRoom(sender, room)
	h.JoinRoom(peer, room)

	ev := event.Marshal(event.EventNewMessage, room, map[string]string{"text": "hi"})
	h.Publish(room, ev, sender.ID)

	got := receiveEvent(t, peer)
	assert.Equal(t, event.EventNewMessage, got.Event)
	assertNoEvent(t, sender)
	assertNoEvent(t, outsider)
}

func TestHubPublishEmptyRoom(t *testing.T) {
	h := newTestHub(t)

	// Publishing into a room nobody joined must be a no-op, not a panic.
	h.Publish(RoomChatPrefix+"empty", event.Marshal(event.EventNewMessage, "", nil), "")
}

func TestHubEmitToUserReachesAllConnections(t *testing.T) {
	h := newTestHub(t)
	first := newTestClient("c1", "u1")
	second := newTestClient("c2", "u1")

	h.JoinRoom(first, RoomUserPrefix+"u1")
	h.JoinRoom(second, RoomUserPrefix+"u1")

	h.EmitToUser("u1", event.Marshal(event.EventNotification, "", map[string]string{"kind": "ping"}))

	require.Equal(t, event.EventNotification, receiveEvent(t, first).Event)
	require.Equal(t, event.EventNotification, receiveEvent(t, second).Event)
}

func TestHubRoomCleanupOnLastLeave(t *testing.T) {
	h := newTestHub(t)
	c := newTestClient("c1", "u1")

	room := RoomGroupPrefix + "g1"
	h.JoinRoom(c, room)
	h.LeaveRoom(c, room)

	b := h.shards[getShard(room)]
	b.RLock()
	_, exists := b.rooms[room]
	b.RUnlock()
	assert.False(t, exists, "empty room must be dropped from its shard")
}

func TestGetShardStable(t *testing.T) {
	assert.Equal(t, getShard("chat:abc"), getShard("chat:abc"))
	assert.Equal(t, uint32(0), getShard(""))
	assert.Less(t, getShard("user:u1"), uint32(shardCount))
}
