package hub

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"crewline/internal/apperr"
	"crewline/internal/event"
	"crewline/internal/model"
	"crewline/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// stubDirectory serves identity lookups from a fixed map.
type stubDirectory struct {
	users map[string]*model.User
}

func (d *stubDirectory) GetByUserID(_ context.Context, userID string) (*model.User, error) {
	if u, ok := d.users[userID]; ok {
		return u, nil
	}
	return nil, apperr.NotFound("user not found")
}

func (d *stubDirectory) ListByIDs(context.Context, []string) ([]model.User, error) {
	return nil, nil
}

func (d *stubDirectory) ListActive(context.Context) ([]model.User, error) {
	return nil, nil
}

// stubGroups returns a fixed group list; everything else is inert.
type stubGroups struct {
	groups []model.Group
}

func (s *stubGroups) CreateGroup(context.Context, string, string, string, string, []string) (*model.Group, error) {
	return nil, nil
}
func (s *stubGroups) GetGroup(context.Context, string, string) (*model.Group, error) {
	return nil, nil
}
func (s *stubGroups) ListUserGroups(context.Context, string) ([]model.Group, error) {
	return s.groups, nil
}
func (s *stubGroups) AddMembers(context.Context, string, string, []string) (*model.Group, error) {
	return nil, nil
}
func (s *stubGroups) RemoveMember(context.Context, string, string, string) error { return nil }
func (s *stubGroups) UpdateSettings(context.Context, string, string, model.GroupSettings) error {
	return nil
}
func (s *stubGroups) DeleteGroup(context.Context, string, string) error { return nil }

func (s *stubGroups) IsMember(context.Context, string, string) (bool, error) { return false, nil }

func (s *stubGroups) IsGroupAdmin(context.Context, string, string) (bool, error) { return false, nil }

func (s *stubGroups) ReconcileBackingChats(context.Context) (int, error) { return 0, nil }

// newConnectingClient mirrors newTestClient but stays in the handshake window.
func newConnectingClient(id string) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Client{
		ID:         id,
		egress:     make(chan event.WsEvent, sendBufSize),
		state:      StateConnecting,
		rooms:      make(map[string]struct{}),
		ctx:        ctx,
		cancel:     cancel,
		authTimer:  time.NewTimer(time.Hour),
		connClosed: make(chan struct{}),
	}
	c.connClosedOnce.Do(func() { close(c.connClosed) })
	return c
}

func authEvent(t *testing.T, token string) event.WsEvent {
	t.Helper()
	payload, err := json.Marshal(event.AuthPayload{Token: token})
	require.NoError(t, err)
	return event.WsEvent{Event: event.EventAuthenticate, Payload: payload}
}

func TestGatewayAuthenticateEmitsOnlineList(t *testing.T) {
	tokens := service.NewTokenService("test-secret")
	presence := NewPresenceRegistry()
	// A colleague is already online before the handshake.
	presence.Register("colleague", "conn-0")

	groupID := primitive.NewObjectID()
	chatID := primitive.NewObjectID()
	gateway := NewGateway(
		tokens,
		&stubDirectory{users: map[string]*model.User{"emp-1": {UserID: "emp-1"}}},
		nil, nil,
		&stubGroups{groups: []model.Group{{ID: groupID, ChatID: &chatID, IsActive: true}}},
		nil,
		presence,
		zap.NewNop(),
	)
	h := NewHub(presence, gateway, zap.NewNop())
	t.Cleanup(h.Stop)

	token, err := tokens.Issue("emp-1", time.Hour)
	require.NoError(t, err)

	c := newConnectingClient("c1")
	gateway.HandleEvent(authEvent(t, token), c)

	assert.Equal(t, StateActive, c.State())
	assert.Equal(t, "emp-1", c.UserID())
	assert.True(t, c.InRoom(RoomGroupPrefix+groupID.Hex()))
	assert.True(t, c.InRoom(RoomChatPrefix+chatID.Hex()))

	// The handshake ack comes first, then the dedicated online-list event so
	// subscribers of users:online get the roster without parsing the ack.
	ack := receiveEvent(t, c)
	require.Equal(t, event.EventAuthenticated, ack.Event)

	roster := receiveEvent(t, c)
	require.Equal(t, event.EventUsersOnline, roster.Event)
	var online event.OnlineUsersPayload
	require.NoError(t, json.Unmarshal(roster.Payload, &online))
	assert.Contains(t, online.UserIDs, "colleague")

	require.Eventually(t, func() bool {
		return presence.IsOnline("emp-1")
	}, time.Second, 10*time.Millisecond, "registration must reach the presence registry")
}

func TestGatewayAuthenticateRejectsBadToken(t *testing.T) {
	tokens := service.NewTokenService("test-secret")
	presence := NewPresenceRegistry()
	gateway := NewGateway(
		tokens,
		&stubDirectory{users: map[string]*model.User{}},
		nil, nil,
		&stubGroups{},
		nil,
		presence,
		zap.NewNop(),
	)
	h := NewHub(presence, gateway, zap.NewNop())
	t.Cleanup(h.Stop)

	c := newConnectingClient("c1")
	gateway.HandleEvent(authEvent(t, "not-a-jwt"), c)

	got := receiveEvent(t, c)
	assert.Equal(t, event.EventError, got.Event)
	assert.True(t, c.IsClosed())
	assert.Empty(t, presence.OnlineUsers())
}

func TestGatewayRejectsEventsBeforeAuth(t *testing.T) {
	tokens := service.NewTokenService("test-secret")
	presence := NewPresenceRegistry()
	gateway := NewGateway(tokens, &stubDirectory{}, nil, nil, &stubGroups{}, nil, presence, zap.NewNop())
	h := NewHub(presence, gateway, zap.NewNop())
	t.Cleanup(h.Stop)

	c := newConnectingClient("c1")
	gateway.HandleEvent(event.WsEvent{Event: event.EventSendMessage}, c)

	got := receiveEvent(t, c)
	require.Equal(t, event.EventError, got.Event)
	var perr event.ErrorPayload
	require.NoError(t, json.Unmarshal(got.Payload, &perr))
	assert.Equal(t, "unauthenticated", perr.Code)
}
