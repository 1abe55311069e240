package hub

import (
	"context"
	"encoding/json"
	"time"

	"crewline/internal/apperr"
	"crewline/internal/event"
	"crewline/internal/model"
	"crewline/internal/repo"
	"crewline/internal/service"

	"go.uber.org/zap"
)

const eventTimeout = 10 * time.Second

// Gateway translates websocket events into service calls and service results
// into room broadcasts. It owns the handshake: no client joins a room before
// its credential is verified against the directory.
type Gateway struct {
	hub *Hub

	tokens   service.TokenService
	users    repo.UserRepository
	messages service.MessageService
	chats    service.ChatService
	groups   service.GroupService
	push     service.PushProvider
	presence *PresenceRegistry
	logger   *zap.Logger
}

func NewGateway(
	tokens service.TokenService,
	users repo.UserRepository,
	messages service.MessageService,
	chats service.ChatService,
	groups service.GroupService,
	push service.PushProvider,
	presence *PresenceRegistry,
	logger *zap.Logger,
) *Gateway {
	return &Gateway{
		tokens:   tokens,
		users:    users,
		messages: messages,
		chats:    chats,
		groups:   groups,
		push:     push,
		presence: presence,
		logger:   logger,
	}
}

// SetHub completes initialization; the hub and gateway reference each other.
func (g *Gateway) SetHub(h *Hub) { g.hub = h }

// HandleEvent is the worker-pool entry point for every inbound frame.
func (g *Gateway) HandleEvent(ev event.WsEvent, c *Client) {
	if ev.Event == event.EventAuthenticate {
		g.handleAuthenticate(ev, c)
		return
	}

	if c.State() != StateActive {
		g.sendError(c, "unauthenticated", "authenticate before sending events")
		return
	}

	switch ev.Event {
	case event.EventSendMessage:
		g.handleSendMessage(ev, c)
	case event.EventTypingStart:
		g.handleTyping(ev, c, event.EventUserTyping)
	case event.EventTypingStop:
		g.handleTyping(ev, c, event.EventUserStopTyping)
	case event.EventMarkRead:
		g.handleMarkRead(ev, c)
	case event.EventJoinChat:
		g.handleJoinChat(ev, c)
	case event.EventLeaveChat:
		g.handleLeaveChat(ev, c)
	case event.EventJoinGroup:
		g.handleJoinGroup(ev, c)
	case event.EventLeaveGroup:
		g.handleLeaveGroup(ev, c)
	default:
		g.logger.Debug("unknown event type", zap.String("event", ev.Event))
		g.sendError(c, "unknown_event", "unknown event type: "+ev.Event)
	}
}

// handleAuthenticate verifies the signed credential and the user's existence,
// then activates the client: personal room, group chat rooms, presence.
// Any failure terminates the attempt; there is no retry at this layer.
func (g *Gateway) handleAuthenticate(ev event.WsEvent, c *Client) {
	if c.State() != StateConnecting {
		return
	}

	var payload event.AuthPayload
	if err := json.Unmarshal(ev.Payload, &payload); err != nil {
		g.sendError(c, "invalid_payload", "malformed authenticate payload")
		c.Close()
		return
	}

	userID, err := g.tokens.Verify(payload.Token)
	if err != nil {
		g.logger.Warn("handshake rejected", zap.Error(err))
		g.sendError(c, "auth_failed", "credential verification failed")
		c.Close()
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), eventTimeout)
	defer cancel()

	user, err := g.users.GetByUserID(ctx, userID)
	if err != nil {
		g.logger.Warn("handshake identity lookup failed",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		g.sendError(c, "auth_failed", "unknown user")
		c.Close()
		return
	}

	c.Activate(user.UserID)
	g.hub.register <- c

	// Join the chat room of every active group up front so group messages
	// arrive without an explicit join_group.
	groups, err := g.groups.ListUserGroups(ctx, user.UserID)
	if err != nil {
		g.logger.Warn("group room join skipped",
			zap.String("user_id", user.UserID),
			zap.Error(err),
		)
	} else {
		for _, grp := range groups {
			g.hub.JoinRoom(c, RoomGroupPrefix+grp.ID.Hex())
			if grp.ChatID != nil {
				g.hub.JoinRoom(c, RoomChatPrefix+grp.ChatID.Hex())
			}
		}
	}

	online := event.OnlineUsersPayload{UserIDs: g.presence.OnlineUsers()}
	c.SafeSend(event.Marshal(event.EventAuthenticated, "", online), sendTimeout)
	c.SafeSend(event.Marshal(event.EventUsersOnline, "", online), sendTimeout)
}

// handleSendMessage persists through the message service first; only a
// durably stored message (id and timestamp assigned) is broadcast, so room
// observers see creation order matching storage order.
func (g *Gateway) handleSendMessage(ev event.WsEvent, c *Client) {
	var payload event.SendMessagePayload
	if err := json.Unmarshal(ev.Payload, &payload); err != nil {
		g.sendError(c, "invalid_payload", "malformed send_message payload")
		return
	}

	input := service.SendInput{
		ReceiverID:  payload.ReceiverID,
		GroupID:     payload.GroupID,
		MessageType: payload.MessageType,
		ReplyTo:     payload.ReplyTo,
	}
	if payload.MessageType == model.MessageTypeText {
		input.Content = model.MessageContent{Text: payload.Text}
	} else if len(payload.Attachment) > 0 {
		var att model.Attachment
		if err := json.Unmarshal(payload.Attachment, &att); err != nil {
			g.sendError(c, "invalid_payload", "malformed attachment reference")
			return
		}
		input.Content = model.MessageContent{Attachment: &att}
	}

	ctx, cancel := context.WithTimeout(context.Background(), eventTimeout)
	defer cancel()

	result, err := g.messages.Send(ctx, c.UserID(), input)
	if err != nil {
		g.sendServiceError(c, err)
		return
	}

	room := RoomChatPrefix + result.Chat.ID.Hex()
	g.hub.Publish(room, event.Marshal(event.EventNewMessage, room, result.Message), "")

	// Echo to the sender when it has not joined the chat room yet (first
	// message of a fresh direct chat).
	if !c.InRoom(room) {
		g.hub.JoinRoom(c, room)
		c.SafeSend(event.Marshal(event.EventNewMessage, room, result.Message), sendTimeout)
	}

	g.fanOut(ctx, result)
}

// fanOut handles per-recipient delivery bookkeeping: notification events for
// online users, push intents for offline ones. All best-effort.
func (g *Gateway) fanOut(ctx context.Context, result *service.SendResult) {
	notification := map[string]any{
		"type":      "message",
		"chatId":    result.Chat.ID.Hex(),
		"messageId": result.Message.ID.Hex(),
		"senderId":  result.Message.SenderID,
		"preview":   result.Message.Preview(),
	}

	for _, userID := range result.Recipients {
		if g.presence.IsOnline(userID) {
			g.hub.EmitToUser(userID, event.Marshal(event.EventNotification, "", notification))
			if err := g.messages.MarkDelivered(ctx, result.Message.ID.Hex(), userID); err != nil {
				g.logger.Debug("delivery receipt failed",
					zap.String("message_id", result.Message.ID.Hex()),
					zap.String("user_id", userID),
					zap.Error(err),
				)
			}
			continue
		}
		g.push.SendPush(ctx, userID, notification)
	}
}

func (g *Gateway) handleTyping(ev event.WsEvent, c *Client, outEvent string) {
	var payload event.TypingPayload
	if err := json.Unmarshal(ev.Payload, &payload); err != nil || payload.ChatID == "" {
		g.sendError(c, "invalid_payload", "malformed typing payload")
		return
	}

	room := RoomChatPrefix + payload.ChatID
	if !c.InRoom(room) {
		g.sendError(c, "not_in_room", "join the chat before typing events")
		return
	}

	payload.UserID = c.UserID()
	g.hub.Publish(room, event.Marshal(outEvent, room, payload), c.ID)
}

func (g *Gateway) handleMarkRead(ev event.WsEvent, c *Client) {
	var payload event.MarkReadPayload
	if err := json.Unmarshal(ev.Payload, &payload); err != nil || payload.MessageID == "" {
		g.sendError(c, "invalid_payload", "malformed mark_message_read payload")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), eventTimeout)
	defer cancel()

	msg, err := g.messages.MarkRead(ctx, payload.MessageID, c.UserID())
	if err != nil {
		g.sendServiceError(c, err)
		return
	}

	room := RoomChatPrefix + msg.ChatID.Hex()
	g.hub.Publish(room, event.Marshal(event.EventMessageRead, room, event.MessageReadPayload{
		MessageID: payload.MessageID,
		ChatID:    msg.ChatID.Hex(),
		ReadBy:    c.UserID(),
		ReadAt:    time.Now().UTC().Format(time.RFC3339),
	}), "")
}

func (g *Gateway) handleJoinChat(ev event.WsEvent, c *Client) {
	var payload event.RoomPayload
	if err := json.Unmarshal(ev.Payload, &payload); err != nil || payload.ChatID == "" {
		g.sendError(c, "invalid_payload", "malformed join_chat payload")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), eventTimeout)
	defer cancel()

	// Participant check before the join; GetChat rejects outsiders.
	if _, err := g.chats.GetChat(ctx, payload.ChatID, c.UserID()); err != nil {
		g.sendServiceError(c, err)
		return
	}
	g.hub.JoinRoom(c, RoomChatPrefix+payload.ChatID)
}

func (g *Gateway) handleLeaveChat(ev event.WsEvent, c *Client) {
	var payload event.RoomPayload
	if err := json.Unmarshal(ev.Payload, &payload); err != nil || payload.ChatID == "" {
		g.sendError(c, "invalid_payload", "malformed leave_chat payload")
		return
	}
	g.hub.LeaveRoom(c, RoomChatPrefix+payload.ChatID)
}

func (g *Gateway) handleJoinGroup(ev event.WsEvent, c *Client) {
	var payload event.RoomPayload
	if err := json.Unmarshal(ev.Payload, &payload); err != nil || payload.GroupID == "" {
		g.sendError(c, "invalid_payload", "malformed join_group payload")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), eventTimeout)
	defer cancel()

	member, err := g.groups.IsMember(ctx, payload.GroupID, c.UserID())
	if err != nil {
		g.sendServiceError(c, err)
		return
	}
	if !member {
		g.sendError(c, "forbidden", "not a member of this group")
		return
	}

	g.hub.JoinRoom(c, RoomGroupPrefix+payload.GroupID)
	if grp, gerr := g.groups.GetGroup(ctx, payload.GroupID, c.UserID()); gerr == nil && grp.ChatID != nil {
		g.hub.JoinRoom(c, RoomChatPrefix+grp.ChatID.Hex())
	}
}

func (g *Gateway) handleLeaveGroup(ev event.WsEvent, c *Client) {
	var payload event.RoomPayload
	if err := json.Unmarshal(ev.Payload, &payload); err != nil || payload.GroupID == "" {
		g.sendError(c, "invalid_payload", "malformed leave_group payload")
		return
	}

	g.hub.LeaveRoom(c, RoomGroupPrefix+payload.GroupID)

	ctx, cancel := context.WithTimeout(context.Background(), eventTimeout)
	defer cancel()
	if grp, err := g.groups.GetGroup(ctx, payload.GroupID, c.UserID()); err == nil && grp.ChatID != nil {
		g.hub.LeaveRoom(c, RoomChatPrefix+grp.ChatID.Hex())
	}
}

func (g *Gateway) sendError(c *Client, code, message string) {
	c.SafeSend(event.Marshal(event.EventError, "", event.ErrorPayload{
		Code:    code,
		Message: message,
	}), sendTimeout)
}

func (g *Gateway) sendServiceError(c *Client, err error) {
	g.sendError(c, apperr.KindOf(err).String(), err.Error())
}
