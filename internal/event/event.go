package event

import "encoding/json"

// Client-originated events
const (
	EventAuthenticate = "authenticate"
	EventSendMessage  = "send_message"
	EventTypingStart  = "typing_start"
	EventTypingStop   = "typing_stop"
	EventMarkRead     = "mark_message_read"
	EventJoinChat     = "join_chat"
	EventLeaveChat    = "leave_chat"
	EventJoinGroup    = "join_group"
	EventLeaveGroup   = "leave_group"
)

// Server-originated events
const (
	EventAuthenticated  = "authenticated"
	EventNewMessage     = "new_message"
	EventUserTyping     = "user_typing"
	EventUserStopTyping = "user_stop_typing"
	EventMessageRead    = "message_read"
	EventUsersOnline    = "users:online"
	EventStatusChange   = "user:status_change"
	EventNotification   = "notification:new"
	EventError          = "error"
)

// WsEvent is the envelope for every frame crossing the websocket.
type WsEvent struct {
	Event   string          `json:"event"`
	Room    string          `json:"room,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// AuthPayload carries the signed handshake credential.
type AuthPayload struct {
	Token string `json:"token"`
}

// SendMessagePayload is the client request to send a message.
type SendMessagePayload struct {
	ReceiverID  string          `json:"receiverId,omitempty"`
	GroupID     string          `json:"groupId,omitempty"`
	MessageType string          `json:"messageType"`
	Text        string          `json:"text,omitempty"`
	Attachment  json.RawMessage `json:"attachment,omitempty"`
	ReplyTo     string          `json:"replyTo,omitempty"`
}

// TypingPayload identifies who is typing where.
type TypingPayload struct {
	ChatID string `json:"chatId"`
	UserID string `json:"userId,omitempty"`
}

// MarkReadPayload acknowledges one message.
type MarkReadPayload struct {
	MessageID string `json:"messageId"`
}

// RoomPayload names a chat or group room to join or leave.
type RoomPayload struct {
	ChatID  string `json:"chatId,omitempty"`
	GroupID string `json:"groupId,omitempty"`
}

// MessageReadPayload is broadcast to the room on a read receipt.
type MessageReadPayload struct {
	MessageID string `json:"messageId"`
	ChatID    string `json:"chatId"`
	ReadBy    string `json:"readBy"`
	ReadAt    string `json:"readAt"`
}

// StatusChangePayload announces a presence transition.
type StatusChangePayload struct {
	UserID string `json:"userId"`
	Online bool   `json:"online"`
}

// OnlineUsersPayload lists currently online users.
type OnlineUsersPayload struct {
	UserIDs []string `json:"userIds"`
}

// ErrorPayload is sent to a single client when its event is rejected.
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Marshal wraps payload into a WsEvent, panicking never: marshal failures of
// our own payload types indicate a programming error and yield an empty body.
func Marshal(eventName, room string, payload any) WsEvent {
	raw, err := json.Marshal(payload)
	if err != nil {
		raw = nil
	}
	return WsEvent{Event: eventName, Room: room, Payload: raw}
}
