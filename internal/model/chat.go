package model

import (
	"sort"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Chat types
const (
	ChatTypeDirect = "direct"
	ChatTypeGroup  = "group"
)

// Chat represents a conversation document in MongoDB. Direct chats carry
// exactly two participants and a DirectKey; group chats back-reference the
// Group whose membership they mirror.
type Chat struct {
	ID           primitive.ObjectID     `json:"id" bson:"_id,omitempty"`
	ChatType     string                 `json:"chatType" bson:"chat_type"`
	Participants []string               `json:"participants" bson:"participants"`
	DirectKey    string                 `json:"-" bson:"direct_key,omitempty"`
	GroupID      *primitive.ObjectID    `json:"groupId,omitempty" bson:"group_id,omitempty"`
	LastMessage  *LastMessage           `json:"lastMessage" bson:"last_message"`
	LastActivity time.Time              `json:"lastActivity" bson:"last_activity"`
	Unread       map[string]UnreadState `json:"unread" bson:"unread"`
	MutedBy      []UserMark             `json:"mutedBy" bson:"muted_by"`
	PinnedBy     []UserMark             `json:"pinnedBy" bson:"pinned_by"`
	ArchivedBy   []UserMark             `json:"archivedBy" bson:"archived_by"`
	IsActive     bool                   `json:"isActive" bson:"is_active"`
	CreatedAt    time.Time              `json:"createdAt" bson:"created_at"`
	UpdatedAt    time.Time              `json:"updatedAt" bson:"updated_at"`
}

// UnreadState tracks the per-user unread counter for a chat.
type UnreadState struct {
	Count      int64      `json:"count" bson:"count"`
	LastReadAt *time.Time `json:"lastReadAt" bson:"last_read_at"`
}

// UserMark records a per-user flag (mute/pin/archive) with its timestamp.
type UserMark struct {
	UserID string    `json:"userId" bson:"user_id"`
	At     time.Time `json:"at" bson:"at"`
}

// LastMessage stores the most recent message preview on the chat document.
type LastMessage struct {
	MessageID primitive.ObjectID `json:"messageId" bson:"message_id"`
	Preview   string             `json:"preview" bson:"preview"`
	SenderID  string             `json:"senderId" bson:"sender_id"`
	SentAt    time.Time          `json:"sentAt" bson:"sent_at"`
}

// ChatSummary is the API-facing view of a chat for one user.
type ChatSummary struct {
	Chat        Chat   `json:"chat"`
	DisplayName string `json:"displayName"`
	UnreadCount int64  `json:"unreadCount"`
}

// DirectKey builds the canonical identity of a direct chat: the participant
// pair sorted and joined, so (A,B) and (B,A) collide on the unique index.
func DirectKey(userA, userB string) string {
	pair := []string{userA, userB}
	sort.Strings(pair)
	return strings.Join(pair, ":")
}

// NewDirectChat constructs an active two-party chat.
func NewDirectChat(userA, userB string) Chat {
	now := time.Now().UTC()
	return Chat{
		ChatType:     ChatTypeDirect,
		Participants: []string{userA, userB},
		DirectKey:    DirectKey(userA, userB),
		Unread:       map[string]UnreadState{},
		LastActivity: now,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// NewGroupChat constructs the backing chat for a group.
func NewGroupChat(groupID primitive.ObjectID, participants []string) Chat {
	now := time.Now().UTC()
	return Chat{
		ChatType:     ChatTypeGroup,
		Participants: participants,
		GroupID:      &groupID,
		Unread:       map[string]UnreadState{},
		LastActivity: now,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// HasParticipant reports whether userID belongs to the chat.
func (c *Chat) HasParticipant(userID string) bool {
	for _, p := range c.Participants {
		if p == userID {
			return true
		}
	}
	return false
}

// OtherParticipant returns the peer of userID in a direct chat.
func (c *Chat) OtherParticipant(userID string) string {
	for _, p := range c.Participants {
		if p != userID {
			return p
		}
	}
	return ""
}

// UnreadFor returns the unread counter for userID, zero when absent.
func (c *Chat) UnreadFor(userID string) int64 {
	if c.Unread == nil {
		return 0
	}
	return c.Unread[userID].Count
}
