package model

import (
	"time"

	"crewline/internal/apperr"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Message types
const (
	MessageTypeText     = "text"
	MessageTypeImage    = "image"
	MessageTypeVideo    = "video"
	MessageTypeDocument = "document"
	MessageTypeAudio    = "audio"
	MessageTypeFile     = "file"
)

// Message represents a chat message in MongoDB. Exactly one of ReceiverID and
// GroupID is set; NewMessage enforces that before anything reaches storage.
type Message struct {
	ID          primitive.ObjectID  `json:"id" bson:"_id,omitempty"`
	ChatID      primitive.ObjectID  `json:"chatId" bson:"chat_id"`
	SenderID    string              `json:"senderId" bson:"sender_id"`
	ReceiverID  string              `json:"receiverId,omitempty" bson:"receiver_id,omitempty"`
	GroupID     *primitive.ObjectID `json:"groupId,omitempty" bson:"group_id,omitempty"`
	MessageType string              `json:"messageType" bson:"message_type"`
	Content     MessageContent      `json:"content" bson:"content"`
	Metadata    MessageMetadata     `json:"metadata" bson:"metadata"`
	ReadBy      []Receipt           `json:"readBy" bson:"read_by"`
	DeliveredTo []Receipt           `json:"deliveredTo" bson:"delivered_to"`
	IsDeleted   bool                `json:"isDeleted" bson:"is_deleted"`
	DeletedAt   *time.Time          `json:"deletedAt,omitempty" bson:"deleted_at,omitempty"`
	DeletedBy   string              `json:"deletedBy,omitempty" bson:"deleted_by,omitempty"`
	CreatedAt   time.Time           `json:"createdAt" bson:"created_at"`
}

// MessageContent is a tagged union keyed by Message.MessageType: the text
// variant carries Text, every file-like variant carries Attachment. Only the
// variant matching the type may be set.
type MessageContent struct {
	Text       string      `json:"text,omitempty" bson:"text,omitempty"`
	Attachment *Attachment `json:"attachment,omitempty" bson:"attachment,omitempty"`
}

// Attachment is the stored reference to an object uploaded out-of-band.
// Raw bytes never land in the message document.
type Attachment struct {
	URL      string `json:"url" bson:"url"`
	ObjectID string `json:"objectId" bson:"object_id"`
	Name     string `json:"name,omitempty" bson:"name,omitempty"`
	Size     int64  `json:"size,omitempty" bson:"size,omitempty"`
	MimeType string `json:"mimeType,omitempty" bson:"mime_type,omitempty"`
}

// MessageMetadata carries edit/reply/forward bookkeeping.
type MessageMetadata struct {
	Edited        bool                `json:"edited" bson:"edited"`
	EditedAt      *time.Time          `json:"editedAt,omitempty" bson:"edited_at,omitempty"`
	ReplyTo       *primitive.ObjectID `json:"replyTo,omitempty" bson:"reply_to,omitempty"`
	Forwarded     bool                `json:"forwarded" bson:"forwarded"`
	ForwardedFrom string              `json:"forwardedFrom,omitempty" bson:"forwarded_from,omitempty"`
}

// Receipt is one entry of an append-only, idempotent acknowledgement set.
type Receipt struct {
	UserID string    `json:"userId" bson:"user_id"`
	At     time.Time `json:"at" bson:"at"`
}

// MessageTarget names exactly one destination for a message.
type MessageTarget struct {
	ReceiverID string
	GroupID    *primitive.ObjectID
}

// Validate rejects targets with both or neither destination set.
func (t MessageTarget) Validate() error {
	hasReceiver := t.ReceiverID != ""
	hasGroup := t.GroupID != nil && !t.GroupID.IsZero()
	if hasReceiver == hasGroup {
		return apperr.Validation("message target must be exactly one of receiver or group")
	}
	return nil
}

// IsDirect reports whether the target is a single receiver.
func (t MessageTarget) IsDirect() bool { return t.ReceiverID != "" }

func validMessageType(t string) bool {
	switch t {
	case MessageTypeText, MessageTypeImage, MessageTypeVideo,
		MessageTypeDocument, MessageTypeAudio, MessageTypeFile:
		return true
	}
	return false
}

func validateContent(messageType string, content MessageContent) error {
	if messageType == MessageTypeText {
		if content.Text == "" {
			return apperr.Validation("text message requires non-empty text content")
		}
		if content.Attachment != nil {
			return apperr.Validation("text message cannot carry an attachment")
		}
		return nil
	}
	if content.Attachment == nil || content.Attachment.URL == "" {
		return apperr.Validationf("%s message requires an attachment reference", messageType)
	}
	if content.Text != "" {
		return apperr.Validationf("%s message cannot carry text content", messageType)
	}
	return nil
}

// NewMessage constructs an unsent message, validating the target union, the
// message type, and that the content variant matches the type.
func NewMessage(sender string, target MessageTarget, messageType string, content MessageContent) (Message, error) {
	if sender == "" {
		return Message{}, apperr.Validation("sender is required")
	}
	if err := target.Validate(); err != nil {
		return Message{}, err
	}
	if !validMessageType(messageType) {
		return Message{}, apperr.Validationf("unknown message type %q", messageType)
	}
	if err := validateContent(messageType, content); err != nil {
		return Message{}, err
	}
	return Message{
		SenderID:    sender,
		ReceiverID:  target.ReceiverID,
		GroupID:     target.GroupID,
		MessageType: messageType,
		Content:     content,
		ReadBy:      []Receipt{},
		DeliveredTo: []Receipt{},
		CreatedAt:   time.Now().UTC(),
	}, nil
}

// Preview returns the short text shown in chat lists.
func (m *Message) Preview() string {
	if m.MessageType == MessageTypeText {
		if len(m.Content.Text) > 80 {
			return m.Content.Text[:80]
		}
		return m.Content.Text
	}
	return "[" + m.MessageType + "]"
}

// ReadByUser reports whether userID already has a read receipt.
func (m *Message) ReadByUser(userID string) bool {
	for _, r := range m.ReadBy {
		if r.UserID == userID {
			return true
		}
	}
	return false
}
