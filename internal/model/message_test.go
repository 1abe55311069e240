package model

import (
	"strings"
	"testing"

	"crewline/internal/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestNewMessage(t *testing.T) {
	gid := primitive.NewObjectID()
	attachment := &Attachment{URL: "https://store/abc", ObjectID: "abc", Name: "report.pdf"}

	ts := []struct {
		name        string
		sender      string
		target      MessageTarget
		messageType string
		content     MessageContent
		wantErr     bool
	}{
		{
			name:        "direct text",
			sender:      "u1",
			target:      MessageTarget{ReceiverID: "u2"},
			messageType: MessageTypeText,
			content:     MessageContent{Text: "hello"},
		},
		{
			name:        "group document",
			sender:      "u1",
			target:      MessageTarget{GroupID: &gid},
			messageType: MessageTypeDocument,
			content:     MessageContent{Attachment: attachment},
		},
		{
			name:        "missing sender",
			sender:      "",
			target:      MessageTarget{ReceiverID: "u2"},
			messageType: MessageTypeText,
			content:     MessageContent{Text: "hi"},
			wantErr:     true,
		},
		{
			name:        "both receiver and group",
			sender:      "u1",
			target:      MessageTarget{ReceiverID: "u2", GroupID: &gid},
			messageType: MessageTypeText,
			content:     MessageContent{Text: "hi"},
			wantErr:     true,
		},
		{
			name:        "neither receiver nor group",
			sender:      "u1",
			target:      MessageTarget{},
			messageType: MessageTypeText,
			content:     MessageContent{Text: "hi"},
			wantErr:     true,
		},
		{
			name:        "unknown type",
			sender:      "u1",
			target:      MessageTarget{ReceiverID: "u2"},
			messageType: "sticker",
			content:     MessageContent{Text: "hi"},
			wantErr:     true,
		},
		{
			name:        "text message with empty text",
			sender:      "u1",
			target:      MessageTarget{ReceiverID: "u2"},
			messageType: MessageTypeText,
			content:     MessageContent{},
			wantErr:     true,
		},
		{
			name:        "text message carrying an attachment",
			sender:      "u1",
			target:      MessageTarget{ReceiverID: "u2"},
			messageType: MessageTypeText,
			content:     MessageContent{Text: "hi", Attachment: attachment},
			wantErr:     true,
		},
		{
			name:        "image without attachment",
			sender:      "u1",
			target:      MessageTarget{ReceiverID: "u2"},
			messageType: MessageTypeImage,
			content:     MessageContent{},
			wantErr:     true,
		},
		{
			name:        "image carrying text",
			sender:      "u1",
			target:      MessageTarget{ReceiverID: "u2"},
			messageType: MessageTypeImage,
			content:     MessageContent{Text: "caption", Attachment: attachment},
			wantErr:     true,
		},
	}

	for _, tt := range ts {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := NewMessage(tt.sender, tt.target, tt.messageType, tt.content)

			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, apperr.IsValidation(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.sender, msg.SenderID)
			assert.Equal(t, tt.messageType, msg.MessageType)
			assert.False(t, msg.CreatedAt.IsZero())
			assert.NotNil(t, msg.ReadBy)
			assert.NotNil(t, msg.DeliveredTo)
		})
	}
}

func TestMessagePreview(t *testing.T) {
	short := Message{MessageType: MessageTypeText, Content: MessageContent{Text: "see you at standup"}}
	assert.Equal(t, "see you at standup", short.Preview())

	long := Message{MessageType: MessageTypeText, Content: MessageContent{Text: strings.Repeat("a", 200)}}
	assert.Len(t, long.Preview(), 80)

	file := Message{MessageType: MessageTypeDocument}
	assert.Equal(t, "[document]", file.Preview())
}

func TestMessageReadByUser(t *testing.T) {
	msg := Message{ReadBy: []Receipt{{UserID: "u2"}}}

	assert.True(t, msg.ReadByUser("u2"))
	assert.False(t, msg.ReadByUser("u3"))
}
