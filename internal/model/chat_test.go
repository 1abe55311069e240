package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDirectKeyOrderIndependent(t *testing.T) {
	assert.Equal(t, DirectKey("alice", "bob"), DirectKey("bob", "alice"))
	assert.Equal(t, "alice:bob", DirectKey("bob", "alice"))
}

func TestNewDirectChat(t *testing.T) {
	chat := NewDirectChat("u2", "u1")

	assert.Equal(t, ChatTypeDirect, chat.ChatType)
	assert.Equal(t, "u1:u2", chat.DirectKey)
	assert.True(t, chat.IsActive)
	assert.Len(t, chat.Participants, 2)
	assert.NotNil(t, chat.Unread)
}

func TestChatParticipants(t *testing.T) {
	chat := NewDirectChat("u1", "u2")

	assert.True(t, chat.HasParticipant("u1"))
	assert.False(t, chat.HasParticipant("u3"))
	assert.Equal(t, "u2", chat.OtherParticipant("u1"))
	assert.Equal(t, "u1", chat.OtherParticipant("u2"))
}

func TestChatUnreadFor(t *testing.T) {
	chat := Chat{Unread: map[string]UnreadState{"u1": {Count: 7}}}

	assert.Equal(t, int64(7), chat.UnreadFor("u1"))
	assert.Equal(t, int64(0), chat.UnreadFor("u2"))

	var bare Chat
	assert.Equal(t, int64(0), bare.UnreadFor("u1"))
}
