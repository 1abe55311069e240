package repo

import (
	"context"
	"testing"

	"crewline/internal/db"
	"crewline/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
	"go.uber.org/zap"
)

func newMockedChatRepository(mt *mtest.T) ChatRepository {
	store := db.NewRepository[model.Chat](mt.DB, mt.Coll.Name())
	return NewChatRepository(mt.DB, store, zap.NewNop())
}

func TestFindOrCreateDirectInsertRace(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("loser of the insert race returns the winner's chat", func(mt *mtest.T) {
		winnerID := primitive.NewObjectID()
		ns := mt.DB.Name() + "." + mt.Coll.Name()

		// Nothing stored when this caller looks.
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))
		// A concurrent caller took the unique direct_key slot in the meantime.
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "E11000 duplicate key error collection: " + ns + " index: direct_key_1",
		}))
		// The refetch lands on the winner's document.
		mt.AddMockResponses(mtest.CreateCursorResponse(1, ns, mtest.FirstBatch, bson.D{
			{Key: "_id", Value: winnerID},
			{Key: "chat_type", Value: model.ChatTypeDirect},
			{Key: "participants", Value: bson.A{"u1", "u2"}},
			{Key: "direct_key", Value: model.DirectKey("u1", "u2")},
			{Key: "is_active", Value: true},
		}))

		r := newMockedChatRepository(mt)

		// Reversed argument order on purpose: (B,A) must land on the same key.
		chat, created, err := r.FindOrCreateDirect(context.Background(), "u2", "u1")

		require.NoError(mt.T, err)
		assert.False(mt.T, created, "the losing caller must not report a creation")
		assert.Equal(mt.T, winnerID, chat.ID)
		assert.Equal(mt.T, model.DirectKey("u1", "u2"), chat.DirectKey)
		assert.ElementsMatch(mt.T, []string{"u1", "u2"}, chat.Participants)
	})

	mt.Run("refetch failure after a lost race surfaces a conflict", func(mt *mtest.T) {
		ns := mt.DB.Name() + "." + mt.Coll.Name()

		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "E11000 duplicate key error",
		}))
		// The winner's chat vanished between the insert and the refetch.
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		r := newMockedChatRepository(mt)

		_, _, err := r.FindOrCreateDirect(context.Background(), "u1", "u2")
		require.Error(mt.T, err)
	})

	mt.Run("existing chat is returned without an insert", func(mt *mtest.T) {
		existingID := primitive.NewObjectID()
		ns := mt.DB.Name() + "." + mt.Coll.Name()

		mt.AddMockResponses(mtest.CreateCursorResponse(1, ns, mtest.FirstBatch, bson.D{
			{Key: "_id", Value: existingID},
			{Key: "chat_type", Value: model.ChatTypeDirect},
			{Key: "participants", Value: bson.A{"u1", "u2"}},
			{Key: "direct_key", Value: model.DirectKey("u1", "u2")},
			{Key: "is_active", Value: true},
		}))

		r := newMockedChatRepository(mt)

		chat, created, err := r.FindOrCreateDirect(context.Background(), "u1", "u2")

		require.NoError(mt.T, err)
		assert.False(mt.T, created)
		assert.Equal(mt.T, existingID, chat.ID)
	})
}
