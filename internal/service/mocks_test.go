package service_test

import (
	"context"

	"crewline/internal/db"
	"crewline/internal/model"

	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type MockChatRepository struct {
	mock.Mock
}

func (m *MockChatRepository) EnsureIndexes(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockChatRepository) FindOrCreateDirect(ctx context.Context, userA, userB string) (*model.Chat, bool, error) {
	args := m.Called(ctx, userA, userB)
	chat, _ := args.Get(0).(*model.Chat)
	return chat, args.Bool(1), args.Error(2)
}

func (m *MockChatRepository) CreateGroupChat(ctx context.Context, chat model.Chat) (*model.Chat, error) {
	args := m.Called(ctx, chat)
	created, _ := args.Get(0).(*model.Chat)
	return created, args.Error(1)
}

func (m *MockChatRepository) GetByID(ctx context.Context, chatID string) (*model.Chat, error) {
	args := m.Called(ctx, chatID)
	chat, _ := args.Get(0).(*model.Chat)
	return chat, args.Error(1)
}

func (m *MockChatRepository) GetByGroupID(ctx context.Context, groupID primitive.ObjectID) (*model.Chat, error) {
	args := m.Called(ctx, groupID)
	chat, _ := args.Get(0).(*model.Chat)
	return chat, args.Error(1)
}

func (m *MockChatRepository) GetUserChats(ctx context.Context, userID string) ([]model.Chat, error) {
	args := m.Called(ctx, userID)
	chats, _ := args.Get(0).([]model.Chat)
	return chats, args.Error(1)
}

func (m *MockChatRepository) IncrementUnread(ctx context.Context, chatID string, userIDs []string) error {
	return m.Called(ctx, chatID, userIDs).Error(0)
}

func (m *MockChatRepository) ResetUnread(ctx context.Context, chatID, userID string) error {
	return m.Called(ctx, chatID, userID).Error(0)
}

func (m *MockChatRepository) SetLastMessage(ctx context.Context, chatID string, lm model.LastMessage) error {
	return m.Called(ctx, chatID, lm).Error(0)
}

func (m *MockChatRepository) SetParticipants(ctx context.Context, chatID string, participants []string) error {
	return m.Called(ctx, chatID, participants).Error(0)
}

func (m *MockChatRepository) Deactivate(ctx context.Context, chatID string) error {
	return m.Called(ctx, chatID).Error(0)
}

func (m *MockChatRepository) Purge(ctx context.Context, chatID string) error {
	return m.Called(ctx, chatID).Error(0)
}

type MockGroupRepository struct {
	mock.Mock
}

func (m *MockGroupRepository) Create(ctx context.Context, group model.Group) (*model.Group, error) {
	args := m.Called(ctx, group)
	created, _ := args.Get(0).(*model.Group)
	return created, args.Error(1)
}

func (m *MockGroupRepository) GetByID(ctx context.Context, groupID string) (*model.Group, error) {
	args := m.Called(ctx, groupID)
	group, _ := args.Get(0).(*model.Group)
	return group, args.Error(1)
}

func (m *MockGroupRepository) ListByMember(ctx context.Context, userID string) ([]model.Group, error) {
	args := m.Called(ctx, userID)
	groups, _ := args.Get(0).([]model.Group)
	return groups, args.Error(1)
}

func (m *MockGroupRepository) SharedGroupExists(ctx context.Context, userA, userB string) (bool, error) {
	args := m.Called(ctx, userA, userB)
	return args.Bool(0), args.Error(1)
}

func (m *MockGroupRepository) AddMembers(ctx context.Context, groupID string, members []model.GroupMember) error {
	return m.Called(ctx, groupID, members).Error(0)
}

func (m *MockGroupRepository) RemoveMember(ctx context.Context, groupID, userID string) error {
	return m.Called(ctx, groupID, userID).Error(0)
}

func (m *MockGroupRepository) SetSettings(ctx context.Context, groupID string, fields bson.M) error {
	return m.Called(ctx, groupID, fields).Error(0)
}

func (m *MockGroupRepository) SetChatID(ctx context.Context, groupID string, chatID primitive.ObjectID) error {
	return m.Called(ctx, groupID, chatID).Error(0)
}

func (m *MockGroupRepository) Deactivate(ctx context.Context, groupID string) error {
	return m.Called(ctx, groupID).Error(0)
}

func (m *MockGroupRepository) FindWithoutChat(ctx context.Context) ([]model.Group, error) {
	args := m.Called(ctx)
	groups, _ := args.Get(0).([]model.Group)
	return groups, args.Error(1)
}

type MockMessageRepository struct {
	mock.Mock
}

func (m *MockMessageRepository) Insert(ctx context.Context, msg *model.Message) (*model.Message, error) {
	args := m.Called(ctx, msg)
	stored, _ := args.Get(0).(*model.Message)
	return stored, args.Error(1)
}

func (m *MockMessageRepository) GetByID(ctx context.Context, messageID string) (*model.Message, error) {
	args := m.Called(ctx, messageID)
	msg, _ := args.Get(0).(*model.Message)
	return msg, args.Error(1)
}

func (m *MockMessageRepository) FindPage(ctx context.Context, chatID string, page, pageSize int64) (*db.PaginatedResult[model.Message], error) {
	args := m.Called(ctx, chatID, page, pageSize)
	result, _ := args.Get(0).(*db.PaginatedResult[model.Message])
	return result, args.Error(1)
}

func (m *MockMessageRepository) MarkRead(ctx context.Context, messageID, userID string) error {
	return m.Called(ctx, messageID, userID).Error(0)
}

func (m *MockMessageRepository) MarkDelivered(ctx context.Context, messageID, userID string) error {
	return m.Called(ctx, messageID, userID).Error(0)
}

func (m *MockMessageRepository) MarkPageRead(ctx context.Context, chatID, userID string, messageIDs []primitive.ObjectID) error {
	return m.Called(ctx, chatID, userID, messageIDs).Error(0)
}

func (m *MockMessageRepository) SoftDelete(ctx context.Context, messageID, userID string) error {
	return m.Called(ctx, messageID, userID).Error(0)
}

func (m *MockMessageRepository) DeleteByChat(ctx context.Context, chatID string) (int64, error) {
	args := m.Called(ctx, chatID)
	return args.Get(0).(int64), args.Error(1)
}

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetByUserID(ctx context.Context, userID string) (*model.User, error) {
	args := m.Called(ctx, userID)
	user, _ := args.Get(0).(*model.User)
	return user, args.Error(1)
}

func (m *MockUserRepository) ListByIDs(ctx context.Context, userIDs []string) ([]model.User, error) {
	args := m.Called(ctx, userIDs)
	users, _ := args.Get(0).([]model.User)
	return users, args.Error(1)
}

func (m *MockUserRepository) ListActive(ctx context.Context) ([]model.User, error) {
	args := m.Called(ctx)
	users, _ := args.Get(0).([]model.User)
	return users, args.Error(1)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) SendToUser(ctx context.Context, userID string, payload map[string]any) {
	m.Called(ctx, userID, payload)
}

func (m *MockNotifier) SendToRole(ctx context.Context, role string, payload map[string]any) {
	m.Called(ctx, role, payload)
}
