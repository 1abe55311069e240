package service

import (
	"context"

	"crewline/internal/apperr"
	"crewline/internal/model"
	"crewline/internal/repo"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// SendInput is the transport-agnostic send request. Exactly one of ReceiverID
// and GroupID must be set.
type SendInput struct {
	ReceiverID  string
	GroupID     string
	MessageType string
	Content     model.MessageContent
	ReplyTo     string
}

// SendResult carries everything the caller needs after a persisted send: the
// stored message, the chat it landed in, and who else should hear about it.
type SendResult struct {
	Message    model.Message
	Chat       model.Chat
	Recipients []string
}

// MessageService implements the message store operations. Ordering contract:
// Send returns only after the message is durably persisted with its id and
// timestamp, so callers broadcasting afterwards preserve storage order.
type MessageService interface {
	Send(ctx context.Context, senderID string, input SendInput) (*SendResult, error)
	List(ctx context.Context, chatID, requesterID string, page, pageSize int64) ([]model.Message, error)
	Fetch(ctx context.Context, chatID, requesterID string, page, pageSize int64) ([]model.Message, error)
	MarkRead(ctx context.Context, messageID, userID string) (*model.Message, error)
	MarkDelivered(ctx context.Context, messageID, userID string) error
	SoftDelete(ctx context.Context, messageID, requesterID string) error
	ListMessagableUsers(ctx context.Context, requesterID string) ([]model.User, error)
}

type messageService struct {
	messages repo.MessageRepository
	chats    repo.ChatRepository
	groups   repo.GroupRepository
	users    repo.UserRepository
	perms    PermissionEngine
	logger   *zap.Logger
}

func NewMessageService(
	messages repo.MessageRepository,
	chats repo.ChatRepository,
	groups repo.GroupRepository,
	users repo.UserRepository,
	perms PermissionEngine,
	logger *zap.Logger,
) MessageService {
	return &messageService{
		messages: messages,
		chats:    chats,
		groups:   groups,
		users:    users,
		perms:    perms,
		logger:   logger,
	}
}

// Send validates the target, routes through the permission engine or group
// membership, persists the message, and updates the chat's last-message and
// unread counters. Nothing is persisted when any check fails.
func (s *messageService) Send(ctx context.Context, senderID string, input SendInput) (*SendResult, error) {
	sender, err := s.users.GetByUserID(ctx, senderID)
	if err != nil {
		return nil, err
	}

	target := model.MessageTarget{ReceiverID: input.ReceiverID}
	if input.GroupID != "" {
		gid, gerr := primitive.ObjectIDFromHex(input.GroupID)
		if gerr != nil {
			return nil, apperr.Validation("malformed group id")
		}
		target.GroupID = &gid
	}

	msg, err := model.NewMessage(senderID, target, input.MessageType, input.Content)
	if err != nil {
		return nil, err
	}
	if input.ReplyTo != "" {
		rid, rerr := primitive.ObjectIDFromHex(input.ReplyTo)
		if rerr != nil {
			return nil, apperr.Validation("malformed reply-to id")
		}
		msg.Metadata.ReplyTo = &rid
	}

	var chat *model.Chat
	if target.IsDirect() {
		chat, err = s.resolveDirectChat(ctx, sender, input.ReceiverID)
	} else {
		chat, err = s.resolveGroupChat(ctx, sender, *target.GroupID)
	}
	if err != nil {
		return nil, err
	}

	msg.ChatID = chat.ID
	stored, err := s.messages.Insert(ctx, &msg)
	if err != nil {
		return nil, err
	}

	if err := s.chats.SetLastMessage(ctx, chat.ID.Hex(), model.LastMessage{
		MessageID: stored.ID,
		Preview:   stored.Preview(),
		SenderID:  senderID,
		SentAt:    stored.CreatedAt,
	}); err != nil {
		s.logger.Warn("last-message update failed",
			zap.String("chat_id", chat.ID.Hex()),
			zap.Error(err),
		)
	}

	recipients := make([]string, 0, len(chat.Participants))
	for _, p := range chat.Participants {
		if p != senderID {
			recipients = append(recipients, p)
		}
	}
	if err := s.chats.IncrementUnread(ctx, chat.ID.Hex(), recipients); err != nil {
		s.logger.Warn("unread increment failed",
			zap.String("chat_id", chat.ID.Hex()),
			zap.Error(err),
		)
	}

	return &SendResult{Message: *stored, Chat: *chat, Recipients: recipients}, nil
}

// List is the combined query+command of the REST contract: fetch a
// chronological page, then mark the fetched unread messages read and reset
// the requester's counter. Fetch is the query-only half.
func (s *messageService) List(ctx context.Context, chatID, requesterID string, page, pageSize int64) ([]model.Message, error) {
	msgs, err := s.Fetch(ctx, chatID, requesterID, page, pageSize)
	if err != nil {
		return nil, err
	}
	if err := s.markPageRead(ctx, chatID, requesterID, msgs); err != nil {
		s.logger.Warn("read-marking after list failed",
			zap.String("chat_id", chatID),
			zap.Error(err),
		)
	}
	return msgs, nil
}

// Fetch returns a page of chat messages in chronological ascending order.
// Storage order is newest-first skip/limit; the page is reversed before
// returning so page 1 ends with the latest message.
func (s *messageService) Fetch(ctx context.Context, chatID, requesterID string, page, pageSize int64) ([]model.Message, error) {
	chat, err := s.chats.GetByID(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if !chat.HasParticipant(requesterID) {
		return nil, apperr.Authorization("not a participant of this chat")
	}

	result, err := s.messages.FindPage(ctx, chatID, page, pageSize)
	if err != nil {
		return nil, err
	}

	msgs := result.Data
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

func (s *messageService) markPageRead(ctx context.Context, chatID, requesterID string, msgs []model.Message) error {
	unreadIDs := make([]primitive.ObjectID, 0, len(msgs))
	for _, m := range msgs {
		if m.SenderID != requesterID && !m.ReadByUser(requesterID) {
			unreadIDs = append(unreadIDs, m.ID)
		}
	}
	if err := s.messages.MarkPageRead(ctx, chatID, requesterID, unreadIDs); err != nil {
		return err
	}
	return s.chats.ResetUnread(ctx, chatID, requesterID)
}

// MarkRead appends an idempotent read receipt. Authorized for the direct
// receiver or any current member of the message's group.
func (s *messageService) MarkRead(ctx context.Context, messageID, userID string) (*model.Message, error) {
	msg, err := s.messages.GetByID(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeReceipt(ctx, msg, userID); err != nil {
		return nil, err
	}
	if err := s.messages.MarkRead(ctx, messageID, userID); err != nil {
		return nil, err
	}
	return msg, nil
}

// MarkDelivered records gateway delivery, same authorization as MarkRead.
func (s *messageService) MarkDelivered(ctx context.Context, messageID, userID string) error {
	msg, err := s.messages.GetByID(ctx, messageID)
	if err != nil {
		return err
	}
	if err := s.authorizeReceipt(ctx, msg, userID); err != nil {
		return err
	}
	return s.messages.MarkDelivered(ctx, messageID, userID)
}

func (s *messageService) authorizeReceipt(ctx context.Context, msg *model.Message, userID string) error {
	if msg.GroupID == nil {
		if msg.ReceiverID != userID {
			return apperr.Authorization("only the receiver can acknowledge this message")
		}
		return nil
	}
	group, err := s.groups.GetByID(ctx, msg.GroupID.Hex())
	if err != nil {
		return err
	}
	if !group.IsActive || !group.HasMember(userID) {
		return apperr.Authorization("not a member of this message's group")
	}
	return nil
}

// SoftDelete marks a message deleted. Only the original sender may do it;
// the record is retained with the deletion audit fields set.
func (s *messageService) SoftDelete(ctx context.Context, messageID, requesterID string) error {
	msg, err := s.messages.GetByID(ctx, messageID)
	if err != nil {
		return err
	}
	if msg.SenderID != requesterID {
		return apperr.Authorization("only the sender can delete a message")
	}
	if msg.IsDeleted {
		return nil
	}
	return s.messages.SoftDelete(ctx, messageID, requesterID)
}

// ListMessagableUsers returns the directory slice the requester may message:
// everyone for elevated roles, group-mates otherwise.
func (s *messageService) ListMessagableUsers(ctx context.Context, requesterID string) ([]model.User, error) {
	requester, err := s.users.GetByUserID(ctx, requesterID)
	if err != nil {
		return nil, err
	}
	if requester.Elevated() {
		users, err := s.users.ListActive(ctx)
		if err != nil {
			return nil, err
		}
		return excludeUser(users, requesterID), nil
	}

	groups, err := s.groups.ListByMember(ctx, requesterID)
	if err != nil {
		return nil, err
	}
	seen := map[string]struct{}{requesterID: {}}
	var ids []string
	for _, g := range groups {
		for _, m := range g.Members {
			if _, ok := seen[m.UserID]; ok {
				continue
			}
			seen[m.UserID] = struct{}{}
			ids = append(ids, m.UserID)
		}
	}
	return s.users.ListByIDs(ctx, ids)
}

func excludeUser(users []model.User, userID string) []model.User {
	out := users[:0]
	for _, u := range users {
		if u.UserID != userID {
			out = append(out, u)
		}
	}
	return out
}

func (s *messageService) resolveDirectChat(ctx context.Context, sender *model.User, receiverID string) (*model.Chat, error) {
	if _, err := s.users.GetByUserID(ctx, receiverID); err != nil {
		return nil, err
	}
	allowed, err := s.perms.CanMessage(ctx, sender, receiverID)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, apperr.Authorization("no shared group with this user")
	}
	chat, _, err := s.chats.FindOrCreateDirect(ctx, sender.UserID, receiverID)
	return chat, err
}

func (s *messageService) resolveGroupChat(ctx context.Context, sender *model.User, groupID primitive.ObjectID) (*model.Chat, error) {
	group, err := s.groups.GetByID(ctx, groupID.Hex())
	if err != nil {
		return nil, err
	}
	if !group.IsActive {
		return nil, apperr.NotFound("group is not active")
	}
	if !group.HasMember(sender.UserID) {
		return nil, apperr.Authorization("not a member of this group")
	}
	if group.ChatID == nil {
		return nil, apperr.Conflict("group has no backing chat yet")
	}
	return s.chats.GetByID(ctx, group.ChatID.Hex())
}
