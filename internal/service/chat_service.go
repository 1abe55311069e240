package service

import (
	"context"

	"crewline/internal/apperr"
	"crewline/internal/model"
	"crewline/internal/repo"

	"go.uber.org/zap"
)

// ChatService owns chat lifecycle, unread accounting, and the per-user chat
// list. Group chats are created and deactivated through GroupService; this
// service only reads them.
type ChatService interface {
	FindOrCreateDirectChat(ctx context.Context, requesterID, otherID string) (*model.Chat, error)
	GetChat(ctx context.Context, chatID, requesterID string) (*model.ChatSummary, error)
	GetUserChats(ctx context.Context, userID string) ([]model.ChatSummary, error)
	MarkChatRead(ctx context.Context, chatID, userID string) error
	DeleteChat(ctx context.Context, chatID, requesterID string) error
	PurgeChat(ctx context.Context, chatID, requesterID string) error
}

type chatService struct {
	chats    repo.ChatRepository
	groups   repo.GroupRepository
	users    repo.UserRepository
	messages repo.MessageRepository
	perms    PermissionEngine
	notifier Notifier
	logger   *zap.Logger
}

func NewChatService(
	chats repo.ChatRepository,
	groups repo.GroupRepository,
	users repo.UserRepository,
	messages repo.MessageRepository,
	perms PermissionEngine,
	notifier Notifier,
	logger *zap.Logger,
) ChatService {
	return &chatService{
		chats:    chats,
		groups:   groups,
		users:    users,
		messages: messages,
		perms:    perms,
		notifier: notifier,
		logger:   logger,
	}
}

// FindOrCreateDirectChat resolves the unique direct chat for the pair,
// creating it on first contact. Idempotent under concurrency; (A,B) and (B,A)
// resolve to the same chat.
func (s *chatService) FindOrCreateDirectChat(ctx context.Context, requesterID, otherID string) (*model.Chat, error) {
	if requesterID == otherID {
		return nil, apperr.Validation("cannot open a direct chat with yourself")
	}
	if _, err := s.users.GetByUserID(ctx, otherID); err != nil {
		return nil, err
	}

	chat, created, err := s.chats.FindOrCreateDirect(ctx, requesterID, otherID)
	if err != nil {
		return nil, err
	}
	if created {
		s.logger.Info("direct chat opened",
			zap.String("chat_id", chat.ID.Hex()),
			zap.String("requester", requesterID),
			zap.String("other", otherID),
		)
	}
	return chat, nil
}

func (s *chatService) GetChat(ctx context.Context, chatID, requesterID string) (*model.ChatSummary, error) {
	chat, err := s.chats.GetByID(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if !chat.HasParticipant(requesterID) {
		return nil, apperr.Authorization("not a participant of this chat")
	}

	summary, err := s.summarize(ctx, *chat, requesterID)
	if err != nil {
		return nil, err
	}
	return summary, nil
}

// GetUserChats returns the user's active chats ordered by last activity,
// annotated with display name and unread count.
func (s *chatService) GetUserChats(ctx context.Context, userID string) ([]model.ChatSummary, error) {
	chats, err := s.chats.GetUserChats(ctx, userID)
	if err != nil {
		return nil, err
	}

	// Resolve all direct-chat peers in one directory lookup.
	peerIDs := make([]string, 0, len(chats))
	for _, c := range chats {
		if c.ChatType == model.ChatTypeDirect {
			peerIDs = append(peerIDs, c.OtherParticipant(userID))
		}
	}
	peers, err := s.users.ListByIDs(ctx, peerIDs)
	if err != nil {
		return nil, err
	}
	peerNames := make(map[string]string, len(peers))
	for _, u := range peers {
		peerNames[u.UserID] = u.DisplayName()
	}

	summaries := make([]model.ChatSummary, 0, len(chats))
	for _, c := range chats {
		name := ""
		switch c.ChatType {
		case model.ChatTypeDirect:
			name = peerNames[c.OtherParticipant(userID)]
		case model.ChatTypeGroup:
			if c.GroupID != nil {
				group, gerr := s.groups.GetByID(ctx, c.GroupID.Hex())
				if gerr == nil {
					name = group.Name
				} else {
					s.logger.Warn("group lookup failed for chat list",
						zap.String("chat_id", c.ID.Hex()),
						zap.Error(gerr),
					)
				}
			}
		}
		summaries = append(summaries, model.ChatSummary{
			Chat:        c,
			DisplayName: name,
			UnreadCount: c.UnreadFor(userID),
		})
	}
	return summaries, nil
}

// MarkChatRead resets the requester's unread counter for the chat.
func (s *chatService) MarkChatRead(ctx context.Context, chatID, userID string) error {
	chat, err := s.chats.GetByID(ctx, chatID)
	if err != nil {
		return err
	}
	if !chat.HasParticipant(userID) {
		return apperr.Authorization("not a participant of this chat")
	}
	return s.chats.ResetUnread(ctx, chatID, userID)
}

// DeleteChat soft-deactivates. Any participant may deactivate a direct chat;
// group chats require group-management rights and take the group down with
// them so membership and chat state never disagree.
func (s *chatService) DeleteChat(ctx context.Context, chatID, requesterID string) error {
	chat, err := s.chats.GetByID(ctx, chatID)
	if err != nil {
		return err
	}
	if !chat.HasParticipant(requesterID) {
		return apperr.Authorization("not a participant of this chat")
	}

	if chat.ChatType == model.ChatTypeGroup {
		if chat.GroupID == nil {
			return apperr.Conflict("group chat has no backing group")
		}
		group, gerr := s.groups.GetByID(ctx, chat.GroupID.Hex())
		if gerr != nil {
			return gerr
		}
		actor, uerr := s.users.GetByUserID(ctx, requesterID)
		if uerr != nil {
			return uerr
		}
		if !s.perms.CanManageGroup(actor, group) {
			return apperr.Authorization("only a group admin or the creator can delete a group chat")
		}
		if err := s.groups.Deactivate(ctx, group.ID.Hex()); err != nil {
			return err
		}
	}

	return s.chats.Deactivate(ctx, chatID)
}

// PurgeChat is the maintenance hard-delete: chat document plus cascading
// message removal. Restricted to the system admin; everything user-facing
// goes through DeleteChat.
func (s *chatService) PurgeChat(ctx context.Context, chatID, requesterID string) error {
	actor, err := s.users.GetByUserID(ctx, requesterID)
	if err != nil {
		return err
	}
	if !actor.IsSystemAdmin() {
		return apperr.Authorization("only an admin can purge a chat")
	}

	if _, err := s.chats.GetByID(ctx, chatID); err != nil {
		return err
	}

	deleted, err := s.messages.DeleteByChat(ctx, chatID)
	if err != nil {
		return err
	}
	if err := s.chats.Purge(ctx, chatID); err != nil {
		return err
	}

	s.logger.Info("chat purged with cascade",
		zap.String("chat_id", chatID),
		zap.String("actor", requesterID),
		zap.Int64("messages_deleted", deleted),
	)

	// Purges are destructive and rare; every admin hears about them.
	s.notifier.SendToRole(ctx, model.RoleAdmin, map[string]any{
		"type":            "chat_purged",
		"chatId":          chatID,
		"purgedBy":        requesterID,
		"messagesDeleted": deleted,
	})
	return nil
}

func (s *chatService) summarize(ctx context.Context, chat model.Chat, userID string) (*model.ChatSummary, error) {
	name := ""
	switch chat.ChatType {
	case model.ChatTypeDirect:
		peer, err := s.users.GetByUserID(ctx, chat.OtherParticipant(userID))
		if err == nil {
			name = peer.DisplayName()
		}
	case model.ChatTypeGroup:
		if chat.GroupID != nil {
			group, err := s.groups.GetByID(ctx, chat.GroupID.Hex())
			if err == nil {
				name = group.Name
			}
		}
	}
	return &model.ChatSummary{
		Chat:        chat,
		DisplayName: name,
		UnreadCount: chat.UnreadFor(userID),
	}, nil
}
