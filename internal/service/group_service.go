package service

import (
	"context"
	"time"

	"crewline/internal/apperr"
	"crewline/internal/model"
	"crewline/internal/repo"

	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

// GroupService owns group lifecycle and keeps the backing chat's participant
// list mirroring group membership.
type GroupService interface {
	CreateGroup(ctx context.Context, creatorID, name, description, privacy string, initialMembers []string) (*model.Group, error)
	GetGroup(ctx context.Context, groupID, requesterID string) (*model.Group, error)
	ListUserGroups(ctx context.Context, userID string) ([]model.Group, error)
	AddMembers(ctx context.Context, groupID, actorID string, memberIDs []string) (*model.Group, error)
	RemoveMember(ctx context.Context, groupID, actorID, memberID string) error
	UpdateSettings(ctx context.Context, groupID, actorID string, settings model.GroupSettings) error
	DeleteGroup(ctx context.Context, groupID, actorID string) error
	IsMember(ctx context.Context, groupID, userID string) (bool, error)
	IsGroupAdmin(ctx context.Context, groupID, userID string) (bool, error)
	ReconcileBackingChats(ctx context.Context) (int, error)
}

type groupService struct {
	groups   repo.GroupRepository
	chats    repo.ChatRepository
	users    repo.UserRepository
	perms    PermissionEngine
	notifier Notifier
	logger   *zap.Logger
}

func NewGroupService(
	groups repo.GroupRepository,
	chats repo.ChatRepository,
	users repo.UserRepository,
	perms PermissionEngine,
	notifier Notifier,
	logger *zap.Logger,
) GroupService {
	return &groupService{
		groups:   groups,
		chats:    chats,
		users:    users,
		perms:    perms,
		notifier: notifier,
		logger:   logger,
	}
}

// CreateGroup inserts the group, then creates and backlinks the backing chat.
// The two writes are not transactional; a failure between them leaves a group
// without a chat, which ReconcileBackingChats repairs.
func (s *groupService) CreateGroup(ctx context.Context, creatorID, name, description, privacy string, initialMembers []string) (*model.Group, error) {
	if name == "" {
		return nil, apperr.Validation("group name is required")
	}
	creator, err := s.users.GetByUserID(ctx, creatorID)
	if err != nil {
		return nil, err
	}

	group, err := s.groups.Create(ctx, model.NewGroup(creator.UserID, name, description, privacy, initialMembers))
	if err != nil {
		return nil, err
	}

	if err := s.createBackingChat(ctx, group); err != nil {
		s.logger.Error("backing chat creation failed, group left for reconciliation",
			zap.String("group_id", group.ID.Hex()),
			zap.Error(err),
		)
		return group, nil
	}

	for _, m := range group.Members {
		if m.UserID == creatorID {
			continue
		}
		s.notifier.SendToUser(ctx, m.UserID, map[string]any{
			"type":    "group_added",
			"groupId": group.ID.Hex(),
			"name":    group.Name,
		})
	}
	return group, nil
}

func (s *groupService) GetGroup(ctx context.Context, groupID, requesterID string) (*model.Group, error) {
	group, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if group.Privacy == model.GroupPrivacyPrivate && !group.HasMember(requesterID) {
		actor, uerr := s.users.GetByUserID(ctx, requesterID)
		if uerr != nil || !actor.IsSystemAdmin() {
			return nil, apperr.Authorization("not a member of this group")
		}
	}
	return group, nil
}

func (s *groupService) ListUserGroups(ctx context.Context, userID string) ([]model.Group, error) {
	return s.groups.ListByMember(ctx, userID)
}

// AddMembers appends new members, skipping ones already present, and mirrors
// the change into the backing chat. Each added member gets a notify.
func (s *groupService) AddMembers(ctx context.Context, groupID, actorID string, memberIDs []string) (*model.Group, error) {
	group, _, err := s.loadForManage(ctx, groupID, actorID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	var added []model.GroupMember
	for _, id := range memberIDs {
		if group.HasMember(id) {
			continue
		}
		if _, uerr := s.users.GetByUserID(ctx, id); uerr != nil {
			return nil, apperr.Validationf("unknown member %q", id)
		}
		added = append(added, model.GroupMember{UserID: id, Role: model.GroupRoleMember, JoinedAt: now})
	}
	if len(added) == 0 {
		return group, nil
	}

	if err := s.groups.AddMembers(ctx, groupID, added); err != nil {
		return nil, err
	}

	group, err = s.groups.GetByID(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if err := s.mirrorParticipants(ctx, group); err != nil {
		return nil, err
	}

	for _, m := range added {
		s.notifier.SendToUser(ctx, m.UserID, map[string]any{
			"type":    "group_added",
			"groupId": group.ID.Hex(),
			"name":    group.Name,
		})
	}
	return group, nil
}

// RemoveMember drops a member. The creator can never be removed, whoever asks.
func (s *groupService) RemoveMember(ctx context.Context, groupID, actorID, memberID string) error {
	group, _, err := s.loadForManage(ctx, groupID, actorID)
	if err != nil {
		return err
	}
	if memberID == group.CreatedBy {
		return apperr.Authorization("the group creator cannot be removed")
	}
	if !group.HasMember(memberID) {
		return apperr.NotFound("user is not a member of this group")
	}

	if err := s.groups.RemoveMember(ctx, groupID, memberID); err != nil {
		return err
	}

	group, err = s.groups.GetByID(ctx, groupID)
	if err != nil {
		return err
	}
	if err := s.mirrorParticipants(ctx, group); err != nil {
		return err
	}

	s.notifier.SendToUser(ctx, memberID, map[string]any{
		"type":    "group_removed",
		"groupId": group.ID.Hex(),
		"name":    group.Name,
	})
	return nil
}

func (s *groupService) UpdateSettings(ctx context.Context, groupID, actorID string, settings model.GroupSettings) error {
	if _, _, err := s.loadForManage(ctx, groupID, actorID); err != nil {
		return err
	}

	fields := bson.M{}
	if settings.Name != nil {
		if *settings.Name == "" {
			return apperr.Validation("group name cannot be empty")
		}
		fields["name"] = *settings.Name
	}
	if settings.Description != nil {
		fields["description"] = *settings.Description
	}
	if settings.Privacy != nil {
		if *settings.Privacy != model.GroupPrivacyPublic && *settings.Privacy != model.GroupPrivacyPrivate {
			return apperr.Validationf("unknown privacy %q", *settings.Privacy)
		}
		fields["privacy"] = *settings.Privacy
	}
	return s.groups.SetSettings(ctx, groupID, fields)
}

// DeleteGroup soft-deactivates the group and its backing chat together.
func (s *groupService) DeleteGroup(ctx context.Context, groupID, actorID string) error {
	group, _, err := s.loadForManage(ctx, groupID, actorID)
	if err != nil {
		return err
	}

	if err := s.groups.Deactivate(ctx, groupID); err != nil {
		return err
	}
	if group.ChatID != nil {
		if err := s.chats.Deactivate(ctx, group.ChatID.Hex()); err != nil {
			return err
		}
	}

	s.logger.Info("group deactivated",
		zap.String("group_id", groupID),
		zap.String("actor", actorID),
	)
	return nil
}

func (s *groupService) IsMember(ctx context.Context, groupID, userID string) (bool, error) {
	group, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		return false, err
	}
	return group.IsActive && group.HasMember(userID), nil
}

func (s *groupService) IsGroupAdmin(ctx context.Context, groupID, userID string) (bool, error) {
	group, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		return false, err
	}
	return group.IsActive && group.IsAdmin(userID), nil
}

// ReconcileBackingChats repairs groups whose chat creation failed after the
// group insert succeeded. Returns the number of chats (re)created.
func (s *groupService) ReconcileBackingChats(ctx context.Context) (int, error) {
	orphans, err := s.groups.FindWithoutChat(ctx)
	if err != nil {
		return 0, err
	}

	repaired := 0
	for i := range orphans {
		group := orphans[i]
		if err := s.repairBackingChat(ctx, &group); err != nil {
			s.logger.Error("reconciliation failed for group",
				zap.String("group_id", group.ID.Hex()),
				zap.Error(err),
			)
			continue
		}
		repaired++
	}

	if repaired > 0 {
		s.logger.Info("backing chats reconciled", zap.Int("repaired", repaired))
	}
	return repaired, nil
}

// repairBackingChat reattaches or recreates the chat of an orphaned group.
// When the original failure was the backlink rather than the chat insert, a
// chat referencing the group already exists; creating another would leave two
// chats claiming the same group.
func (s *groupService) repairBackingChat(ctx context.Context, group *model.Group) error {
	chat, err := s.chats.GetByGroupID(ctx, group.ID)
	if err == nil {
		if err := s.groups.SetChatID(ctx, group.ID.Hex(), chat.ID); err != nil {
			return err
		}
		group.ChatID = &chat.ID
		return nil
	}
	if !apperr.IsNotFound(err) {
		return err
	}
	return s.createBackingChat(ctx, group)
}

func (s *groupService) createBackingChat(ctx context.Context, group *model.Group) error {
	chat, err := s.chats.CreateGroupChat(ctx, model.NewGroupChat(group.ID, group.MemberIDs()))
	if err != nil {
		return err
	}
	if err := s.groups.SetChatID(ctx, group.ID.Hex(), chat.ID); err != nil {
		return err
	}
	group.ChatID = &chat.ID
	return nil
}

func (s *groupService) mirrorParticipants(ctx context.Context, group *model.Group) error {
	if group.ChatID == nil {
		// Chat missing entirely: fall back to the repair path.
		if err := s.repairBackingChat(ctx, group); err != nil {
			return err
		}
	}
	return s.chats.SetParticipants(ctx, group.ChatID.Hex(), group.MemberIDs())
}

func (s *groupService) loadForManage(ctx context.Context, groupID, actorID string) (*model.Group, *model.User, error) {
	group, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		return nil, nil, err
	}
	if !group.IsActive {
		return nil, nil, apperr.NotFound("group is not active")
	}
	actor, err := s.users.GetByUserID(ctx, actorID)
	if err != nil {
		return nil, nil, err
	}
	if !s.perms.CanManageGroup(actor, group) {
		return nil, nil, apperr.Authorization("requires group admin or creator")
	}
	return group, actor, nil
}
