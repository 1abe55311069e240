package service

import (
	"context"

	"crewline/internal/model"
	"crewline/internal/repo"
)

// PermissionEngine is the single authorization surface for messaging and
// group management. Role rules live here and nowhere else.
type PermissionEngine interface {
	CanMessage(ctx context.Context, sender *model.User, receiverID string) (bool, error)
	CanManageGroup(actor *model.User, group *model.Group) bool
}

type permissionEngine struct {
	groups repo.GroupRepository
}

func NewPermissionEngine(groups repo.GroupRepository) PermissionEngine {
	return &permissionEngine{groups: groups}
}

// CanMessage allows elevated roles unconditionally; everyone else must share
// at least one active group with the receiver. Read-only, no side effects.
func (p *permissionEngine) CanMessage(ctx context.Context, sender *model.User, receiverID string) (bool, error) {
	if sender == nil || receiverID == "" {
		return false, nil
	}
	if sender.UserID == receiverID {
		return false, nil
	}
	if sender.Elevated() {
		return true, nil
	}
	return p.groups.SharedGroupExists(ctx, sender.UserID, receiverID)
}

// CanManageGroup allows the system admin, the group creator, and group admins.
func (p *permissionEngine) CanManageGroup(actor *model.User, group *model.Group) bool {
	if actor == nil || group == nil {
		return false
	}
	if actor.IsSystemAdmin() {
		return true
	}
	if group.CreatedBy == actor.UserID {
		return true
	}
	return group.IsAdmin(actor.UserID)
}
