package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Group roles and privacy levels
const (
	GroupRoleAdmin  = "admin"
	GroupRoleMember = "member"

	GroupPrivacyPublic  = "public"
	GroupPrivacyPrivate = "private"
)

// Group represents a named member set backed by a group chat. Membership here
// is authoritative; the backing chat's participant list is a mirrored copy.
type Group struct {
	ID           primitive.ObjectID  `json:"id" bson:"_id,omitempty"`
	Name         string              `json:"name" bson:"name"`
	Description  string              `json:"description" bson:"description"`
	CreatedBy    string              `json:"createdBy" bson:"created_by"`
	Members      []GroupMember       `json:"members" bson:"members"`
	Privacy      string              `json:"privacy" bson:"privacy"`
	ChatID       *primitive.ObjectID `json:"chatId,omitempty" bson:"chat_id,omitempty"`
	IsActive     bool                `json:"isActive" bson:"is_active"`
	LastActivity time.Time           `json:"lastActivity" bson:"last_activity"`
	CreatedAt    time.Time           `json:"createdAt" bson:"created_at"`
	UpdatedAt    time.Time           `json:"updatedAt" bson:"updated_at"`
}

// GroupMember is one entry of the group's ordered member set.
type GroupMember struct {
	UserID   string    `json:"userId" bson:"user_id"`
	Role     string    `json:"role" bson:"role"`
	JoinedAt time.Time `json:"joinedAt" bson:"joined_at"`
}

// GroupSettings carries the mutable group attributes for UpdateSettings.
// Nil fields are left untouched.
type GroupSettings struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Privacy     *string `json:"privacy"`
}

// NewGroup constructs an active group. The creator is always the first member
// and always an admin, regardless of the initial member list.
func NewGroup(creator, name, description, privacy string, initialMembers []string) Group {
	now := time.Now().UTC()
	members := []GroupMember{{UserID: creator, Role: GroupRoleAdmin, JoinedAt: now}}
	for _, id := range initialMembers {
		if id == creator {
			continue
		}
		members = append(members, GroupMember{UserID: id, Role: GroupRoleMember, JoinedAt: now})
	}
	if privacy != GroupPrivacyPublic {
		privacy = GroupPrivacyPrivate
	}
	return Group{
		Name:         name,
		Description:  description,
		CreatedBy:    creator,
		Members:      members,
		Privacy:      privacy,
		IsActive:     true,
		LastActivity: now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// MemberIDs returns the user ids of all members, in join order.
func (g *Group) MemberIDs() []string {
	ids := make([]string, 0, len(g.Members))
	for _, m := range g.Members {
		ids = append(ids, m.UserID)
	}
	return ids
}

// HasMember reports whether userID is a member of the group.
func (g *Group) HasMember(userID string) bool {
	for _, m := range g.Members {
		if m.UserID == userID {
			return true
		}
	}
	return false
}

// IsAdmin reports whether userID holds the admin role in the group.
func (g *Group) IsAdmin(userID string) bool {
	for _, m := range g.Members {
		if m.UserID == userID {
			return m.Role == GroupRoleAdmin
		}
	}
	return false
}
