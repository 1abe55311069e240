package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Directory roles
const (
	RoleAdmin    = "admin"
	RoleHR       = "hr"
	RoleManager  = "manager"
	RoleTeamLead = "teamlead"
	RoleEmployee = "employee"
)

// User is a directory record synced from the HR system. This subsystem reads
// it for identity, role, and org relationships; it never writes users.
type User struct {
	ID         primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	UserID     string             `json:"userId" bson:"user_id"`
	Username   string             `json:"username" bson:"username"`
	Email      string             `json:"email" bson:"email"`
	FirstName  string             `json:"firstName" bson:"first_name"`
	LastName   string             `json:"lastName" bson:"last_name"`
	Role       string             `json:"role" bson:"role"`
	Department string             `json:"department" bson:"department"`
	ManagerID  string             `json:"managerId,omitempty" bson:"manager_id,omitempty"`
	TeamLeadID string             `json:"teamLeadId,omitempty" bson:"team_lead_id,omitempty"`
	IsActive   bool               `json:"isActive" bson:"is_active"`
	CreatedAt  time.Time          `json:"createdAt" bson:"created_at"`
	SyncedAt   *time.Time         `json:"syncedAt" bson:"synced_at"`
}

// Elevated reports whether the role bypasses shared-group messaging checks.
func (u *User) Elevated() bool {
	switch u.Role {
	case RoleAdmin, RoleHR, RoleManager, RoleTeamLead:
		return true
	}
	return false
}

// IsSystemAdmin reports whether the user holds the platform admin role.
func (u *User) IsSystemAdmin() bool { return u.Role == RoleAdmin }

// DisplayName returns the human-readable name for chat lists.
func (u *User) DisplayName() string {
	if u.FirstName != "" || u.LastName != "" {
		if u.FirstName == "" {
			return u.LastName
		}
		if u.LastName == "" {
			return u.FirstName
		}
		return u.FirstName + " " + u.LastName
	}
	return u.Username
}
