package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGroup(t *testing.T) {
	group := NewGroup("creator", "Payroll", "payroll sync", "public", []string{"u2", "creator", "u3"})

	require.Len(t, group.Members, 3)
	assert.Equal(t, "creator", group.Members[0].UserID)
	assert.Equal(t, GroupRoleAdmin, group.Members[0].Role)
	assert.Equal(t, GroupRoleMember, group.Members[1].Role)
	assert.Equal(t, GroupPrivacyPublic, group.Privacy)
	assert.True(t, group.IsActive)
}

func TestNewGroupDefaultsToPrivate(t *testing.T) {
	assert.Equal(t, GroupPrivacyPrivate, NewGroup("c", "g", "", "", nil).Privacy)
	assert.Equal(t, GroupPrivacyPrivate, NewGroup("c", "g", "", "secret", nil).Privacy)
}

func TestGroupMembership(t *testing.T) {
	group := NewGroup("creator", "Payroll", "", "private", []string{"u2"})

	assert.Equal(t, []string{"creator", "u2"}, group.MemberIDs())
	assert.True(t, group.HasMember("u2"))
	assert.False(t, group.HasMember("ghost"))
	assert.True(t, group.IsAdmin("creator"))
	assert.False(t, group.IsAdmin("u2"))
	assert.False(t, group.IsAdmin("ghost"))
}
