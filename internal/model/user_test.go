package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUserElevated(t *testing.T) {
	ts := []struct {
		role     string
		elevated bool
	}{
		{RoleAdmin, true},
		{RoleHR, true},
		{RoleManager, true},
		{RoleTeamLead, true},
		{RoleEmployee, false},
		{"", false},
	}

	for _, tt := range ts {
		u := User{Role: tt.role}
		assert.Equal(t, tt.elevated, u.Elevated(), "role %q", tt.role)
	}
}

func TestUserDisplayName(t *testing.T) {
	assert.Equal(t, "Dana Reyes", (&User{FirstName: "Dana", LastName: "Reyes"}).DisplayName())
	assert.Equal(t, "Dana", (&User{FirstName: "Dana"}).DisplayName())
	assert.Equal(t, "Reyes", (&User{LastName: "Reyes"}).DisplayName())
	assert.Equal(t, "dreyes", (&User{Username: "dreyes"}).DisplayName())
}
