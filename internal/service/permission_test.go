package service_test

import (
	"context"
	"testing"

	"crewline/internal/model"
	"crewline/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPermissionEngine_CanMessage(t *testing.T) {
	ctx := context.Background()

	ts := []struct {
		name       string
		sender     *model.User
		receiverID string
		setupMocks func(groups *MockGroupRepository)
		allowed    bool
	}{
		{
			name:       "nil sender denied",
			sender:     nil,
			receiverID: "u2",
			setupMocks: func(groups *MockGroupRepository) {},
			allowed:    false,
		},
		{
			name:       "empty receiver denied",
			sender:     &model.User{UserID: "u1", Role: model.RoleEmployee},
			receiverID: "",
			setupMocks: func(groups *MockGroupRepository) {},
			allowed:    false,
		},
		{
			name:       "self messaging denied",
			sender:     &model.User{UserID: "u1", Role: model.RoleAdmin},
			receiverID: "u1",
			setupMocks: func(groups *MockGroupRepository) {},
			allowed:    false,
		},
		{
			name:       "hr bypasses shared group check",
			sender:     &model.User{UserID: "hr1", Role: model.RoleHR},
			receiverID: "u2",
			setupMocks: func(groups *MockGroupRepository) {},
			allowed:    true,
		},
		{
			name:       "manager bypasses shared group check",
			sender:     &model.User{UserID: "m1", Role: model.RoleManager},
			receiverID: "u2",
			setupMocks: func(groups *MockGroupRepository) {},
			allowed:    true,
		},
		{
			name:       "employees with shared group allowed",
			sender:     &model.User{UserID: "u1", Role: model.RoleEmployee},
			receiverID: "u2",
			setupMocks: func(groups *MockGroupRepository) {
				groups.On("SharedGroupExists", ctx, "u1", "u2").Return(true, nil)
			},
			allowed: true,
		},
		{
			name:       "employees without shared group denied",
			sender:     &model.User{UserID: "u1", Role: model.RoleEmployee},
			receiverID: "u2",
			setupMocks: func(groups *MockGroupRepository) {
				groups.On("SharedGroupExists", ctx, "u1", "u2").Return(false, nil)
			},
			allowed: false,
		},
	}

	for _, tt := range ts {
		t.Run(tt.name, func(t *testing.T) {
			groups := &MockGroupRepository{}
			tt.setupMocks(groups)

			engine := service.NewPermissionEngine(groups)
			allowed, err := engine.CanMessage(ctx, tt.sender, tt.receiverID)

			require.NoError(t, err)
			assert.Equal(t, tt.allowed, allowed)
			groups.AssertExpectations(t)
		})
	}
}

func TestPermissionEngine_CanManageGroup(t *testing.T) {
	group := &model.Group{
		CreatedBy: "creator",
		Members: []model.GroupMember{
			{UserID: "creator", Role: model.GroupRoleAdmin},
			{UserID: "ga", Role: model.GroupRoleAdmin},
			{UserID: "member", Role: model.GroupRoleMember},
		},
	}

	ts := []struct {
		name    string
		actor   *model.User
		allowed bool
	}{
		{"nil actor", nil, false},
		{"system admin outside the group", &model.User{UserID: "root", Role: model.RoleAdmin}, true},
		{"creator", &model.User{UserID: "creator", Role: model.RoleEmployee}, true},
		{"group admin", &model.User{UserID: "ga", Role: model.RoleEmployee}, true},
		{"plain member", &model.User{UserID: "member", Role: model.RoleEmployee}, false},
		{"elevated non-member without admin role", &model.User{UserID: "m1", Role: model.RoleManager}, false},
		{"stranger", &model.User{UserID: "other", Role: model.RoleEmployee}, false},
	}

	engine := service.NewPermissionEngine(&MockGroupRepository{})
	for _, tt := range ts {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.allowed, engine.CanManageGroup(tt.actor, group))
		})
	}
}
