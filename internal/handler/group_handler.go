package handler

import (
	"net/http"

	"crewline/internal/apperr"
	"crewline/internal/model"
	"crewline/internal/service"

	"github.com/gin-gonic/gin"
)

// GroupHandler exposes the group registry over REST.
type GroupHandler interface {
	Create(c *gin.Context)
	ListMine(c *gin.Context)
	Get(c *gin.Context)
	AddMembers(c *gin.Context)
	RemoveMember(c *gin.Context)
	UpdateSettings(c *gin.Context)
	Delete(c *gin.Context)
}

type groupHandler struct {
	groups service.GroupService
}

func NewGroupHandler(groups service.GroupService) GroupHandler {
	return &groupHandler{groups: groups}
}

type createGroupRequest struct {
	Name           string   `json:"name" binding:"required"`
	Description    string   `json:"description"`
	Privacy        string   `json:"privacy"`
	InitialMembers []string `json:"initialMembers"`
}

// Create handles POST /groups.
func (h *groupHandler) Create(c *gin.Context) {
	var req createGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.Validation("name is required"))
		return
	}

	group, err := h.groups.CreateGroup(c.Request.Context(), requesterID(c),
		req.Name, req.Description, req.Privacy, req.InitialMembers)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, group)
}

// ListMine handles GET /groups.
func (h *groupHandler) ListMine(c *gin.Context) {
	groups, err := h.groups.ListUserGroups(c.Request.Context(), requesterID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, groups)
}

// Get handles GET /groups/:id.
func (h *groupHandler) Get(c *gin.Context) {
	group, err := h.groups.GetGroup(c.Request.Context(), c.Param("id"), requesterID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, group)
}

type addMembersRequest struct {
	MemberIDs []string `json:"memberIds" binding:"required"`
}

// AddMembers handles POST /groups/:id/members.
func (h *groupHandler) AddMembers(c *gin.Context) {
	var req addMembersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.Validation("memberIds is required"))
		return
	}

	group, err := h.groups.AddMembers(c.Request.Context(), c.Param("id"), requesterID(c), req.MemberIDs)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, group)
}

// RemoveMember handles DELETE /groups/:id/members/:userId.
func (h *groupHandler) RemoveMember(c *gin.Context) {
	err := h.groups.RemoveMember(c.Request.Context(), c.Param("id"), requesterID(c), c.Param("userId"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"groupId": c.Param("id"), "removed": c.Param("userId")})
}

// UpdateSettings handles PUT /groups/:id/settings.
func (h *groupHandler) UpdateSettings(c *gin.Context) {
	var settings model.GroupSettings
	if err := c.ShouldBindJSON(&settings); err != nil {
		respondError(c, apperr.Validation("malformed settings payload"))
		return
	}

	if err := h.groups.UpdateSettings(c.Request.Context(), c.Param("id"), requesterID(c), settings); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"groupId": c.Param("id")})
}

// Delete handles DELETE /groups/:id.
func (h *groupHandler) Delete(c *gin.Context) {
	if err := h.groups.DeleteGroup(c.Request.Context(), c.Param("id"), requesterID(c)); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"groupId": c.Param("id")})
}
