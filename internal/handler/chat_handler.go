package handler

import (
	"net/http"

	"crewline/internal/apperr"
	"crewline/internal/service"

	"github.com/gin-gonic/gin"
)

// ChatHandler exposes the chat registry over REST.
type ChatHandler interface {
	CreateDirectChat(c *gin.Context)
	GetUserChats(c *gin.Context)
	GetChat(c *gin.Context)
	MarkChatRead(c *gin.Context)
	DeleteChat(c *gin.Context)
}

type chatHandler struct {
	chats service.ChatService
}

func NewChatHandler(chats service.ChatService) ChatHandler {
	return &chatHandler{chats: chats}
}

type createDirectChatRequest struct {
	UserID string `json:"userId" binding:"required"`
}

// CreateDirectChat handles POST /chat/direct.
func (h *chatHandler) CreateDirectChat(c *gin.Context) {
	var req createDirectChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.Validation("userId is required"))
		return
	}

	chat, err := h.chats.FindOrCreateDirectChat(c.Request.Context(), requesterID(c), req.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, chat)
}

// GetUserChats handles GET /chat/user-chats.
func (h *chatHandler) GetUserChats(c *gin.Context) {
	summaries, err := h.chats.GetUserChats(c.Request.Context(), requesterID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, summaries)
}

// GetChat handles GET /chat/:chatId.
func (h *chatHandler) GetChat(c *gin.Context) {
	summary, err := h.chats.GetChat(c.Request.Context(), c.Param("chatId"), requesterID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, summary)
}

// MarkChatRead handles PUT /chat/:chatId/read.
func (h *chatHandler) MarkChatRead(c *gin.Context) {
	if err := h.chats.MarkChatRead(c.Request.Context(), c.Param("chatId"), requesterID(c)); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"chatId": c.Param("chatId")})
}

// DeleteChat handles DELETE /chat/:chatId.
func (h *chatHandler) DeleteChat(c *gin.Context) {
	if err := h.chats.DeleteChat(c.Request.Context(), c.Param("chatId"), requesterID(c)); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"chatId": c.Param("chatId")})
}
