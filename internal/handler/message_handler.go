package handler

import (
	"net/http"
	"strconv"

	"crewline/internal/apperr"
	"crewline/internal/model"
	"crewline/internal/service"

	"github.com/gin-gonic/gin"
)

// MessageHandler exposes the message store over REST.
type MessageHandler interface {
	Send(c *gin.Context)
	List(c *gin.Context)
	MarkRead(c *gin.Context)
	Delete(c *gin.Context)
	ListMessagableUsers(c *gin.Context)
	UploadAttachment(c *gin.Context)
}

type messageHandler struct {
	messages service.MessageService
	store    service.ObjectStore
}

func NewMessageHandler(messages service.MessageService, store service.ObjectStore) MessageHandler {
	return &messageHandler{messages: messages, store: store}
}

type sendMessageRequest struct {
	ReceiverID  string            `json:"receiverId"`
	GroupID     string            `json:"groupId"`
	MessageType string            `json:"messageType" binding:"required"`
	Text        string            `json:"text"`
	Attachment  *model.Attachment `json:"attachment"`
	ReplyTo     string            `json:"replyTo"`
}

// Send handles POST /messages.
func (h *messageHandler) Send(c *gin.Context) {
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.Validation("messageType is required"))
		return
	}

	input := service.SendInput{
		ReceiverID:  req.ReceiverID,
		GroupID:     req.GroupID,
		MessageType: req.MessageType,
		ReplyTo:     req.ReplyTo,
		Content: model.MessageContent{
			Text:       req.Text,
			Attachment: req.Attachment,
		},
	}

	result, err := h.messages.Send(c.Request.Context(), requesterID(c), input)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, gin.H{
		"message": result.Message,
		"chat":    result.Chat,
	})
}

// List handles GET /messages/:chatId?page&limit. The returned page is in
// chronological ascending order; fetching marks the page read.
func (h *messageHandler) List(c *gin.Context) {
	page, err := strconv.ParseInt(c.DefaultQuery("page", "1"), 10, 64)
	if err != nil || page < 1 {
		respondError(c, apperr.Validation("invalid page number"))
		return
	}
	limit, err := strconv.ParseInt(c.DefaultQuery("limit", "20"), 10, 64)
	if err != nil || limit < 1 {
		respondError(c, apperr.Validation("invalid page size"))
		return
	}

	msgs, err := h.messages.List(c.Request.Context(), c.Param("chatId"), requesterID(c), page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, msgs)
}

// MarkRead handles PUT /messages/:messageId/read.
func (h *messageHandler) MarkRead(c *gin.Context) {
	if _, err := h.messages.MarkRead(c.Request.Context(), c.Param("messageId"), requesterID(c)); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"messageId": c.Param("messageId")})
}

// Delete handles DELETE /messages/:messageId (soft delete, sender only).
func (h *messageHandler) Delete(c *gin.Context) {
	if err := h.messages.SoftDelete(c.Request.Context(), c.Param("messageId"), requesterID(c)); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"messageId": c.Param("messageId")})
}

// ListMessagableUsers handles GET /messages/users.
func (h *messageHandler) ListMessagableUsers(c *gin.Context) {
	users, err := h.messages.ListMessagableUsers(c.Request.Context(), requesterID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, users)
}

// UploadAttachment handles POST /messages/upload: the upload-then-reference
// pattern. The stored reference goes into a later send; bytes never touch the
// messages collection.
func (h *messageHandler) UploadAttachment(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		respondError(c, apperr.Validation("file is required"))
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		respondError(c, apperr.Validation("unreadable file"))
		return
	}
	defer f.Close()

	obj, err := h.store.Upload(c.Request.Context(), fileHeader.Filename, f)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, obj)
}
