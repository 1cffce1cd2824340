package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"arcade-chat/internal/middleware"
	"arcade-chat/internal/observability"
	"arcade-chat/internal/service"
	"arcade-chat/internal/telemetry"
	"arcade-chat/pkg/apperrors"
)

// ChatHandler manages the chat endpoints.
type ChatHandler struct {
	chat  service.ChatService
	audit *telemetry.AuditEmitter
}

// NewChatHandler builds a ChatHandler.
func NewChatHandler(chat service.ChatService, audit *telemetry.AuditEmitter) *ChatHandler {
	return &ChatHandler{chat: chat, audit: audit}
}

// ListMessages returns the recent messages, oldest first.
func (h *ChatHandler) ListMessages(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	messages, err := h.chat.ListRecentMessages(c.Request.Context(), user)
	if err != nil {
		h.fail(c, "list", err)
		return
	}

	observability.IncChatCommand("list", "ok")
	c.JSON(http.StatusOK, gin.H{"messages": messages})
}

// PostMessage stores a chat message and broadcasts it.
func (h *ChatHandler) PostMessage(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	var req struct {
		Content   string  `json:"content" binding:"required"`
		ReplyToID *string `json:"replyToId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.emitAudit(c, telemetry.LevelError, "invalid request payload")
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	msg, err := h.chat.Send(c.Request.Context(), user, req.Content, req.ReplyToID)
	if err != nil {
		h.fail(c, "send", err)
		return
	}

	observability.IncChatCommand("send", "ok")
	h.emitAudit(c, telemetry.LevelInfo, "Message sent")
	c.JSON(http.StatusCreated, msg)
}

// EditMessage replaces a message's content.
func (h *ChatHandler) EditMessage(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)
	messageID := c.Param("message_id")

	var req struct {
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.emitAudit(c, telemetry.LevelError, "invalid request payload")
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	msg, err := h.chat.Edit(c.Request.Context(), user, messageID, req.Content)
	if err != nil {
		h.fail(c, "edit", err)
		return
	}

	observability.IncChatCommand("edit", "ok")
	h.emitAudit(c, telemetry.LevelInfo, "Message edited")
	c.JSON(http.StatusOK, msg)
}

// DeleteMessage soft-deletes a message.
func (h *ChatHandler) DeleteMessage(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)
	messageID := c.Param("message_id")

	if err := h.chat.Delete(c.Request.Context(), user, messageID); err != nil {
		h.fail(c, "delete", err)
		return
	}

	observability.IncChatCommand("delete", "ok")
	h.emitAudit(c, telemetry.LevelInfo, "Message deleted")
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// SetTyping upserts the caller's typing status.
func (h *ChatHandler) SetTyping(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	var req struct {
		IsTyping *bool `json:"isTyping" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	if err := h.chat.SetTyping(c.Request.Context(), user, *req.IsTyping); err != nil {
		h.fail(c, "typing", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ListTypingUsers returns who is typing, excluding the caller.
func (h *ChatHandler) ListTypingUsers(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	typing, err := h.chat.ListTypingUsers(c.Request.Context(), user)
	if err != nil {
		h.fail(c, "typing", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": typing})
}

// ListOnlineUsers returns the session-recency online projection.
func (h *ChatHandler) ListOnlineUsers(c *gin.Context) {
	online, err := h.chat.ListOnlineUsers(c.Request.Context())
	if err != nil {
		h.fail(c, "online", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": online})
}

// SetOnline announces presence on the broadcast channel.
func (h *ChatHandler) SetOnline(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)
	if err := h.chat.SetOnline(c.Request.Context(), user); err != nil {
		h.fail(c, "online", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// SetOffline announces departure. Also reachable via beacon on tab close.
func (h *ChatHandler) SetOffline(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)
	if err := h.chat.SetOffline(c.Request.Context(), user); err != nil {
		h.fail(c, "offline", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// CleanupOld removes messages past the retention window.
func (h *ChatHandler) CleanupOld(c *gin.Context) {
	count, err := h.chat.CleanupOld(c.Request.Context())
	if err != nil {
		h.fail(c, "cleanup", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "count": count})
}

// GetSettings returns the chat-enabled flag.
func (h *ChatHandler) GetSettings(c *gin.Context) {
	settings, err := h.chat.GetSettings(c.Request.Context())
	if err != nil {
		h.fail(c, "settings", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"isEnabled": settings.IsEnabled})
}

func (h *ChatHandler) fail(c *gin.Context, operation string, err error) {
	observability.IncChatCommand(operation, "error")
	h.emitAudit(c, telemetry.LevelError, err.Error())
	c.JSON(apperrors.HTTPStatusFromError(err), gin.H{"success": false, "error": err.Error()})
}

func (h *ChatHandler) emitAudit(c *gin.Context, level, text string) {
	if h.audit == nil {
		return
	}
	h.audit.Emit(c.Request.Context(), level, text, requestIDFromContext(c), userIDFromContext(c))
}
