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

// AdminHandler manages the admin-console endpoints.
type AdminHandler struct {
	admin service.AdminService
	audit *telemetry.AuditEmitter
}

// NewAdminHandler builds an AdminHandler.
func NewAdminHandler(admin service.AdminService, audit *telemetry.AuditEmitter) *AdminHandler {
	return &AdminHandler{admin: admin, audit: audit}
}

// ListUsers returns every account with its message count.
func (h *AdminHandler) ListUsers(c *gin.Context) {
	admin, _ := middleware.CurrentUser(c)

	users, err := h.admin.ListUsers(c.Request.Context(), admin)
	if err != nil {
		h.fail(c, "admin_list_users", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

// CreateUser registers an account.
func (h *AdminHandler) CreateUser(c *gin.Context) {
	admin, _ := middleware.CurrentUser(c)

	var req struct {
		Name     string `json:"name" binding:"required"`
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
		IsAdmin  bool   `json:"isAdmin"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	user, err := h.admin.CreateUser(c.Request.Context(), admin, req.Name, req.Email, req.Password, req.IsAdmin)
	if err != nil {
		h.fail(c, "admin_create_user", err)
		return
	}

	h.emitAudit(c, telemetry.LevelInfo, "User created")
	c.JSON(http.StatusCreated, gin.H{"success": true, "userId": user.ID})
}

// DeleteUser removes an account.
func (h *AdminHandler) DeleteUser(c *gin.Context) {
	admin, _ := middleware.CurrentUser(c)

	if err := h.admin.DeleteUser(c.Request.Context(), admin, c.Param("user_id")); err != nil {
		h.fail(c, "admin_delete_user", err)
		return
	}

	h.emitAudit(c, telemetry.LevelInfo, "User deleted")
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ToggleAdmin flips a user's admin flag.
func (h *AdminHandler) ToggleAdmin(c *gin.Context) {
	admin, _ := middleware.CurrentUser(c)

	isAdmin, err := h.admin.ToggleAdmin(c.Request.Context(), admin, c.Param("user_id"))
	if err != nil {
		h.fail(c, "admin_toggle_admin", err)
		return
	}

	h.emitAudit(c, telemetry.LevelInfo, "Admin status toggled")
	c.JSON(http.StatusOK, gin.H{"success": true, "isAdmin": isAdmin})
}

// ResetPassword replaces a user's credential.
func (h *AdminHandler) ResetPassword(c *gin.Context) {
	admin, _ := middleware.CurrentUser(c)

	var req struct {
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	if err := h.admin.ResetPassword(c.Request.Context(), admin, c.Param("user_id"), req.Password); err != nil {
		h.fail(c, "admin_reset_password", err)
		return
	}

	h.emitAudit(c, telemetry.LevelInfo, "Password reset")
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ClearMessages bulk-removes every chat message.
func (h *AdminHandler) ClearMessages(c *gin.Context) {
	admin, _ := middleware.CurrentUser(c)

	count, err := h.admin.ClearAllMessages(c.Request.Context(), admin)
	if err != nil {
		h.fail(c, "admin_clear_messages", err)
		return
	}

	observability.IncChatCommand("clear_all", "ok")
	h.emitAudit(c, telemetry.LevelInfo, "Chat cleared")
	c.JSON(http.StatusOK, gin.H{"success": true, "count": count})
}

// ToggleChat flips the chat-enabled singleton.
func (h *AdminHandler) ToggleChat(c *gin.Context) {
	admin, _ := middleware.CurrentUser(c)

	settings, err := h.admin.ToggleChatEnabled(c.Request.Context(), admin)
	if err != nil {
		h.fail(c, "admin_toggle_chat", err)
		return
	}

	h.emitAudit(c, telemetry.LevelInfo, "Chat toggled")
	c.JSON(http.StatusOK, gin.H{"success": true, "isEnabled": settings.IsEnabled})
}

func (h *AdminHandler) fail(c *gin.Context, operation string, err error) {
	observability.IncChatCommand(operation, "error")
	h.emitAudit(c, telemetry.LevelError, err.Error())
	c.JSON(apperrors.HTTPStatusFromError(err), gin.H{"success": false, "error": err.Error()})
}

func (h *AdminHandler) emitAudit(c *gin.Context, level, text string) {
	if h.audit == nil {
		return
	}
	h.audit.Emit(c.Request.Context(), level, text, requestIDFromContext(c), userIDFromContext(c))
}
