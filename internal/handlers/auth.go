package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"arcade-chat/internal/auth"
	"arcade-chat/internal/middleware"
	"arcade-chat/pkg/apperrors"
)

// AuthHandler manages credential sign-up, sign-in and sign-out.
type AuthHandler struct {
	manager *auth.Manager
}

// NewAuthHandler builds an AuthHandler.
func NewAuthHandler(manager *auth.Manager) *AuthHandler {
	return &AuthHandler{manager: manager}
}

// SignUp registers an account and returns a session token.
func (h *AuthHandler) SignUp(c *gin.Context) {
	var req struct {
		Name     string `json:"name" binding:"required"`
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	user, token, err := h.manager.SignUp(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		c.JSON(apperrors.HTTPStatusFromError(err), gin.H{"success": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "token": token, "user": user.Summary()})
}

// SignIn validates credentials and returns a session token.
func (h *AuthHandler) SignIn(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	user, token, err := h.manager.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		c.JSON(apperrors.HTTPStatusFromError(err), gin.H{"success": false, "error": "invalid credentials"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "token": token, "user": user.Summary()})
}

// SignOut deletes the caller's session.
func (h *AuthHandler) SignOut(c *gin.Context) {
	header := c.GetHeader("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "missing authorization"})
		return
	}

	if err := h.manager.SignOut(c.Request.Context(), parts[1]); err != nil {
		c.JSON(apperrors.HTTPStatusFromError(err), gin.H{"success": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Me returns the authenticated user. Callers use it to gate client routes.
func (h *AuthHandler) Me(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing session"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}
