package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"arcade-chat/internal/auth"
	"arcade-chat/internal/chess"
	"arcade-chat/internal/middleware"
)

// ChessHandler manages the puzzle gate endpoints.
type ChessHandler struct {
	gate    *chess.Gate
	manager *auth.Manager
}

// NewChessHandler builds a ChessHandler.
func NewChessHandler(gate *chess.Gate, manager *auth.Manager) *ChessHandler {
	return &ChessHandler{gate: gate, manager: manager}
}

// Status reports whether the caller has solved the puzzle.
func (h *ChessHandler) Status(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	solved, err := h.gate.IsPuzzleSolved(c.Request.Context(), user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "failed to load status"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"solved": solved})
}

// Complete marks the puzzle solved, unlocking the chat route.
func (h *ChessHandler) Complete(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	if err := h.gate.MarkSolved(c.Request.Context(), user.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "failed to update completion status"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Revoke clears completion. It authenticates by itself so browsers can reach
// it through sendBeacon on tab close, which cannot set headers.
func (h *ChessHandler) Revoke(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		header := c.GetHeader("Authorization")
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			token = parts[1]
		}
	}
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false})
		return
	}

	user, _, err := h.manager.GetSession(c.Request.Context(), token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false})
		return
	}

	if err := h.gate.RevokeSolved(c.Request.Context(), user.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
