package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"arcade-chat/internal/auth"
	"arcade-chat/internal/models"
)

const userContextKey = "currentUser"

// AuthMiddleware validates the Authorization header against the session store
// and attaches the user to the request context. Read handlers fail closed:
// unauthenticated callers never reach them.
func AuthMiddleware(manager *auth.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization"})
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header"})
			return
		}

		user, _, err := manager.GetSession(c.Request.Context(), parts[1])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set(userContextKey, user)
		c.Next()
	}
}

// AdminMiddleware requires the admin flag. Must run after AuthMiddleware.
func AdminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok || !user.IsAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin access required"})
			return
		}
		c.Next()
	}
}

// ChessGateMiddleware requires a solved puzzle for chat routes; admins bypass.
func ChessGateMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing session"})
			return
		}
		if !user.ChessCompleted && !user.IsAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "puzzle not solved"})
			return
		}
		c.Next()
	}
}

// CurrentUser retrieves the authenticated user from the request context.
func CurrentUser(c *gin.Context) (models.User, bool) {
	val, ok := c.Get(userContextKey)
	if !ok {
		return models.User{}, false
	}
	user, ok := val.(models.User)
	return user, ok
}

// SetCurrentUser injects a user, used by tests in place of AuthMiddleware.
func SetCurrentUser(c *gin.Context, user models.User) {
	c.Set(userContextKey, user)
}
