package handler

import (
	"net/http"
	"strings"

	"sulabh/backend/internal/access"
	"sulabh/backend/internal/models"
	"sulabh/backend/internal/session"

	"github.com/gin-gonic/gin"
)

const (
	userKey  = "user"
	tokenKey = "token"
)

func bearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if len(authHeader) < 7 || !strings.EqualFold(authHeader[:7], "Bearer ") {
		return ""
	}
	return strings.TrimSpace(authHeader[7:])
}

// RequireAuth resolves the bearer token to a user through a session manager
// and stores it in the request context.
func (h *Handler) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			abort(c, http.StatusUnauthorized, "Authorization token missing")
			return
		}

		mgr := session.NewManager(h.Provider, session.WithToken(token), session.WithLogger(h.Logger))
		defer mgr.Close()
		if err := mgr.Start(c.Request.Context()); err != nil {
			h.fail(c, err)
			return
		}
		user := mgr.User()
		if user == nil {
			abort(c, http.StatusUnauthorized, "Invalid token or expired")
			return
		}

		c.Set(userKey, user)
		c.Set(tokenKey, token)
		c.Next()
	}
}

// RequireRole lets the request through only for users holding role.
// It must run after RequireAuth.
func (h *Handler) RequireRole(role models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !access.Allowed(currentUser(c), role) {
			abort(c, http.StatusForbidden, "Insufficient permissions")
			return
		}
		c.Next()
	}
}

func currentUser(c *gin.Context) *models.User {
	v, ok := c.Get(userKey)
	if !ok {
		return nil
	}
	user, _ := v.(*models.User)
	return user
}
