package handler

import (
	"errors"
	"net/http"

	"sulabh/backend/internal/apperrors"
	"sulabh/backend/internal/identity"
	"sulabh/backend/internal/session"

	"github.com/gin-gonic/gin"
)

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) newSession(opts ...session.Option) *session.Manager {
	return session.NewManager(h.Provider, append(opts, session.WithLogger(h.Logger))...)
}

// Register creates a citizen account and returns its first session token.
func (h *Handler) Register(c *gin.Context) {
	var req session.RegisterData
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, apperrors.NewValidationError("Invalid registration data", err))
		return
	}

	mgr := h.newSession()
	user, err := mgr.Register(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"token": mgr.Token(), "user": user})
}

func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, apperrors.NewValidationError("Email and password are required", err))
		return
	}

	mgr := h.newSession()
	user, err := mgr.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": mgr.Token(), "user": user})
}

// Logout ends the session of the bearer token. It succeeds for unknown tokens too.
func (h *Handler) Logout(c *gin.Context) {
	token := bearerToken(c)
	if token == "" {
		abort(c, http.StatusUnauthorized, "Authorization token missing")
		return
	}
	h.newSession(session.WithToken(token)).Logout(c.Request.Context())
	c.Status(http.StatusNoContent)
}

func (h *Handler) Me(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"user": currentUser(c)})
}

// AuthCallback handles the redirect of an email confirmation or password recovery link.
func (h *Handler) AuthCallback(c *gin.Context) {
	cb, err := identity.ParseCallback(c.Request.URL.Query())
	if err != nil {
		h.fail(c, apperrors.NewValidationError(err.Error(), err))
		return
	}

	if cb.Action == identity.CallbackRecovery {
		c.JSON(http.StatusOK, gin.H{"action": cb.Action, "code": cb.Code})
		return
	}

	sess, err := h.Provider.ExchangeCode(c.Request.Context(), cb.Code)
	if err != nil {
		if errors.Is(err, identity.ErrInvalidCode) {
			h.fail(c, apperrors.NewAuthenticationError("Invalid or expired confirmation code", err))
			return
		}
		h.fail(c, apperrors.NewAuthenticationError("Email confirmation failed", err))
		return
	}

	mgr := h.newSession(session.WithToken(sess.Token))
	defer mgr.Close()
	if err := mgr.Start(c.Request.Context()); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"action": cb.Action, "token": mgr.Token(), "user": mgr.User()})
}
