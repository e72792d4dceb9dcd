package handler

import (
	"log/slog"
	"net/http"

	"sulabh/backend/internal/apperrors"
	"sulabh/backend/internal/complaint"
	"sulabh/backend/internal/identity"
	"sulabh/backend/internal/notify"

	"github.com/gin-gonic/gin"
)

// Handler holds the services the HTTP API is built on.
type Handler struct {
	Store    *complaint.Store
	Provider identity.Provider
	Hub      *notify.ManagerService
	Logger   *slog.Logger
}

func NewHandler(store *complaint.Store, provider identity.Provider, hub *notify.ManagerService, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		Store:    store,
		Provider: provider,
		Hub:      hub,
		Logger:   logger,
	}
}

// fail aborts the request with the status apperrors assigns to err.
func (h *Handler) fail(c *gin.Context, err error) {
	status := apperrors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		h.Logger.Error("request failed", "method", c.Request.Method, "path", c.FullPath(), "error", err)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

func abort(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"error": message})
}
