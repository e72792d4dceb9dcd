package handler

import (
	"net/http"

	"sulabh/backend/internal/apperrors"
	"sulabh/backend/internal/notify"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// origins are enforced by the CORS middleware
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeWebSocket upgrades the connection and streams events of one complaint.
func (h *Handler) ServeWebSocket(c *gin.Context) {
	found, err := h.Store.Track(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	if found == nil {
		h.fail(c, apperrors.NewNotFoundError("Complaint not found"))
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.Logger.Warn("failed to upgrade connection", "complaint_id", found.ID, "error", err)
		return
	}

	client := notify.NewWebSocketClient(uuid.NewString(), found.ID, conn, h.Hub)
	if !h.Hub.Register(client) {
		_ = conn.Close()
		return
	}
	client.Run()
}
