package handler_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"sulabh/backend/internal/complaint"
	"sulabh/backend/internal/models"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServeWebSocket_StreamsComplaintEvents(t *testing.T) {
	// Arrange
	api := newTestAPI(t)
	owner, _ := api.signIn(t, "asha@example.com", models.RoleCitizen, "")
	id := api.submit(t, owner, models.PriorityHigh)

	srv := httptest.NewServer(api.router)
	defer srv.Close()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/complaints/" + id

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return api.hub.Subscribers(id) == 1 }, time.Second, 10*time.Millisecond)

	// Act
	_, err = api.store.AddStatusUpdate(context.Background(), id, complaint.StatusUpdate{
		Status:    models.StatusInProgress,
		Message:   "Team dispatched",
		UpdatedBy: "Sanitation Dept",
	})
	require.NoError(t, err)

	// Assert
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var event models.ComplaintEvent
	require.NoError(t, conn.ReadJSON(&event))
	assert.Equal(t, models.EventStatus, event.Type)
	assert.Equal(t, id, event.ComplaintID)
	assert.Equal(t, models.StatusInProgress, event.Status)
	assert.Equal(t, "Team dispatched", event.Message)
}

func TestServeWebSocket_UnknownComplaint(t *testing.T) {
	api := newTestAPI(t)
	srv := httptest.NewServer(api.router)
	defer srv.Close()

	_, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws/complaints/CMP00000000", nil)

	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
