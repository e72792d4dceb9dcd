package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"sulabh/backend/internal/api/handler"
	"sulabh/backend/internal/complaint"
	"sulabh/backend/internal/identity"
	"sulabh/backend/internal/logger"
	"sulabh/backend/internal/models"
	"sulabh/backend/internal/notify"
	"sulabh/backend/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

const testPassword = "secret123"

func init() {
	gin.SetMode(gin.TestMode)
}

type testAPI struct {
	router   *gin.Engine
	provider *identity.MemoryProvider
	store    *complaint.Store
	hub      *notify.ManagerService
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	hub := notify.NewManagerService(nil, logger.Discard())
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	provider := identity.NewMemoryProvider(time.Hour)
	store := complaint.NewStore(storage.NewMemory(),
		complaint.WithLogger(logger.Discard()),
		complaint.WithNotifier(hub),
	)
	h := handler.NewHandler(store, provider, hub, logger.Discard())

	return &testAPI{
		router:   handler.NewRouter(h, []string{"http://localhost:5173"}),
		provider: provider,
		store:    store,
		hub:      hub,
	}
}

// signIn seeds a user with role and returns a session token for them.
func (a *testAPI) signIn(t *testing.T, email string, role models.Role, department string) (string, *models.User) {
	t.Helper()
	user, err := a.provider.AddUser(models.User{
		Email:      email,
		FirstName:  "Test",
		LastName:   string(role),
		Role:       role,
		Department: department,
	}, testPassword)
	require.NoError(t, err)

	sess, err := a.provider.SignIn(context.Background(), email, testPassword)
	require.NoError(t, err)
	return sess.Token, user
}

func (a *testAPI) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

// submit files a complaint as the citizen holding token and returns its id.
func (a *testAPI) submit(t *testing.T, token string, priority models.Priority) string {
	t.Helper()
	w := a.do(t, http.MethodPost, "/api/complaints", token, map[string]any{
		"category":    models.CategorySanitation,
		"subject":     "Garbage not collected",
		"description": "Garbage has not been collected for 3 days",
		"location":    "Sector 15, Noida",
		"priority":    priority,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		ID string `json:"id"`
	}
	decode(t, w, &resp)
	return resp.ID
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func errorMessage(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp struct {
		Error string `json:"error"`
	}
	decode(t, w, &resp)
	return resp.Error
}
