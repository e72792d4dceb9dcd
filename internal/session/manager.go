// Package session owns the authenticated identity of one client session.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"sulabh/backend/internal/apperrors"
	"sulabh/backend/internal/config"
	"sulabh/backend/internal/identity"
	"sulabh/backend/internal/models"
)

// RegisterData is the sign-up form of a new citizen.
type RegisterData struct {
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=6"`
	FirstName string `json:"firstName" binding:"required"`
	LastName  string `json:"lastName"`
	Phone     string `json:"phone"`
}

type Option func(*Manager)

// WithToken resumes an existing provider session.
func WithToken(token string) Option {
	return func(m *Manager) { m.token = token }
}

func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) { m.logger = logger }
}

// Manager tracks the current user of a session and keeps it in line with the
// identity provider.
type Manager struct {
	provider identity.Provider
	logger   *slog.Logger

	mu    sync.RWMutex
	token string
	user  *models.User

	loading     atomic.Int32
	unsubscribe func()
}

func NewManager(provider identity.Provider, opts ...Option) *Manager {
	m := &Manager{provider: provider, logger: slog.Default()}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start reconciles with the provider and follows its session changes until Close.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.unsubscribe == nil {
		m.unsubscribe = m.provider.OnSessionChange(m.onSessionChange)
	}
	m.mu.Unlock()

	return m.reconcile(ctx)
}

// Close stops following provider session changes.
func (m *Manager) Close() {
	m.mu.Lock()
	unsubscribe := m.unsubscribe
	m.unsubscribe = nil
	m.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}

func (m *Manager) onSessionChange(event identity.SessionEvent) {
	m.mu.RLock()
	mine := m.token != "" && event.Token == m.token
	m.mu.RUnlock()
	if !mine {
		return
	}

	if event.Session == nil {
		m.clear()
		return
	}
	if err := m.reconcile(context.Background()); err != nil {
		m.logger.Warn("failed to reconcile session after change", "error", err)
	}
}

// reconcile loads the profile when the provider still knows the session and
// clears local state otherwise.
func (m *Manager) reconcile(ctx context.Context) error {
	m.loading.Add(1)
	defer m.loading.Add(-1)

	token := m.Token()
	if token == "" {
		m.clear()
		return nil
	}

	sess, err := m.provider.GetSession(ctx, token)
	if err != nil {
		return apperrors.NewAuthenticationError("Could not verify session", err)
	}
	if sess == nil {
		m.clear()
		return nil
	}

	profile, err := m.provider.GetProfile(ctx, sess.UserID)
	if err != nil {
		return apperrors.NewAuthenticationError("Could not load profile", err)
	}
	if profile == nil {
		m.clear()
		return nil
	}
	m.set(token, profile)
	return nil
}

// Login signs in with the provider and caches the user's profile.
func (m *Manager) Login(ctx context.Context, email, password string) (*models.User, error) {
	m.loading.Add(1)
	defer m.loading.Add(-1)

	sess, err := m.provider.SignIn(ctx, email, password)
	if err != nil {
		m.logger.Info("login failed", "email", email, "error", err)
		return nil, apperrors.NewAuthenticationError(authMessage(err), err)
	}

	profile, err := m.provider.GetProfile(ctx, sess.UserID)
	if err != nil {
		return nil, apperrors.NewAuthenticationError(authMessage(err), err)
	}
	if profile == nil {
		return nil, apperrors.NewAuthenticationError("unknown user", nil)
	}

	m.set(sess.Token, profile)
	return m.User(), nil
}

// Register creates a citizen account and signs the new user in.
func (m *Manager) Register(ctx context.Context, data RegisterData) (*models.User, error) {
	m.loading.Add(1)
	defer m.loading.Add(-1)

	sess, err := m.provider.SignUp(ctx, identity.SignUpRequest{
		Email:     data.Email,
		Password:  data.Password,
		FirstName: data.FirstName,
		LastName:  data.LastName,
		Phone:     data.Phone,
	})
	if err != nil {
		if isDuplicateAccount(err) {
			return nil, apperrors.NewDuplicateAccountError(config.DuplicateAccountText, err)
		}
		m.logger.Warn("registration failed", "email", data.Email, "error", err)
		return nil, apperrors.NewRegistrationError(registrationMessage(err), err)
	}

	// the account exists from here on; profile trouble must not turn into a
	// failed registration the user cannot retry
	profile, err := m.provider.GetProfile(ctx, sess.UserID)
	if err != nil || profile == nil {
		m.logger.Warn("profile unavailable after sign-up", "user_id", sess.UserID, "error", err)
		profile = &models.User{
			ID:        sess.UserID,
			Email:     data.Email,
			FirstName: data.FirstName,
			LastName:  data.LastName,
		}
	}
	if profile.Role != models.RoleCitizen || profile.Phone != data.Phone {
		role, phone := models.RoleCitizen, data.Phone
		if err := m.provider.UpdateProfile(ctx, sess.UserID, identity.ProfileUpdate{Role: &role, Phone: &phone}); err != nil {
			m.logger.Warn("failed to complete profile after sign-up", "user_id", sess.UserID, "error", err)
		}
		profile.Role, profile.Phone = role, phone
	}

	m.set(sess.Token, profile)
	return m.User(), nil
}

// Logout ends the session. Provider errors are logged; local state always clears.
func (m *Manager) Logout(ctx context.Context) {
	m.loading.Add(1)
	defer m.loading.Add(-1)

	token := m.Token()
	m.clear()
	if token == "" {
		return
	}
	if err := m.provider.SignOut(ctx, token); err != nil {
		m.logger.Warn("provider sign-out failed", "error", err)
	}
}

// Loading reports whether an operation is in flight.
func (m *Manager) Loading() bool {
	return m.loading.Load() > 0
}

// User returns a copy of the current user, or nil when signed out.
func (m *Manager) User() *models.User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.user == nil {
		return nil
	}
	u := *m.user
	return &u
}

func (m *Manager) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token
}

func (m *Manager) set(token string, user *models.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	m.user = user
}

func (m *Manager) clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = ""
	m.user = nil
}

func authMessage(err error) string {
	var perr *identity.ProviderError
	switch {
	case errors.Is(err, identity.ErrInvalidCredentials):
		return "Invalid email or password"
	case errors.As(err, &perr) && perr.Message != "":
		return perr.Message
	default:
		return "Login failed"
	}
}

func registrationMessage(err error) string {
	var perr *identity.ProviderError
	if errors.As(err, &perr) && perr.Message != "" {
		return perr.Message
	}
	return "Registration failed"
}
