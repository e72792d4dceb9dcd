// Package identity defines the identity-provider contract the session manager
// depends on, together with an in-memory provider for tests and a GORM/JWT
// provider for production.
package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sulabh/backend/internal/models"
)

// ErrAccountExists is returned by SignUp when the email is already registered.
var ErrAccountExists = errors.New("user already registered")

// ErrInvalidCredentials is returned by SignIn for a wrong email or password.
var ErrInvalidCredentials = errors.New("invalid login credentials")

// ErrInvalidCode is returned by ExchangeCode for unknown or used codes.
var ErrInvalidCode = errors.New("invalid or expired confirmation code")

// ProviderError is an error reported by a provider with a machine-readable code.
type ProviderError struct {
	Code    string
	Message string
}

func (e *ProviderError) Error() string {
	if e.Code == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Session is an authenticated provider session.
type Session struct {
	Token     string    `json:"token"`
	UserID    string    `json:"userId"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// SessionEvent reports a session change. Session is nil when the session ended.
type SessionEvent struct {
	Token   string
	Session *Session
}

// SignUpRequest carries credentials and profile metadata for a new identity.
type SignUpRequest struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Phone     string
}

// ProfileUpdate lists profile fields to change; nil fields are left untouched.
type ProfileUpdate struct {
	FirstName  *string
	LastName   *string
	Phone      *string
	Role       *models.Role
	Department *string
}

// Provider is the sole source of truth for identities and sessions.
type Provider interface {
	// GetSession returns the live session for token, or nil when absent or expired.
	GetSession(ctx context.Context, token string) (*Session, error)
	SignIn(ctx context.Context, email, password string) (*Session, error)
	SignUp(ctx context.Context, req SignUpRequest) (*Session, error)
	SignOut(ctx context.Context, token string) error
	// ExchangeCode trades an email-confirmation code for a session.
	ExchangeCode(ctx context.Context, code string) (*Session, error)
	// OnSessionChange registers fn for session changes and returns an unsubscribe func.
	OnSessionChange(fn func(SessionEvent)) (unsubscribe func())
	// GetProfile returns the user profile, or nil when unknown.
	GetProfile(ctx context.Context, userID string) (*models.User, error)
	UpdateProfile(ctx context.Context, userID string, update ProfileUpdate) error
}

func applyProfileUpdate(u *models.User, update ProfileUpdate) {
	if update.FirstName != nil {
		u.FirstName = *update.FirstName
	}
	if update.LastName != nil {
		u.LastName = *update.LastName
	}
	if update.Phone != nil {
		u.Phone = *update.Phone
	}
	if update.Role != nil {
		u.Role = *update.Role
	}
	if update.Department != nil {
		u.Department = *update.Department
	}
}
