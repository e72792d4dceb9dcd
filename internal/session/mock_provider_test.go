package session_test

import (
	"context"

	"sulabh/backend/internal/identity"
	"sulabh/backend/internal/models"

	"github.com/stretchr/testify/mock"
)

type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) GetSession(ctx context.Context, token string) (*identity.Session, error) {
	args := m.Called(ctx, token)
	sess, _ := args.Get(0).(*identity.Session)
	return sess, args.Error(1)
}

func (m *MockProvider) SignIn(ctx context.Context, email, password string) (*identity.Session, error) {
	args := m.Called(ctx, email, password)
	sess, _ := args.Get(0).(*identity.Session)
	return sess, args.Error(1)
}

func (m *MockProvider) SignUp(ctx context.Context, req identity.SignUpRequest) (*identity.Session, error) {
	args := m.Called(ctx, req)
	sess, _ := args.Get(0).(*identity.Session)
	return sess, args.Error(1)
}

func (m *MockProvider) SignOut(ctx context.Context, token string) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *MockProvider) ExchangeCode(ctx context.Context, code string) (*identity.Session, error) {
	args := m.Called(ctx, code)
	sess, _ := args.Get(0).(*identity.Session)
	return sess, args.Error(1)
}

func (m *MockProvider) OnSessionChange(fn func(identity.SessionEvent)) func() {
	return func() {}
}

func (m *MockProvider) GetProfile(ctx context.Context, userID string) (*models.User, error) {
	args := m.Called(ctx, userID)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

func (m *MockProvider) UpdateProfile(ctx context.Context, userID string, update identity.ProfileUpdate) error {
	args := m.Called(ctx, userID, update)
	return args.Error(0)
}
