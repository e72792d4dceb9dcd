package session

import (
	"errors"
	"fmt"
	"testing"

	"sulabh/backend/internal/identity"

	"github.com/stretchr/testify/assert"
)

func TestIsDuplicateAccount(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"sentinel", identity.ErrAccountExists, true},
		{"wrapped sentinel", fmt.Errorf("signup: %w", identity.ErrAccountExists), true},
		{"code user_already_exists", &identity.ProviderError{Code: "user_already_exists"}, true},
		{"code email_exists", &identity.ProviderError{Code: "EMAIL_EXISTS", Message: "conflict"}, true},
		{"message user already registered", errors.New("User already registered"), true},
		{"message user already exists", errors.New("AuthApiError: user already exists"), true},
		{"message already registered", errors.New("this phone is already registered"), true},
		{"message email registered", errors.New("Email address is already registered"), true},
		{"weak password", &identity.ProviderError{Code: "weak_password", Message: "Password should be at least 6 characters"}, false},
		{"network", errors.New("dial tcp: connection refused"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isDuplicateAccount(tt.err))
		})
	}
}
