package identity_test

import (
	"net/url"
	"testing"

	"sulabh/backend/internal/identity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCallback(t *testing.T) {
	tests := []struct {
		name    string
		query   url.Values
		want    *identity.Callback
		wantErr string
	}{
		{
			name:    "provider error",
			query:   url.Values{"error": {"access_denied"}, "error_description": {"Email link is invalid or has expired"}},
			wantErr: "access_denied: Email link is invalid or has expired",
		},
		{
			name:  "email confirmation",
			query: url.Values{"type": {"email_confirmation"}, "code": {"abc"}},
			want:  &identity.Callback{Action: identity.CallbackConfirmEmail, Code: "abc"},
		},
		{
			name:    "email confirmation without code",
			query:   url.Values{"type": {"email_confirmation"}},
			wantErr: "Invalid callback type",
		},
		{
			name:  "recovery",
			query: url.Values{"type": {"recovery"}, "code": {"r1"}},
			want:  &identity.Callback{Action: identity.CallbackRecovery, Code: "r1"},
		},
		{
			name:    "unknown type",
			query:   url.Values{"type": {"magiclink"}},
			wantErr: "Invalid callback type",
		},
		{
			name:    "empty",
			query:   url.Values{},
			wantErr: "Invalid callback type",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := identity.ParseCallback(tt.query)
			if tt.wantErr != "" {
				assert.EqualError(t, err, tt.wantErr)
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
