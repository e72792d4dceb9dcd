package access_test

import (
	"testing"

	"sulabh/backend/internal/access"
	"sulabh/backend/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestAllowed(t *testing.T) {
	citizen := &models.User{ID: "c1", Role: models.RoleCitizen}
	admin := &models.User{ID: "a1", Role: models.RoleAdmin}
	authority := &models.User{ID: "o1", Role: models.RoleAuthority}

	tests := []struct {
		name     string
		user     *models.User
		required models.Role
		want     bool
	}{
		{"citizen denied admin", citizen, models.RoleAdmin, false},
		{"admin granted admin", admin, models.RoleAdmin, true},
		{"admin granted unguarded", admin, "", true},
		{"citizen granted unguarded", citizen, "", true},
		{"admin denied authority", admin, models.RoleAuthority, false},
		{"authority granted authority", authority, models.RoleAuthority, true},
		{"absent user denied role", nil, models.RoleCitizen, false},
		{"absent user denied unguarded", nil, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, access.Allowed(tt.user, tt.required))
		})
	}
}

func TestCanView(t *testing.T) {
	complaint := &models.Complaint{ID: "CMP1", UserID: "owner"}

	assert.True(t, access.CanView(&models.User{ID: "owner", Role: models.RoleCitizen}, complaint))
	assert.False(t, access.CanView(&models.User{ID: "other", Role: models.RoleCitizen}, complaint))
	assert.True(t, access.CanView(&models.User{ID: "x", Role: models.RoleAuthority}, complaint))
	assert.True(t, access.CanView(&models.User{ID: "x", Role: models.RoleAdmin}, complaint))
	assert.True(t, access.CanView(&models.User{ID: "x", Role: models.RoleNGO}, complaint))
	assert.False(t, access.CanView(nil, complaint))
	assert.False(t, access.CanView(&models.User{ID: "owner"}, nil))
}
