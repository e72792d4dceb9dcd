package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role is the access tier of a user.
type Role string

const (
	RoleCitizen   Role = "citizen"
	RoleAuthority Role = "authority"
	RoleAdmin     Role = "admin"
	RoleNGO       Role = "ngo"
)

// IsValid reports whether r is one of the known roles.
func (r Role) IsValid() bool {
	switch r {
	case RoleCitizen, RoleAuthority, RoleAdmin, RoleNGO:
		return true
	}
	return false
}

// ParseRole converts s to a Role, falling back to citizen for unknown values.
func ParseRole(s string) Role {
	role := Role(s)
	if role.IsValid() {
		return role
	}
	return RoleCitizen
}

// User represents an identity known to the portal.
// Role is fixed to citizen at registration and only operators change it.
type User struct {
	ID             string    `gorm:"primaryKey" json:"id"` // UUID
	Email          string    `gorm:"uniqueIndex;not null" json:"email"`
	FirstName      string    `json:"firstName"`
	LastName       string    `json:"lastName"`
	Phone          string    `json:"phone,omitempty"`
	Role           Role      `gorm:"type:text;not null;default:citizen" json:"role"`
	Department     string    `json:"department,omitempty"`
	PasswordHash   string    `json:"-"`
	EmailConfirmed bool      `json:"emailConfirmed"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// BeforeCreate is a GORM hook that assigns a UUID and the default role
// when they are not set yet.
func (u *User) BeforeCreate(tx *gorm.DB) (err error) {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	if u.Role == "" {
		u.Role = RoleCitizen
	}
	return
}

// FullName joins first and last name.
func (u *User) FullName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}
