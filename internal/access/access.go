// Package access holds the role checks shared by every protected entry point.
package access

import "sulabh/backend/internal/models"

// Allowed reports whether user may reach a resource that requires role.
// An empty required role admits any signed-in user; an absent user is always denied.
func Allowed(user *models.User, required models.Role) bool {
	if user == nil {
		return false
	}
	if required == "" {
		return true
	}
	return user.Role == required
}

// CanView reports whether user may see the full record of c: its owner and
// staff roles can, other citizens cannot.
func CanView(user *models.User, c *models.Complaint) bool {
	if user == nil || c == nil {
		return false
	}
	if c.UserID == user.ID {
		return true
	}
	switch user.Role {
	case models.RoleAuthority, models.RoleAdmin, models.RoleNGO:
		return true
	}
	return false
}
