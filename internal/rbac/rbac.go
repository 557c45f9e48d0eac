// Package rbac decides what a user may see. It never touches the network
// and is safe to call on every request.
package rbac

import "anycomp/internal/domain"

// HasRole reports whether user holds one of the allowed roles. A nil user or
// an empty allowed set is never granted.
func HasRole(user *domain.User, allowed ...domain.UserRole) bool {
	if user == nil {
		return false
	}
	for _, r := range allowed {
		if user.Role == r {
			return true
		}
	}
	return false
}

func IsAdmin(user *domain.User) bool {
	return HasRole(user, domain.RoleAdmin)
}

func IsSpecialist(user *domain.User) bool {
	return HasRole(user, domain.RoleSpecialist)
}

func IsClient(user *domain.User) bool {
	return HasRole(user, domain.RoleClient)
}

// CanAccessSpecialistFeatures covers listing management: admins and specialists.
func CanAccessSpecialistFeatures(user *domain.User) bool {
	return HasRole(user, domain.RoleAdmin, domain.RoleSpecialist)
}

func CanAccessAdminFeatures(user *domain.User) bool {
	return IsAdmin(user)
}
