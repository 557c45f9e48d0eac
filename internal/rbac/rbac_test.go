package rbac

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"anycomp/internal/domain"
)

func TestHasRole(t *testing.T) {
	admin := &domain.User{ID: "1", Role: domain.RoleAdmin}
	specialist := &domain.User{ID: "2", Role: domain.RoleSpecialist}
	client := &domain.User{ID: "3", Role: domain.RoleClient}

	tests := []struct {
		name    string
		user    *domain.User
		allowed []domain.UserRole
		want    bool
	}{
		{"nil user", nil, []domain.UserRole{domain.RoleAdmin}, false},
		{"nil user no roles", nil, nil, false},
		{"empty allowed set", admin, nil, false},
		{"single match", admin, []domain.UserRole{domain.RoleAdmin}, true},
		{"single miss", client, []domain.UserRole{domain.RoleAdmin}, false},
		{"many match", specialist, []domain.UserRole{domain.RoleAdmin, domain.RoleSpecialist}, true},
		{"many miss", client, []domain.UserRole{domain.RoleAdmin, domain.RoleSpecialist}, false},
		{"unknown role", &domain.User{Role: "owner"}, []domain.UserRole{domain.RoleAdmin, domain.RoleSpecialist, domain.RoleClient}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HasRole(tt.user, tt.allowed...))
		})
	}
}

func TestHelpers(t *testing.T) {
	roles := []domain.UserRole{domain.RoleAdmin, domain.RoleSpecialist, domain.RoleClient}

	for _, r := range roles {
		u := &domain.User{Role: r}
		assert.Equal(t, r == domain.RoleAdmin, IsAdmin(u), r)
		assert.Equal(t, r == domain.RoleSpecialist, IsSpecialist(u), r)
		assert.Equal(t, r == domain.RoleClient, IsClient(u), r)
		assert.Equal(t, r != domain.RoleClient, CanAccessSpecialistFeatures(u), r)
		assert.Equal(t, r == domain.RoleAdmin, CanAccessAdminFeatures(u), r)
	}

	assert.False(t, CanAccessSpecialistFeatures(nil))
	assert.False(t, CanAccessAdminFeatures(nil))
}
