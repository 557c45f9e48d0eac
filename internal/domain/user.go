package domain

import "time"

type UserRole string

const (
	RoleAdmin      UserRole = "admin"
	RoleSpecialist UserRole = "specialist"
	RoleClient     UserRole = "client"
)

// Valid reports whether r is one of the known roles.
func (r UserRole) Valid() bool {
	return r == RoleAdmin || r == RoleSpecialist || r == RoleClient
}

type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Username  string    `json:"username,omitempty"`
	Role      UserRole  `json:"role"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
	UpdatedAt time.Time `json:"updatedAt,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email,omitempty"`
	Username string `json:"username,omitempty"`
	Password string `json:"password" validate:"required"`
}

type RegisterRequest struct {
	Email    string   `json:"email" validate:"required,email"`
	Password string   `json:"password" validate:"required,min=6"`
	Role     UserRole `json:"role,omitempty" validate:"omitempty,oneof=admin specialist client"`
}

// AuthResult is the payload of /auth/login and /auth/register.
type AuthResult struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}
