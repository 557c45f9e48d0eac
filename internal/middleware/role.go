package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"anycomp/internal/domain"
	"anycomp/internal/nav"
	"anycomp/internal/pkg/response"
	"anycomp/internal/rbac"
)

// SessionReader exposes the current user of a client session.
type SessionReader interface {
	User() *domain.User
	IsAuthenticated() bool
}

// RequireSession rejects requests while nobody is logged in and tells the
// caller where to log in.
func RequireSession(s SessionReader) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.IsAuthenticated() {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success":  false,
				"error":    gin.H{"code": "UNAUTHORIZED", "message": "Login required"},
				"redirect": nav.LoginPath,
			})
			return
		}
		c.Next()
	}
}

// RequireRole renders the access denied fallback unless the session user
// holds one of roles.
func RequireRole(s SessionReader, roles ...domain.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rbac.HasRole(s.User(), roles...) {
			response.Abort(c, http.StatusForbidden, "ACCESS_DENIED", "Access denied")
			return
		}
		c.Next()
	}
}

// RequireClaimRole checks the role placed in the context by JWTAuth.
func RequireClaimRole(roles ...domain.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString(ContextRole)
		if role == "" {
			response.Abort(c, http.StatusUnauthorized, "UNAUTHORIZED", "Role not found in token")
			return
		}

		if !rbac.HasRole(&domain.User{Role: domain.UserRole(role)}, roles...) {
			response.Abort(c, http.StatusForbidden, "FORBIDDEN", "Access denied: insufficient permissions")
			return
		}

		c.Next()
	}
}

// AdminOnly middleware requires admin role
func AdminOnly() gin.HandlerFunc {
	return RequireClaimRole(domain.RoleAdmin)
}
