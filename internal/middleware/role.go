package middleware

import (
	"cleanservice/internal/pkg/session"

	"github.com/gin-gonic/gin"
)

// RequireAdmin requires an admin token.
func RequireAdmin(sessions *session.Manager) gin.HandlerFunc {
	return RequireRole(sessions, session.RoleAdmin)
}

func RequireStaff(sessions *session.Manager) gin.HandlerFunc {
	return RequireRole(sessions, session.RoleStaff)
}

func RequireCustomer(sessions *session.Manager) gin.HandlerFunc {
	return RequireRole(sessions, session.RoleCustomer)
}

// OptionalCustomer attaches a customer identity when the request carries one.
func OptionalCustomer(sessions *session.Manager) gin.HandlerFunc {
	return OptionalRole(sessions, session.RoleCustomer)
}
