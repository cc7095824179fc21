package middleware

import (
	"net/http"

	"cleanservice/internal/pkg/response"
	"cleanservice/internal/pkg/session"

	"github.com/gin-gonic/gin"
)

const identityKey = "identity"

// RequireRole lets the request through only with a valid token for role.
// A request authenticated as a different role gets 403, otherwise 401.
func RequireRole(sessions *session.Manager, role session.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := sessions.FromRequest(role, c.Request)
		if !ok {
			if _, other := sessions.Resolve(c.Request); other {
				response.Error(c, http.StatusForbidden, "FORBIDDEN", "Access denied: insufficient permissions")
				return
			}
			response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
			return
		}

		setIdentity(c, p)
		c.Next()
	}
}

// OptionalRole attaches the identity for role when present and never rejects.
func OptionalRole(sessions *session.Manager, role session.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		if p, ok := sessions.FromRequest(role, c.Request); ok {
			setIdentity(c, p)
		}
		c.Next()
	}
}

func setIdentity(c *gin.Context, p *session.Payload) {
	c.Set(identityKey, p)
	c.Set("user_id", p.ID)
	c.Set("role", string(p.Role))
	c.Set("email", p.Email)
	c.Set("name", p.Name)
}

// Identity returns the payload attached by RequireRole or OptionalRole.
func Identity(c *gin.Context) (*session.Payload, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return nil, false
	}
	p, ok := v.(*session.Payload)
	return p, ok
}
