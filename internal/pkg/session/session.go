package session

import (
	"net/http"
	"strings"
	"time"

	"cleanservice/internal/pkg/jwt"

	"github.com/gin-gonic/gin"
)

type Role string

const (
	RoleAdmin    Role = "admin"
	RoleStaff    Role = "staff"
	RoleCustomer Role = "customer"
)

// Precedence is the order Resolve checks roles in.
var Precedence = []Role{RoleAdmin, RoleStaff, RoleCustomer}

var cookieNames = map[Role]string{
	RoleAdmin:    "adminToken",
	RoleStaff:    "staffToken",
	RoleCustomer: "userToken",
}

func (r Role) Valid() bool {
	_, ok := cookieNames[r]
	return ok
}

// CookieName returns the cookie a role's token lives in.
func CookieName(r Role) string {
	return cookieNames[r]
}

// Payload is what every session token carries.
type Payload struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
	Name  string `json:"name"`
}

type Config struct {
	Secret string
	Secure bool
	TTL    map[Role]time.Duration
}

// Manager issues, verifies and stores tokens for all three roles.
type Manager struct {
	tokens *jwt.Service
	secure bool
	ttl    map[Role]time.Duration
}

func NewManager(cfg Config) *Manager {
	ttl := map[Role]time.Duration{
		RoleAdmin:    24 * time.Hour,
		RoleStaff:    7 * 24 * time.Hour,
		RoleCustomer: 24 * time.Hour,
	}
	for role, d := range cfg.TTL {
		if d > 0 {
			ttl[role] = d
		}
	}
	return &Manager{
		tokens: jwt.New(cfg.Secret),
		secure: cfg.Secure,
		ttl:    ttl,
	}
}

func (m *Manager) TTL(role Role) time.Duration {
	return m.ttl[role]
}

// Issue signs a token for role. The payload role is forced to match.
func (m *Manager) Issue(role Role, p Payload) (string, error) {
	token, _, err := m.tokens.GenerateToken(jwt.Claims{
		UserID: p.ID,
		Email:  p.Email,
		Role:   string(role),
		Name:   p.Name,
	}, string(role), m.ttl[role])
	return token, err
}

// Verify returns the payload of a valid token for role. Any failure means
// "not authenticated".
func (m *Manager) Verify(role Role, token string) (*Payload, bool) {
	if token == "" {
		return nil, false
	}
	claims, err := m.tokens.ValidateToken(token, string(role))
	if err != nil || claims.Role != string(role) {
		return nil, false
	}
	return &Payload{ID: claims.UserID, Email: claims.Email, Role: role, Name: claims.Name}, true
}

// FromRequest reads the role cookie first and falls back to a bearer header.
func (m *Manager) FromRequest(role Role, r *http.Request) (*Payload, bool) {
	if cookie, err := r.Cookie(CookieName(role)); err == nil && strings.TrimSpace(cookie.Value) != "" {
		if p, ok := m.Verify(role, cookie.Value); ok {
			return p, true
		}
	}
	if token := bearerToken(r); token != "" {
		return m.Verify(role, token)
	}
	return nil, false
}

// Resolve returns the first authenticated role in Precedence order.
func (m *Manager) Resolve(r *http.Request) (*Payload, bool) {
	for _, role := range Precedence {
		if p, ok := m.FromRequest(role, r); ok {
			return p, true
		}
	}
	return nil, false
}

// SetCookie stores token in the role's cookie for the role's TTL.
func (m *Manager) SetCookie(c *gin.Context, role Role, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(CookieName(role), token, int(m.ttl[role].Seconds()), "/", "", m.secure, true)
}

// ClearCookie expires the role's cookie. gin renders a negative maxAge as Max-Age=0.
func (m *Manager) ClearCookie(c *gin.Context, role Role) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(CookieName(role), "", -1, "/", "", m.secure, true)
}

// Login issues a token and sets it as the role cookie.
func (m *Manager) Login(c *gin.Context, role Role, p Payload) (string, error) {
	token, err := m.Issue(role, p)
	if err != nil {
		return "", err
	}
	m.SetCookie(c, role, token)
	return token, nil
}

func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(header) < 7 || !strings.EqualFold(header[:7], "Bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}
