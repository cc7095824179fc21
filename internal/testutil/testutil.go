package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"cleanservice/internal/database"
	"cleanservice/internal/domain"
	"cleanservice/internal/mail"
	"cleanservice/internal/pkg/session"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const TestPassword = "testpassword123"

// Env bundles what handler tests share.
type Env struct {
	DB       *gorm.DB
	Sessions *session.Manager
}

// SetupTestDB creates an isolated in-memory SQLite database with the full schema.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := database.Connect(dsn, database.Silent())
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// NewSessions returns a session manager with a fixed test secret.
func NewSessions() *session.Manager {
	return session.NewManager(session.Config{Secret: "test-secret-key-for-testing"})
}

// HashPassword hashes with the minimum bcrypt cost to keep tests fast.
func HashPassword(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	return string(hash)
}

func CreateUser(t *testing.T, db *gorm.DB, email string) *domain.User {
	t.Helper()
	u := &domain.User{
		Name:          "Test Customer",
		Email:         email,
		Phone:         "+10000000000",
		PasswordHash:  HashPassword(t, TestPassword),
		EmailVerified: true,
	}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	return u
}

// CreateStaff inserts an approved, verified, active cleaner; mutate applies overrides before insert.
func CreateStaff(t *testing.T, db *gorm.DB, email string, mutate ...func(*domain.Staff)) *domain.Staff {
	t.Helper()
	s := &domain.Staff{
		Name:           "Test Staff",
		Email:          email,
		PasswordHash:   HashPassword(t, TestPassword),
		Role:           domain.StaffCleaner,
		Status:         domain.StaffActive,
		ApprovalStatus: domain.ApprovalApproved,
		EmailVerified:  true,
	}
	for _, fn := range mutate {
		fn(s)
	}
	// Create skips zero-value bools, which would pick up column defaults.
	if err := db.Select("*").Omit("ID").Create(s).Error; err != nil {
		t.Fatalf("failed to create staff: %v", err)
	}
	return s
}

func CreateTeam(t *testing.T, db *gorm.DB, name string, memberIDs ...int64) *domain.Team {
	t.Helper()
	team := &domain.Team{Name: name, Status: domain.TeamActive}
	if err := db.Omit("TeamLeader", "Members").Create(team).Error; err != nil {
		t.Fatalf("failed to create team: %v", err)
	}
	for _, id := range memberIDs {
		m := &domain.TeamMember{TeamID: team.ID, StaffID: id, RoleInTeam: domain.TeamRoleMember, JoinedAt: time.Now()}
		if err := db.Omit("Team", "Staff").Create(m).Error; err != nil {
			t.Fatalf("failed to add team member: %v", err)
		}
	}
	return team
}

func CreateBooking(t *testing.T, db *gorm.DB, status domain.BookingStatus, mutate ...func(*domain.Booking)) *domain.Booking {
	t.Helper()
	b := &domain.Booking{
		Name:          "Guest",
		Email:         "guest@example.com",
		Phone:         "+10000000001",
		Address:       "1 Main St",
		ServiceType:   "Deep Cleaning",
		PreferredDate: time.Now().AddDate(0, 0, 3).Format(domain.DateLayout),
		PreferredTime: domain.DefaultPreferredTime,
		Status:        status,
	}
	for _, fn := range mutate {
		fn(b)
	}
	if err := db.Omit("User", "Assignments").Create(b).Error; err != nil {
		t.Fatalf("failed to create booking: %v", err)
	}
	return b
}

// CreateAssignment gives booking b to a single staff member.
func CreateAssignment(t *testing.T, db *gorm.DB, b *domain.Booking, staffID int64, status domain.AssignmentStatus) *domain.Assignment {
	t.Helper()
	a := &domain.Assignment{
		BookingID:      b.ID,
		AssignmentType: domain.AssignmentIndividual,
		StaffID:        &staffID,
		Status:         status,
		AssignedAt:     time.Now(),
	}
	if err := db.Omit("Booking", "Team", "Staff").Create(a).Error; err != nil {
		t.Fatalf("failed to create assignment: %v", err)
	}
	return a
}

// Cookie issues a session token for role and wraps it in the role's cookie.
func Cookie(t *testing.T, sessions *session.Manager, role session.Role, p session.Payload) *http.Cookie {
	t.Helper()
	token, err := sessions.Issue(role, p)
	if err != nil {
		t.Fatalf("failed to issue token: %v", err)
	}
	return &http.Cookie{Name: session.CookieName(role), Value: token}
}

func AdminCookie(t *testing.T, sessions *session.Manager) *http.Cookie {
	return Cookie(t, sessions, session.RoleAdmin, session.Payload{Email: "admin@example.com", Name: "Administrator"})
}

func StaffCookie(t *testing.T, sessions *session.Manager, s *domain.Staff) *http.Cookie {
	return Cookie(t, sessions, session.RoleStaff, session.Payload{ID: s.ID, Email: s.Email, Name: s.Name})
}

func CustomerCookie(t *testing.T, sessions *session.Manager, u *domain.User) *http.Cookie {
	return Cookie(t, sessions, session.RoleCustomer, session.Payload{ID: u.ID, Email: u.Email, Name: u.Name})
}

// NewRouter returns a gin engine in test mode.
func NewRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

// MakeRequest serves a JSON request through handler.
func MakeRequest(t *testing.T, handler http.Handler, method, path string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		switch v := body.(type) {
		case string:
			reader = bytes.NewBufferString(v)
		default:
			raw, err := json.Marshal(v)
			if err != nil {
				t.Fatalf("failed to marshal request body: %v", err)
			}
			reader = bytes.NewReader(raw)
		}
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range cookies {
		if c != nil {
			req.AddCookie(c)
		}
	}

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

// Envelope is the decoded response body.
type Envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Code    string          `json:"code"`
	Message string          `json:"message"`
	Raw     map[string]any  `json:"-"`
}

func ParseResponse(t *testing.T, w *httptest.ResponseRecorder) Envelope {
	t.Helper()
	var env Envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("failed to parse response %q: %v", w.Body.String(), err)
	}
	_ = json.Unmarshal(w.Body.Bytes(), &env.Raw)
	return env
}

// DecodeData unmarshals the envelope's data into out.
func DecodeData(t *testing.T, w *httptest.ResponseRecorder, out any) {
	t.Helper()
	env := ParseResponse(t, w)
	if err := json.Unmarshal(env.Data, out); err != nil {
		t.Fatalf("failed to decode data %s: %v", string(env.Data), err)
	}
}

// ResponseCookie returns the named Set-Cookie from the response.
func ResponseCookie(w *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// MailRecorder is a mail.Sender that records messages and can be made to fail.
type MailRecorder struct {
	mu   sync.Mutex
	sent []SentMail
	Err  error
}

type SentMail struct {
	To      string
	Subject string
	HTML    string
}

func (r *MailRecorder) Send(_ context.Context, to, subject, html string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.sent = append(r.sent, SentMail{To: to, Subject: subject, HTML: html})
	return nil
}

func (r *MailRecorder) Sent() []SentMail {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]SentMail(nil), r.sent...)
}

// NewMailer returns a dispatcher that sends inline through rec.
func NewMailer(rec *MailRecorder) *mail.Dispatcher {
	return mail.NewDispatcher(rec, nil, zap.NewNop(), nil)
}
