package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"cleanservice/internal/config"
	"cleanservice/internal/domain"
	"cleanservice/internal/pkg/session"
	"cleanservice/internal/repository"
	"cleanservice/internal/testutil"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/idtoken"
)

const (
	adminEmail    = "admin@cleanservice.test"
	adminPassword = "admin-secret"
	frontend      = "http://localhost:3000"
)

type fakeGoogle struct {
	identity *GoogleIdentity
	err      error
	codes    []string
}

func (f *fakeGoogle) AuthCodeURL(state string) string {
	return "https://accounts.google.com/o/oauth2/auth?state=" + state
}

func (f *fakeGoogle) Identify(_ context.Context, code string) (*GoogleIdentity, error) {
	f.codes = append(f.codes, code)
	return f.identity, f.err
}

type fixture struct {
	testutil.Env
	router *gin.Engine
	mails  *testutil.MailRecorder
	google *fakeGoogle
}

func setup(t *testing.T) *fixture {
	t.Helper()
	db := testutil.SetupTestDB(t)
	sessions := testutil.NewSessions()
	mails := &testutil.MailRecorder{}
	google := &fakeGoogle{}

	svc := NewService(
		repository.NewUserRepository(db),
		repository.NewStaffRepository(db),
		repository.NewBookingRepository(db),
		testutil.NewMailer(mails),
		Config{AdminEmail: adminEmail, AdminPassword: adminPassword, FrontendURL: frontend},
		nil,
	)
	router := testutil.NewRouter()
	NewHandler(svc, HandlerConfig{
		Sessions:  sessions,
		Google:    google,
		RateLimit: config.RateLimitConfig{LoginPerMinute: 10, LoginBurst: 5},
	}).RegisterRoutes(router.Group("/api"))

	return &fixture{Env: testutil.Env{DB: db, Sessions: sessions}, router: router, mails: mails, google: google}
}

func login(email, password string) gin.H {
	return gin.H{"email": email, "password": password}
}

func TestAdminLogin_ResolvesAsAdmin(t *testing.T) {
	f := setup(t)

	w := testutil.MakeRequest(t, f.router, http.MethodPost, "/api/auth/admin-login", login("Admin@CleanService.test", adminPassword))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	cookie := testutil.ResponseCookie(w, "adminToken")
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)

	w = testutil.MakeRequest(t, f.router, http.MethodGet, "/api/auth/me", nil, cookie)
	require.Equal(t, http.StatusOK, w.Code)
	var me MeResponse
	testutil.DecodeData(t, w, &me)
	assert.Equal(t, session.RoleAdmin, me.Role)
	assert.Equal(t, adminEmail, me.User.Email)
}

func TestAdminLogin_WrongPassword(t *testing.T) {
	f := setup(t)

	w := testutil.MakeRequest(t, f.router, http.MethodPost, "/api/auth/admin-login", login(adminEmail, "nope"))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Nil(t, testutil.ResponseCookie(w, "adminToken"))
}

func TestAdminLogin_DisabledWithoutPassword(t *testing.T) {
	svc := NewService(nil, nil, nil, nil, Config{AdminEmail: adminEmail}, nil)
	_, err := svc.AdminLogin(adminEmail, "")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestStaffLogin_Gate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*domain.Staff)
		pass    string
		status  int
		code    string
		details map[string]any
	}{
		{
			name:    "unverified with wrong password",
			mutate:  func(s *domain.Staff) { s.EmailVerified = false },
			pass:    "wrong-password",
			status:  http.StatusForbidden,
			code:    "EMAIL_NOT_VERIFIED",
			details: map[string]any{"requiresVerification": true},
		},
		{
			name: "unverified beats pending approval",
			mutate: func(s *domain.Staff) {
				s.EmailVerified = false
				s.ApprovalStatus = domain.ApprovalPendingApproval
			},
			pass:    testutil.TestPassword,
			status:  http.StatusForbidden,
			code:    "EMAIL_NOT_VERIFIED",
			details: map[string]any{"requiresVerification": true},
		},
		{
			name:    "pending approval",
			mutate:  func(s *domain.Staff) { s.ApprovalStatus = domain.ApprovalPendingApproval },
			pass:    testutil.TestPassword,
			status:  http.StatusForbidden,
			code:    "PENDING_APPROVAL",
			details: map[string]any{"approvalStatus": "pending_approval"},
		},
		{
			name:    "pending info",
			mutate:  func(s *domain.Staff) { s.ApprovalStatus = domain.ApprovalPendingInfo },
			pass:    testutil.TestPassword,
			status:  http.StatusForbidden,
			code:    "PENDING_INFO",
			details: map[string]any{"approvalStatus": "pending_info"},
		},
		{
			name: "rejected",
			mutate: func(s *domain.Staff) {
				s.ApprovalStatus = domain.ApprovalRejected
				s.RejectionReason = "No references"
			},
			pass:    testutil.TestPassword,
			status:  http.StatusForbidden,
			code:    "REJECTED",
			details: map[string]any{"approvalStatus": "rejected", "rejectionReason": "No references"},
		},
		{
			name:   "inactive",
			mutate: func(s *domain.Staff) { s.Status = domain.StaffOnLeave },
			pass:   testutil.TestPassword,
			status: http.StatusForbidden,
			code:   "ACCOUNT_INACTIVE",
		},
		{
			name:   "wrong password",
			mutate: func(*domain.Staff) {},
			pass:   "wrong-password",
			status: http.StatusUnauthorized,
			code:   "INVALID_CREDENTIALS",
		},
		{
			name:   "google only account",
			mutate: func(s *domain.Staff) { s.PasswordHash = "" },
			pass:   testutil.TestPassword,
			status: http.StatusUnauthorized,
			code:   "INVALID_CREDENTIALS",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setup(t)
			testutil.CreateStaff(t, f.DB, "gate@example.com", tt.mutate)

			w := testutil.MakeRequest(t, f.router, http.MethodPost, "/api/auth/staff-login", login("gate@example.com", tt.pass))
			require.Equal(t, tt.status, w.Code, w.Body.String())
			env := testutil.ParseResponse(t, w)
			assert.False(t, env.Success)
			assert.Equal(t, tt.code, env.Code)
			for k, v := range tt.details {
				assert.Equal(t, v, env.Raw[k], k)
			}
			assert.Nil(t, testutil.ResponseCookie(w, "staffToken"))
		})
	}
}

func TestStaffLogin_Success(t *testing.T) {
	f := setup(t)
	st := testutil.CreateStaff(t, f.DB, "ok@example.com")

	w := testutil.MakeRequest(t, f.router, http.MethodPost, "/api/auth/staff-login", login("OK@example.com", testutil.TestPassword))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	cookie := testutil.ResponseCookie(w, "staffToken")
	require.NotNil(t, cookie)

	p, ok := f.Sessions.Verify(session.RoleStaff, cookie.Value)
	require.True(t, ok)
	assert.Equal(t, st.ID, p.ID)
	assert.NotContains(t, w.Body.String(), "password")
}

func TestStaffLogin_UnknownEmail(t *testing.T) {
	f := setup(t)
	w := testutil.MakeRequest(t, f.router, http.MethodPost, "/api/auth/staff-login", login("ghost@example.com", "whatever"))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRegister_LinksGuestBookings(t *testing.T) {
	f := setup(t)
	guest := testutil.CreateBooking(t, f.DB, domain.BookingConfirmed, func(b *domain.Booking) { b.Email = "new@example.com" })

	body := gin.H{"name": "New Customer", "email": "New@Example.com", "password": "longenough"}
	w := testutil.MakeRequest(t, f.router, http.MethodPost, "/api/auth/register", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	require.NotNil(t, testutil.ResponseCookie(w, "userToken"))

	var u domain.User
	require.NoError(t, f.DB.Where("email = ?", "new@example.com").First(&u).Error)

	var b domain.Booking
	require.NoError(t, f.DB.First(&b, guest.ID).Error)
	require.NotNil(t, b.UserID)
	assert.Equal(t, u.ID, *b.UserID)

	sent := f.mails.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, adminEmail, sent[0].To)

	w = testutil.MakeRequest(t, f.router, http.MethodPost, "/api/auth/register", body)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestRegister_AlertFailureIsIgnored(t *testing.T) {
	f := setup(t)
	f.mails.Err = errors.New("smtp down")

	body := gin.H{"name": "Quiet", "email": "quiet@example.com", "password": "longenough"}
	w := testutil.MakeRequest(t, f.router, http.MethodPost, "/api/auth/register", body)
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestRegister_Validation(t *testing.T) {
	f := setup(t)
	w := testutil.MakeRequest(t, f.router, http.MethodPost, "/api/auth/register", gin.H{"name": "X", "email": "bad", "password": "short"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", testutil.ParseResponse(t, w).Code)
}

func TestCustomerLogin(t *testing.T) {
	f := setup(t)
	u := testutil.CreateUser(t, f.DB, "cust@example.com")

	w := testutil.MakeRequest(t, f.router, http.MethodPost, "/api/auth/login", login("cust@example.com", "bad-password"))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = testutil.MakeRequest(t, f.router, http.MethodPost, "/api/auth/login", login("cust@example.com", testutil.TestPassword))
	require.Equal(t, http.StatusOK, w.Code)
	cookie := testutil.ResponseCookie(w, "userToken")
	require.NotNil(t, cookie)

	w = testutil.MakeRequest(t, f.router, http.MethodGet, "/api/auth/me", nil, cookie)
	var me MeResponse
	testutil.DecodeData(t, w, &me)
	assert.Equal(t, session.RoleCustomer, me.Role)
	assert.Equal(t, u.ID, me.User.ID)
}

func TestMe_PrecedenceAndLogoutAll(t *testing.T) {
	f := setup(t)
	st := testutil.CreateStaff(t, f.DB, "both@example.com")
	u := testutil.CreateUser(t, f.DB, "both-customer@example.com")

	w := testutil.MakeRequest(t, f.router, http.MethodGet, "/api/auth/me", nil,
		testutil.CustomerCookie(t, f.Sessions, u), testutil.StaffCookie(t, f.Sessions, st))
	var me MeResponse
	testutil.DecodeData(t, w, &me)
	assert.Equal(t, session.RoleStaff, me.Role)

	w = testutil.MakeRequest(t, f.router, http.MethodGet, "/api/auth/me", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = testutil.MakeRequest(t, f.router, http.MethodPost, "/api/auth/logout-all", nil)
	require.Equal(t, http.StatusOK, w.Code)
	for _, name := range []string{"adminToken", "staffToken", "userToken"} {
		c := testutil.ResponseCookie(w, name)
		require.NotNil(t, c, name)
		assert.Empty(t, c.Value)
		assert.LessOrEqual(t, c.MaxAge, 0)
	}
}

func TestLogout_ClearsOnlyOwnCookie(t *testing.T) {
	f := setup(t)
	w := testutil.MakeRequest(t, f.router, http.MethodPost, "/api/auth/staff-logout", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotNil(t, testutil.ResponseCookie(w, "staffToken"))
	assert.Nil(t, testutil.ResponseCookie(w, "adminToken"))
}

/* ---------- GOOGLE ---------- */

func googleStart(t *testing.T, f *fixture) *http.Cookie {
	t.Helper()
	w := testutil.MakeRequest(t, f.router, http.MethodGet, "/api/auth/google", nil)
	require.Equal(t, http.StatusFound, w.Code)
	state := testutil.ResponseCookie(w, "oauth_state")
	require.NotNil(t, state)
	assert.Equal(t, 600, state.MaxAge)
	assert.Contains(t, w.Header().Get("Location"), "state="+state.Value)
	return state
}

func googleCallback(t *testing.T, f *fixture, state *http.Cookie, query string) *httptest.ResponseRecorder {
	t.Helper()
	return testutil.MakeRequest(t, f.router, http.MethodGet, "/api/auth/google/callback?"+query, nil, state)
}

func TestGoogle_StateMismatch(t *testing.T) {
	f := setup(t)
	state := googleStart(t, f)

	w := googleCallback(t, f, state, "state=forged&code=abc")
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, frontend+"/staff/login?error=invalid_state", w.Header().Get("Location"))
	assert.Empty(t, f.google.codes)

	w = googleCallback(t, f, nil, "state=&code=abc")
	assert.Equal(t, frontend+"/staff/login?error=invalid_state", w.Header().Get("Location"))
}

func TestGoogle_AdminByEmail(t *testing.T) {
	f := setup(t)
	f.google.identity = &GoogleIdentity{Subject: "g-admin", Email: adminEmail, EmailVerified: true}
	state := googleStart(t, f)

	w := googleCallback(t, f, state, "state="+state.Value+"&code=abc")
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, frontend+"/admin", w.Header().Get("Location"))
	assert.NotNil(t, testutil.ResponseCookie(w, "adminToken"))
	assert.Equal(t, []string{"abc"}, f.google.codes)
}

func TestGoogle_NewStaffNeedsProfile(t *testing.T) {
	f := setup(t)
	f.google.identity = &GoogleIdentity{Subject: "g-123", Email: "fresh@example.com", EmailVerified: true, Name: "Fresh Face"}
	state := googleStart(t, f)

	w := googleCallback(t, f, state, "state="+state.Value+"&code=abc")
	require.Equal(t, http.StatusFound, w.Code)

	var st domain.Staff
	require.NoError(t, f.DB.Where("email = ?", "fresh@example.com").First(&st).Error)
	assert.Equal(t, domain.ApprovalPendingInfo, st.ApprovalStatus)
	assert.True(t, st.EmailVerified)
	assert.Equal(t, "g-123", st.GoogleID)
	assert.Equal(t, "Fresh Face", st.Name)
	require.NotEmpty(t, st.ProfileToken)
	assert.Equal(t, frontend+"/staff/complete-profile?token="+st.ProfileToken, w.Header().Get("Location"))
	assert.Nil(t, testutil.ResponseCookie(w, "staffToken"))
}

func TestGoogle_ExistingStaff(t *testing.T) {
	f := setup(t)
	st := testutil.CreateStaff(t, f.DB, "known@example.com", func(s *domain.Staff) { s.EmailVerified = false })
	f.google.identity = &GoogleIdentity{Subject: "g-known", Email: "known@example.com", EmailVerified: true}
	state := googleStart(t, f)

	w := googleCallback(t, f, state, "state="+state.Value+"&code=abc")
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, frontend+"/staff/dashboard", w.Header().Get("Location"))
	cookie := testutil.ResponseCookie(w, "staffToken")
	require.NotNil(t, cookie)
	p, ok := f.Sessions.Verify(session.RoleStaff, cookie.Value)
	require.True(t, ok)
	assert.Equal(t, st.ID, p.ID)

	var reloaded domain.Staff
	require.NoError(t, f.DB.First(&reloaded, st.ID).Error)
	assert.True(t, reloaded.EmailVerified)
	assert.Equal(t, "g-known", reloaded.GoogleID)
}

func TestGoogle_ExistingStaffGated(t *testing.T) {
	f := setup(t)
	testutil.CreateStaff(t, f.DB, "waiting@example.com", func(s *domain.Staff) { s.ApprovalStatus = domain.ApprovalPendingApproval })
	f.google.identity = &GoogleIdentity{Subject: "g-w", Email: "waiting@example.com", EmailVerified: true}
	state := googleStart(t, f)

	w := googleCallback(t, f, state, "state="+state.Value+"&code=abc")
	assert.Equal(t, frontend+"/staff/login?error=pending_approval", w.Header().Get("Location"))
	assert.Nil(t, testutil.ResponseCookie(w, "staffToken"))
}

func TestGoogle_IdentifyFailure(t *testing.T) {
	f := setup(t)
	f.google.err = ErrInvalidGoogleToken
	state := googleStart(t, f)

	w := googleCallback(t, f, state, "state="+state.Value+"&code=abc")
	assert.Equal(t, frontend+"/staff/login?error=invalid_token", w.Header().Get("Location"))
}

func TestGoogle_Disabled(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := NewService(repository.NewUserRepository(db), repository.NewStaffRepository(db), repository.NewBookingRepository(db),
		testutil.NewMailer(&testutil.MailRecorder{}), Config{FrontendURL: frontend}, nil)
	router := testutil.NewRouter()
	NewHandler(svc, HandlerConfig{Sessions: testutil.NewSessions()}).RegisterRoutes(router.Group("/api"))

	w := testutil.MakeRequest(t, router, http.MethodGet, "/api/auth/google", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestIdentityFromPayload(t *testing.T) {
	ok := &idtoken.Payload{
		Issuer:  "https://accounts.google.com",
		Subject: "sub-1",
		Claims:  map[string]any{"email": "a@example.com", "email_verified": true, "name": "A"},
	}
	id, err := identityFromPayload(ok)
	require.NoError(t, err)
	assert.Equal(t, &GoogleIdentity{Subject: "sub-1", Email: "a@example.com", EmailVerified: true, Name: "A"}, id)

	stringly := &idtoken.Payload{Issuer: "accounts.google.com", Claims: map[string]any{"email": "b@example.com", "email_verified": "true"}}
	id, err = identityFromPayload(stringly)
	require.NoError(t, err)
	assert.True(t, id.EmailVerified)

	_, err = identityFromPayload(&idtoken.Payload{Issuer: "https://evil.example", Claims: map[string]any{"email": "c@example.com"}})
	assert.ErrorIs(t, err, ErrInvalidGoogleToken)

	_, err = identityFromPayload(&idtoken.Payload{Issuer: "accounts.google.com", Claims: map[string]any{}})
	assert.ErrorIs(t, err, ErrInvalidGoogleToken)
}

func TestGoogleProvider_AuthCodeURL(t *testing.T) {
	p := NewGoogleProvider(config.GoogleConfig{ClientID: "cid", ClientSecret: "secret", RedirectURI: "http://localhost:8080/api/auth/google/callback"})
	require.NotNil(t, p)
	u := p.AuthCodeURL("xyz")
	assert.True(t, strings.HasPrefix(u, "https://accounts.google.com/"))
	assert.Contains(t, u, "state=xyz")
	assert.Contains(t, u, "client_id=cid")

	assert.Nil(t, NewGoogleProvider(config.GoogleConfig{}))
}
