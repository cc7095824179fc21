package booking

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"cleanservice/internal/domain"
	"cleanservice/internal/repository"
	"cleanservice/internal/testutil"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	testutil.Env
	router *gin.Engine
	mails  *testutil.MailRecorder
	admin  *http.Cookie
}

func setup(t *testing.T) *fixture {
	t.Helper()
	db := testutil.SetupTestDB(t)
	sessions := testutil.NewSessions()
	mails := &testutil.MailRecorder{}

	svc := NewService(
		repository.NewBookingRepository(db),
		repository.NewUserRepository(db),
		testutil.NewMailer(mails),
		nil,
		Config{FrontendURL: "http://localhost:3000", AdminEmail: "admin@example.com"},
		nil,
	)
	router := testutil.NewRouter()
	NewHandler(svc, sessions).RegisterRoutes(router.Group("/api"))

	return &fixture{
		Env:    testutil.Env{DB: db, Sessions: sessions},
		router: router,
		mails:  mails,
		admin:  testutil.AdminCookie(t, sessions),
	}
}

func bookingBody(email string) gin.H {
	return gin.H{
		"name":           "Grace Guest",
		"email":          email,
		"phone":          "+15550100",
		"address":        "12 Elm St",
		"service_type":   "Deep Cleaning",
		"preferred_date": time.Now().AddDate(0, 0, 2).Format(domain.DateLayout),
		"preferred_time": "10:30",
	}
}

func tokenFromMail(t *testing.T, html string) string {
	t.Helper()
	i := strings.Index(html, "token=")
	require.GreaterOrEqual(t, i, 0, "verification link missing")
	rest := html[i+len("token="):]
	return rest[:strings.IndexByte(rest, '"')]
}

func TestCreateBooking_EmailFailure_NotPersisted(t *testing.T) {
	f := setup(t)
	f.mails.Err = errors.New("smtp: 421 service not available")

	w := testutil.MakeRequest(t, f.router, http.MethodPost, "/api/bookings", bookingBody("grace@example.com"))
	require.Equal(t, http.StatusInternalServerError, w.Code)
	resp := testutil.ParseResponse(t, w)
	assert.False(t, resp.Success)
	assert.Equal(t, "EMAIL_FAILED", resp.Code)
	assert.Contains(t, resp.Error, "verification email")

	w = testutil.MakeRequest(t, f.router, http.MethodGet, "/api/bookings/1", nil, f.admin)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateBooking_Validation(t *testing.T) {
	f := setup(t)
	body := bookingBody("not-an-email")
	body["preferred_time"] = "25:99"

	w := testutil.MakeRequest(t, f.router, http.MethodPost, "/api/bookings", body)
	require.Equal(t, http.StatusBadRequest, w.Code)
	resp := testutil.ParseResponse(t, w)
	fields, ok := resp.Raw["fields"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, fields, "email")
	assert.Contains(t, fields, "preferred_time")
}

func TestGuestFlow_VerifyThenSetPassword(t *testing.T) {
	f := setup(t)

	w := testutil.MakeRequest(t, f.router, http.MethodPost, "/api/bookings", bookingBody("grace@example.com"))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created struct {
		Booking              domain.Booking `json:"booking"`
		RequiresVerification bool           `json:"requiresVerification"`
	}
	testutil.DecodeData(t, w, &created)
	assert.True(t, created.RequiresVerification)
	assert.Equal(t, domain.BookingPendingVerification, created.Booking.Status)

	sent := f.mails.Sent()
	require.Len(t, sent, 1)
	token := tokenFromMail(t, sent[0].HTML)

	w = testutil.MakeRequest(t, f.router, http.MethodGet, "/api/bookings/verify?token="+token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var verified VerifyResult
	testutil.DecodeData(t, w, &verified)
	assert.True(t, verified.RequiresPassword)
	assert.Equal(t, domain.BookingPendingPassword, verified.Booking.Status)

	w = testutil.MakeRequest(t, f.router, http.MethodPost, "/api/bookings/set-password",
		gin.H{"token": token, "password": "short"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = testutil.MakeRequest(t, f.router, http.MethodPost, "/api/bookings/set-password",
		gin.H{"token": token, "password": "grace-password"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	cookie := testutil.ResponseCookie(w, "userToken")
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)
	payload, ok := f.Sessions.Verify("customer", cookie.Value)
	require.True(t, ok)

	var b domain.Booking
	require.NoError(t, f.DB.First(&b, created.Booking.ID).Error)
	assert.Equal(t, domain.BookingPending, b.Status)
	require.NotNil(t, b.UserID)
	assert.Equal(t, payload.ID, *b.UserID)
	assert.Empty(t, b.VerificationToken)

	// The token is single use.
	w = testutil.MakeRequest(t, f.router, http.MethodPost, "/api/bookings/set-password",
		gin.H{"token": token, "password": "grace-password"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestVerify_ExistingCustomerIsLinked(t *testing.T) {
	f := setup(t)
	user := testutil.CreateUser(t, f.DB, "grace@example.com")
	expires := time.Now().Add(time.Hour)
	b := testutil.CreateBooking(t, f.DB, domain.BookingPendingVerification, func(b *domain.Booking) {
		b.Email = "grace@example.com"
		b.VerificationToken = "tok-linked"
		b.VerificationExpiresAt = &expires
	})

	w := testutil.MakeRequest(t, f.router, http.MethodPost, "/api/bookings/verify", gin.H{"token": "tok-linked"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var res VerifyResult
	testutil.DecodeData(t, w, &res)
	assert.False(t, res.RequiresPassword)
	assert.Equal(t, domain.BookingPending, res.Booking.Status)
	require.NotNil(t, res.Booking.UserID)
	assert.Equal(t, user.ID, *res.Booking.UserID)

	var stored domain.Booking
	require.NoError(t, f.DB.First(&stored, b.ID).Error)
	assert.Empty(t, stored.VerificationToken)
}

func TestVerify_ExpiredToken(t *testing.T) {
	f := setup(t)
	expired := time.Now().Add(-time.Minute)
	testutil.CreateBooking(t, f.DB, domain.BookingPendingVerification, func(b *domain.Booking) {
		b.VerificationToken = "tok-expired"
		b.VerificationExpiresAt = &expired
	})

	w := testutil.MakeRequest(t, f.router, http.MethodGet, "/api/bookings/verify?token=tok-expired", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "TOKEN_EXPIRED", testutil.ParseResponse(t, w).Code)

	w = testutil.MakeRequest(t, f.router, http.MethodGet, "/api/bookings/verify?token=unknown", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestConfirm_SendsConfirmationAndToleratesMailFailure(t *testing.T) {
	f := setup(t)
	first := testutil.CreateBooking(t, f.DB, domain.BookingPending)
	second := testutil.CreateBooking(t, f.DB, domain.BookingPending)

	w := testutil.MakeRequest(t, f.router, http.MethodPost, fmt.Sprintf("/api/bookings/%d/confirm", first.ID), nil, f.admin)
	require.Equal(t, http.StatusOK, w.Code)
	sent := f.mails.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, first.Email, sent[0].To)
	assert.Contains(t, sent[0].Subject, "confirmed")

	f.mails.Err = errors.New("smtp down")
	w = testutil.MakeRequest(t, f.router, http.MethodPost, fmt.Sprintf("/api/bookings/%d/confirm", second.ID), nil, f.admin)
	require.Equal(t, http.StatusOK, w.Code)
	var b domain.Booking
	testutil.DecodeData(t, w, &b)
	assert.Equal(t, domain.BookingConfirmed, b.Status)
}

func TestDeleteBooking_RemovesAssignments(t *testing.T) {
	f := setup(t)
	st := testutil.CreateStaff(t, f.DB, "s@example.com")
	b := testutil.CreateBooking(t, f.DB, domain.BookingAssigned)
	a := &domain.Assignment{
		BookingID:      b.ID,
		AssignmentType: domain.AssignmentIndividual,
		StaffID:        &st.ID,
		Status:         domain.AssignmentAssigned,
		AssignedAt:     time.Now(),
	}
	require.NoError(t, f.DB.Omit("Booking", "Team", "Staff").Create(a).Error)
	require.NoError(t, f.DB.Omit("Assignment").Create(&domain.AssignmentNotification{
		AssignmentID: a.ID, StaffID: &st.ID, Title: "New assignment",
	}).Error)

	w := testutil.MakeRequest(t, f.router, http.MethodDelete, fmt.Sprintf("/api/bookings/%d", b.ID), nil, f.admin)
	require.Equal(t, http.StatusOK, w.Code)

	var assignments, notifications int64
	f.DB.Model(&domain.Assignment{}).Where("booking_id = ?", b.ID).Count(&assignments)
	f.DB.Model(&domain.AssignmentNotification{}).Count(&notifications)
	assert.Zero(t, assignments)
	assert.Zero(t, notifications)

	w = testutil.MakeRequest(t, f.router, http.MethodDelete, fmt.Sprintf("/api/bookings/%d", b.ID), nil, f.admin)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpdateBooking_Defaults(t *testing.T) {
	f := setup(t)
	b := testutil.CreateBooking(t, f.DB, domain.BookingConfirmed, func(b *domain.Booking) {
		b.PreferredTime = "16:00"
	})

	w := testutil.MakeRequest(t, f.router, http.MethodPut, fmt.Sprintf("/api/bookings/%d", b.ID),
		gin.H{"notes": "Bring ladder"}, f.admin)
	require.Equal(t, http.StatusOK, w.Code)
	var updated domain.Booking
	testutil.DecodeData(t, w, &updated)
	assert.Equal(t, time.Now().Format(domain.DateLayout), updated.PreferredDate)
	assert.Equal(t, "09:00", updated.PreferredTime)
	assert.Equal(t, "Bring ladder", updated.Notes)
}

func TestUpdateStatus_CancelCancelsAssignments(t *testing.T) {
	f := setup(t)
	st := testutil.CreateStaff(t, f.DB, "s@example.com")
	b := testutil.CreateBooking(t, f.DB, domain.BookingAssigned)
	a := &domain.Assignment{BookingID: b.ID, AssignmentType: domain.AssignmentIndividual, StaffID: &st.ID,
		Status: domain.AssignmentAccepted, AssignedAt: time.Now()}
	require.NoError(t, f.DB.Omit("Booking", "Team", "Staff").Create(a).Error)

	w := testutil.MakeRequest(t, f.router, http.MethodPut, fmt.Sprintf("/api/bookings/%d/status", b.ID),
		gin.H{"status": "cancelled"}, f.admin)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var stored domain.Assignment
	require.NoError(t, f.DB.First(&stored, a.ID).Error)
	assert.Equal(t, domain.AssignmentCancelled, stored.Status)
	assert.NotNil(t, stored.CancelledAt)

	w = testutil.MakeRequest(t, f.router, http.MethodPut, fmt.Sprintf("/api/bookings/%d/status", b.ID),
		gin.H{"status": "in_progress"}, f.admin)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCustomerBookings(t *testing.T) {
	f := setup(t)
	owner := testutil.CreateUser(t, f.DB, "owner@example.com")
	other := testutil.CreateUser(t, f.DB, "other@example.com")
	ownerCookie := testutil.CustomerCookie(t, f.Sessions, owner)

	w := testutil.MakeRequest(t, f.router, http.MethodPost, "/api/bookings", bookingBody("owner@example.com"), ownerCookie)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created struct {
		Booking domain.Booking `json:"booking"`
	}
	testutil.DecodeData(t, w, &created)
	assert.Equal(t, domain.BookingPending, created.Booking.Status)

	// Only the admin alert goes out for signed-in customers.
	sent := f.mails.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "admin@example.com", sent[0].To)

	w = testutil.MakeRequest(t, f.router, http.MethodGet, "/api/users/me/bookings", nil, ownerCookie)
	require.Equal(t, http.StatusOK, w.Code)
	var list ListResponse
	testutil.DecodeData(t, w, &list)
	assert.Equal(t, int64(1), list.Total)

	cancelPath := fmt.Sprintf("/api/users/me/bookings/%d/cancel", created.Booking.ID)
	w = testutil.MakeRequest(t, f.router, http.MethodPost, cancelPath, nil, testutil.CustomerCookie(t, f.Sessions, other))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = testutil.MakeRequest(t, f.router, http.MethodPost, cancelPath, nil, ownerCookie)
	require.Equal(t, http.StatusOK, w.Code)
	var cancelled domain.Booking
	testutil.DecodeData(t, w, &cancelled)
	assert.Equal(t, domain.BookingCancelled, cancelled.Status)

	w = testutil.MakeRequest(t, f.router, http.MethodPost, cancelPath, nil, ownerCookie)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Customers cannot use admin listing.
	w = testutil.MakeRequest(t, f.router, http.MethodGet, "/api/bookings", nil, ownerCookie)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
