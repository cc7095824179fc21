package user

import (
	"fmt"
	"net/http"
	"testing"

	"cleanservice/internal/domain"
	"cleanservice/internal/pkg/session"
	"cleanservice/internal/repository"
	"cleanservice/internal/testutil"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func setupRouter(t *testing.T) (*gin.Engine, *testutil.Env) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	sessions := testutil.NewSessions()

	router := testutil.NewRouter()
	svc := NewService(repository.NewUserRepository(db), repository.NewBookingRepository(db))
	NewHandler(svc, sessions).RegisterRoutes(router.Group("/api"))
	return router, &testutil.Env{DB: db, Sessions: sessions}
}

func TestGetMe(t *testing.T) {
	router, env := setupRouter(t)
	u := testutil.CreateUser(t, env.DB, "carol@example.com")

	w := testutil.MakeRequest(t, router, http.MethodGet, "/api/users/me", nil, testutil.CustomerCookie(t, env.Sessions, u))
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "password")

	var got domain.User
	testutil.DecodeData(t, w, &got)
	assert.Equal(t, "carol@example.com", got.Email)

	w = testutil.MakeRequest(t, router, http.MethodGet, "/api/users/me", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestUpdateMe_ReissuesSession(t *testing.T) {
	router, env := setupRouter(t)
	u := testutil.CreateUser(t, env.DB, "carol@example.com")

	w := testutil.MakeRequest(t, router, http.MethodPut, "/api/users/me",
		gin.H{"name": "Carol Clean", "address": "9 Oak Ave"}, testutil.CustomerCookie(t, env.Sessions, u))
	require.Equal(t, http.StatusOK, w.Code)

	var got domain.User
	testutil.DecodeData(t, w, &got)
	assert.Equal(t, "Carol Clean", got.Name)
	assert.Equal(t, "9 Oak Ave", got.Address)
	assert.Equal(t, u.Phone, got.Phone)

	cookie := testutil.ResponseCookie(w, "userToken")
	require.NotNil(t, cookie)
	p, ok := env.Sessions.Verify(session.RoleCustomer, cookie.Value)
	require.True(t, ok)
	assert.Equal(t, "Carol Clean", p.Name)
}

func TestChangePassword(t *testing.T) {
	router, env := setupRouter(t)
	u := testutil.CreateUser(t, env.DB, "carol@example.com")
	cookie := testutil.CustomerCookie(t, env.Sessions, u)

	w := testutil.MakeRequest(t, router, http.MethodPut, "/api/users/me/password",
		gin.H{"current_password": "wrong-password", "new_password": "brand-new-pass"}, cookie)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "WRONG_PASSWORD", testutil.ParseResponse(t, w).Code)

	w = testutil.MakeRequest(t, router, http.MethodPut, "/api/users/me/password",
		gin.H{"current_password": testutil.TestPassword, "new_password": "short"}, cookie)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", testutil.ParseResponse(t, w).Code)

	w = testutil.MakeRequest(t, router, http.MethodPut, "/api/users/me/password",
		gin.H{"current_password": testutil.TestPassword, "new_password": "brand-new-pass"}, cookie)
	require.Equal(t, http.StatusOK, w.Code)

	var stored domain.User
	require.NoError(t, env.DB.First(&stored, u.ID).Error)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("brand-new-pass")))
}

func TestDeleteMe_UnlinksBookings(t *testing.T) {
	router, env := setupRouter(t)
	u := testutil.CreateUser(t, env.DB, "carol@example.com")
	b := testutil.CreateBooking(t, env.DB, domain.BookingConfirmed, func(b *domain.Booking) {
		b.UserID = &u.ID
		b.Email = u.Email
	})

	w := testutil.MakeRequest(t, router, http.MethodDelete, "/api/users/me", nil, testutil.CustomerCookie(t, env.Sessions, u))
	require.Equal(t, http.StatusOK, w.Code)

	cookie := testutil.ResponseCookie(w, "userToken")
	require.NotNil(t, cookie)
	assert.Empty(t, cookie.Value)
	assert.True(t, cookie.MaxAge < 0)

	var stored domain.Booking
	require.NoError(t, env.DB.First(&stored, b.ID).Error)
	assert.Nil(t, stored.UserID)

	var count int64
	env.DB.Model(&domain.User{}).Where("id = ?", u.ID).Count(&count)
	assert.Zero(t, count)
}

func TestAdminListAndGet(t *testing.T) {
	router, env := setupRouter(t)
	admin := testutil.AdminCookie(t, env.Sessions)
	testutil.CreateUser(t, env.DB, "carol@example.com")
	dave := testutil.CreateUser(t, env.DB, "dave@example.com")

	w := testutil.MakeRequest(t, router, http.MethodGet, "/api/users?search=dave", nil, admin)
	require.Equal(t, http.StatusOK, w.Code)
	var list ListResponse
	testutil.DecodeData(t, w, &list)
	require.Len(t, list.Users, 1)
	assert.EqualValues(t, 1, list.Total)

	w = testutil.MakeRequest(t, router, http.MethodGet, fmt.Sprintf("/api/users/%d", dave.ID), nil, admin)
	assert.Equal(t, http.StatusOK, w.Code)

	w = testutil.MakeRequest(t, router, http.MethodGet, "/api/users/999", nil, admin)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = testutil.MakeRequest(t, router, http.MethodGet, "/api/users", nil, testutil.CustomerCookie(t, env.Sessions, dave))
	assert.Equal(t, http.StatusForbidden, w.Code)
}
