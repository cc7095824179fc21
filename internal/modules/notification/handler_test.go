package notification

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"cleanservice/internal/domain"
	"cleanservice/internal/repository"
	"cleanservice/internal/testutil"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fixture struct {
	router *gin.Engine
	env    *testutil.Env
	hub    *Hub
	staff  *domain.Staff
	cookie *http.Cookie
	assign *domain.Assignment
}

func setup(t *testing.T) *fixture {
	t.Helper()
	db := testutil.SetupTestDB(t)
	sessions := testutil.NewSessions()
	hub := NewHub()
	t.Cleanup(hub.Close)

	router := testutil.NewRouter()
	svc := NewService(repository.NewNotificationRepository(db))
	NewHandler(svc, hub, nil, zap.NewNop()).RegisterRoutes(router.Group("/api"), sessions)

	st := testutil.CreateStaff(t, db, "cleaner@example.com")
	b := testutil.CreateBooking(t, db, domain.BookingAssigned)
	return &fixture{
		router: router,
		env:    &testutil.Env{DB: db, Sessions: sessions},
		hub:    hub,
		staff:  st,
		cookie: testutil.StaffCookie(t, sessions, st),
		assign: testutil.CreateAssignment(t, db, b, st.ID, domain.AssignmentAssigned),
	}
}

func seed(t *testing.T, db *gorm.DB, assignmentID, staffID int64, read bool) *domain.AssignmentNotification {
	t.Helper()
	n := &domain.AssignmentNotification{
		AssignmentID: assignmentID,
		StaffID:      &staffID,
		Title:        "New assignment",
		IsRead:       read,
	}
	require.NoError(t, db.Select("*").Omit("ID", "Assignment").Create(n).Error)
	return n
}

func TestList(t *testing.T) {
	f := setup(t)
	seed(t, f.env.DB, f.assign.ID, f.staff.ID, false)
	seed(t, f.env.DB, f.assign.ID, f.staff.ID, true)
	other := testutil.CreateStaff(t, f.env.DB, "other@example.com")
	seed(t, f.env.DB, f.assign.ID, other.ID, false)

	t.Run("all", func(t *testing.T) {
		w := testutil.MakeRequest(t, f.router, http.MethodGet, "/api/notifications", nil, f.cookie)
		require.Equal(t, http.StatusOK, w.Code)
		var res ListResult
		testutil.DecodeData(t, w, &res)
		assert.Len(t, res.Notifications, 2)
		assert.EqualValues(t, 1, res.UnreadCount)
	})

	t.Run("unread only", func(t *testing.T) {
		w := testutil.MakeRequest(t, f.router, http.MethodGet, "/api/notifications?unread=true", nil, f.cookie)
		var res ListResult
		testutil.DecodeData(t, w, &res)
		require.Len(t, res.Notifications, 1)
		assert.False(t, res.Notifications[0].IsRead)
	})

	t.Run("limit clamped", func(t *testing.T) {
		w := testutil.MakeRequest(t, f.router, http.MethodGet, "/api/notifications?limit=1000", nil, f.cookie)
		var res ListResult
		testutil.DecodeData(t, w, &res)
		assert.Equal(t, 100, res.Limit)
	})

	t.Run("admin is forbidden", func(t *testing.T) {
		w := testutil.MakeRequest(t, f.router, http.MethodGet, "/api/notifications", nil, testutil.AdminCookie(t, f.env.Sessions))
		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestMarkAsRead(t *testing.T) {
	f := setup(t)
	mine := seed(t, f.env.DB, f.assign.ID, f.staff.ID, false)
	other := testutil.CreateStaff(t, f.env.DB, "other@example.com")
	theirs := seed(t, f.env.DB, f.assign.ID, other.ID, false)

	w := testutil.MakeRequest(t, f.router, http.MethodPut, fmt.Sprintf("/api/notifications/%d/read", mine.ID), nil, f.cookie)
	assert.Equal(t, http.StatusOK, w.Code)

	w = testutil.MakeRequest(t, f.router, http.MethodPut, fmt.Sprintf("/api/notifications/%d/read", theirs.ID), nil, f.cookie)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = testutil.MakeRequest(t, f.router, http.MethodGet, "/api/notifications/unread-count", nil, f.cookie)
	var body struct {
		Count int64 `json:"count"`
	}
	testutil.DecodeData(t, w, &body)
	assert.EqualValues(t, 0, body.Count)
}

func TestMarkAllAsRead(t *testing.T) {
	f := setup(t)
	seed(t, f.env.DB, f.assign.ID, f.staff.ID, false)
	seed(t, f.env.DB, f.assign.ID, f.staff.ID, false)

	w := testutil.MakeRequest(t, f.router, http.MethodPut, "/api/notifications/read-all", nil, f.cookie)
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Updated int64 `json:"updated"`
	}
	testutil.DecodeData(t, w, &body)
	assert.EqualValues(t, 2, body.Updated)
}

func TestDelete(t *testing.T) {
	f := setup(t)
	n := seed(t, f.env.DB, f.assign.ID, f.staff.ID, true)

	path := fmt.Sprintf("/api/notifications/%d", n.ID)
	assert.Equal(t, http.StatusOK, testutil.MakeRequest(t, f.router, http.MethodDelete, path, nil, f.cookie).Code)
	assert.Equal(t, http.StatusNotFound, testutil.MakeRequest(t, f.router, http.MethodDelete, path, nil, f.cookie).Code)
}

func TestCleanup(t *testing.T) {
	f := setup(t)
	old := seed(t, f.env.DB, f.assign.ID, f.staff.ID, true)
	require.NoError(t, f.env.DB.Model(old).Update("created_at", time.Now().AddDate(0, 0, -40)).Error)
	seed(t, f.env.DB, f.assign.ID, f.staff.ID, false)

	svc := NewService(repository.NewNotificationRepository(f.env.DB))
	n, err := svc.Cleanup(t.Context(), 30*24*time.Hour)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestWebSocket_ReceivesPush(t *testing.T) {
	f := setup(t)
	seed(t, f.env.DB, f.assign.ID, f.staff.ID, false)

	srv := httptest.NewServer(f.router)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/notifications/ws"
	header := http.Header{}
	header.Set("Cookie", f.cookie.String())
	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var first struct {
		Type string `json:"type"`
		Data struct {
			Count int64 `json:"count"`
		} `json:"data"`
	}
	require.NoError(t, conn.ReadJSON(&first))
	assert.Equal(t, EventUnreadCount, first.Type)
	assert.EqualValues(t, 1, first.Data.Count)
	assert.True(t, f.hub.IsOnline(f.staff.ID))

	staffID := f.staff.ID
	f.hub.Push([]*domain.AssignmentNotification{{ID: 99, AssignmentID: f.assign.ID, StaffID: &staffID, Title: "Job started"}})

	var pushed struct {
		Type string                        `json:"type"`
		Data domain.AssignmentNotification `json:"data"`
	}
	require.NoError(t, conn.ReadJSON(&pushed))
	assert.Equal(t, EventNotification, pushed.Type)
	assert.Equal(t, "Job started", pushed.Data.Title)

	require.NoError(t, conn.WriteJSON(gin.H{"type": "ping"}))
	var pong Event
	require.NoError(t, conn.ReadJSON(&pong))
	assert.Equal(t, EventPong, pong.Type)
}

func TestWebSocket_RequiresStaff(t *testing.T) {
	f := setup(t)
	srv := httptest.NewServer(f.router)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/notifications/ws"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestHub_SendToOffline(t *testing.T) {
	hub := NewHub()
	assert.False(t, hub.SendToStaff(42, Event{Type: EventNotification}))
	assert.Zero(t, hub.OnlineCount())
	hub.Push([]*domain.AssignmentNotification{{Title: "team-only"}})
}
