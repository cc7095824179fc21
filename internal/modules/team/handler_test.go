package team

import (
	"fmt"
	"net/http"
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
	admin  *http.Cookie
}

func setup(t *testing.T) *fixture {
	t.Helper()
	db := testutil.SetupTestDB(t)
	sessions := testutil.NewSessions()

	svc := NewService(repository.NewTeamRepository(db), repository.NewStaffRepository(db))
	router := testutil.NewRouter()
	NewHandler(svc).RegisterRoutes(router.Group("/api"), sessions)

	return &fixture{
		Env:    testutil.Env{DB: db, Sessions: sessions},
		router: router,
		admin:  testutil.AdminCookie(t, sessions),
	}
}

func (f *fixture) addMember(t *testing.T, teamID, staffID int64) *memberResult {
	t.Helper()
	w := testutil.MakeRequest(t, f.router, http.MethodPost, fmt.Sprintf("/api/teams/%d/members", teamID),
		gin.H{"staff_id": staffID}, f.admin)
	return &memberResult{Code: w.Code, Env: testutil.ParseResponse(t, w)}
}

type memberResult struct {
	Code int
	Env  testutil.Envelope
}

func TestAddMember_Checks(t *testing.T) {
	f := setup(t)
	teamA := testutil.CreateTeam(t, f.DB, "Alpha")
	teamB := testutil.CreateTeam(t, f.DB, "Bravo")
	s := testutil.CreateStaff(t, f.DB, "s@example.com")
	inactive := testutil.CreateStaff(t, f.DB, "off@example.com", func(st *domain.Staff) {
		st.Status = domain.StaffInactive
	})

	res := f.addMember(t, teamA.ID, s.ID)
	require.Equal(t, http.StatusCreated, res.Code, res.Env.Error)

	t.Run("same team", func(t *testing.T) {
		res := f.addMember(t, teamA.ID, s.ID)
		assert.Equal(t, http.StatusBadRequest, res.Code)
		assert.Contains(t, res.Env.Error, "already a member of this team")
	})

	t.Run("another team", func(t *testing.T) {
		res := f.addMember(t, teamB.ID, s.ID)
		assert.Equal(t, http.StatusBadRequest, res.Code)
		assert.Contains(t, res.Env.Error, "already a member of another team")
	})

	t.Run("missing team", func(t *testing.T) {
		res := f.addMember(t, 9999, s.ID)
		assert.Equal(t, http.StatusNotFound, res.Code)
	})

	t.Run("missing staff", func(t *testing.T) {
		res := f.addMember(t, teamB.ID, 9999)
		assert.Equal(t, http.StatusNotFound, res.Code)
	})

	t.Run("inactive staff", func(t *testing.T) {
		res := f.addMember(t, teamB.ID, inactive.ID)
		assert.Equal(t, http.StatusBadRequest, res.Code)
		assert.Equal(t, "STAFF_INACTIVE", res.Env.Code)
	})

	var count int64
	f.DB.Model(&domain.TeamMember{}).Where("staff_id = ?", s.ID).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestUniqueIndexBacksOneTeamRule(t *testing.T) {
	f := setup(t)
	teamA := testutil.CreateTeam(t, f.DB, "Alpha")
	teamB := testutil.CreateTeam(t, f.DB, "Bravo")
	s := testutil.CreateStaff(t, f.DB, "s@example.com")

	require.NoError(t, f.DB.Create(&domain.TeamMember{TeamID: teamA.ID, StaffID: s.ID, RoleInTeam: domain.TeamRoleMember}).Error)
	err := f.DB.Create(&domain.TeamMember{TeamID: teamB.ID, StaffID: s.ID, RoleInTeam: domain.TeamRoleMember}).Error
	assert.Error(t, err)
}

func TestUpdateMember_NullRoleKeepsRole(t *testing.T) {
	f := setup(t)
	s := testutil.CreateStaff(t, f.DB, "s@example.com")
	team := testutil.CreateTeam(t, f.DB, "Alpha")

	w := testutil.MakeRequest(t, f.router, http.MethodPost, fmt.Sprintf("/api/teams/%d/members", team.ID),
		gin.H{"staff_id": s.ID, "role_in_team": "specialist"}, f.admin)
	require.Equal(t, http.StatusCreated, w.Code)
	var before domain.TeamMember
	testutil.DecodeData(t, w, &before)

	path := fmt.Sprintf("/api/teams/%d/members/%d", team.ID, before.ID)

	w = testutil.MakeRequest(t, f.router, http.MethodPut, path, `{"role_in_team": null}`, f.admin)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var after domain.TeamMember
	testutil.DecodeData(t, w, &after)
	assert.Equal(t, domain.TeamRoleSpecialist, after.RoleInTeam)
	assert.Equal(t, before.StaffID, after.StaffID)
	assert.True(t, before.JoinedAt.Equal(after.JoinedAt))

	w = testutil.MakeRequest(t, f.router, http.MethodPut, path, gin.H{"role_in_team": "leader"}, f.admin)
	require.Equal(t, http.StatusOK, w.Code)
	testutil.DecodeData(t, w, &after)
	assert.Equal(t, domain.TeamRoleLeader, after.RoleInTeam)

	w = testutil.MakeRequest(t, f.router, http.MethodPut, path, gin.H{"role_in_team": "boss"}, f.admin)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = testutil.MakeRequest(t, f.router, http.MethodPut, fmt.Sprintf("/api/teams/%d/members/999", team.ID),
		`{"role_in_team": null}`, f.admin)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateTeam_Leader(t *testing.T) {
	f := setup(t)
	cleaner := testutil.CreateStaff(t, f.DB, "c@example.com")
	supervisor := testutil.CreateStaff(t, f.DB, "sup@example.com", func(s *domain.Staff) {
		s.Role = domain.StaffSupervisor
	})

	w := testutil.MakeRequest(t, f.router, http.MethodPost, "/api/teams",
		gin.H{"name": "Alpha", "team_leader_id": cleaner.ID}, f.admin)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_LEADER", testutil.ParseResponse(t, w).Code)

	w = testutil.MakeRequest(t, f.router, http.MethodPost, "/api/teams",
		gin.H{"name": "Alpha", "team_leader_id": supervisor.ID}, f.admin)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created domain.Team
	testutil.DecodeData(t, w, &created)
	require.Len(t, created.Members, 1)
	assert.Equal(t, supervisor.ID, created.Members[0].StaffID)
	assert.Equal(t, domain.TeamRoleLeader, created.Members[0].RoleInTeam)
	assert.Equal(t, int64(1), created.MemberCount)

	w = testutil.MakeRequest(t, f.router, http.MethodPost, "/api/teams", gin.H{"name": "Alpha"}, f.admin)
	assert.Equal(t, http.StatusConflict, w.Code)

	// Removing the leader's membership clears the team leader.
	w = testutil.MakeRequest(t, f.router, http.MethodDelete,
		fmt.Sprintf("/api/teams/%d/members/%d", created.ID, created.Members[0].ID), nil, f.admin)
	require.Equal(t, http.StatusOK, w.Code)
	var reloaded domain.Team
	require.NoError(t, f.DB.First(&reloaded, created.ID).Error)
	assert.Nil(t, reloaded.TeamLeaderID)
}

func TestUpdateTeam_KeepsUnsetFields(t *testing.T) {
	f := setup(t)
	team := testutil.CreateTeam(t, f.DB, "Alpha")
	require.NoError(t, f.DB.Model(team).Update("description", "Downtown crew").Error)

	w := testutil.MakeRequest(t, f.router, http.MethodPut, fmt.Sprintf("/api/teams/%d", team.ID),
		gin.H{"status": "inactive"}, f.admin)
	require.Equal(t, http.StatusOK, w.Code)
	var updated domain.Team
	testutil.DecodeData(t, w, &updated)
	assert.Equal(t, domain.TeamInactive, updated.Status)
	assert.Equal(t, "Downtown crew", updated.Description)
	assert.Equal(t, "Alpha", updated.Name)
}

func TestListTeams_MemberCounts(t *testing.T) {
	f := setup(t)
	a := testutil.CreateStaff(t, f.DB, "a@example.com")
	b := testutil.CreateStaff(t, f.DB, "b@example.com")
	testutil.CreateTeam(t, f.DB, "Alpha", a.ID, b.ID)
	testutil.CreateTeam(t, f.DB, "Bravo")

	w := testutil.MakeRequest(t, f.router, http.MethodGet, "/api/teams", nil, f.admin)
	require.Equal(t, http.StatusOK, w.Code)
	var teams []domain.Team
	testutil.DecodeData(t, w, &teams)
	require.Len(t, teams, 2)
	assert.Equal(t, int64(2), teams[0].MemberCount)
	assert.Equal(t, int64(0), teams[1].MemberCount)

	w = testutil.MakeRequest(t, f.router, http.MethodDelete, fmt.Sprintf("/api/teams/%d", teams[0].ID), nil, f.admin)
	require.Equal(t, http.StatusOK, w.Code)
	var members int64
	f.DB.Model(&domain.TeamMember{}).Count(&members)
	assert.Zero(t, members)
}

func TestUpdateTeam_LeaderChange(t *testing.T) {
	f := setup(t)
	sup := testutil.CreateStaff(t, f.DB, "sup@example.com", func(s *domain.Staff) {
		s.Role = domain.StaffSupervisor
	})
	manager := testutil.CreateStaff(t, f.DB, "mgr@example.com", func(s *domain.Staff) {
		s.Role = domain.StaffManager
	})

	w := testutil.MakeRequest(t, f.router, http.MethodPost, "/api/teams",
		gin.H{"name": "Alpha", "team_leader_id": sup.ID}, f.admin)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var alpha domain.Team
	testutil.DecodeData(t, w, &alpha)
	bravo := testutil.CreateTeam(t, f.DB, "Bravo")

	t.Run("leader of another team", func(t *testing.T) {
		w := testutil.MakeRequest(t, f.router, http.MethodPut, fmt.Sprintf("/api/teams/%d", bravo.ID),
			gin.H{"team_leader_id": sup.ID}, f.admin)
		assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
		assert.Equal(t, "MEMBER_OF_OTHER_TEAM", testutil.ParseResponse(t, w).Code)

		var reloaded domain.Team
		require.NoError(t, f.DB.First(&reloaded, bravo.ID).Error)
		assert.Nil(t, reloaded.TeamLeaderID)
	})

	t.Run("previous leader is demoted", func(t *testing.T) {
		w := testutil.MakeRequest(t, f.router, http.MethodPut, fmt.Sprintf("/api/teams/%d", alpha.ID),
			gin.H{"team_leader_id": manager.ID}, f.admin)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var members []domain.TeamMember
		require.NoError(t, f.DB.Where("team_id = ?", alpha.ID).Find(&members).Error)
		require.Len(t, members, 2)
		roles := map[int64]domain.TeamRole{}
		for _, m := range members {
			roles[m.StaffID] = m.RoleInTeam
		}
		assert.Equal(t, domain.TeamRoleMember, roles[sup.ID])
		assert.Equal(t, domain.TeamRoleLeader, roles[manager.ID])
	})
}

func TestDeleteTeam_KeepsAssignedTeam(t *testing.T) {
	f := setup(t)
	team := testutil.CreateTeam(t, f.DB, "Alpha")
	b := testutil.CreateBooking(t, f.DB, domain.BookingAssigned)
	a := &domain.Assignment{
		BookingID:      b.ID,
		AssignmentType: domain.AssignmentTeam,
		TeamID:         &team.ID,
		Status:         domain.AssignmentAssigned,
		AssignedAt:     time.Now(),
	}
	require.NoError(t, f.DB.Omit("Booking", "Team", "Staff").Create(a).Error)

	w := testutil.MakeRequest(t, f.router, http.MethodDelete, fmt.Sprintf("/api/teams/%d", team.ID), nil, f.admin)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "HAS_ASSIGNMENTS", testutil.ParseResponse(t, w).Code)

	var reloaded domain.Assignment
	require.NoError(t, f.DB.First(&reloaded, a.ID).Error)
	require.NotNil(t, reloaded.TeamID)
	assert.Equal(t, team.ID, *reloaded.TeamID)
}
