package team

import (
	"context"
	"errors"
	"strings"
	"time"

	"cleanservice/internal/database"
	"cleanservice/internal/domain"
	"cleanservice/internal/repository"

	"gorm.io/gorm"
)

type Service struct {
	teams *repository.TeamRepository
	staff *repository.StaffRepository
}

func NewService(teams *repository.TeamRepository, staff *repository.StaffRepository) *Service {
	return &Service{teams: teams, staff: staff}
}

func (s *Service) List(ctx context.Context, status domain.TeamStatus) ([]domain.Team, error) {
	return s.teams.List(ctx, status)
}

func (s *Service) Get(ctx context.Context, id int64) (*domain.Team, error) {
	t, err := s.teams.GetWithMembers(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTeamNotFound
	}
	return t, err
}

// Create inserts the team and, when a leader is given, enrolls the leader as a
// member with the leader role.
func (s *Service) Create(ctx context.Context, req CreateTeamRequest) (*domain.Team, error) {
	t := &domain.Team{
		Name:         strings.TrimSpace(req.Name),
		Description:  req.Description,
		TeamLeaderID: req.TeamLeaderID,
		Status:       domain.TeamActive,
	}
	if req.Status != "" {
		t.Status = domain.TeamStatus(req.Status)
	}

	err := s.teams.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		teams := s.teams.WithTx(tx)
		if t.TeamLeaderID != nil {
			if _, err := s.checkLeader(ctx, tx, *t.TeamLeaderID); err != nil {
				return err
			}
		}
		if err := teams.Create(ctx, t); err != nil {
			if database.IsUniqueViolation(err) {
				return ErrDuplicateName
			}
			return err
		}
		if t.TeamLeaderID != nil {
			return s.enroll(ctx, tx, t.ID, *t.TeamLeaderID, domain.TeamRoleLeader)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, t.ID)
}

func (s *Service) Update(ctx context.Context, id int64, req UpdateTeamRequest) (*domain.Team, error) {
	err := s.teams.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		teams := s.teams.WithTx(tx)
		current, err := teams.GetForUpdate(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTeamNotFound
			}
			return err
		}

		fields := map[string]any{}
		if req.Name != nil {
			fields["name"] = strings.TrimSpace(*req.Name)
		}
		if req.Description != nil {
			fields["description"] = *req.Description
		}
		if req.Status != nil {
			fields["status"] = domain.TeamStatus(*req.Status)
		}
		if req.TeamLeaderID != nil && (current.TeamLeaderID == nil || *current.TeamLeaderID != *req.TeamLeaderID) {
			if _, err := s.checkLeader(ctx, tx, *req.TeamLeaderID); err != nil {
				return err
			}
			if err := s.checkNotElsewhere(ctx, tx, id, *req.TeamLeaderID); err != nil {
				return err
			}
			fields["team_leader_id"] = *req.TeamLeaderID
		}
		if len(fields) == 0 {
			return nil
		}

		if err := teams.Updates(ctx, id, fields); err != nil {
			if database.IsUniqueViolation(err) {
				return ErrDuplicateName
			}
			return err
		}

		if leaderID, ok := fields["team_leader_id"].(int64); ok {
			return s.promote(ctx, tx, id, leaderID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.teams.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var assigned int64
		if err := tx.Model(&domain.Assignment{}).Where("team_id = ?", id).Count(&assigned).Error; err != nil {
			return err
		}
		if assigned > 0 {
			return ErrHasAssignments
		}
		if err := s.teams.WithTx(tx).Delete(ctx, id); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTeamNotFound
			}
			return err
		}
		return nil
	})
}

/* ---------- MEMBERS ---------- */

func (s *Service) ListMembers(ctx context.Context, teamID int64) ([]domain.TeamMember, error) {
	if _, err := s.teams.GetByID(ctx, teamID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, err
	}
	return s.teams.ListMembers(ctx, teamID)
}

// AddMember runs the membership checks and the insert in one transaction:
// team exists, staff exists and is active, staff is in neither this team nor another.
func (s *Service) AddMember(ctx context.Context, teamID int64, req AddMemberRequest) (*domain.TeamMember, error) {
	role := domain.TeamRoleMember
	if req.RoleInTeam != "" {
		role = domain.TeamRole(req.RoleInTeam)
	}

	var memberID int64
	err := s.teams.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		teams := s.teams.WithTx(tx)
		if _, err := teams.GetForUpdate(ctx, teamID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTeamNotFound
			}
			return err
		}

		st, err := s.staff.WithTx(tx).GetForUpdate(ctx, req.StaffID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrStaffNotFound
			}
			return err
		}
		if st.Status != domain.StaffActive {
			return ErrStaffInactive
		}

		existing, err := teams.MembershipOf(ctx, st.ID)
		switch {
		case err == nil && existing.TeamID == teamID:
			return ErrAlreadyMember
		case err == nil:
			return ErrMemberOfOtherTeam
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}

		m := &domain.TeamMember{TeamID: teamID, StaffID: st.ID, RoleInTeam: role, JoinedAt: time.Now()}
		if err := teams.AddMember(ctx, m); err != nil {
			// A concurrent insert won the race for this staff member.
			if database.IsUniqueViolation(err) {
				return ErrMemberOfOtherTeam
			}
			return err
		}
		memberID = m.ID
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.getMember(ctx, teamID, memberID)
}

// UpdateMember changes role_in_team; a nil role keeps the stored one.
func (s *Service) UpdateMember(ctx context.Context, teamID, memberID int64, req UpdateMemberRequest) (*domain.TeamMember, error) {
	var role *domain.TeamRole
	if req.RoleInTeam != nil {
		r := domain.TeamRole(*req.RoleInTeam)
		role = &r
	}
	if err := s.teams.UpdateMemberRole(ctx, teamID, memberID, role); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMemberNotFound
		}
		return nil, err
	}
	return s.getMember(ctx, teamID, memberID)
}

// RemoveMember deletes the membership and clears the team leader if it was them.
func (s *Service) RemoveMember(ctx context.Context, teamID, memberID int64) error {
	return s.teams.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		teams := s.teams.WithTx(tx)
		m, err := teams.GetMember(ctx, teamID, memberID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrMemberNotFound
			}
			return err
		}
		if err := teams.RemoveMember(ctx, teamID, memberID); err != nil {
			return err
		}
		return tx.Model(&domain.Team{}).
			Where("id = ? AND team_leader_id = ?", teamID, m.StaffID).
			Update("team_leader_id", nil).Error
	})
}

func (s *Service) getMember(ctx context.Context, teamID, memberID int64) (*domain.TeamMember, error) {
	m, err := s.teams.GetMember(ctx, teamID, memberID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrMemberNotFound
	}
	return m, err
}

func (s *Service) checkLeader(ctx context.Context, tx *gorm.DB, staffID int64) (*domain.Staff, error) {
	st, err := s.staff.WithTx(tx).GetByID(ctx, staffID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStaffNotFound
		}
		return nil, err
	}
	if !st.Role.CanLead() {
		return nil, ErrInvalidLeader
	}
	if st.Status != domain.StaffActive {
		return nil, ErrStaffInactive
	}
	return st, nil
}

// enroll adds staffID to teamID unless they already belong to a team.
func (s *Service) enroll(ctx context.Context, tx *gorm.DB, teamID, staffID int64, role domain.TeamRole) error {
	teams := s.teams.WithTx(tx)
	existing, err := teams.MembershipOf(ctx, staffID)
	switch {
	case err == nil && existing.TeamID == teamID:
		return nil
	case err == nil:
		return ErrMemberOfOtherTeam
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return err
	}
	return teams.AddMember(ctx, &domain.TeamMember{TeamID: teamID, StaffID: staffID, RoleInTeam: role})
}

func (s *Service) checkNotElsewhere(ctx context.Context, tx *gorm.DB, teamID, staffID int64) error {
	existing, err := s.teams.WithTx(tx).MembershipOf(ctx, staffID)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil
	case err != nil:
		return err
	case existing.TeamID != teamID:
		return ErrMemberOfOtherTeam
	}
	return nil
}

// promote makes staffID the team's only leader member, enrolling them if needed.
func (s *Service) promote(ctx context.Context, tx *gorm.DB, teamID, staffID int64) error {
	teams := s.teams.WithTx(tx)
	if err := teams.DemoteLeaders(ctx, teamID, staffID); err != nil {
		return err
	}
	membership, err := teams.MembershipOf(ctx, staffID)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return s.enroll(ctx, tx, teamID, staffID, domain.TeamRoleLeader)
	case err != nil:
		return err
	case membership.TeamID != teamID:
		return ErrMemberOfOtherTeam
	}
	role := domain.TeamRoleLeader
	return teams.UpdateMemberRole(ctx, teamID, membership.ID, &role)
}
