package repository

import (
	"context"
	"time"

	"cleanservice/internal/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TeamRepository struct {
	db *gorm.DB
}

func NewTeamRepository(db *gorm.DB) *TeamRepository {
	return &TeamRepository{db: db}
}

func (r *TeamRepository) DB() *gorm.DB {
	return r.db
}

func (r *TeamRepository) WithTx(tx *gorm.DB) *TeamRepository {
	return &TeamRepository{db: tx}
}

func (r *TeamRepository) Create(ctx context.Context, t *domain.Team) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(t).Error
}

func (r *TeamRepository) GetByID(ctx context.Context, id int64) (*domain.Team, error) {
	var t domain.Team
	if err := r.db.WithContext(ctx).Preload("TeamLeader").First(&t, id).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

// GetWithMembers loads the team, its leader and members with their staff rows.
func (r *TeamRepository) GetWithMembers(ctx context.Context, id int64) (*domain.Team, error) {
	var t domain.Team
	err := r.db.WithContext(ctx).
		Preload("TeamLeader").
		Preload("Members", func(db *gorm.DB) *gorm.DB { return db.Order("joined_at ASC") }).
		Preload("Members.Staff").
		First(&t, id).Error
	if err != nil {
		return nil, err
	}
	t.MemberCount = int64(len(t.Members))
	return &t, nil
}

func (r *TeamRepository) GetForUpdate(ctx context.Context, id int64) (*domain.Team, error) {
	var t domain.Team
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&t, id).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TeamRepository) List(ctx context.Context, status domain.TeamStatus) ([]domain.Team, error) {
	q := r.db.WithContext(ctx).Preload("TeamLeader").Order("name ASC")
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var teams []domain.Team
	if err := q.Find(&teams).Error; err != nil {
		return nil, err
	}
	if len(teams) == 0 {
		return teams, nil
	}

	type countRow struct {
		TeamID int64
		Count  int64
	}
	var rows []countRow
	err := r.db.WithContext(ctx).Model(&domain.TeamMember{}).
		Select("team_id, COUNT(*) AS count").
		Group("team_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[int64]int64, len(rows))
	for _, row := range rows {
		counts[row.TeamID] = row.Count
	}
	for i := range teams {
		teams[i].MemberCount = counts[teams[i].ID]
	}
	return teams, nil
}

func (r *TeamRepository) Updates(ctx context.Context, id int64, fields map[string]any) error {
	res := r.db.WithContext(ctx).Model(&domain.Team{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete removes the team and its memberships.
func (r *TeamRepository) Delete(ctx context.Context, id int64) error {
	if err := r.db.WithContext(ctx).Where("team_id = ?", id).Delete(&domain.TeamMember{}).Error; err != nil {
		return err
	}
	res := r.db.WithContext(ctx).Delete(&domain.Team{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *TeamRepository) AddMember(ctx context.Context, m *domain.TeamMember) error {
	if m.JoinedAt.IsZero() {
		m.JoinedAt = time.Now()
	}
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(m).Error
}

// MembershipOf returns the membership of a staff member in any team.
func (r *TeamRepository) MembershipOf(ctx context.Context, staffID int64) (*domain.TeamMember, error) {
	var m domain.TeamMember
	if err := r.db.WithContext(ctx).Where("staff_id = ?", staffID).First(&m).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *TeamRepository) GetMember(ctx context.Context, teamID, memberID int64) (*domain.TeamMember, error) {
	var m domain.TeamMember
	err := r.db.WithContext(ctx).
		Preload("Staff").
		Where("id = ? AND team_id = ?", memberID, teamID).
		First(&m).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *TeamRepository) ListMembers(ctx context.Context, teamID int64) ([]domain.TeamMember, error) {
	var members []domain.TeamMember
	err := r.db.WithContext(ctx).
		Preload("Staff").
		Where("team_id = ?", teamID).
		Order("joined_at ASC").
		Find(&members).Error
	return members, err
}

func (r *TeamRepository) MemberStaffIDs(ctx context.Context, teamID int64) ([]int64, error) {
	var ids []int64
	err := r.db.WithContext(ctx).Model(&domain.TeamMember{}).
		Where("team_id = ?", teamID).
		Pluck("staff_id", &ids).Error
	return ids, err
}

// UpdateMemberRole sets role_in_team with COALESCE semantics: a nil role
// keeps the stored value.
func (r *TeamRepository) UpdateMemberRole(ctx context.Context, teamID, memberID int64, role *domain.TeamRole) error {
	var value *string
	if role != nil {
		v := string(*role)
		value = &v
	}
	res := r.db.WithContext(ctx).Model(&domain.TeamMember{}).
		Where("id = ? AND team_id = ?", memberID, teamID).
		Update("role_in_team", gorm.Expr("COALESCE(?, role_in_team)", value))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DemoteLeaders turns every leader of the team except keepStaffID into a plain member.
func (r *TeamRepository) DemoteLeaders(ctx context.Context, teamID, keepStaffID int64) error {
	return r.db.WithContext(ctx).Model(&domain.TeamMember{}).
		Where("team_id = ? AND role_in_team = ? AND staff_id <> ?", teamID, domain.TeamRoleLeader, keepStaffID).
		Update("role_in_team", domain.TeamRoleMember).Error
}

func (r *TeamRepository) RemoveMember(ctx context.Context, teamID, memberID int64) error {
	res := r.db.WithContext(ctx).Where("id = ? AND team_id = ?", memberID, teamID).Delete(&domain.TeamMember{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
