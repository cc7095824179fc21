package repository

import (
	"context"
	"strings"

	"cleanservice/internal/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type StaffFilter struct {
	Role           domain.StaffRole
	Status         domain.StaffStatus
	ApprovalStatus domain.ApprovalStatus
	Search         string
}

type StaffRepository struct {
	db *gorm.DB
}

func NewStaffRepository(db *gorm.DB) *StaffRepository {
	return &StaffRepository{db: db}
}

func (r *StaffRepository) DB() *gorm.DB {
	return r.db
}

func (r *StaffRepository) WithTx(tx *gorm.DB) *StaffRepository {
	return &StaffRepository{db: tx}
}

func (r *StaffRepository) Create(ctx context.Context, s *domain.Staff) error {
	s.Email = normalizeEmail(s.Email)
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *StaffRepository) GetByID(ctx context.Context, id int64) (*domain.Staff, error) {
	var s domain.Staff
	if err := r.db.WithContext(ctx).First(&s, id).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

// GetForUpdate locks the row on backends that support row locks.
func (r *StaffRepository) GetForUpdate(ctx context.Context, id int64) (*domain.Staff, error) {
	var s domain.Staff
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&s, id).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *StaffRepository) GetByEmail(ctx context.Context, email string) (*domain.Staff, error) {
	return r.getBy(ctx, "email = ?", normalizeEmail(email))
}

func (r *StaffRepository) GetByVerificationToken(ctx context.Context, token string) (*domain.Staff, error) {
	return r.getBy(ctx, "verification_token = ? AND verification_token <> ''", token)
}

func (r *StaffRepository) GetByProfileToken(ctx context.Context, token string) (*domain.Staff, error) {
	return r.getBy(ctx, "profile_token = ? AND profile_token <> ''", token)
}

func (r *StaffRepository) getBy(ctx context.Context, query string, args ...any) (*domain.Staff, error) {
	var s domain.Staff
	if err := r.db.WithContext(ctx).Where(query, args...).First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *StaffRepository) Updates(ctx context.Context, id int64, fields map[string]any) error {
	res := r.db.WithContext(ctx).Model(&domain.Staff{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *StaffRepository) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(&domain.Staff{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *StaffRepository) List(ctx context.Context, f StaffFilter, page Page) ([]domain.Staff, int64, error) {
	q := r.db.WithContext(ctx).Model(&domain.Staff{})
	if f.Role != "" {
		q = q.Where("role = ?", f.Role)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.ApprovalStatus != "" {
		q = q.Where("approval_status = ?", f.ApprovalStatus)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		q = q.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ?", like, like)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var staff []domain.Staff
	if err := page.apply(q.Order("created_at DESC")).Find(&staff).Error; err != nil {
		return nil, 0, err
	}
	return staff, total, nil
}
