package repository

import (
	"context"
	"time"

	"cleanservice/internal/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AssignmentFilter struct {
	BookingID *int64
	Status    domain.AssignmentStatus
}

type AssignmentRepository struct {
	db *gorm.DB
}

func NewAssignmentRepository(db *gorm.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

func (r *AssignmentRepository) DB() *gorm.DB {
	return r.db
}

func (r *AssignmentRepository) WithTx(tx *gorm.DB) *AssignmentRepository {
	return &AssignmentRepository{db: tx}
}

func (r *AssignmentRepository) Create(ctx context.Context, a *domain.Assignment) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(a).Error
}

func (r *AssignmentRepository) GetByID(ctx context.Context, id int64) (*domain.Assignment, error) {
	var a domain.Assignment
	err := r.db.WithContext(ctx).
		Preload("Booking").
		Preload("Team").
		Preload("Staff").
		First(&a, id).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *AssignmentRepository) List(ctx context.Context, f AssignmentFilter, page Page) ([]domain.Assignment, int64, error) {
	q := r.db.WithContext(ctx).Model(&domain.Assignment{})
	if f.BookingID != nil {
		q = q.Where("booking_id = ?", *f.BookingID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var out []domain.Assignment
	err := page.apply(q.Preload("Booking").Preload("Team").Preload("Staff").Order("created_at DESC, id DESC")).
		Find(&out).Error
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// ListForStaff returns assignments given to the staff member directly or to teamID.
func (r *AssignmentRepository) ListForStaff(ctx context.Context, staffID int64, teamID *int64, status domain.AssignmentStatus) ([]domain.Assignment, error) {
	q := r.db.WithContext(ctx).Preload("Booking").Preload("Team")
	if teamID != nil {
		q = q.Where("staff_id = ? OR team_id = ?", staffID, *teamID)
	} else {
		q = q.Where("staff_id = ?", staffID)
	}
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var out []domain.Assignment
	err := q.Order("assigned_at DESC, id DESC").Find(&out).Error
	return out, err
}

func (r *AssignmentRepository) HasActiveForBooking(ctx context.Context, bookingID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Assignment{}).
		Where("booking_id = ? AND status IN ?", bookingID, []domain.AssignmentStatus{
			domain.AssignmentAssigned, domain.AssignmentAccepted, domain.AssignmentInProgress,
		}).
		Count(&count).Error
	return count > 0, err
}

// TransitionStatus is a compare-and-swap on status; it reports false when the
// assignment was not in `from`.
func (r *AssignmentRepository) TransitionStatus(ctx context.Context, id int64, from domain.AssignmentStatus, to domain.AssignmentStatus, extra map[string]any) (bool, error) {
	fields := map[string]any{"status": to, "updated_at": time.Now()}
	for k, v := range extra {
		fields[k] = v
	}
	res := r.db.WithContext(ctx).Model(&domain.Assignment{}).
		Where("id = ? AND status = ?", id, from).
		Updates(fields)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// Delete removes the assignment and its notifications.
func (r *AssignmentRepository) Delete(ctx context.Context, id int64) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("assignment_id = ?", id).Delete(&domain.AssignmentNotification{}).Error; err != nil {
		return err
	}
	res := db.Delete(&domain.Assignment{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
