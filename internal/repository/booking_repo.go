package repository

import (
	"context"
	"time"

	"cleanservice/internal/domain"

	"gorm.io/gorm"
)

type BookingFilter struct {
	Status domain.BookingStatus
	UserID *int64
	Email  string
}

type BookingRepository struct {
	db *gorm.DB
}

func NewBookingRepository(db *gorm.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

func (r *BookingRepository) DB() *gorm.DB {
	return r.db
}

func (r *BookingRepository) WithTx(tx *gorm.DB) *BookingRepository {
	return &BookingRepository{db: tx}
}

func (r *BookingRepository) Create(ctx context.Context, b *domain.Booking) error {
	b.Email = normalizeEmail(b.Email)
	return r.db.WithContext(ctx).Omit("Assignments", "User").Create(b).Error
}

func (r *BookingRepository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	var b domain.Booking
	if err := r.db.WithContext(ctx).First(&b, id).Error; err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *BookingRepository) GetByVerificationToken(ctx context.Context, token string) (*domain.Booking, error) {
	var b domain.Booking
	err := r.db.WithContext(ctx).
		Where("verification_token = ? AND verification_token <> ''", token).
		First(&b).Error
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *BookingRepository) List(ctx context.Context, f BookingFilter, page Page) ([]domain.Booking, int64, error) {
	q := r.db.WithContext(ctx).Model(&domain.Booking{})
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.UserID != nil {
		q = q.Where("user_id = ?", *f.UserID)
	}
	if f.Email != "" {
		q = q.Where("email = ?", normalizeEmail(f.Email))
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var bookings []domain.Booking
	if err := page.apply(q.Order("created_at DESC, id DESC")).Find(&bookings).Error; err != nil {
		return nil, 0, err
	}
	return bookings, total, nil
}

func (r *BookingRepository) Updates(ctx context.Context, id int64, fields map[string]any) error {
	res := r.db.WithContext(ctx).Model(&domain.Booking{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// TransitionStatus moves the booking to `to` only if its current status is one
// of `from`. It reports false when no row matched.
func (r *BookingRepository) TransitionStatus(ctx context.Context, id int64, from []domain.BookingStatus, to domain.BookingStatus, extra map[string]any) (bool, error) {
	fields := map[string]any{"status": to, "updated_at": time.Now()}
	for k, v := range extra {
		fields[k] = v
	}
	res := r.db.WithContext(ctx).Model(&domain.Booking{}).
		Where("id = ? AND status IN ?", id, from).
		Updates(fields)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// LinkUser attaches every unlinked booking placed with email to userID.
func (r *BookingRepository) LinkUser(ctx context.Context, email string, userID int64) error {
	return r.db.WithContext(ctx).Model(&domain.Booking{}).
		Where("email = ? AND user_id IS NULL", normalizeEmail(email)).
		Update("user_id", userID).Error
}

func (r *BookingRepository) UnlinkUser(ctx context.Context, userID int64) error {
	return r.db.WithContext(ctx).Model(&domain.Booking{}).
		Where("user_id = ?", userID).
		Update("user_id", nil).Error
}

// Delete removes a booking with its assignments and their notifications.
// Call it inside a transaction.
func (r *BookingRepository) Delete(ctx context.Context, id int64) error {
	db := r.db.WithContext(ctx)
	assignmentIDs := db.Model(&domain.Assignment{}).Select("id").Where("booking_id = ?", id)
	if err := db.Where("assignment_id IN (?)", assignmentIDs).Delete(&domain.AssignmentNotification{}).Error; err != nil {
		return err
	}
	if err := db.Where("booking_id = ?", id).Delete(&domain.Assignment{}).Error; err != nil {
		return err
	}
	res := db.Delete(&domain.Booking{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteExpiredUnverified removes guest bookings whose verification window passed.
func (r *BookingRepository) DeleteExpiredUnverified(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("status = ? AND verification_expires_at < ?", domain.BookingPendingVerification, now).
		Delete(&domain.Booking{})
	return res.RowsAffected, res.Error
}
