package repository

import (
	"context"
	"time"

	"cleanservice/internal/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type NotificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) WithTx(tx *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: tx}
}

func (r *NotificationRepository) CreateBatch(ctx context.Context, items []*domain.AssignmentNotification) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(&items).Error
}

func (r *NotificationRepository) ListForStaff(ctx context.Context, staffID int64, unreadOnly bool, page Page) ([]domain.AssignmentNotification, error) {
	q := r.db.WithContext(ctx).Where("staff_id = ?", staffID)
	if unreadOnly {
		q = q.Where("is_read = ?", false)
	}
	var out []domain.AssignmentNotification
	err := page.apply(q.Order("created_at DESC, id DESC")).Find(&out).Error
	return out, err
}

func (r *NotificationRepository) CountUnread(ctx context.Context, staffID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.AssignmentNotification{}).
		Where("staff_id = ? AND is_read = ?", staffID, false).
		Count(&count).Error
	return count, err
}

func (r *NotificationRepository) MarkAsRead(ctx context.Context, id, staffID int64) error {
	res := r.db.WithContext(ctx).
		Model(&domain.AssignmentNotification{}).
		Where("id = ? AND staff_id = ?", id, staffID).
		Update("is_read", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *NotificationRepository) MarkAllAsRead(ctx context.Context, staffID int64) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&domain.AssignmentNotification{}).
		Where("staff_id = ? AND is_read = ?", staffID, false).
		Update("is_read", true)
	return res.RowsAffected, res.Error
}

func (r *NotificationRepository) Delete(ctx context.Context, id, staffID int64) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND staff_id = ?", id, staffID).
		Delete(&domain.AssignmentNotification{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteReadOlderThan removes read notifications created before cutoff.
func (r *NotificationRepository) DeleteReadOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("is_read = ? AND created_at < ?", true, cutoff).
		Delete(&domain.AssignmentNotification{})
	return res.RowsAffected, res.Error
}
