package notification

import (
	"context"
	"errors"
	"time"

	"cleanservice/internal/domain"
	"cleanservice/internal/repository"

	"gorm.io/gorm"
)

type Service struct {
	repo *repository.NotificationRepository
}

func NewService(repo *repository.NotificationRepository) *Service {
	return &Service{repo: repo}
}

type ListResult struct {
	Notifications []domain.AssignmentNotification `json:"notifications"`
	UnreadCount   int64                           `json:"unread_count"`
	Limit         int                             `json:"limit"`
	Offset        int                             `json:"offset"`
}

func (s *Service) List(ctx context.Context, staffID int64, unreadOnly bool, limit, offset int) (*ListResult, error) {
	items, err := s.repo.ListForStaff(ctx, staffID, unreadOnly, repository.Page{Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	unread, err := s.repo.CountUnread(ctx, staffID)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []domain.AssignmentNotification{}
	}
	return &ListResult{Notifications: items, UnreadCount: unread, Limit: limit, Offset: offset}, nil
}

func (s *Service) UnreadCount(ctx context.Context, staffID int64) (int64, error) {
	return s.repo.CountUnread(ctx, staffID)
}

func (s *Service) MarkAsRead(ctx context.Context, id, staffID int64) error {
	return notFound(s.repo.MarkAsRead(ctx, id, staffID))
}

func (s *Service) MarkAllAsRead(ctx context.Context, staffID int64) (int64, error) {
	return s.repo.MarkAllAsRead(ctx, staffID)
}

func (s *Service) Delete(ctx context.Context, id, staffID int64) error {
	return notFound(s.repo.Delete(ctx, id, staffID))
}

// Cleanup removes read notifications older than maxAge.
func (s *Service) Cleanup(ctx context.Context, maxAge time.Duration) (int64, error) {
	return s.repo.DeleteReadOlderThan(ctx, time.Now().Add(-maxAge))
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
