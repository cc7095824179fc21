package user

import (
	"context"
	"errors"
	"strings"

	"cleanservice/internal/domain"
	"cleanservice/internal/repository"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type Service struct {
	users    *repository.UserRepository
	bookings *repository.BookingRepository
}

func NewService(users *repository.UserRepository, bookings *repository.BookingRepository) *Service {
	return &Service{users: users, bookings: bookings}
}

func (s *Service) Get(ctx context.Context, id int64) (*domain.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return u, err
}

func (s *Service) List(ctx context.Context, search string, limit, offset int) ([]domain.User, int64, error) {
	users, total, err := s.users.List(ctx, search, repository.Page{Limit: limit, Offset: offset})
	if err != nil {
		return nil, 0, err
	}
	if users == nil {
		users = []domain.User{}
	}
	return users, total, nil
}

func (s *Service) UpdateProfile(ctx context.Context, id int64, req UpdateProfileRequest) (*domain.User, error) {
	fields := map[string]any{}
	if req.Name != nil {
		fields["name"] = strings.TrimSpace(*req.Name)
	}
	if req.Phone != nil {
		fields["phone"] = strings.TrimSpace(*req.Phone)
	}
	if req.Address != nil {
		fields["address"] = strings.TrimSpace(*req.Address)
	}
	if len(fields) > 0 {
		if err := s.users.Updates(ctx, id, fields); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrNotFound
			}
			return nil, err
		}
	}
	return s.Get(ctx, id)
}

func (s *Service) ChangePassword(ctx context.Context, id int64, req ChangePasswordRequest) error {
	u, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.CurrentPassword)) != nil {
		return ErrWrongPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.users.Updates(ctx, id, map[string]any{"password_hash": string(hash)})
}

// Delete removes the account. Its bookings stay on record without an owner.
func (s *Service) Delete(ctx context.Context, id int64) error {
	err := s.users.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.bookings.WithTx(tx).UnlinkUser(ctx, id); err != nil {
			return err
		}
		return s.users.WithTx(tx).Delete(ctx, id)
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
