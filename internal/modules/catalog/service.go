package catalog

import (
	"context"
	"errors"
	"strings"

	"cleanservice/internal/database"
	"cleanservice/internal/domain"
	"cleanservice/internal/repository"

	"gorm.io/gorm"
)

type Service struct {
	services *repository.ServiceRepository
}

func NewService(services *repository.ServiceRepository) *Service {
	return &Service{services: services}
}

func (s *Service) List(ctx context.Context) ([]domain.Service, error) {
	return s.services.List(ctx)
}

func (s *Service) Get(ctx context.Context, id int64) (*domain.Service, error) {
	svc, err := s.services.GetByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return svc, err
}

func (s *Service) Create(ctx context.Context, req CreateServiceRequest) (*domain.Service, error) {
	svc := &domain.Service{
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Icon:        req.Icon,
		Price:       req.Price,
	}
	if err := s.services.Create(ctx, svc); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrDuplicateTitle
		}
		return nil, err
	}
	return svc, nil
}

func (s *Service) Update(ctx context.Context, id int64, req UpdateServiceRequest) (*domain.Service, error) {
	fields := map[string]any{}
	if req.Title != nil {
		fields["title"] = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		fields["description"] = *req.Description
	}
	if req.Icon != nil {
		fields["icon"] = *req.Icon
	}
	if req.Price != nil {
		fields["price"] = *req.Price
	}

	if len(fields) > 0 {
		if err := s.services.Updates(ctx, id, fields); err != nil {
			switch {
			case errors.Is(err, gorm.ErrRecordNotFound):
				return nil, ErrNotFound
			case database.IsUniqueViolation(err):
				return nil, ErrDuplicateTitle
			}
			return nil, err
		}
	}
	return s.Get(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.services.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}
