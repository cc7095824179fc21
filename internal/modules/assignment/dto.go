package assignment

import "cleanservice/internal/domain"

type CreateAssignmentRequest struct {
	BookingID int64  `json:"booking_id" validate:"required,gt=0"`
	TeamID    *int64 `json:"team_id" validate:"omitempty,gt=0"`
	StaffID   *int64 `json:"staff_id" validate:"omitempty,gt=0"`
	Notes     string `json:"notes" validate:"max=2000"`
}

type ListQuery struct {
	BookingID *int64
	Status    domain.AssignmentStatus
	Limit     int
	Offset    int
}

type ListResponse struct {
	Assignments []domain.Assignment `json:"assignments"`
	Total       int64               `json:"total"`
	Limit       int                 `json:"limit"`
	Offset      int                 `json:"offset"`
}
