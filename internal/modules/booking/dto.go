package booking

import "cleanservice/internal/domain"

type CreateBookingRequest struct {
	Name          string `json:"name" validate:"required,min=2,max=100"`
	Email         string `json:"email" validate:"required,email"`
	Phone         string `json:"phone" validate:"required,max=32"`
	Address       string `json:"address" validate:"required,max=255"`
	ServiceType   string `json:"service_type" validate:"required,max=120"`
	PreferredDate string `json:"preferred_date" validate:"required,date"`
	PreferredTime string `json:"preferred_time" validate:"required,clock"`
	Notes         string `json:"notes" validate:"max=2000"`
}

// UpdateBookingRequest replaces the editable fields. A missing date means
// today and a missing time means 09:00.
type UpdateBookingRequest struct {
	Name          *string `json:"name" validate:"omitempty,min=2,max=100"`
	Email         *string `json:"email" validate:"omitempty,email"`
	Phone         *string `json:"phone" validate:"omitempty,max=32"`
	Address       *string `json:"address" validate:"omitempty,max=255"`
	ServiceType   *string `json:"service_type" validate:"omitempty,max=120"`
	PreferredDate string  `json:"preferred_date" validate:"omitempty,date"`
	PreferredTime string  `json:"preferred_time" validate:"omitempty,clock"`
	Notes         *string `json:"notes" validate:"omitempty,max=2000"`
}

type StatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type VerifyRequest struct {
	Token string `json:"token" validate:"required"`
}

type SetPasswordRequest struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required,min=8"`
}

type ListQuery struct {
	Status domain.BookingStatus
	Email  string
	Limit  int
	Offset int
}

type ListResponse struct {
	Bookings []domain.Booking `json:"bookings"`
	Total    int64            `json:"total"`
	Limit    int              `json:"limit"`
	Offset   int              `json:"offset"`
}

// VerifyResult tells the client whether it must ask for a password next.
type VerifyResult struct {
	Booking          *domain.Booking `json:"booking"`
	RequiresPassword bool            `json:"requiresPassword"`
}
