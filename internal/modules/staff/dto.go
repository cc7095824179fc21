package staff

import "cleanservice/internal/domain"

type ListQuery struct {
	Role           domain.StaffRole
	Status         domain.StaffStatus
	ApprovalStatus domain.ApprovalStatus
	Search         string
	Limit          int
	Offset         int
}

type CreateStaffRequest struct {
	Name            string  `json:"name" validate:"required,min=2,max=100"`
	Email           string  `json:"email" validate:"required,email"`
	Password        string  `json:"password" validate:"required,min=8"`
	Phone           string  `json:"phone" validate:"max=32"`
	Address         string  `json:"address" validate:"max=255"`
	Role            string  `json:"role" validate:"omitempty,oneof=cleaner supervisor manager"`
	Status          string  `json:"status" validate:"omitempty,oneof=active inactive on_leave"`
	Specialization  string  `json:"specialization" validate:"max=255"`
	ExperienceYears int     `json:"experience_years" validate:"gte=0"`
	HourlyRate      float64 `json:"hourly_rate" validate:"gte=0"`
}

// UpdateStaffRequest leaves nil fields unchanged.
type UpdateStaffRequest struct {
	Name            *string  `json:"name" validate:"omitempty,min=2,max=100"`
	Email           *string  `json:"email" validate:"omitempty,email"`
	Phone           *string  `json:"phone" validate:"omitempty,max=32"`
	Address         *string  `json:"address" validate:"omitempty,max=255"`
	Role            *string  `json:"role" validate:"omitempty,oneof=cleaner supervisor manager"`
	Status          *string  `json:"status" validate:"omitempty,oneof=active inactive on_leave"`
	Specialization  *string  `json:"specialization" validate:"omitempty,max=255"`
	ExperienceYears *int     `json:"experience_years" validate:"omitempty,gte=0"`
	HourlyRate      *float64 `json:"hourly_rate" validate:"omitempty,gte=0"`
	Password        *string  `json:"password" validate:"omitempty,min=8"`
}

type ApprovalRequest struct {
	ApprovalStatus string `json:"approval_status" validate:"required,oneof=approved rejected"`
	Reason         string `json:"reason" validate:"max=500"`
}

type StatusRequest struct {
	Status string `json:"status" validate:"required,oneof=active inactive on_leave"`
}

type RegisterRequest struct {
	Name            string  `json:"name" validate:"required,min=2,max=100"`
	Email           string  `json:"email" validate:"required,email"`
	Password        string  `json:"password" validate:"required,min=8"`
	Phone           string  `json:"phone" validate:"max=32"`
	Address         string  `json:"address" validate:"max=255"`
	Specialization  string  `json:"specialization" validate:"max=255"`
	ExperienceYears int     `json:"experience_years" validate:"gte=0"`
	HourlyRate      float64 `json:"hourly_rate" validate:"gte=0"`
}

type ResendRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type CompleteProfileRequest struct {
	Token           string  `json:"token" validate:"required"`
	Phone           string  `json:"phone" validate:"required,max=32"`
	Address         string  `json:"address" validate:"max=255"`
	Specialization  string  `json:"specialization" validate:"max=255"`
	ExperienceYears int     `json:"experience_years" validate:"gte=0"`
	Password        string  `json:"password" validate:"omitempty,min=8"`
	HourlyRate      float64 `json:"hourly_rate" validate:"gte=0"`
}

type UpdateMeRequest struct {
	Name           *string `json:"name" validate:"omitempty,min=2,max=100"`
	Phone          *string `json:"phone" validate:"omitempty,max=32"`
	Address        *string `json:"address" validate:"omitempty,max=255"`
	Specialization *string `json:"specialization" validate:"omitempty,max=255"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8"`
}

type ListResponse struct {
	Staff  []domain.Staff `json:"staff"`
	Total  int64          `json:"total"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}
