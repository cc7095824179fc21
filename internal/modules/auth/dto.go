package auth

import "cleanservice/internal/pkg/session"

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RegisterRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone" validate:"omitempty,max=30"`
	Address  string `json:"address" validate:"omitempty,max=255"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// MeResponse is what GET /auth/me returns for whichever role resolved.
type MeResponse struct {
	Role session.Role     `json:"role"`
	User *session.Payload `json:"user"`
}
