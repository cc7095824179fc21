package booking

import "errors"

var (
	ErrNotFound          = errors.New("booking not found")
	ErrInvalidToken      = errors.New("invalid verification token")
	ErrTokenExpired      = errors.New("verification token expired")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrStatusConflict    = errors.New("booking status changed concurrently")
	ErrPastDate          = errors.New("preferred date is in the past")
	ErrEmailExists       = errors.New("an account with this email already exists")
	ErrEmailDelivery     = errors.New("verification email could not be sent")
	ErrForbidden         = errors.New("booking belongs to another customer")
)
