package auth

import (
	"errors"

	"cleanservice/internal/domain"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailExists        = errors.New("email already exists")
	ErrEmailNotVerified   = errors.New("email not verified")
	ErrAccountInactive    = errors.New("account is not active")
	ErrGoogleDisabled     = errors.New("google sign-in is not configured")
	ErrGoogleUnverified   = errors.New("google account email is not verified")
	ErrInvalidOAuthState  = errors.New("invalid oauth state")
	ErrInvalidGoogleToken = errors.New("invalid google id token")
	ErrMissingAuthCode    = errors.New("missing authorization code")
)

// ApprovalError rejects a staff login whose application is not approved.
type ApprovalError struct {
	Status domain.ApprovalStatus
	Reason string
}

func (e *ApprovalError) Error() string {
	return "staff approval status is " + string(e.Status)
}

// Code is the machine-readable code clients branch on.
func (e *ApprovalError) Code() string {
	switch e.Status {
	case domain.ApprovalPendingInfo:
		return "PENDING_INFO"
	case domain.ApprovalRejected:
		return "REJECTED"
	default:
		return "PENDING_APPROVAL"
	}
}

func (e *ApprovalError) Message() string {
	switch e.Status {
	case domain.ApprovalPendingInfo:
		return "Please complete your profile before signing in"
	case domain.ApprovalRejected:
		return "Your application has been rejected"
	default:
		return "Your account is awaiting admin approval"
	}
}
