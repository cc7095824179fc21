package staff

import "errors"

var (
	ErrNotFound            = errors.New("staff not found")
	ErrEmailExists         = errors.New("email already exists")
	ErrInvalidToken        = errors.New("invalid token")
	ErrTokenExpired        = errors.New("token expired")
	ErrAlreadyVerified     = errors.New("email already verified")
	ErrInvalidApproval     = errors.New("invalid approval decision")
	ErrInvalidStatus       = errors.New("invalid staff status")
	ErrProfileNotPending   = errors.New("profile already completed")
	ErrEmailDelivery       = errors.New("verification email could not be sent")
	ErrWrongPassword       = errors.New("current password is incorrect")
	ErrPasswordUnavailable = errors.New("account has no password")
	ErrHasAssignments      = errors.New("staff member has assignments")
)
