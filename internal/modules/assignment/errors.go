package assignment

import "errors"

var (
	ErrNotFound            = errors.New("assignment not found")
	ErrBookingNotFound     = errors.New("booking not found")
	ErrBookingNotConfirmed = errors.New("booking must be confirmed before it can be assigned")
	ErrTarget              = errors.New("exactly one of team_id or staff_id is required")
	ErrTeamNotFound        = errors.New("team not found")
	ErrTeamInactive        = errors.New("team is not active")
	ErrTeamEmpty           = errors.New("team has no members")
	ErrStaffNotFound       = errors.New("staff member not found")
	ErrStaffUnavailable    = errors.New("staff member is not active and approved")
	ErrNotAssignee         = errors.New("assignment belongs to someone else")
	ErrInvalidTransition   = errors.New("invalid assignment status transition")
	ErrStatusConflict      = errors.New("assignment status changed concurrently")
)
