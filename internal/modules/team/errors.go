package team

import "errors"

var (
	ErrTeamNotFound      = errors.New("team not found")
	ErrStaffNotFound     = errors.New("staff not found")
	ErrMemberNotFound    = errors.New("team member not found")
	ErrStaffInactive     = errors.New("staff member is not active")
	ErrAlreadyMember     = errors.New("staff is already a member of this team")
	ErrMemberOfOtherTeam = errors.New("staff is already a member of another team")
	ErrInvalidLeader     = errors.New("team leader must be a supervisor or manager")
	ErrDuplicateName     = errors.New("team name already exists")
	ErrHasAssignments    = errors.New("team has assignments")
)
