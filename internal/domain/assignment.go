package domain

import "time"

type AssignmentType string

const (
	AssignmentTeam       AssignmentType = "team"
	AssignmentIndividual AssignmentType = "individual"
)

type AssignmentStatus string

const (
	AssignmentAssigned   AssignmentStatus = "assigned"
	AssignmentAccepted   AssignmentStatus = "accepted"
	AssignmentInProgress AssignmentStatus = "in_progress"
	AssignmentCompleted  AssignmentStatus = "completed"
	AssignmentCancelled  AssignmentStatus = "cancelled"
)

var assignmentTransitions = map[AssignmentStatus][]AssignmentStatus{
	AssignmentAssigned:   {AssignmentAccepted, AssignmentCancelled},
	AssignmentAccepted:   {AssignmentInProgress, AssignmentCancelled},
	AssignmentInProgress: {AssignmentCompleted, AssignmentCancelled},
}

func (s AssignmentStatus) Valid() bool {
	if s == AssignmentCompleted || s == AssignmentCancelled {
		return true
	}
	_, ok := assignmentTransitions[s]
	return ok
}

func (s AssignmentStatus) Active() bool {
	return s == AssignmentAssigned || s == AssignmentAccepted || s == AssignmentInProgress
}

func (s AssignmentStatus) CanTransitionTo(next AssignmentStatus) bool {
	for _, allowed := range assignmentTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// BookingStatusFor returns the booking status an assignment transition
// implies, or false when the booking is left alone.
func (s AssignmentStatus) BookingStatusFor() (BookingStatus, bool) {
	switch s {
	case AssignmentAssigned:
		return BookingAssigned, true
	case AssignmentInProgress:
		return BookingInProgress, true
	case AssignmentCompleted:
		return BookingCompleted, true
	case AssignmentCancelled:
		return BookingConfirmed, true
	}
	return "", false
}

// Assignment hands a booking to either a team or a single staff member.
type Assignment struct {
	ID             int64            `json:"id" gorm:"primaryKey"`
	BookingID      int64            `json:"booking_id" gorm:"not null;index"`
	AssignmentType AssignmentType   `json:"assignment_type" gorm:"not null"`
	TeamID         *int64           `json:"team_id,omitempty" gorm:"index"`
	StaffID        *int64           `json:"staff_id,omitempty" gorm:"index"`
	AssignedBy     *int64           `json:"assigned_by,omitempty"`
	Status         AssignmentStatus `json:"status" gorm:"not null;index"`
	Notes          string           `json:"notes,omitempty" gorm:"type:text"`

	AssignedAt  time.Time  `json:"assigned_at"`
	AcceptedAt  *time.Time `json:"accepted_at,omitempty"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	Booking *Booking `json:"booking,omitempty" gorm:"foreignKey:BookingID;constraint:OnDelete:CASCADE"`
	Team    *Team    `json:"team,omitempty" gorm:"foreignKey:TeamID;constraint:OnDelete:RESTRICT"`
	Staff   *Staff   `json:"staff,omitempty" gorm:"foreignKey:StaffID;constraint:OnDelete:RESTRICT"`
}
