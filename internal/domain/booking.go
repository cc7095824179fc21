package domain

import "time"

type BookingStatus string

const (
	BookingPendingVerification BookingStatus = "pending_verification"
	BookingPendingPassword     BookingStatus = "pending_password"
	BookingPending             BookingStatus = "pending"
	BookingConfirmed           BookingStatus = "confirmed"
	BookingAssigned            BookingStatus = "assigned"
	BookingInProgress          BookingStatus = "in_progress"
	BookingCompleted           BookingStatus = "completed"
	BookingCancelled           BookingStatus = "cancelled"
)

// Booking dates are stored as "2006-01-02" and times as "15:04".
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"

	DefaultPreferredTime = "09:00"
)

var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingPendingVerification: {BookingPendingPassword, BookingPending, BookingConfirmed, BookingCancelled},
	BookingPendingPassword:     {BookingPending, BookingConfirmed, BookingCancelled},
	BookingPending:             {BookingConfirmed, BookingCancelled},
	BookingConfirmed:           {BookingAssigned, BookingCancelled},
	BookingAssigned:            {BookingConfirmed, BookingInProgress, BookingCompleted, BookingCancelled},
	BookingInProgress:          {BookingConfirmed, BookingCompleted, BookingCancelled},
}

func (s BookingStatus) Valid() bool {
	if s == BookingCompleted || s == BookingCancelled {
		return true
	}
	_, ok := bookingTransitions[s]
	return ok
}

func (s BookingStatus) Terminal() bool {
	return s == BookingCompleted || s == BookingCancelled
}

// CanTransitionTo reports whether a booking may move from s to next.
func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	for _, allowed := range bookingTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// BookingSourcesFor lists every status a booking may be in to move to next.
func BookingSourcesFor(next BookingStatus) []BookingStatus {
	var out []BookingStatus
	for from, targets := range bookingTransitions {
		for _, t := range targets {
			if t == next {
				out = append(out, from)
			}
		}
	}
	return out
}

type Booking struct {
	ID            int64         `json:"id" gorm:"primaryKey"`
	UserID        *int64        `json:"user_id,omitempty" gorm:"index"`
	Name          string        `json:"name" gorm:"not null"`
	Email         string        `json:"email" gorm:"not null;index"`
	Phone         string        `json:"phone"`
	Address       string        `json:"address"`
	ServiceType   string        `json:"service_type" gorm:"not null"`
	PreferredDate string        `json:"preferred_date"`
	PreferredTime string        `json:"preferred_time"`
	Notes         string        `json:"notes,omitempty" gorm:"type:text"`
	Status        BookingStatus `json:"status" gorm:"not null;index"`

	VerificationToken     string     `json:"-" gorm:"index"`
	VerificationExpiresAt *time.Time `json:"-"`

	ConfirmedAt *time.Time `json:"confirmed_at,omitempty"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	User        *User         `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:SET NULL"`
	Assignments []*Assignment `json:"assignments,omitempty" gorm:"foreignKey:BookingID"`
}
