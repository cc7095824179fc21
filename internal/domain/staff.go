package domain

import "time"

type StaffRole string

const (
	StaffCleaner    StaffRole = "cleaner"
	StaffSupervisor StaffRole = "supervisor"
	StaffManager    StaffRole = "manager"
)

func (r StaffRole) Valid() bool {
	switch r {
	case StaffCleaner, StaffSupervisor, StaffManager:
		return true
	}
	return false
}

// CanLead reports whether staff with this role may be a team leader.
func (r StaffRole) CanLead() bool {
	return r == StaffSupervisor || r == StaffManager
}

type StaffStatus string

const (
	StaffActive   StaffStatus = "active"
	StaffInactive StaffStatus = "inactive"
	StaffOnLeave  StaffStatus = "on_leave"
)

func (s StaffStatus) Valid() bool {
	switch s {
	case StaffActive, StaffInactive, StaffOnLeave:
		return true
	}
	return false
}

type ApprovalStatus string

const (
	ApprovalPendingInfo     ApprovalStatus = "pending_info"
	ApprovalPendingApproval ApprovalStatus = "pending_approval"
	ApprovalApproved        ApprovalStatus = "approved"
	ApprovalRejected        ApprovalStatus = "rejected"
)

func (s ApprovalStatus) Valid() bool {
	switch s {
	case ApprovalPendingInfo, ApprovalPendingApproval, ApprovalApproved, ApprovalRejected:
		return true
	}
	return false
}

type Staff struct {
	ID              int64          `json:"id" gorm:"primaryKey"`
	Name            string         `json:"name" gorm:"not null"`
	Email           string         `json:"email" gorm:"uniqueIndex;not null"`
	Phone           string         `json:"phone,omitempty"`
	Address         string         `json:"address,omitempty"`
	PasswordHash    string         `json:"-"`
	GoogleID        string         `json:"-" gorm:"index"`
	Role            StaffRole      `json:"role" gorm:"not null;default:cleaner"`
	Status          StaffStatus    `json:"status" gorm:"not null;default:active"`
	ApprovalStatus  ApprovalStatus `json:"approval_status" gorm:"not null;default:pending_approval"`
	RejectionReason string         `json:"rejection_reason,omitempty"`
	EmailVerified   bool           `json:"email_verified" gorm:"not null;default:false"`
	Specialization  string         `json:"specialization,omitempty"`
	ExperienceYears int            `json:"experience_years"`
	HourlyRate      float64        `json:"hourly_rate"`

	VerificationToken     string     `json:"-" gorm:"index"`
	VerificationExpiresAt *time.Time `json:"-"`
	ProfileToken          string     `json:"-" gorm:"index"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Staff) TableName() string { return "staff" }
