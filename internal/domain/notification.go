package domain

import "time"

// AssignmentNotification tells a staff member about a new or changed assignment.
type AssignmentNotification struct {
	ID           int64     `json:"id" gorm:"primaryKey"`
	AssignmentID int64     `json:"assignment_id" gorm:"not null;index"`
	StaffID      *int64    `json:"staff_id,omitempty" gorm:"index"`
	TeamID       *int64    `json:"team_id,omitempty" gorm:"index"`
	Title        string    `json:"title"`
	Message      string    `json:"message,omitempty" gorm:"type:text"`
	IsRead       bool      `json:"is_read" gorm:"not null;default:false"`
	CreatedAt    time.Time `json:"created_at"`

	Assignment *Assignment `json:"-" gorm:"foreignKey:AssignmentID;constraint:OnDelete:CASCADE"`
}
