package domain

import "time"

// User is a registered customer.
type User struct {
	ID            int64     `json:"id" gorm:"primaryKey"`
	Name          string    `json:"name" gorm:"not null"`
	Email         string    `json:"email" gorm:"uniqueIndex;not null"`
	Phone         string    `json:"phone,omitempty"`
	Address       string    `json:"address,omitempty"`
	PasswordHash  string    `json:"-" gorm:"not null"`
	EmailVerified bool      `json:"email_verified" gorm:"not null;default:false"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
