package domain

import "time"

// Service is a catalog entry shown to customers.
type Service struct {
	ID          int64     `json:"id" gorm:"primaryKey"`
	Title       string    `json:"title" gorm:"uniqueIndex;not null"`
	Description string    `json:"description,omitempty" gorm:"type:text"`
	Icon        string    `json:"icon,omitempty"`
	Price       float64   `json:"price"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
