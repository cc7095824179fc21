package analytics

import "time"

type Overview struct {
	Bookings    BookingStats    `json:"bookings"`
	Staff       StaffStats      `json:"staff"`
	Teams       TeamStats       `json:"teams"`
	Assignments AssignmentStats `json:"assignments"`
	Revenue     RevenueStats    `json:"revenue"`
	GeneratedAt time.Time       `json:"generated_at"`
}

type BookingStats struct {
	Total         int64            `json:"total"`
	ByStatus      map[string]int64 `json:"by_status"`
	ByServiceType []LabelCount     `json:"by_service_type"`
	Daily         []DailyCount     `json:"daily"`
}

type StaffStats struct {
	Total            int64            `json:"total"`
	ByStatus         map[string]int64 `json:"by_status"`
	ByApprovalStatus map[string]int64 `json:"by_approval_status"`
}

type TeamStats struct {
	Total  int64 `json:"total"`
	Active int64 `json:"active"`
}

type AssignmentStats struct {
	Total    int64            `json:"total"`
	ByStatus map[string]int64 `json:"by_status"`
	// CompletionRate is completed / (total - cancelled), 0 when nothing is assignable.
	CompletionRate float64 `json:"completion_rate"`
}

type RevenueStats struct {
	CompletedBookings int64   `json:"completed_bookings"`
	Estimated         float64 `json:"estimated"`
}

type LabelCount struct {
	Label string `json:"label"`
	Count int64  `json:"count"`
}

type DailyCount struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}
