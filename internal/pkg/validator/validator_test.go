package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type sample struct {
	Email string  `json:"email" validate:"required,email"`
	Date  string  `json:"preferred_date" validate:"omitempty,date"`
	Time  string  `json:"preferred_time" validate:"clock"`
	Role  string  `json:"role" validate:"omitempty,oneof=cleaner supervisor manager"`
	Rate  float64 `json:"hourly_rate" validate:"gte=0"`
}

func TestValidate(t *testing.T) {
	assert.Nil(t, Validate(sample{Email: "a@b.co", Date: "2025-01-31", Time: "09:30"}))

	errs := Validate(sample{Email: "nope", Date: "31/01/2025", Time: "9am", Role: "boss", Rate: -1})
	assert.Equal(t, "must be a valid email", errs["email"])
	assert.Equal(t, "must be a date (YYYY-MM-DD)", errs["preferred_date"])
	assert.Equal(t, "must be a time (HH:MM)", errs["preferred_time"])
	assert.Contains(t, errs["role"], "must be one of")
	assert.Equal(t, "must be >= 0", errs["hourly_rate"])

	errs = Validate(sample{})
	assert.Equal(t, "is required", errs["email"])
}
