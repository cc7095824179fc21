package utils

import (
	"strings"

	"github.com/google/uuid"
)

// NewToken returns an opaque 64-hex-char token for email links.
func NewToken() string {
	return strings.ReplaceAll(uuid.NewString()+uuid.NewString(), "-", "")
}
