package catalog

import "errors"

var (
	ErrNotFound       = errors.New("service not found")
	ErrDuplicateTitle = errors.New("service title already exists")
)
