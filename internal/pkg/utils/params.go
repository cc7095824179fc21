package utils

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// ParamID parses a positive int64 path parameter.
func ParamID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// Pagination reads limit plus either offset or page from the query string.
// limit is clamped to [1, MaxLimit].
func Pagination(c *gin.Context) (limit, offset int) {
	limit = DefaultLimit
	if v, err := strconv.Atoi(c.Query("limit")); err == nil && v > 0 {
		limit = v
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	if v, err := strconv.Atoi(c.Query("offset")); err == nil && v > 0 {
		offset = v
	} else if p, err := strconv.Atoi(c.Query("page")); err == nil && p > 1 {
		offset = (p - 1) * limit
	}
	return limit, offset
}

// QueryBool treats "1" and "true" as true.
func QueryBool(c *gin.Context, key string) bool {
	v := strings.ToLower(strings.TrimSpace(c.Query(key)))
	return v == "1" || v == "true"
}
