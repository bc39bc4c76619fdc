// Package pagination parses limit/offset query parameters for list endpoints.
package pagination

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/richxcame/giftcards/pkg/common"
)

const (
	DefaultLimit  = 20
	MaxLimit      = 100
	DefaultOffset = 0
)

// Params is a parsed page request
type Params struct {
	Limit  int
	Offset int
}

// ParseParams reads ?limit= and ?offset=, falling back to the defaults on
// missing or malformed values and capping limit at MaxLimit
func ParseParams(c *gin.Context) Params {
	params := Params{Limit: DefaultLimit, Offset: DefaultOffset}

	if limit, err := strconv.Atoi(c.Query("limit")); err == nil && limit > 0 {
		params.Limit = limit
		if params.Limit > MaxLimit {
			params.Limit = MaxLimit
		}
	}
	if offset, err := strconv.Atoi(c.Query("offset")); err == nil && offset >= 0 {
		params.Offset = offset
	}

	return params
}

// BuildMeta describes a page for the response envelope
func BuildMeta(limit, offset int, total int64) *common.Meta {
	meta := &common.Meta{Limit: limit, Offset: offset, Total: total}
	if limit > 0 && total > 0 {
		meta.TotalPages = int((total + int64(limit) - 1) / int64(limit))
	}
	return meta
}
