package apihelpers

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type PaginatedQuery struct {
	Page  int64
	Limit int64
}

// Skip returns how many items precede the requested page.
func (q PaginatedQuery) Skip() int64 {
	return (q.Page - 1) * q.Limit
}

func ParsePaginatedQueryFromCtx(c *gin.Context) (*PaginatedQuery, error) {
	page, err := strconv.ParseInt(c.DefaultQuery("page", "1"), 10, 64)
	if err != nil {
		return nil, err
	}
	if page < 1 {
		return nil, fmt.Errorf("invalid page: %d", page)
	}

	limit, err := strconv.ParseInt(c.DefaultQuery("limit", strconv.Itoa(defaultPageSize)), 10, 64)
	if err != nil {
		return nil, err
	}
	if limit < 1 {
		return nil, fmt.Errorf("invalid limit: %d", limit)
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	return &PaginatedQuery{
		Page:  page,
		Limit: limit,
	}, nil
}
