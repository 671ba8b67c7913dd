package shared

import "math"

// PageRequest is a normalized page/limit pair for listing queries.
type PageRequest struct {
	Page  int
	Limit int
}

// MaxPageLimit caps the per-page row count for listing queries.
const MaxPageLimit = 100

// NewPageRequest applies the listing defaults (page 1, limit 10) and caps
// limit at MaxPageLimit.
func NewPageRequest(page, limit int) PageRequest {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 10
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	return PageRequest{Page: page, Limit: limit}
}

// Offset returns the row offset for the page.
func (p PageRequest) Offset() int {
	return (p.Page - 1) * p.Limit
}

// Pagination contains metadata for paginated listings.
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"totalPages"`
	TotalItems int64 `json:"totalItems"`
}

// NewPagination computes pagination metadata for a counted result set.
func NewPagination(req PageRequest, total int64) Pagination {
	totalPages := int(math.Ceil(float64(total) / float64(req.Limit)))
	return Pagination{Page: req.Page, Limit: req.Limit, TotalPages: totalPages, TotalItems: total}
}
