package shared

import "math"

// Pagination contains metadata for paginated listings.
type Pagination struct {
	Page       int `json:"page"`
	PerPage    int `json:"perPage"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// NewPagination computes pagination metadata. Page is clamped into
// [1, TotalPages] so callers never render an out-of-range page.
func NewPagination(page, perPage, total int) Pagination {
	if perPage <= 0 {
		perPage = 5
	}
	totalPages := int(math.Ceil(float64(total) / float64(perPage)))
	if page < 1 {
		page = 1
	}
	if totalPages > 0 && page > totalPages {
		page = totalPages
	}
	return Pagination{Page: page, PerPage: perPage, Total: total, TotalPages: totalPages}
}
