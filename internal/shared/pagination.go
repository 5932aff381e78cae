package shared

import (
	"math"
	"net/url"
	"strconv"
)

const (
	DefaultPage    = 1
	DefaultPerPage = 10
	MaxPerPage     = 1000
)

// Pagination contains metadata for paginated listings.
type Pagination struct {
	Page       int `json:"page"`
	PerPage    int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"pages"`
}

// NewPagination computes pagination metadata.
func NewPagination(page, perPage, total int) Pagination {
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	if page <= 0 {
		page = DefaultPage
	}
	totalPages := int(math.Ceil(float64(total) / float64(perPage)))
	return Pagination{Page: page, PerPage: perPage, Total: total, TotalPages: totalPages}
}

// PageRequest is the page/limit pair read from a query string.
type PageRequest struct {
	Page    int
	PerPage int
}

// ParsePageRequest reads page and limit, falling back to defaults on bad input.
// A request without a limit is unpaginated (PerPage == 0), which the pickers
// of the order form rely on.
func ParsePageRequest(q url.Values) PageRequest {
	req := PageRequest{Page: DefaultPage}
	if v, err := strconv.Atoi(q.Get("page")); err == nil && v > 0 {
		req.Page = v
	}
	if v, err := strconv.Atoi(q.Get("limit")); err == nil && v > 0 {
		if v > MaxPerPage {
			v = MaxPerPage
		}
		req.PerPage = v
	}
	return req
}

// Offset returns the number of rows to skip.
func (p PageRequest) Offset() int {
	if p.PerPage <= 0 || p.Page <= 1 {
		return 0
	}
	return (p.Page - 1) * p.PerPage
}
