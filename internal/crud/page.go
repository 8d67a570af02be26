package crud

import (
	"math"
	"strings"
)

const (
	defaultPageSize = 20
	maxPageSize     = 500
)

// PageRequest carries pagination, sorting, search and filter parameters for
// paged listings and exports.
type PageRequest struct {
	PageNumber    int               `json:"pageNumber"`
	PageSize      int               `json:"pageSize"`
	SortBy        string            `json:"sortBy,omitempty"`
	SortDirection string            `json:"sortDirection,omitempty"`
	SearchTerm    string            `json:"searchTerm,omitempty"`
	Filters       map[string]string `json:"filters,omitempty"`
}

// Normalize clamps page number and size into valid ranges.
func (r PageRequest) Normalize() PageRequest {
	if r.PageNumber < 1 {
		r.PageNumber = 1
	}
	if r.PageSize < 1 {
		r.PageSize = defaultPageSize
	}
	if r.PageSize > maxPageSize {
		r.PageSize = maxPageSize
	}
	return r
}

// Descending reports whether the requested sort direction is descending;
// anything other than "desc" sorts ascending.
func (r PageRequest) Descending() bool {
	return strings.EqualFold(strings.TrimSpace(r.SortDirection), "desc")
}

// PageResult is one page of transfer objects plus paging metadata.
type PageResult[D any] struct {
	Items       []D   `json:"items"`
	TotalCount  int64 `json:"totalCount"`
	PageNumber  int   `json:"pageNumber"`
	PageSize    int   `json:"pageSize"`
	TotalPages  int   `json:"totalPages"`
	HasPrevious bool  `json:"hasPrevious"`
	HasNext     bool  `json:"hasNext"`
}

// NewPageResult assembles paging metadata; totalPages = ceil(total/pageSize).
func NewPageResult[D any](items []D, total int64, pageNumber, pageSize int) PageResult[D] {
	totalPages := int(math.Ceil(float64(total) / float64(pageSize)))
	return PageResult[D]{
		Items:       items,
		TotalCount:  total,
		PageNumber:  pageNumber,
		PageSize:    pageSize,
		TotalPages:  totalPages,
		HasPrevious: pageNumber > 1,
		HasNext:     pageNumber < totalPages,
	}
}
