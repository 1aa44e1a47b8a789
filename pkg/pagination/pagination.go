package pagination

import (
	"math"
	"net/http"
	"strconv"
)

// MaxLimit caps the page size a client may request.
const MaxLimit = 100

// Params holds pagination parameters extracted from query strings.
type Params struct {
	Page   int `json:"page"`
	Limit  int `json:"limit"`
	Offset int `json:"-"`
}

// NewParams builds Params for the given page and limit, falling back to
// page 1 and defaultLimit for out-of-range values. Page is capped so the
// offset never overflows.
func NewParams(page, limit, defaultLimit int) Params {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > MaxLimit {
		limit = defaultLimit
	}
	if maxPage := math.MaxInt/limit + 1; page > maxPage {
		page = maxPage
	}
	return Params{Page: page, Limit: limit, Offset: (page - 1) * limit}
}

// FromRequest extracts `page` and `limit` from the query string. `per_page`
// is accepted as an alias of `limit`. Malformed values fall back to defaults.
func FromRequest(r *http.Request, defaultLimit int) Params {
	q := r.URL.Query()
	limit := q.Get("limit")
	if limit == "" {
		limit = q.Get("per_page")
	}
	return NewParams(atoi(q.Get("page")), atoi(limit), defaultLimit)
}

func atoi(s string) int {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return v
}

// Result wraps one page of items.
type Result[T any] struct {
	Data       []T  `json:"data"`
	TotalCount int  `json:"total_count"`
	Page       int  `json:"page"`
	PerPage    int  `json:"per_page"`
	TotalPages int  `json:"total_pages"`
	HasNext    bool `json:"has_next"`
	HasPrev    bool `json:"has_prev"`
}

// NewResult creates a paginated result. A nil page is rendered as an empty list.
func NewResult[T any](data []T, totalCount int, params Params) Result[T] {
	totalPages := totalCount / params.Limit
	if totalCount%params.Limit > 0 {
		totalPages++
	}
	if data == nil {
		data = []T{}
	}

	return Result[T]{
		Data:       data,
		TotalCount: totalCount,
		Page:       params.Page,
		PerPage:    params.Limit,
		TotalPages: totalPages,
		HasNext:    params.Page < totalPages,
		HasPrev:    params.Page > 1,
	}
}
