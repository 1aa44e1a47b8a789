package pagination

import (
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromRequest_Defaults(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/categories", nil)
	p := FromRequest(req, 10)

	assert.Equal(t, Params{Page: 1, Limit: 10, Offset: 0}, p)
}

func TestFromRequest_CustomValues(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/products/all?page=3&limit=12", nil)
	p := FromRequest(req, 12)

	assert.Equal(t, 3, p.Page)
	assert.Equal(t, 12, p.Limit)
	assert.Equal(t, 24, p.Offset)
}

func TestFromRequest_PerPageAlias(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/items?per_page=50", nil)
	assert.Equal(t, 50, FromRequest(req, 10).Limit)

	req = httptest.NewRequest(http.MethodGet, "/items?per_page=50&limit=5", nil)
	assert.Equal(t, 5, FromRequest(req, 10).Limit, "limit wins over per_page")
}

func TestFromRequest_InvalidValuesFallBack(t *testing.T) {
	tests := []string{
		"/items?page=-1&limit=-5",
		"/items?page=0&limit=0",
		"/items?page=abc&limit=xyz",
		"/items?limit=101",
	}
	for _, url := range tests {
		p := FromRequest(httptest.NewRequest(http.MethodGet, url, nil), 10)
		assert.Equal(t, 1, p.Page, url)
		assert.Equal(t, 10, p.Limit, url)
	}
}

func TestNewParams_Offset(t *testing.T) {
	tests := []struct {
		page, limit, offset int
	}{
		{1, 10, 0},
		{2, 10, 10},
		{3, 25, 50},
		{5, 20, 80},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.offset, NewParams(tt.page, tt.limit, 10).Offset)
	}
}

func TestNewResult(t *testing.T) {
	t.Run("single page", func(t *testing.T) {
		r := NewResult([]string{"a", "b", "c"}, 3, NewParams(1, 10, 10))
		assert.Equal(t, 1, r.TotalPages)
		assert.False(t, r.HasNext)
		assert.False(t, r.HasPrev)
	})

	t.Run("middle page", func(t *testing.T) {
		r := NewResult([]string{"a", "b"}, 10, NewParams(2, 2, 10))
		assert.Equal(t, 5, r.TotalPages)
		assert.True(t, r.HasNext)
		assert.True(t, r.HasPrev)
	})

	t.Run("last partial page", func(t *testing.T) {
		r := NewResult([]string{"a"}, 11, NewParams(3, 5, 10))
		assert.Equal(t, 3, r.TotalPages)
		assert.False(t, r.HasNext)
	})

	t.Run("nil data renders empty", func(t *testing.T) {
		r := NewResult[string](nil, 0, NewParams(1, 20, 20))
		assert.NotNil(t, r.Data)
		assert.Empty(t, r.Data)
		assert.Equal(t, 0, r.TotalPages)
	})
}

func TestFromRequest_HugePageDoesNotOverflow(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/items?page=9223372036854775807&limit=12", nil)
	p := FromRequest(req, 10)

	assert.Equal(t, 12, p.Limit)
	assert.Equal(t, math.MaxInt/12+1, p.Page)
	assert.GreaterOrEqual(t, p.Offset, 0)
	assert.Equal(t, (p.Page-1)*12, p.Offset)

	for _, limit := range []int{1, 7, MaxLimit} {
		p := NewParams(math.MaxInt, limit, 10)
		assert.GreaterOrEqual(t, p.Offset, 0, "limit %d", limit)
	}
}
