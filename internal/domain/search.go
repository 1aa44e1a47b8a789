package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Mode selects how a search query is executed.
type Mode string

const (
	// ModeExact is a case-insensitive substring match in the record store.
	ModeExact Mode = "exact"
	// ModeFuzzy is a typo-tolerant full-text query against the search index.
	ModeFuzzy Mode = "fuzzy"
	// ModeAuto picks exact for very short queries and fuzzy otherwise.
	ModeAuto Mode = "auto"
)

// ParseMode maps a query parameter to a Mode; empty means ModeAuto.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return ModeAuto, nil
	case ModeExact, ModeFuzzy, ModeAuto:
		return m, nil
	default:
		return "", fmt.Errorf("unknown search mode %q", s)
	}
}

// SearchResult is the normalized product row returned by both search modes.
// Fields missing from the backend are zero.
type SearchResult struct {
	ProductID     string          `json:"product_id"`
	ProductName   string          `json:"product_name"`
	CategoryName  string          `json:"category_name"`
	MRPPrice      decimal.Decimal `json:"mrp_price"`
	DiscountPrice decimal.Decimal `json:"discount_price"`
	Quantity      int             `json:"quantity"`
}

// SearchResponse is the body of a successful search.
type SearchResponse struct {
	Mode    Mode           `json:"mode"`
	Query   string         `json:"query"`
	Count   int            `json:"count"`
	Results []SearchResult `json:"results"`
}

// IndexDocument is the search index representation of a product.
type IndexDocument struct {
	ProductID     int64               `json:"product_id"`
	ProductName   string              `json:"product_name"`
	CategoryID    int64               `json:"category_id"`
	CategoryName  string              `json:"category_name"`
	MRPPrice      decimal.Decimal     `json:"mrp_price"`
	DiscountPrice decimal.NullDecimal `json:"discount_price"`
	Quantity      int                 `json:"quantity"`
}

// DocumentID returns the index key for a product id.
func DocumentID(productID int64) string {
	return strconv.FormatInt(productID, 10)
}

// ID returns the document's index key.
func (d IndexDocument) ID() string {
	return DocumentID(d.ProductID)
}

// NewIndexDocument builds the document for a product row.
func NewIndexDocument(p ProductWithCategory) IndexDocument {
	return IndexDocument{
		ProductID:     p.ID,
		ProductName:   p.Name,
		CategoryID:    p.CategoryID,
		CategoryName:  p.CategoryName,
		MRPPrice:      p.MRPPrice,
		DiscountPrice: p.DiscountPrice,
		Quantity:      p.Quantity,
	}
}

// Result normalizes an index hit. id is the hit's document id, which is
// authoritative over the product_id stored in the body.
func (d IndexDocument) Result(id string) SearchResult {
	return SearchResult{
		ProductID:     id,
		ProductName:   d.ProductName,
		CategoryName:  d.CategoryName,
		MRPPrice:      d.MRPPrice,
		DiscountPrice: d.DiscountPrice.Decimal,
		Quantity:      d.Quantity,
	}
}

// Result normalizes a record store row.
func (p ProductWithCategory) Result() SearchResult {
	return SearchResult{
		ProductID:     DocumentID(p.ID),
		ProductName:   p.Name,
		CategoryName:  p.CategoryName,
		MRPPrice:      p.MRPPrice,
		DiscountPrice: p.DiscountPrice.Decimal,
		Quantity:      p.Quantity,
	}
}

// ReindexReport summarizes a bulk reindex.
type ReindexReport struct {
	Indexed  int           `json:"indexed"`
	Batches  int           `json:"batches"`
	Pruned   int           `json:"pruned"`
	Duration time.Duration `json:"-"`
	Took     string        `json:"duration"`
}
