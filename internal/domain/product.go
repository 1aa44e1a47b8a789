package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Prices travel as JSON numbers, not strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// Product is a sellable item. DiscountPrice is optional and, when present,
// never exceeds MRPPrice.
type Product struct {
	ID            int64               `json:"product_id"`
	Name          string              `json:"product_name"`
	MRPPrice      decimal.Decimal     `json:"mrp_price"`
	DiscountPrice decimal.NullDecimal `json:"discount_price"`
	Quantity      int                 `json:"quantity"`
	CategoryID    int64               `json:"category_id"`
	CreatedAt     time.Time           `json:"created_at"`
}

// ProductInput is the body for creating or replacing a product.
type ProductInput struct {
	Name          string           `json:"product_name" validate:"required,max=200"`
	MRPPrice      decimal.Decimal  `json:"mrp_price" validate:"required,gte=0,money"`
	DiscountPrice *decimal.Decimal `json:"discount_price" validate:"omitempty,gte=0,money"`
	Quantity      *int             `json:"quantity" validate:"omitempty,gte=0"`
	CategoryID    int64            `json:"category_id" validate:"required,gt=0"`
}

// Normalize trims the name.
func (in *ProductInput) Normalize() {
	in.Name = strings.TrimSpace(in.Name)
}

// DiscountExceedsMRP reports whether the discount price is above the MRP.
func (in *ProductInput) DiscountExceedsMRP() bool {
	return in.DiscountPrice != nil && in.DiscountPrice.GreaterThan(in.MRPPrice)
}

// Apply copies the input onto p, defaulting quantity to 0 and leaving the
// discount null when absent.
func (in *ProductInput) Apply(p *Product) {
	p.Name = in.Name
	p.MRPPrice = in.MRPPrice
	p.DiscountPrice = decimal.NullDecimal{}
	if in.DiscountPrice != nil {
		p.DiscountPrice = decimal.NewNullDecimal(*in.DiscountPrice)
	}
	p.Quantity = 0
	if in.Quantity != nil {
		p.Quantity = *in.Quantity
	}
	p.CategoryID = in.CategoryID
}

// ProductWithCategory is a product joined with its category name, the row
// shape used by exact search and reindexing.
type ProductWithCategory struct {
	Product
	CategoryName string `json:"category_name"`
}
