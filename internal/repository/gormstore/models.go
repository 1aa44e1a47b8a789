package gormstore

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/utafrali/storefront/internal/domain"
)

// userModel maps the users table.
type userModel struct {
	ID           int64     `gorm:"column:user_id;primaryKey;autoIncrement"`
	FirstName    string    `gorm:"column:first_name;size:100;not null"`
	LastName     string    `gorm:"column:last_name;size:100;not null"`
	Email        string    `gorm:"column:email;size:255;not null;uniqueIndex"`
	PasswordHash string    `gorm:"column:password_hash;size:255;not null"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (userModel) TableName() string { return "users" }

func (m *userModel) toDomain() *domain.User {
	return &domain.User{
		ID:           m.ID,
		FirstName:    m.FirstName,
		LastName:     m.LastName,
		Email:        m.Email,
		PasswordHash: m.PasswordHash,
		CreatedAt:    m.CreatedAt,
	}
}

// categoryModel maps the categories table. Products exists only so that
// AutoMigrate creates the restricting foreign key.
type categoryModel struct {
	ID          int64          `gorm:"column:category_id;primaryKey;autoIncrement"`
	Name        string         `gorm:"column:category_name;size:100;not null"`
	Description *string        `gorm:"column:description;type:text"`
	UploadDate  time.Time      `gorm:"column:upload_date;autoCreateTime"`
	Products    []productModel `gorm:"foreignKey:CategoryID;references:ID;constraint:OnDelete:RESTRICT"`
}

func (categoryModel) TableName() string { return "categories" }

func (m *categoryModel) toDomain() domain.Category {
	return domain.Category{
		ID:          m.ID,
		Name:        m.Name,
		Description: m.Description,
		UploadDate:  m.UploadDate,
	}
}

// productModel maps the products table.
type productModel struct {
	ID            int64               `gorm:"column:product_id;primaryKey;autoIncrement"`
	Name          string              `gorm:"column:product_name;size:200;not null"`
	MRPPrice      decimal.Decimal     `gorm:"column:mrp_price;type:decimal(12,2);not null"`
	DiscountPrice decimal.NullDecimal `gorm:"column:discount_price;type:decimal(12,2)"`
	Quantity      int                 `gorm:"column:quantity;not null"`
	CategoryID    int64               `gorm:"column:category_id;not null;index"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime"`
}

func (productModel) TableName() string { return "products" }

func newProductModel(p *domain.Product) *productModel {
	return &productModel{
		ID:            p.ID,
		Name:          p.Name,
		MRPPrice:      p.MRPPrice,
		DiscountPrice: p.DiscountPrice,
		Quantity:      p.Quantity,
		CategoryID:    p.CategoryID,
		CreatedAt:     p.CreatedAt,
	}
}

func (m *productModel) toDomain() domain.Product {
	return domain.Product{
		ID:            m.ID,
		Name:          m.Name,
		MRPPrice:      m.MRPPrice,
		DiscountPrice: m.DiscountPrice,
		Quantity:      m.Quantity,
		CategoryID:    m.CategoryID,
		CreatedAt:     m.CreatedAt,
	}
}

// productRow is a product joined with its category name.
type productRow struct {
	productModel
	CategoryName string `gorm:"column:category_name"`
}

func (r *productRow) toDomain() domain.ProductWithCategory {
	return domain.ProductWithCategory{Product: r.productModel.toDomain(), CategoryName: r.CategoryName}
}
