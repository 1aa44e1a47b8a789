package gormstore

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/repository"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

// ProductRepository implements repository.ProductRepository using gorm.
type ProductRepository struct {
	db *gorm.DB
}

// NewProductRepository creates a new gorm-backed product repository.
func NewProductRepository(db *gorm.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

func (r *ProductRepository) Create(ctx context.Context, p *domain.Product) error {
	m := newProductModel(p)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ok, err := categoryExists(tx, p.CategoryID)
		if err != nil {
			return err
		}
		if !ok {
			return apperrors.InvalidInput("invalid category_id")
		}
		return tx.Create(m).Error
	})
	if err != nil {
		return wrapUnlessApp(err, "insert product")
	}
	p.ID, p.CreatedAt = m.ID, m.CreatedAt
	return nil
}

func (r *ProductRepository) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	var m productModel
	if err := r.db.WithContext(ctx).First(&m, "product_id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("product", id)
		}
		return nil, fmt.Errorf("query product: %w", err)
	}
	p := m.toDomain()
	return &p, nil
}

func (r *ProductRepository) GetWithCategory(ctx context.Context, id int64) (*domain.ProductWithCategory, error) {
	var rows []productRow
	if err := r.joined(ctx).Where("p.product_id = ?", id).Limit(1).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("query product with category: %w", err)
	}
	if len(rows) == 0 {
		return nil, apperrors.NotFound("product", id)
	}
	p := rows[0].toDomain()
	return &p, nil
}

func (r *ProductRepository) List(ctx context.Context, filter repository.ProductFilter) ([]domain.Product, int, error) {
	scoped := func() *gorm.DB {
		q := r.db.WithContext(ctx).Model(&productModel{})
		if filter.CategoryID != nil {
			q = q.Where("category_id = ?", *filter.CategoryID)
		}
		return q
	}

	var total int64
	if err := scoped().Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}

	var models []productModel
	if err := scoped().Order("product_id").Limit(filter.Page.Limit).Offset(filter.Page.Offset).Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}

	products := make([]domain.Product, 0, len(models))
	for i := range models {
		products = append(products, models[i].toDomain())
	}
	return products, int(total), nil
}

func (r *ProductRepository) Update(ctx context.Context, p *domain.Product) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing productModel
		if err := tx.First(&existing, "product_id = ?", p.ID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NotFound("product", p.ID)
			}
			return fmt.Errorf("query product: %w", err)
		}

		ok, err := categoryExists(tx, p.CategoryID)
		if err != nil {
			return err
		}
		if !ok {
			return apperrors.InvalidInput("invalid category_id")
		}

		m := newProductModel(p)
		err = tx.Model(&existing).
			Select("product_name", "mrp_price", "discount_price", "quantity", "category_id").
			Updates(m).Error
		if err != nil {
			return fmt.Errorf("update product: %w", err)
		}
		p.CreatedAt = existing.CreatedAt
		return nil
	})
}

func (r *ProductRepository) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(&productModel{}, "product_id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("delete product: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.NotFound("product", id)
	}
	return nil
}

func (r *ProductRepository) SearchByName(ctx context.Context, term string) ([]domain.ProductWithCategory, error) {
	pattern := repository.ContainsPattern(term)
	cond := fmt.Sprintf("LOWER(p.product_name) LIKE ? ESCAPE '%[1]s' OR LOWER(c.category_name) LIKE ? ESCAPE '%[1]s'",
		repository.LikeEscape)

	var rows []productRow
	if err := r.joined(ctx).Where(cond, pattern, pattern).Order("p.product_id").Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("search products: %w", err)
	}
	return toDomainRows(rows), nil
}

func (r *ProductRepository) ListAfter(ctx context.Context, afterID int64, limit int) ([]domain.ProductWithCategory, error) {
	var rows []productRow
	err := r.joined(ctx).Where("p.product_id > ?", afterID).Order("p.product_id").Limit(limit).Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list products after %d: %w", afterID, err)
	}
	return toDomainRows(rows), nil
}

func (r *ProductRepository) joined(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("products AS p").
		Select("p.*, c.category_name").
		Joins("JOIN categories AS c ON c.category_id = p.category_id")
}

func toDomainRows(rows []productRow) []domain.ProductWithCategory {
	if len(rows) == 0 {
		return nil
	}
	out := make([]domain.ProductWithCategory, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toDomain())
	}
	return out
}

func wrapUnlessApp(err error, msg string) error {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return fmt.Errorf("%s: %w", msg, err)
}
