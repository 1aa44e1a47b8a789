package gormstore

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/utafrali/storefront/internal/domain"
	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/pagination"
)

// CategoryRepository implements repository.CategoryRepository using gorm.
type CategoryRepository struct {
	db *gorm.DB
}

// NewCategoryRepository creates a new gorm-backed category repository.
func NewCategoryRepository(db *gorm.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

func (r *CategoryRepository) Create(ctx context.Context, c *domain.Category) error {
	m := &categoryModel{Name: c.Name, Description: c.Description}
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return fmt.Errorf("insert category: %w", err)
	}
	c.ID, c.UploadDate = m.ID, m.UploadDate
	return nil
}

func (r *CategoryRepository) GetByID(ctx context.Context, id int64) (*domain.Category, error) {
	var m categoryModel
	if err := r.db.WithContext(ctx).First(&m, "category_id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("category", id)
		}
		return nil, fmt.Errorf("query category: %w", err)
	}
	c := m.toDomain()
	return &c, nil
}

func (r *CategoryRepository) List(ctx context.Context, page pagination.Params) ([]domain.Category, int, error) {
	db := r.db.WithContext(ctx)

	var total int64
	if err := db.Model(&categoryModel{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count categories: %w", err)
	}

	var models []categoryModel
	if err := db.Order("category_id").Limit(page.Limit).Offset(page.Offset).Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("list categories: %w", err)
	}

	categories := make([]domain.Category, 0, len(models))
	for i := range models {
		categories = append(categories, models[i].toDomain())
	}
	return categories, int(total), nil
}

// Update replaces the name and description. The row is loaded first since
// MySQL reports zero affected rows for an update that changes nothing.
func (r *CategoryRepository) Update(ctx context.Context, c *domain.Category) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var m categoryModel
		if err := tx.First(&m, "category_id = ?", c.ID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NotFound("category", c.ID)
			}
			return fmt.Errorf("query category: %w", err)
		}

		err := tx.Model(&m).Select("category_name", "description").
			Updates(categoryModel{Name: c.Name, Description: c.Description}).Error
		if err != nil {
			return fmt.Errorf("update category: %w", err)
		}
		c.UploadDate = m.UploadDate
		return nil
	})
}

// Delete removes a category that owns no products.
func (r *CategoryRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ok, err := categoryExists(tx, id)
		if err != nil {
			return err
		}
		if !ok {
			return apperrors.NotFound("category", id)
		}

		var products int64
		if err := tx.Model(&productModel{}).Where("category_id = ?", id).Count(&products).Error; err != nil {
			return fmt.Errorf("count category products: %w", err)
		}
		if products > 0 {
			return apperrors.Conflict("category still has products")
		}

		if err := tx.Delete(&categoryModel{}, "category_id = ?", id).Error; err != nil {
			return fmt.Errorf("delete category: %w", err)
		}
		return nil
	})
}
