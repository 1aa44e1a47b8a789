package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/repository"
	"github.com/utafrali/storefront/pkg/pagination"
)

// DefaultCategoryPageSize is the page size of category listings.
const DefaultCategoryPageSize = 10

// CategoryService implements the business logic for categories.
type CategoryService struct {
	categories repository.CategoryRepository
	products   repository.ProductRepository
	logger     *slog.Logger
}

// NewCategoryService creates a new category service.
func NewCategoryService(categories repository.CategoryRepository, products repository.ProductRepository, logger *slog.Logger) *CategoryService {
	return &CategoryService{
		categories: categories,
		products:   products,
		logger:     logger,
	}
}

// List returns one page of categories in ascending id order.
func (s *CategoryService) List(ctx context.Context, page pagination.Params) ([]domain.Category, int, error) {
	categories, total, err := s.categories.List(ctx, page)
	if err != nil {
		return nil, 0, fmt.Errorf("list categories: %w", err)
	}
	return categories, total, nil
}

// Get returns a category with all of its products.
func (s *CategoryService) Get(ctx context.Context, id int64) (*domain.CategoryDetail, error) {
	category, err := s.categories.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get category: %w", err)
	}

	products := []domain.Product{}
	filter := repository.ProductFilter{CategoryID: &id}
	for page := 1; ; page++ {
		filter.Page = pagination.NewParams(page, pagination.MaxLimit, pagination.MaxLimit)
		batch, total, err := s.products.List(ctx, filter)
		if err != nil {
			return nil, fmt.Errorf("list category products: %w", err)
		}
		products = append(products, batch...)
		if len(batch) == 0 || len(products) >= total {
			break
		}
	}

	return &domain.CategoryDetail{Category: category, Products: products}, nil
}

// Create inserts a category.
func (s *CategoryService) Create(ctx context.Context, in domain.CategoryInput) (*domain.Category, error) {
	category := &domain.Category{Name: in.Name, Description: in.Description}
	if err := s.categories.Create(ctx, category); err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}

	s.logger.InfoContext(ctx, "category created", slog.Int64("category_id", category.ID))
	return category, nil
}

// Update replaces a category's name and description.
func (s *CategoryService) Update(ctx context.Context, id int64, in domain.CategoryInput) (*domain.Category, error) {
	category := &domain.Category{ID: id, Name: in.Name, Description: in.Description}
	if err := s.categories.Update(ctx, category); err != nil {
		return nil, fmt.Errorf("update category: %w", err)
	}

	s.logger.InfoContext(ctx, "category updated", slog.Int64("category_id", id))
	return category, nil
}

// Delete removes a category that no longer owns products.
func (s *CategoryService) Delete(ctx context.Context, id int64) error {
	if err := s.categories.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete category: %w", err)
	}

	s.logger.InfoContext(ctx, "category deleted", slog.Int64("category_id", id))
	return nil
}
