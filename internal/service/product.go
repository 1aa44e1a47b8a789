package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/repository"
	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/pagination"
)

// DefaultProductPageSize is the page size of product listings.
const DefaultProductPageSize = 12

// ProductEvents publishes product changes. *event.Producer implements it.
type ProductEvents interface {
	ProductCreated(ctx context.Context, p *domain.Product) error
	ProductUpdated(ctx context.Context, p *domain.Product) error
	ProductDeleted(ctx context.Context, id int64) error
}

// ProductService implements the business logic for products. Every write
// is mirrored into the search index and, when events are configured,
// published for the index consumer.
type ProductService struct {
	products   repository.ProductRepository
	categories repository.CategoryRepository
	indexer    *Indexer
	events     ProductEvents
	logger     *slog.Logger
}

// NewProductService creates a new product service. events may be nil.
func NewProductService(
	products repository.ProductRepository,
	categories repository.CategoryRepository,
	indexer *Indexer,
	events ProductEvents,
	logger *slog.Logger,
) *ProductService {
	return &ProductService{
		products:   products,
		categories: categories,
		indexer:    indexer,
		events:     events,
		logger:     logger,
	}
}

// List returns one page of all products in ascending id order.
func (s *ProductService) List(ctx context.Context, page pagination.Params) ([]domain.Product, int, error) {
	products, total, err := s.products.List(ctx, repository.ProductFilter{Page: page})
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	return products, total, nil
}

// ListByCategory returns one page of a category's products. An unknown
// category is a not-found error, not an empty page.
func (s *ProductService) ListByCategory(ctx context.Context, categoryID int64, page pagination.Params) ([]domain.Product, int, error) {
	if _, err := s.categories.GetByID(ctx, categoryID); err != nil {
		return nil, 0, fmt.Errorf("get category: %w", err)
	}

	products, total, err := s.products.List(ctx, repository.ProductFilter{CategoryID: &categoryID, Page: page})
	if err != nil {
		return nil, 0, fmt.Errorf("list products by category: %w", err)
	}
	return products, total, nil
}

// Get returns one product.
func (s *ProductService) Get(ctx context.Context, id int64) (*domain.Product, error) {
	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	return product, nil
}

// Create inserts a product and indexes it. Indexing and publishing are
// best-effort; the product is created even when both fail.
func (s *ProductService) Create(ctx context.Context, in domain.ProductInput) (*domain.Product, error) {
	if in.DiscountExceedsMRP() {
		return nil, apperrors.InvalidInput("discount_price must not exceed mrp_price")
	}

	product := &domain.Product{}
	in.Apply(product)
	if err := s.products.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}

	s.indexer.IndexProduct(ctx, product)
	if s.events != nil {
		if err := s.events.ProductCreated(ctx, product); err != nil {
			s.logPublishError(ctx, "product.created", product.ID, err)
		}
	}

	s.logger.InfoContext(ctx, "product created",
		slog.Int64("product_id", product.ID),
		slog.Int64("category_id", product.CategoryID),
	)
	return product, nil
}

// Update replaces a product and re-indexes it.
func (s *ProductService) Update(ctx context.Context, id int64, in domain.ProductInput) (*domain.Product, error) {
	if in.DiscountExceedsMRP() {
		return nil, apperrors.InvalidInput("discount_price must not exceed mrp_price")
	}

	product := &domain.Product{ID: id}
	in.Apply(product)
	if err := s.products.Update(ctx, product); err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}

	s.indexer.IndexProduct(ctx, product)
	if s.events != nil {
		if err := s.events.ProductUpdated(ctx, product); err != nil {
			s.logPublishError(ctx, "product.updated", product.ID, err)
		}
	}

	s.logger.InfoContext(ctx, "product updated", slog.Int64("product_id", id))
	return product, nil
}

// Delete removes a product and its search document.
func (s *ProductService) Delete(ctx context.Context, id int64) error {
	if err := s.products.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete product: %w", err)
	}

	s.indexer.UnindexProduct(ctx, id)
	if s.events != nil {
		if err := s.events.ProductDeleted(ctx, id); err != nil {
			s.logPublishError(ctx, "product.deleted", id, err)
		}
	}

	s.logger.InfoContext(ctx, "product deleted", slog.Int64("product_id", id))
	return nil
}

func (s *ProductService) logPublishError(ctx context.Context, eventType string, id int64, err error) {
	s.logger.ErrorContext(ctx, "failed to publish "+eventType+" event",
		slog.Int64("product_id", id),
		slog.String("error", err.Error()),
	)
}
