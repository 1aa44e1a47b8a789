package service

import (
	"context"
	"errors"

	"github.com/stretchr/testify/mock"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/engine"
	"github.com/utafrali/storefront/internal/engine/memory"
	"github.com/utafrali/storefront/internal/repository"
	"github.com/utafrali/storefront/pkg/pagination"
)

// --- Mock Repositories ---

type mockUserRepository struct {
	mock.Mock
}

func (m *mockUserRepository) Create(ctx context.Context, user *domain.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *mockUserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

type mockCategoryRepository struct {
	mock.Mock
}

func (m *mockCategoryRepository) Create(ctx context.Context, category *domain.Category) error {
	return m.Called(ctx, category).Error(0)
}

func (m *mockCategoryRepository) GetByID(ctx context.Context, id int64) (*domain.Category, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Category), args.Error(1)
}

func (m *mockCategoryRepository) List(ctx context.Context, page pagination.Params) ([]domain.Category, int, error) {
	args := m.Called(ctx, page)
	return args.Get(0).([]domain.Category), args.Int(1), args.Error(2)
}

func (m *mockCategoryRepository) Update(ctx context.Context, category *domain.Category) error {
	return m.Called(ctx, category).Error(0)
}

func (m *mockCategoryRepository) Delete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

type mockProductRepository struct {
	mock.Mock
}

func (m *mockProductRepository) Create(ctx context.Context, product *domain.Product) error {
	return m.Called(ctx, product).Error(0)
}

func (m *mockProductRepository) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *mockProductRepository) GetWithCategory(ctx context.Context, id int64) (*domain.ProductWithCategory, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ProductWithCategory), args.Error(1)
}

func (m *mockProductRepository) List(ctx context.Context, filter repository.ProductFilter) ([]domain.Product, int, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.Product), args.Int(1), args.Error(2)
}

func (m *mockProductRepository) Update(ctx context.Context, product *domain.Product) error {
	return m.Called(ctx, product).Error(0)
}

func (m *mockProductRepository) Delete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockProductRepository) SearchByName(ctx context.Context, term string) ([]domain.ProductWithCategory, error) {
	args := m.Called(ctx, term)
	return args.Get(0).([]domain.ProductWithCategory), args.Error(1)
}

func (m *mockProductRepository) ListAfter(ctx context.Context, afterID int64, limit int) ([]domain.ProductWithCategory, error) {
	args := m.Called(ctx, afterID, limit)
	return args.Get(0).([]domain.ProductWithCategory), args.Error(1)
}

// --- Mock Events ---

type mockProductEvents struct {
	mock.Mock
}

func (m *mockProductEvents) ProductCreated(ctx context.Context, p *domain.Product) error {
	return m.Called(ctx, p).Error(0)
}

func (m *mockProductEvents) ProductUpdated(ctx context.Context, p *domain.Product) error {
	return m.Called(ctx, p).Error(0)
}

func (m *mockProductEvents) ProductDeleted(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

// --- Engines ---

var errIndexDown = errors.New("index down")

// brokenEngine is a memory engine whose writes and queries fail.
type brokenEngine struct {
	*memory.Engine
}

func newBrokenEngine() *brokenEngine {
	return &brokenEngine{Engine: memory.New()}
}

func (e *brokenEngine) Index(context.Context, *domain.IndexDocument) error      { return errIndexDown }
func (e *brokenEngine) BulkIndex(context.Context, []domain.IndexDocument) error { return errIndexDown }
func (e *brokenEngine) Delete(context.Context, string) error                    { return errIndexDown }

func (e *brokenEngine) Search(context.Context, engine.Query) ([]engine.Hit, error) {
	return nil, errIndexDown
}
