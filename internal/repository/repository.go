package repository

import (
	"context"
	"strings"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/pkg/pagination"
)

// LikeEscape is the escape character used in LIKE patterns built by
// ContainsPattern. It is not a backslash so the same SQL works on
// PostgreSQL, MySQL and SQLite.
const LikeEscape = "!"

// ContainsPattern returns a lower-cased LIKE pattern matching term as a
// literal substring. Wildcards in term are escaped with LikeEscape.
func ContainsPattern(term string) string {
	r := strings.NewReplacer(LikeEscape, LikeEscape+LikeEscape, "%", LikeEscape+"%", "_", LikeEscape+"_")
	return "%" + r.Replace(strings.ToLower(term)) + "%"
}

// ProductFilter defines filter criteria for listing products.
type ProductFilter struct {
	CategoryID *int64
	Page       pagination.Params
}

// UserRepository defines persistence operations for users.
type UserRepository interface {
	// Create inserts the user and fills in its id and creation time. A
	// duplicate email yields an apperrors.ErrAlreadyExists error.
	Create(ctx context.Context, user *domain.User) error

	GetByID(ctx context.Context, id int64) (*domain.User, error)

	// GetByEmail looks the user up by normalized email.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

// CategoryRepository defines persistence operations for categories.
type CategoryRepository interface {
	Create(ctx context.Context, category *domain.Category) error
	GetByID(ctx context.Context, id int64) (*domain.Category, error)

	// List returns one page of categories ordered by id, with the total count.
	List(ctx context.Context, page pagination.Params) ([]domain.Category, int, error)

	Update(ctx context.Context, category *domain.Category) error

	// Delete removes a category. It fails with apperrors.ErrConflict while
	// products still reference it.
	Delete(ctx context.Context, id int64) error
}

// ProductRepository defines persistence operations for products.
type ProductRepository interface {
	// Create inserts the product and fills in its id and creation time. An
	// unknown category yields an apperrors.ErrInvalidInput error.
	Create(ctx context.Context, product *domain.Product) error

	GetByID(ctx context.Context, id int64) (*domain.Product, error)

	// GetWithCategory returns the product joined with its category name.
	GetWithCategory(ctx context.Context, id int64) (*domain.ProductWithCategory, error)

	// List returns one page of products ordered by id, with the total count.
	List(ctx context.Context, filter ProductFilter) ([]domain.Product, int, error)

	Update(ctx context.Context, product *domain.Product) error
	Delete(ctx context.Context, id int64) error

	// SearchByName returns products whose name or category name contains
	// term, case-insensitively, ordered by id.
	SearchByName(ctx context.Context, term string) ([]domain.ProductWithCategory, error)

	// ListAfter returns up to limit products with an id greater than afterID,
	// joined with their category names and ordered by id. It is used to walk
	// the whole table in batches.
	ListAfter(ctx context.Context, afterID int64, limit int) ([]domain.ProductWithCategory, error)
}

// Repositories groups the repositories of one record store.
type Repositories struct {
	Users      UserRepository
	Categories CategoryRepository
	Products   ProductRepository

	// Ping reports whether the store is reachable.
	Ping func(ctx context.Context) error
	// Close releases the store's connections.
	Close func()
}
