package postgres

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/repository"
	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/pagination"
)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock
}

func strPtr(s string) *string { return &s }
func int64Ptr(n int64) *int64 { return &n }

var now = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

var (
	userCols                = []string{"user_id", "first_name", "last_name", "email", "password_hash", "created_at"}
	categoryCols            = []string{"category_id", "category_name", "description", "upload_date"}
	productCols             = []string{"product_id", "product_name", "mrp_price", "discount_price", "quantity", "category_id", "created_at"}
	productWithCategoryCols = append(append([]string{}, productCols...), "category_name")
)

// ─── UserRepository ─────────────────────────────────────────────────────────

func TestUserRepository_Create(t *testing.T) {
	mock := newMock(t)
	repo := NewUserRepository(mock)

	u := &domain.User{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com", PasswordHash: "hash"}
	mock.ExpectQuery("INSERT INTO users").
		WithArgs("Ada", "Lovelace", "ada@example.com", "hash").
		WillReturnRows(pgxmock.NewRows([]string{"user_id", "created_at"}).AddRow(int64(7), now))

	require.NoError(t, repo.Create(context.Background(), u))
	assert.Equal(t, int64(7), u.ID)
	assert.Equal(t, now, u.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_Create_DuplicateEmail(t *testing.T) {
	mock := newMock(t)
	repo := NewUserRepository(mock)

	mock.ExpectQuery("INSERT INTO users").
		WithArgs("Ada", "Lovelace", "ada@example.com", "hash").
		WillReturnError(&pgconn.PgError{Code: uniqueViolation})

	err := repo.Create(context.Background(), &domain.User{
		FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com", PasswordHash: "hash",
	})
	assert.ErrorIs(t, err, apperrors.ErrAlreadyExists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_GetByEmail(t *testing.T) {
	mock := newMock(t)
	repo := NewUserRepository(mock)

	mock.ExpectQuery("FROM users WHERE email").
		WithArgs("ada@example.com").
		WillReturnRows(pgxmock.NewRows(userCols).
			AddRow(int64(7), "Ada", "Lovelace", "ada@example.com", "hash", now))

	u, err := repo.GetByEmail(context.Background(), "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, int64(7), u.ID)
	assert.Equal(t, "hash", u.PasswordHash)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_GetByID_NotFound(t *testing.T) {
	mock := newMock(t)
	repo := NewUserRepository(mock)

	mock.ExpectQuery("FROM users WHERE user_id").
		WithArgs(int64(99)).
		WillReturnRows(pgxmock.NewRows(userCols))

	_, err := repo.GetByID(context.Background(), 99)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ─── CategoryRepository ─────────────────────────────────────────────────────

func TestCategoryRepository_Create(t *testing.T) {
	mock := newMock(t)
	repo := NewCategoryRepository(mock)

	c := &domain.Category{Name: "Phones", Description: strPtr("Mobile phones")}
	mock.ExpectQuery("INSERT INTO categories").
		WithArgs("Phones", c.Description).
		WillReturnRows(pgxmock.NewRows([]string{"category_id", "upload_date"}).AddRow(int64(2), now))

	require.NoError(t, repo.Create(context.Background(), c))
	assert.Equal(t, int64(2), c.ID)
	assert.Equal(t, now, c.UploadDate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCategoryRepository_List(t *testing.T) {
	mock := newMock(t)
	repo := NewCategoryRepository(mock)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM categories")).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(11))
	mock.ExpectQuery("FROM categories ORDER BY category_id").
		WithArgs(10, 10).
		WillReturnRows(pgxmock.NewRows(categoryCols).
			AddRow(int64(11), "Books", nil, now))

	categories, total, err := repo.List(context.Background(), pagination.NewParams(2, 10, 10))
	require.NoError(t, err)
	assert.Equal(t, 11, total)
	require.Len(t, categories, 1)
	assert.Equal(t, "Books", categories[0].Name)
	assert.Nil(t, categories[0].Description)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCategoryRepository_Update_NotFound(t *testing.T) {
	mock := newMock(t)
	repo := NewCategoryRepository(mock)

	mock.ExpectQuery("UPDATE categories").
		WithArgs("Phones", pgxmock.AnyArg(), int64(5)).
		WillReturnRows(pgxmock.NewRows([]string{"upload_date"}))

	err := repo.Update(context.Background(), &domain.Category{ID: 5, Name: "Phones"})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCategoryRepository_Delete(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(pgxmock.PgxPoolIface)
		wantErr error
	}{
		{
			name: "deleted",
			setup: func(m pgxmock.PgxPoolIface) {
				m.ExpectExec("DELETE FROM categories").WithArgs(int64(3)).
					WillReturnResult(pgxmock.NewResult("DELETE", 1))
			},
		},
		{
			name: "missing",
			setup: func(m pgxmock.PgxPoolIface) {
				m.ExpectExec("DELETE FROM categories").WithArgs(int64(3)).
					WillReturnResult(pgxmock.NewResult("DELETE", 0))
			},
			wantErr: apperrors.ErrNotFound,
		},
		{
			name: "still has products",
			setup: func(m pgxmock.PgxPoolIface) {
				m.ExpectExec("DELETE FROM categories").WithArgs(int64(3)).
					WillReturnError(&pgconn.PgError{Code: foreignKeyViolation})
			},
			wantErr: apperrors.ErrConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := newMock(t)
			tt.setup(mock)

			err := NewCategoryRepository(mock).Delete(context.Background(), 3)
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

// ─── ProductRepository ──────────────────────────────────────────────────────

func TestProductRepository_Create(t *testing.T) {
	mock := newMock(t)
	repo := NewProductRepository(mock)

	p := &domain.Product{
		Name:          "Galaxy S1",
		MRPPrice:      decimal.RequireFromString("699.00"),
		DiscountPrice: decimal.NewNullDecimal(decimal.RequireFromString("649.5")),
		Quantity:      4,
		CategoryID:    2,
	}
	mock.ExpectQuery("INSERT INTO products").
		WithArgs("Galaxy S1", "699", strPtr("649.5"), 4, int64(2)).
		WillReturnRows(pgxmock.NewRows([]string{"product_id", "created_at"}).AddRow(int64(12), now))

	require.NoError(t, repo.Create(context.Background(), p))
	assert.Equal(t, int64(12), p.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_Create_UnknownCategory(t *testing.T) {
	mock := newMock(t)
	repo := NewProductRepository(mock)

	mock.ExpectQuery("INSERT INTO products").
		WithArgs("Ghost", "1", pgxmock.AnyArg(), 0, int64(404)).
		WillReturnError(&pgconn.PgError{Code: foreignKeyViolation})

	err := repo.Create(context.Background(), &domain.Product{
		Name: "Ghost", MRPPrice: decimal.NewFromInt(1), CategoryID: 404,
	})
	require.ErrorIs(t, err, apperrors.ErrInvalidInput)
	assert.Contains(t, err.Error(), "invalid category_id")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_GetByID(t *testing.T) {
	mock := newMock(t)
	repo := NewProductRepository(mock)

	mock.ExpectQuery("FROM products p WHERE p.product_id").
		WithArgs(int64(12)).
		WillReturnRows(pgxmock.NewRows(productCols).
			AddRow(int64(12), "Galaxy S1", "699.00", nil, 4, int64(2), now))

	p, err := repo.GetByID(context.Background(), 12)
	require.NoError(t, err)
	assert.True(t, p.MRPPrice.Equal(decimal.NewFromInt(699)))
	assert.False(t, p.DiscountPrice.Valid)
	assert.Equal(t, 4, p.Quantity)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_GetByID_NotFound(t *testing.T) {
	mock := newMock(t)
	repo := NewProductRepository(mock)

	mock.ExpectQuery("FROM products p WHERE p.product_id").
		WithArgs(int64(1)).
		WillReturnRows(pgxmock.NewRows(productCols))

	_, err := repo.GetByID(context.Background(), 1)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestProductRepository_GetWithCategory(t *testing.T) {
	mock := newMock(t)
	repo := NewProductRepository(mock)

	mock.ExpectQuery("JOIN categories c").
		WithArgs(int64(12)).
		WillReturnRows(pgxmock.NewRows(productWithCategoryCols).
			AddRow(int64(12), "Galaxy S1", "699.00", strPtr("649.00"), 4, int64(2), now, "Phones"))

	p, err := repo.GetWithCategory(context.Background(), 12)
	require.NoError(t, err)
	assert.Equal(t, "Phones", p.CategoryName)
	require.True(t, p.DiscountPrice.Valid)
	assert.True(t, p.DiscountPrice.Decimal.Equal(decimal.NewFromInt(649)))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_List_ByCategory(t *testing.T) {
	mock := newMock(t)
	repo := NewProductRepository(mock)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM products p WHERE p.category_id = $1")).
		WithArgs(int64(2)).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery("WHERE p.category_id = \\$1 ORDER BY p.product_id LIMIT \\$2 OFFSET \\$3").
		WithArgs(int64(2), 12, 0).
		WillReturnRows(pgxmock.NewRows(productCols).
			AddRow(int64(12), "Galaxy S1", "699.00", nil, 4, int64(2), now))

	products, total, err := repo.List(context.Background(), repository.ProductFilter{
		CategoryID: int64Ptr(2),
		Page:       pagination.NewParams(1, 0, 12),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, products, 1)
	assert.Equal(t, int64(12), products[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_Update_NotFound(t *testing.T) {
	mock := newMock(t)
	repo := NewProductRepository(mock)

	mock.ExpectQuery("UPDATE products").
		WithArgs("Renamed", "10", pgxmock.AnyArg(), 0, int64(2), int64(77)).
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}))

	err := repo.Update(context.Background(), &domain.Product{
		ID: 77, Name: "Renamed", MRPPrice: decimal.NewFromInt(10), CategoryID: 2,
	})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_Delete_NotFound(t *testing.T) {
	mock := newMock(t)
	repo := NewProductRepository(mock)

	mock.ExpectExec("DELETE FROM products").
		WithArgs(int64(77)).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	assert.ErrorIs(t, repo.Delete(context.Background(), 77), apperrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_SearchByName_EscapesWildcards(t *testing.T) {
	mock := newMock(t)
	repo := NewProductRepository(mock)

	mock.ExpectQuery("LIKE \\$1 ESCAPE '!'").
		WithArgs("%50!% off%").
		WillReturnRows(pgxmock.NewRows(productWithCategoryCols))

	results, err := repo.SearchByName(context.Background(), "50% OFF")
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_ListAfter(t *testing.T) {
	mock := newMock(t)
	repo := NewProductRepository(mock)

	mock.ExpectQuery("WHERE p.product_id > \\$1").
		WithArgs(int64(500), 500).
		WillReturnRows(pgxmock.NewRows(productWithCategoryCols).
			AddRow(int64(501), "Kettle", "20", nil, 1, int64(3), now, "Kitchen").
			AddRow(int64(502), "Toaster", "35.5", nil, 0, int64(3), now, "Kitchen"))

	batch, err := repo.ListAfter(context.Background(), 500, 500)
	require.NoError(t, err)
	require.Len(t, batch, 2)
	assert.Equal(t, int64(502), batch[1].ID)
	assert.Equal(t, "Kitchen", batch[1].CategoryName)
	assert.True(t, batch[1].MRPPrice.Equal(decimal.RequireFromString("35.5")))
	assert.NoError(t, mock.ExpectationsWereMet())
}
