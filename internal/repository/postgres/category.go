package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/pkg/database"
	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/pagination"
)

const categoryColumns = `category_id, category_name, description, upload_date`

// CategoryRepository implements repository.CategoryRepository using PostgreSQL.
type CategoryRepository struct {
	pool database.DBTX
}

// NewCategoryRepository creates a new PostgreSQL-backed category repository.
func NewCategoryRepository(pool database.DBTX) *CategoryRepository {
	return &CategoryRepository{pool: pool}
}

// Create inserts a new category and sets its id and upload date.
func (r *CategoryRepository) Create(ctx context.Context, c *domain.Category) (err error) {
	query := `
		INSERT INTO categories (category_name, description)
		VALUES ($1, $2)
		RETURNING category_id, upload_date`

	ctx, end := database.TraceQuery(ctx, "CreateCategory", query)
	defer func() { end(err) }()

	if err = r.pool.QueryRow(ctx, query, c.Name, c.Description).Scan(&c.ID, &c.UploadDate); err != nil {
		return fmt.Errorf("insert category: %w", err)
	}
	return nil
}

// GetByID retrieves a category by id.
func (r *CategoryRepository) GetByID(ctx context.Context, id int64) (_ *domain.Category, err error) {
	query := `SELECT ` + categoryColumns + ` FROM categories WHERE category_id = $1`

	ctx, end := database.TraceQuery(ctx, "GetCategoryByID", query)
	defer func() { end(err) }()

	var c domain.Category
	if err = scanCategory(r.pool.QueryRow(ctx, query, id), &c); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("category", id)
		}
		return nil, fmt.Errorf("query category: %w", err)
	}
	return &c, nil
}

// List returns one page of categories in ascending id order.
func (r *CategoryRepository) List(ctx context.Context, page pagination.Params) (_ []domain.Category, _ int, err error) {
	query := `SELECT ` + categoryColumns + ` FROM categories ORDER BY category_id LIMIT $1 OFFSET $2`

	ctx, end := database.TraceQuery(ctx, "ListCategories", query)
	defer func() { end(err) }()

	var total int
	if err = r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM categories`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count categories: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, page.Limit, page.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	categories := []domain.Category{}
	for rows.Next() {
		var c domain.Category
		if err = scanCategory(rows, &c); err != nil {
			return nil, 0, fmt.Errorf("scan category row: %w", err)
		}
		categories = append(categories, c)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate category rows: %w", err)
	}

	return categories, total, nil
}

// Update replaces a category's name and description.
func (r *CategoryRepository) Update(ctx context.Context, c *domain.Category) (err error) {
	query := `
		UPDATE categories
		SET category_name = $1, description = $2
		WHERE category_id = $3
		RETURNING upload_date`

	ctx, end := database.TraceQuery(ctx, "UpdateCategory", query)
	defer func() { end(err) }()

	if err = r.pool.QueryRow(ctx, query, c.Name, c.Description, c.ID).Scan(&c.UploadDate); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NotFound("category", c.ID)
		}
		return fmt.Errorf("update category: %w", err)
	}
	return nil
}

// Delete removes a category. The products foreign key is ON DELETE RESTRICT,
// so a category that still owns products is reported as a conflict.
func (r *CategoryRepository) Delete(ctx context.Context, id int64) (err error) {
	query := `DELETE FROM categories WHERE category_id = $1`

	ctx, end := database.TraceQuery(ctx, "DeleteCategory", query)
	defer func() { end(err) }()

	ct, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return apperrors.Conflict("category still has products")
		}
		return fmt.Errorf("delete category: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("category", id)
	}
	return nil
}

func scanCategory(row pgx.Row, c *domain.Category) error {
	return row.Scan(&c.ID, &c.Name, &c.Description, &c.UploadDate)
}
