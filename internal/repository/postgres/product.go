package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/repository"
	"github.com/utafrali/storefront/pkg/database"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

// productColumns is the standard SELECT column list for products aliased as p.
const productColumns = `p.product_id, p.product_name, p.mrp_price::text, p.discount_price::text,
	p.quantity, p.category_id, p.created_at`

const productWithCategoryColumns = productColumns + `, c.category_name`

// ProductRepository implements repository.ProductRepository using PostgreSQL.
type ProductRepository struct {
	pool database.DBTX
}

// NewProductRepository creates a new PostgreSQL-backed product repository.
func NewProductRepository(pool database.DBTX) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// Create inserts a new product and sets its id and creation time.
func (r *ProductRepository) Create(ctx context.Context, p *domain.Product) (err error) {
	query := `
		INSERT INTO products (product_name, mrp_price, discount_price, quantity, category_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING product_id, created_at`

	ctx, end := database.TraceQuery(ctx, "CreateProduct", query)
	defer func() { end(err) }()

	err = r.pool.QueryRow(ctx, query,
		p.Name,
		p.MRPPrice.String(),
		discountArg(p.DiscountPrice),
		p.Quantity,
		p.CategoryID,
	).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return apperrors.InvalidInput("invalid category_id")
		}
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

// GetByID retrieves a product by id.
func (r *ProductRepository) GetByID(ctx context.Context, id int64) (_ *domain.Product, err error) {
	query := `SELECT ` + productColumns + ` FROM products p WHERE p.product_id = $1`

	ctx, end := database.TraceQuery(ctx, "GetProductByID", query)
	defer func() { end(err) }()

	var p domain.Product
	if err = scanProduct(r.pool.QueryRow(ctx, query, id), &p); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("product", id)
		}
		return nil, fmt.Errorf("query product: %w", err)
	}
	return &p, nil
}

// GetWithCategory retrieves a product joined with its category name.
func (r *ProductRepository) GetWithCategory(ctx context.Context, id int64) (_ *domain.ProductWithCategory, err error) {
	query := `
		SELECT ` + productWithCategoryColumns + `
		FROM products p
		JOIN categories c ON c.category_id = p.category_id
		WHERE p.product_id = $1`

	ctx, end := database.TraceQuery(ctx, "GetProductWithCategory", query)
	defer func() { end(err) }()

	var p domain.ProductWithCategory
	if err = scanProduct(r.pool.QueryRow(ctx, query, id), &p.Product, &p.CategoryName); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("product", id)
		}
		return nil, fmt.Errorf("query product with category: %w", err)
	}
	return &p, nil
}

// List returns one page of products in ascending id order, optionally
// restricted to one category.
func (r *ProductRepository) List(ctx context.Context, filter repository.ProductFilter) (_ []domain.Product, _ int, err error) {
	where := ""
	args := []any{}
	if filter.CategoryID != nil {
		where = ` WHERE p.category_id = $1`
		args = append(args, *filter.CategoryID)
	}

	query := fmt.Sprintf(`SELECT %s FROM products p%s ORDER BY p.product_id LIMIT $%d OFFSET $%d`,
		productColumns, where, len(args)+1, len(args)+2)

	ctx, end := database.TraceQuery(ctx, "ListProducts", query)
	defer func() { end(err) }()

	var total int
	if err = r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM products p`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, append(args, filter.Page.Limit, filter.Page.Offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	products := []domain.Product{}
	for rows.Next() {
		var p domain.Product
		if err = scanProduct(rows, &p); err != nil {
			return nil, 0, fmt.Errorf("scan product row: %w", err)
		}
		products = append(products, p)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate product rows: %w", err)
	}

	return products, total, nil
}

// Update replaces a product's mutable fields.
func (r *ProductRepository) Update(ctx context.Context, p *domain.Product) (err error) {
	query := `
		UPDATE products
		SET product_name = $1, mrp_price = $2, discount_price = $3, quantity = $4, category_id = $5
		WHERE product_id = $6
		RETURNING created_at`

	ctx, end := database.TraceQuery(ctx, "UpdateProduct", query)
	defer func() { end(err) }()

	err = r.pool.QueryRow(ctx, query,
		p.Name,
		p.MRPPrice.String(),
		discountArg(p.DiscountPrice),
		p.Quantity,
		p.CategoryID,
		p.ID,
	).Scan(&p.CreatedAt)
	if err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			return apperrors.NotFound("product", p.ID)
		case isForeignKeyViolation(err):
			return apperrors.InvalidInput("invalid category_id")
		}
		return fmt.Errorf("update product: %w", err)
	}
	return nil
}

// Delete removes a product by id.
func (r *ProductRepository) Delete(ctx context.Context, id int64) (err error) {
	query := `DELETE FROM products WHERE product_id = $1`

	ctx, end := database.TraceQuery(ctx, "DeleteProduct", query)
	defer func() { end(err) }()

	ct, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("product", id)
	}
	return nil
}

// SearchByName matches term as a literal, case-insensitive substring of the
// product name or the category name.
func (r *ProductRepository) SearchByName(ctx context.Context, term string) (_ []domain.ProductWithCategory, err error) {
	query := `
		SELECT ` + productWithCategoryColumns + `
		FROM products p
		JOIN categories c ON c.category_id = p.category_id
		WHERE LOWER(p.product_name) LIKE $1 ESCAPE '` + repository.LikeEscape + `'
		   OR LOWER(c.category_name) LIKE $1 ESCAPE '` + repository.LikeEscape + `'
		ORDER BY p.product_id`

	ctx, end := database.TraceQuery(ctx, "SearchProductsByName", query)
	defer func() { end(err) }()

	rows, err := r.pool.Query(ctx, query, repository.ContainsPattern(term))
	if err != nil {
		return nil, fmt.Errorf("search products: %w", err)
	}
	return collectWithCategory(rows)
}

// ListAfter returns the next batch of products after afterID in id order.
func (r *ProductRepository) ListAfter(ctx context.Context, afterID int64, limit int) (_ []domain.ProductWithCategory, err error) {
	query := `
		SELECT ` + productWithCategoryColumns + `
		FROM products p
		JOIN categories c ON c.category_id = p.category_id
		WHERE p.product_id > $1
		ORDER BY p.product_id
		LIMIT $2`

	ctx, end := database.TraceQuery(ctx, "ListProductsAfter", query)
	defer func() { end(err) }()

	rows, err := r.pool.Query(ctx, query, afterID, limit)
	if err != nil {
		return nil, fmt.Errorf("list products after %d: %w", afterID, err)
	}
	return collectWithCategory(rows)
}

func collectWithCategory(rows pgx.Rows) ([]domain.ProductWithCategory, error) {
	defer rows.Close()

	var products []domain.ProductWithCategory
	for rows.Next() {
		var p domain.ProductWithCategory
		if err := scanProduct(rows, &p.Product, &p.CategoryName); err != nil {
			return nil, fmt.Errorf("scan product row: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate product rows: %w", err)
	}
	return products, nil
}

// scanProduct scans productColumns followed by any extra destinations.
func scanProduct(row pgx.Row, p *domain.Product, extra ...any) error {
	var (
		mrp      string
		discount *string
	)
	dest := append([]any{&p.ID, &p.Name, &mrp, &discount, &p.Quantity, &p.CategoryID, &p.CreatedAt}, extra...)
	if err := row.Scan(dest...); err != nil {
		return err
	}

	var err error
	p.MRPPrice, p.DiscountPrice, err = parsePrices(mrp, discount)
	if err != nil {
		return fmt.Errorf("parse product %d prices: %w", p.ID, err)
	}
	return nil
}
