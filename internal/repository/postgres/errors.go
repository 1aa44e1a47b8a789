package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

func pgErrorCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

func isUniqueViolation(err error) bool {
	return pgErrorCode(err) == uniqueViolation
}

func isForeignKeyViolation(err error) bool {
	return pgErrorCode(err) == foreignKeyViolation
}

// NUMERIC columns are selected as text and parsed here so no precision is
// lost on the way to decimal.Decimal.
func parsePrices(mrp string, discount *string) (decimal.Decimal, decimal.NullDecimal, error) {
	m, err := decimal.NewFromString(mrp)
	if err != nil {
		return decimal.Decimal{}, decimal.NullDecimal{}, err
	}
	if discount == nil {
		return m, decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(*discount)
	if err != nil {
		return decimal.Decimal{}, decimal.NullDecimal{}, err
	}
	return m, decimal.NewNullDecimal(d), nil
}

// discountArg converts an optional discount into a query argument.
func discountArg(d decimal.NullDecimal) *string {
	if !d.Valid {
		return nil
	}
	s := d.Decimal.String()
	return &s
}
