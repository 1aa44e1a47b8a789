package database

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"testing/fstest"

	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/storefront/pkg/logger"
)

var testMigrations = fstest.MapFS{
	"000002_products.up.sql":   {Data: []byte("CREATE TABLE products (product_id BIGSERIAL PRIMARY KEY)")},
	"000001_categories.up.sql": {Data: []byte("CREATE TABLE categories (category_id BIGSERIAL PRIMARY KEY)")},
	"000001_categories.down.sql": {Data: []byte("DROP TABLE categories")},
	"README.md":                {Data: []byte("not a migration")},
}

func expectTrackingTable(mock pgxmock.PgxPoolIface) {
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS schema_migrations")).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))
}

func expectApplied(mock pgxmock.PgxPoolIface, version string, applied bool) {
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = $1)")).
		WithArgs(version).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(applied))
}

func TestPendingFiles_SortedUpOnly(t *testing.T) {
	names, err := pendingFiles(testMigrations)
	require.NoError(t, err)
	assert.Equal(t, []string{"000001_categories.up.sql", "000002_products.up.sql"}, names)
}

func TestRunMigrations_AppliesPendingInOrder(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	expectTrackingTable(mock)
	expectApplied(mock, "000001_categories.up.sql", true)
	expectApplied(mock, "000002_products.up.sql", false)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE products")).WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO schema_migrations (version) VALUES ($1)")).
		WithArgs("000002_products.up.sql").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	require.NoError(t, RunMigrations(context.Background(), mock, testMigrations, logger.Discard()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunMigrations_SQLErrorRollsBackWithoutRetry(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	expectTrackingTable(mock)
	expectApplied(mock, "000001_categories.up.sql", false)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE categories")).WillReturnError(errors.New("syntax error"))
	mock.ExpectRollback()

	err = RunMigrations(context.Background(), mock, testMigrations, logger.Discard())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "execute migration 000001_categories.up.sql")
	assert.NoError(t, mock.ExpectationsWereMet())
}
