package elasticsearch_test

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/engine"
	esengine "github.com/utafrali/storefront/internal/engine/elasticsearch"
	"github.com/utafrali/storefront/pkg/logger"
)

// newTestEngine creates an engine on a throwaway index. It skips the test
// if ELASTICSEARCH_URL is not set.
func newTestEngine(t *testing.T) *esengine.Engine {
	t.Helper()

	esURL := os.Getenv("ELASTICSEARCH_URL")
	if esURL == "" {
		t.Skip("ELASTICSEARCH_URL not set, skipping Elasticsearch integration tests")
	}

	eng, err := esengine.New(esengine.Config{
		Addresses: strings.Split(esURL, ","),
		Index:     fmt.Sprintf("test_storefront_products_%d", time.Now().UnixNano()),
	}, logger.Discard())
	require.NoError(t, err)
	require.NoError(t, eng.EnsureIndex(context.Background()))

	t.Cleanup(func() { _ = eng.DeleteIndex(context.Background()) })
	return eng
}

func doc(id int64, name, category string) domain.IndexDocument {
	return domain.IndexDocument{
		ProductID:    id,
		ProductName:  name,
		CategoryID:   1,
		CategoryName: category,
		MRPPrice:     decimal.NewFromInt(100),
		Quantity:     1,
	}
}

func TestES_Ping(t *testing.T) {
	eng := newTestEngine(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	assert.NoError(t, eng.Ping(ctx))
}

func TestES_FuzzySearchToleratesTypos(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, eng.BulkIndex(ctx, []domain.IndexDocument{
		doc(1, "Samsung Galaxy S1", "Phones"),
		doc(2, "Cast Iron Kettle", "Kitchen"),
	}))

	hits, err := eng.Search(ctx, engine.Query{Text: "galxy", Fuzziness: engine.FuzzinessAuto, Limit: 10})
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	assert.Equal(t, "1", hits[0].ID)

	byCategory, err := eng.Search(ctx, engine.Query{Text: "kitchn", Limit: 10})
	require.NoError(t, err)
	require.NotEmpty(t, byCategory)
	assert.Equal(t, "2", byCategory[0].ID)
}

func TestES_UpsertIsIdempotent(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	d := doc(5, "Toaster", "Kitchen")
	require.NoError(t, eng.Index(ctx, &d))
	d.ProductName = "Toaster Deluxe"
	require.NoError(t, eng.Index(ctx, &d))

	ids, err := eng.IDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"5"}, ids)

	hits, err := eng.Search(ctx, engine.Query{Text: "deluxe"})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "Toaster Deluxe", hits[0].Document.ProductName)
}

func TestES_DeleteAndIDs(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, eng.BulkIndex(ctx, []domain.IndexDocument{
		doc(1, "a", "x"), doc(2, "b", "x"), doc(3, "c", "x"),
	}))
	require.NoError(t, eng.Delete(ctx, "2"))
	require.NoError(t, eng.Delete(ctx, "does-not-exist"))

	ids, err := eng.IDs(ctx)
	require.NoError(t, err)
	sort.Strings(ids)
	assert.Equal(t, []string{"1", "3"}, ids)
}
