package memory

import (
	"context"
	"sort"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/engine"
)

var _ engine.SearchEngine = (*Engine)(nil)

func doc(id int64, name, category string) domain.IndexDocument {
	return domain.IndexDocument{
		ProductID:    id,
		ProductName:  name,
		CategoryName: category,
		MRPPrice:     decimal.NewFromInt(10),
	}
}

func seeded(t *testing.T) *Engine {
	t.Helper()
	e := New()
	require.NoError(t, e.BulkIndex(context.Background(), []domain.IndexDocument{
		doc(1, "Samsung Galaxy S1", "Phones"),
		doc(2, "Galaxy Tab", "Tablets"),
		doc(3, "Cast Iron Kettle", "Kitchen"),
		doc(4, "Phone Case", "Accessories"),
	}))
	return e
}

func ids(hits []engine.Hit) []string {
	out := make([]string, 0, len(hits))
	for _, h := range hits {
		out = append(out, h.ID)
	}
	return out
}

func TestEngine_Search_Exact(t *testing.T) {
	e := seeded(t)
	hits, err := e.Search(context.Background(), engine.Query{Text: "galaxy", Fuzziness: engine.FuzzinessAuto})
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2"}, ids(hits))
}

func TestEngine_Search_ToleratesTypos(t *testing.T) {
	e := seeded(t)

	hits, err := e.Search(context.Background(), engine.Query{Text: "galxy", Fuzziness: engine.FuzzinessAuto})
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2"}, ids(hits))

	hits, err = e.Search(context.Background(), engine.Query{Text: "kettel", Fuzziness: engine.FuzzinessAuto})
	require.NoError(t, err)
	assert.Equal(t, []string{"3"}, ids(hits))
}

func TestEngine_Search_FixedFuzziness(t *testing.T) {
	e := seeded(t)
	hits, err := e.Search(context.Background(), engine.Query{Text: "galxy", Fuzziness: "0"})
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestEngine_Search_NameOutweighsCategory(t *testing.T) {
	e := seeded(t)
	// "phone" names product 4 and is one edit away from product 1's category.
	hits, err := e.Search(context.Background(), engine.Query{Text: "phone"})
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "4", hits[0].ID)
	assert.Greater(t, hits[0].Score, hits[1].Score)
}

func TestEngine_Search_Limit(t *testing.T) {
	e := seeded(t)
	hits, err := e.Search(context.Background(), engine.Query{Text: "galaxy", Limit: 1})
	require.NoError(t, err)
	assert.Len(t, hits, 1)
}

func TestEngine_Search_BlankQuery(t *testing.T) {
	hits, err := seeded(t).Search(context.Background(), engine.Query{Text: "  "})
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestEngine_IndexReplacesByID(t *testing.T) {
	e := New()
	ctx := context.Background()
	d := doc(9, "Toaster", "Kitchen")
	require.NoError(t, e.Index(ctx, &d))
	d.ProductName = "Toaster Deluxe"
	require.NoError(t, e.Index(ctx, &d))

	assert.Equal(t, 1, e.Len())
	got, ok := e.Get("9")
	require.True(t, ok)
	assert.Equal(t, "Toaster Deluxe", got.ProductName)
}

func TestEngine_DeleteAndIDs(t *testing.T) {
	e := seeded(t)
	ctx := context.Background()
	require.NoError(t, e.Delete(ctx, "2"))
	require.NoError(t, e.Delete(ctx, "missing"))

	got, err := e.IDs(ctx)
	require.NoError(t, err)
	sort.Strings(got)
	assert.Equal(t, []string{"1", "3", "4"}, got)
}

func TestLevenshtein(t *testing.T) {
	assert.Equal(t, 0, levenshtein("kettle", "kettle"))
	assert.Equal(t, 1, levenshtein("galxy", "galaxy"))
	assert.Equal(t, 2, levenshtein("kettel", "kettle"))
	assert.Equal(t, 3, levenshtein("", "abc"))
}

func TestAllowedEdits(t *testing.T) {
	assert.Equal(t, 0, allowedEdits("ab", "AUTO"))
	assert.Equal(t, 1, allowedEdits("phone", "AUTO"))
	assert.Equal(t, 2, allowedEdits("kettle", "AUTO"))
	assert.Equal(t, 1, allowedEdits("kettle", "1"))
}
