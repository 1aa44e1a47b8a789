// Package memory provides an in-process search index for development and
// tests.
package memory

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/engine"
)

const defaultLimit = 10

// Engine is an in-memory implementation of engine.SearchEngine. Matching
// approximates Elasticsearch fuzzy multi_match: query terms match name or
// category terms within an edit distance, and name matches weigh twice as
// much as category matches.
type Engine struct {
	mu   sync.RWMutex
	docs map[string]domain.IndexDocument
}

// New creates an empty in-memory engine.
func New() *Engine {
	return &Engine{docs: make(map[string]domain.IndexDocument)}
}

func (e *Engine) Ping(context.Context) error        { return nil }
func (e *Engine) EnsureIndex(context.Context) error { return nil }

// Index adds or replaces one document.
func (e *Engine) Index(_ context.Context, doc *domain.IndexDocument) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.docs[doc.ID()] = *doc
	return nil
}

// BulkIndex adds or replaces many documents.
func (e *Engine) BulkIndex(_ context.Context, docs []domain.IndexDocument) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i := range docs {
		e.docs[docs[i].ID()] = docs[i]
	}
	return nil
}

// Delete removes a document if present.
func (e *Engine) Delete(_ context.Context, id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.docs, id)
	return nil
}

// IDs returns all document ids in no particular order.
func (e *Engine) IDs(context.Context) ([]string, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	ids := make([]string, 0, len(e.docs))
	for id := range e.docs {
		ids = append(ids, id)
	}
	return ids, nil
}

// Len returns the number of indexed documents.
func (e *Engine) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.docs)
}

// Get returns the document stored under id.
func (e *Engine) Get(id string) (domain.IndexDocument, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	d, ok := e.docs[id]
	return d, ok
}

// Search scores every document against the query terms and returns the
// matches by descending score, ties broken by id.
func (e *Engine) Search(_ context.Context, q engine.Query) ([]engine.Hit, error) {
	terms := tokenize(q.Text)
	if len(terms) == 0 {
		return nil, nil
	}
	limit := q.Limit
	if limit <= 0 {
		limit = defaultLimit
	}

	e.mu.RLock()
	var hits []engine.Hit
	for id, doc := range e.docs {
		score := 2*fieldScore(terms, tokenize(doc.ProductName), q.Fuzziness) +
			fieldScore(terms, tokenize(doc.CategoryName), q.Fuzziness)
		if score > 0 {
			hits = append(hits, engine.Hit{ID: id, Score: score, Document: doc})
		}
	}
	e.mu.RUnlock()

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return idLess(hits[i].ID, hits[j].ID)
	})
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

// fieldScore counts the query terms that match some field term, weighting
// exact matches above fuzzy ones.
func fieldScore(query, field []string, fuzziness string) float64 {
	var score float64
	for _, qt := range query {
		best := 0.0
		maxEdits := allowedEdits(qt, fuzziness)
		for _, ft := range field {
			switch {
			case qt == ft:
				best = 1
			case best < 0.5 && levenshtein(qt, ft) <= maxEdits:
				best = 0.5
			}
		}
		score += best
	}
	return score
}

// allowedEdits mirrors Elasticsearch's AUTO fuzziness: 0 edits for terms of
// one or two characters, 1 for three to five and 2 above.
func allowedEdits(term, fuzziness string) int {
	if n, err := strconv.Atoi(fuzziness); err == nil {
		return n
	}
	switch n := utf8.RuneCountInString(term); {
	case n <= 2:
		return 0
	case n <= 5:
		return 1
	default:
		return 2
	}
}

func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !(r == '_' || r >= '0' && r <= '9' || r >= 'a' && r <= 'z' || r > 127)
	})
}

func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	prev := make([]int, len(rb)+1)
	cur := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		cur[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			cur[j] = min(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}
	return prev[len(rb)]
}

// idLess orders numeric ids numerically and anything else lexically.
func idLess(a, b string) bool {
	ai, aerr := strconv.ParseInt(a, 10, 64)
	bi, berr := strconv.ParseInt(b, 10, 64)
	if aerr == nil && berr == nil {
		return ai < bi
	}
	return a < b
}
