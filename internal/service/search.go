package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel/attribute"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/engine"
	"github.com/utafrali/storefront/internal/repository"
	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/tracing"
)

// SearchOptions tunes the dispatcher.
type SearchOptions struct {
	// Fuzziness is passed to the index as-is ("AUTO", "0", "1", "2").
	Fuzziness string
	// MaxResults caps fuzzy hits.
	MaxResults int
	// ExactMaxLen is the longest query, in characters, that auto mode still
	// sends to the record store.
	ExactMaxLen int
}

// DefaultSearchOptions returns the dispatcher defaults.
func DefaultSearchOptions() SearchOptions {
	return SearchOptions{
		Fuzziness:   engine.FuzzinessAuto,
		MaxResults:  100,
		ExactMaxLen: 2,
	}
}

// SearchService routes a query to the record store or the search index and
// normalizes what comes back.
type SearchService struct {
	products repository.ProductRepository
	engine   engine.SearchEngine
	opts     SearchOptions
	metrics  *Metrics
	logger   *slog.Logger
}

// NewSearchService creates a new search dispatcher.
func NewSearchService(
	products repository.ProductRepository,
	eng engine.SearchEngine,
	opts SearchOptions,
	metrics *Metrics,
	logger *slog.Logger,
) *SearchService {
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	return &SearchService{
		products: products,
		engine:   eng,
		opts:     opts,
		metrics:  metrics,
		logger:   logger,
	}
}

// ResolveMode turns auto into exact or fuzzy based on the trimmed query's
// length in characters. Explicit modes are returned unchanged.
func (s *SearchService) ResolveMode(query string, mode domain.Mode) domain.Mode {
	if mode != domain.ModeAuto && mode != "" {
		return mode
	}
	if utf8.RuneCountInString(strings.TrimSpace(query)) <= s.opts.ExactMaxLen {
		return domain.ModeExact
	}
	return domain.ModeFuzzy
}

// Search runs query in the requested mode. A blank query is rejected before
// any backend is touched, and an empty result set is reported as a not-found
// error rather than an empty success.
func (s *SearchService) Search(ctx context.Context, query string, mode domain.Mode) (_ *domain.SearchResponse, err error) {
	q := strings.TrimSpace(query)
	resolved := s.ResolveMode(q, mode)

	if q == "" {
		s.metrics.SearchRequests.WithLabelValues(string(resolved), outcomeInvalid).Inc()
		return nil, apperrors.InvalidInput("query required")
	}

	ctx, span := tracing.Start(ctx, "search.dispatch",
		attribute.String("search.mode", string(resolved)),
		attribute.Int("search.query_length", utf8.RuneCountInString(q)),
	)
	defer func() { tracing.End(span, err) }()

	start := time.Now()
	var results []domain.SearchResult
	switch resolved {
	case domain.ModeExact:
		results, err = s.exact(ctx, q)
	case domain.ModeFuzzy:
		results, err = s.fuzzy(ctx, q)
	default:
		s.metrics.SearchRequests.WithLabelValues(string(resolved), outcomeInvalid).Inc()
		return nil, apperrors.InvalidInput(fmt.Sprintf("unknown search mode %q", resolved))
	}
	s.metrics.SearchDuration.WithLabelValues(string(resolved)).Observe(time.Since(start).Seconds())

	if err != nil {
		s.metrics.SearchRequests.WithLabelValues(string(resolved), outcomeError).Inc()
		return nil, err
	}
	if len(results) == 0 {
		s.metrics.SearchRequests.WithLabelValues(string(resolved), outcomeNoMatch).Inc()
		return nil, apperrors.NoMatch("no matching products found")
	}
	s.metrics.SearchRequests.WithLabelValues(string(resolved), outcomeOK).Inc()

	span.SetAttributes(attribute.Int("search.results", len(results)))
	s.logger.DebugContext(ctx, "search completed",
		slog.String("mode", string(resolved)),
		slog.Int("results", len(results)),
	)

	return &domain.SearchResponse{
		Mode:    resolved,
		Query:   q,
		Count:   len(results),
		Results: results,
	}, nil
}

func (s *SearchService) exact(ctx context.Context, q string) ([]domain.SearchResult, error) {
	rows, err := s.products.SearchByName(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("exact search: %w", err)
	}
	results := make([]domain.SearchResult, 0, len(rows))
	for _, row := range rows {
		results = append(results, row.Result())
	}
	return results, nil
}

func (s *SearchService) fuzzy(ctx context.Context, q string) ([]domain.SearchResult, error) {
	hits, err := s.engine.Search(ctx, engine.Query{
		Text:      q,
		Fuzziness: s.opts.Fuzziness,
		Limit:     s.opts.MaxResults,
	})
	if err != nil {
		return nil, apperrors.Unavailable("search index", err)
	}
	results := make([]domain.SearchResult, 0, len(hits))
	for _, hit := range hits {
		results = append(results, hit.Document.Result(hit.ID))
	}
	return results, nil
}
