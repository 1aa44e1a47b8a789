package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/engine"
	"github.com/utafrali/storefront/internal/repository"
	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/tracing"
)

// DefaultReindexBatchSize is used when NewIndexer is given a non-positive size.
const DefaultReindexBatchSize = 500

// Index operations recorded in storefront_index_failures_total.
const (
	opUpsert = "upsert"
	opDelete = "delete"
)

// Indexer mirrors record store products into the search index.
type Indexer struct {
	products  repository.ProductRepository
	engine    engine.SearchEngine
	batchSize int
	metrics   *Metrics
	logger    *slog.Logger
}

// NewIndexer creates a new indexer.
func NewIndexer(
	products repository.ProductRepository,
	eng engine.SearchEngine,
	batchSize int,
	metrics *Metrics,
	logger *slog.Logger,
) *Indexer {
	if batchSize < 1 {
		batchSize = DefaultReindexBatchSize
	}
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	return &Indexer{
		products:  products,
		engine:    eng,
		batchSize: batchSize,
		metrics:   metrics,
		logger:    logger,
	}
}

// IndexProduct upserts the document for p. Failures are logged and counted,
// never returned: the product already exists in the record store and the
// index catches up on the next sync.
func (ix *Indexer) IndexProduct(ctx context.Context, p *domain.Product) {
	if err := ix.SyncProduct(ctx, p.ID); err != nil {
		ix.metrics.IndexFailures.WithLabelValues(opUpsert).Inc()
		ix.logger.ErrorContext(ctx, "failed to index product",
			slog.Int64("product_id", p.ID),
			slog.String("error", err.Error()),
		)
	}
}

// UnindexProduct removes the document for a deleted product. Like
// IndexProduct it only logs and counts failures.
func (ix *Indexer) UnindexProduct(ctx context.Context, id int64) {
	if err := ix.RemoveProduct(ctx, id); err != nil {
		ix.metrics.IndexFailures.WithLabelValues(opDelete).Inc()
		ix.logger.ErrorContext(ctx, "failed to remove product from index",
			slog.Int64("product_id", id),
			slog.String("error", err.Error()),
		)
	}
}

// SyncProduct makes the index agree with the record store for one product:
// the document is upserted when the product exists and deleted otherwise.
func (ix *Indexer) SyncProduct(ctx context.Context, id int64) error {
	row, err := ix.products.GetWithCategory(ctx, id)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return ix.RemoveProduct(ctx, id)
		}
		return fmt.Errorf("load product %d: %w", id, err)
	}

	doc := domain.NewIndexDocument(*row)
	if err := ix.engine.Index(ctx, &doc); err != nil {
		return fmt.Errorf("index product %d: %w", id, err)
	}

	ix.logger.DebugContext(ctx, "product indexed", slog.Int64("product_id", id))
	return nil
}

// RemoveProduct deletes the document for a product. A missing document is
// not an error.
func (ix *Indexer) RemoveProduct(ctx context.Context, id int64) error {
	if err := ix.engine.Delete(ctx, domain.DocumentID(id)); err != nil {
		return fmt.Errorf("remove product %d from index: %w", id, err)
	}
	return nil
}

// Reindex walks every product in id order in batches and bulk-upserts them.
// It is idempotent. With prune set, documents whose product no longer exists
// are deleted afterwards.
func (ix *Indexer) Reindex(ctx context.Context, prune bool) (_ *domain.ReindexReport, err error) {
	ctx, span := tracing.Start(ctx, "search.reindex", attribute.Bool("reindex.prune", prune))
	defer func() { tracing.End(span, err) }()

	start := time.Now()
	if err := ix.engine.EnsureIndex(ctx); err != nil {
		return nil, apperrors.Unavailable("search index", err)
	}

	report := &domain.ReindexReport{}
	var stored map[string]struct{}
	if prune {
		stored = make(map[string]struct{})
	}

	var after int64
	for {
		rows, err := ix.products.ListAfter(ctx, after, ix.batchSize)
		if err != nil {
			return nil, fmt.Errorf("reindex: %w", err)
		}
		if len(rows) == 0 {
			break
		}

		docs := make([]domain.IndexDocument, 0, len(rows))
		for _, row := range rows {
			doc := domain.NewIndexDocument(row)
			docs = append(docs, doc)
			if prune {
				stored[doc.ID()] = struct{}{}
			}
		}
		if err := ix.engine.BulkIndex(ctx, docs); err != nil {
			return nil, apperrors.Unavailable("search index",
				fmt.Errorf("bulk index batch %d: %w", report.Batches+1, err))
		}

		report.Indexed += len(docs)
		report.Batches++
		after = rows[len(rows)-1].ID
		if len(rows) < ix.batchSize {
			break
		}
	}

	if prune {
		pruned, err := ix.prune(ctx, stored)
		if err != nil {
			return nil, err
		}
		report.Pruned = pruned
	}

	report.Duration = time.Since(start)
	report.Took = report.Duration.Round(time.Millisecond).String()

	span.SetAttributes(
		attribute.Int("reindex.indexed", report.Indexed),
		attribute.Int("reindex.pruned", report.Pruned),
	)
	ix.logger.InfoContext(ctx, "reindex completed",
		slog.Int("indexed", report.Indexed),
		slog.Int("batches", report.Batches),
		slog.Int("pruned", report.Pruned),
		slog.Duration("duration", report.Duration),
	)
	return report, nil
}

func (ix *Indexer) prune(ctx context.Context, stored map[string]struct{}) (int, error) {
	ids, err := ix.engine.IDs(ctx)
	if err != nil {
		return 0, apperrors.Unavailable("search index", fmt.Errorf("list indexed ids: %w", err))
	}

	pruned := 0
	for _, id := range ids {
		if _, ok := stored[id]; ok {
			continue
		}
		if err := ix.engine.Delete(ctx, id); err != nil {
			ix.metrics.IndexFailures.WithLabelValues(opDelete).Inc()
			return pruned, apperrors.Unavailable("search index", fmt.Errorf("prune %s: %w", id, err))
		}
		pruned++
	}
	return pruned, nil
}
