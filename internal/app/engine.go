package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/utafrali/storefront/internal/config"
	"github.com/utafrali/storefront/internal/engine"
	esengine "github.com/utafrali/storefront/internal/engine/elasticsearch"
	"github.com/utafrali/storefront/internal/engine/memory"
	"github.com/utafrali/storefront/pkg/httpclient"
)

const ensureIndexTimeout = 10 * time.Second

// OpenEngine builds the search index selected by SEARCH_ENGINE. The
// Elasticsearch client talks through a circuit breaker; a cluster that is
// down at start-up is logged and retried lazily by the breaker.
func OpenEngine(ctx context.Context, cfg *config.Config, logger *slog.Logger) (engine.SearchEngine, error) {
	if cfg.SearchEngine == config.EngineMemory {
		logger.Info("in-memory search engine initialized")
		return memory.New(), nil
	}

	breakerCfg := httpclient.DefaultBreakerConfig("elasticsearch")
	breakerCfg.Timeout = cfg.SearchBreakerTimeout
	transport := httpclient.NewBreakerTransport(
		httpclient.NewTransport(httpclient.DefaultTransportConfig()), breakerCfg, logger)

	eng, err := esengine.New(esengine.Config{
		Addresses: cfg.ElasticsearchURLs,
		Username:  cfg.ElasticsearchUsername,
		Password:  cfg.ElasticsearchPassword,
		Index:     cfg.ElasticsearchIndex,
		Transport: transport,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("init elasticsearch engine: %w", err)
	}

	ensureCtx, cancel := context.WithTimeout(ctx, ensureIndexTimeout)
	defer cancel()
	if err := eng.EnsureIndex(ensureCtx); err != nil {
		logger.Warn("search index not ready, fuzzy search will fail until it is",
			slog.String("index", eng.IndexName()),
			slog.String("error", err.Error()),
		)
	}

	logger.Info("elasticsearch search engine initialized",
		slog.Any("urls", cfg.ElasticsearchURLs),
		slog.String("index", eng.IndexName()),
	)
	return eng, nil
}
