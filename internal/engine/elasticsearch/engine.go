package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/engine"
)

const (
	defaultLimit    = 100
	scrollPageSize  = 1000
	scrollKeepAlive = time.Minute
)

// Config configures the Elasticsearch engine.
type Config struct {
	Addresses []string
	Username  string
	Password  string
	Index     string

	// Transport carries every request to the cluster. The app passes a
	// circuit-breaking transport; nil uses the client default.
	Transport http.RoundTripper
}

// Engine is an Elasticsearch-backed implementation of engine.SearchEngine.
type Engine struct {
	client    *elasticsearch.Client
	indexName string
	logger    *slog.Logger
}

// esSearchResponse is the structure used to decode search and scroll responses.
type esSearchResponse struct {
	ScrollID string `json:"_scroll_id"`
	Hits     struct {
		Hits []struct {
			ID     string               `json:"_id"`
			Score  float64              `json:"_score"`
			Source domain.IndexDocument `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// esBulkResponse is the structure used to decode bulk responses.
type esBulkResponse struct {
	Errors bool `json:"errors"`
	Items  []map[string]struct {
		ID     string `json:"_id"`
		Status int    `json:"status"`
		Error  struct {
			Type   string `json:"type"`
			Reason string `json:"reason"`
		} `json:"error"`
	} `json:"items"`
}

// esErrorResponse is used to decode Elasticsearch error responses.
type esErrorResponse struct {
	Error struct {
		Type   string `json:"type"`
		Reason string `json:"reason"`
	} `json:"error"`
	Status int `json:"status"`
}

// New creates an engine for the given cluster. It does not contact the
// cluster; call EnsureIndex once it is reachable.
func New(cfg Config, logger *slog.Logger) (*Engine, error) {
	indexName := cfg.Index
	if indexName == "" {
		indexName = DefaultIndexName
	}

	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: cfg.Addresses,
		Username:  cfg.Username,
		Password:  cfg.Password,
		Transport: cfg.Transport,
	})
	if err != nil {
		return nil, fmt.Errorf("elasticsearch: create client: %w", err)
	}

	return &Engine{client: client, indexName: indexName, logger: logger}, nil
}

// IndexName returns the index this engine reads and writes.
func (e *Engine) IndexName() string {
	return e.indexName
}

// Ping checks whether the Elasticsearch cluster is reachable.
func (e *Engine) Ping(ctx context.Context) error {
	res, err := e.client.Ping(e.client.Ping.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("elasticsearch ping: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		return fmt.Errorf("elasticsearch ping: unexpected status %s", res.Status())
	}
	return nil
}

// EnsureIndex creates the products index with its mapping if it is missing.
func (e *Engine) EnsureIndex(ctx context.Context) error {
	res, err := e.client.Indices.Exists([]string{e.indexName}, e.client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("elasticsearch check index: %w", err)
	}
	_ = res.Body.Close()

	if res.StatusCode == http.StatusOK {
		return nil
	}

	res, err = e.client.Indices.Create(
		e.indexName,
		e.client.Indices.Create.WithBody(strings.NewReader(indexMapping)),
		e.client.Indices.Create.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("elasticsearch create index: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		return responseError("create index", res)
	}

	e.logger.Info("elasticsearch index created", slog.String("index", e.indexName))
	return nil
}

// Index adds or replaces a single document.
func (e *Engine) Index(ctx context.Context, doc *domain.IndexDocument) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("elasticsearch index: marshal document: %w", err)
	}

	res, err := e.client.Index(
		e.indexName,
		bytes.NewReader(data),
		e.client.Index.WithDocumentID(doc.ID()),
		e.client.Index.WithRefresh("true"),
		e.client.Index.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("elasticsearch index: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		return responseError("index", res)
	}

	e.logger.Debug("indexed product", slog.String("id", doc.ID()))
	return nil
}

// BulkIndex adds or replaces many documents with the bulk NDJSON API.
func (e *Engine) BulkIndex(ctx context.Context, docs []domain.IndexDocument) error {
	if len(docs) == 0 {
		return nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for i := range docs {
		action := map[string]any{"index": map[string]any{"_index": e.indexName, "_id": docs[i].ID()}}
		if err := enc.Encode(action); err != nil {
			return fmt.Errorf("elasticsearch bulk: encode action: %w", err)
		}
		if err := enc.Encode(docs[i]); err != nil {
			return fmt.Errorf("elasticsearch bulk: encode document: %w", err)
		}
	}

	res, err := e.client.Bulk(
		&buf,
		e.client.Bulk.WithIndex(e.indexName),
		e.client.Bulk.WithRefresh("true"),
		e.client.Bulk.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("elasticsearch bulk: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		return responseError("bulk", res)
	}

	var bulkResp esBulkResponse
	if err := json.NewDecoder(res.Body).Decode(&bulkResp); err != nil {
		return fmt.Errorf("elasticsearch bulk: decode response: %w", err)
	}
	if bulkResp.Errors {
		var msgs []string
		for _, item := range bulkResp.Items {
			for _, result := range item {
				if result.Error.Type != "" {
					msgs = append(msgs, fmt.Sprintf("id=%s: %s: %s", result.ID, result.Error.Type, result.Error.Reason))
				}
			}
		}
		return fmt.Errorf("elasticsearch bulk: %d item errors: %s", len(msgs), strings.Join(msgs, "; "))
	}

	e.logger.Debug("bulk indexed products", slog.Int("count", len(docs)))
	return nil
}

// Delete removes a document. A 404 is treated as success.
func (e *Engine) Delete(ctx context.Context, id string) error {
	res, err := e.client.Delete(
		e.indexName,
		id,
		e.client.Delete.WithRefresh("true"),
		e.client.Delete.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("elasticsearch delete: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return responseError("delete", res)
	}
	return nil
}

// Search runs a fuzzy multi_match over product_name (boosted) and
// category_name.
func (e *Engine) Search(ctx context.Context, q engine.Query) ([]engine.Hit, error) {
	data, err := json.Marshal(buildSearchQuery(q))
	if err != nil {
		return nil, fmt.Errorf("elasticsearch search: marshal query: %w", err)
	}

	res, err := e.client.Search(
		e.client.Search.WithIndex(e.indexName),
		e.client.Search.WithBody(bytes.NewReader(data)),
		e.client.Search.WithContext(ctx),
	)
	if err != nil {
		return nil, fmt.Errorf("elasticsearch search: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		return nil, responseError("search", res)
	}

	var esResp esSearchResponse
	if err := json.NewDecoder(res.Body).Decode(&esResp); err != nil {
		return nil, fmt.Errorf("elasticsearch search: decode response: %w", err)
	}

	hits := make([]engine.Hit, 0, len(esResp.Hits.Hits))
	for _, h := range esResp.Hits.Hits {
		hits = append(hits, engine.Hit{ID: h.ID, Score: h.Score, Document: h.Source})
	}
	return hits, nil
}

func buildSearchQuery(q engine.Query) map[string]any {
	fuzziness := q.Fuzziness
	if fuzziness == "" {
		fuzziness = engine.FuzzinessAuto
	}
	limit := q.Limit
	if limit <= 0 {
		limit = defaultLimit
	}

	return map[string]any{
		"size": limit,
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":     q.Text,
				"fields":    []string{"product_name^2", "category_name"},
				"fuzziness": fuzziness,
			},
		},
	}
}

// IDs scrolls through the index and returns every document id. A missing
// index has no ids.
func (e *Engine) IDs(ctx context.Context) ([]string, error) {
	body := fmt.Sprintf(`{"size": %d, "_source": false, "sort": ["_doc"], "query": {"match_all": {}}}`, scrollPageSize)

	res, err := e.client.Search(
		e.client.Search.WithIndex(e.indexName),
		e.client.Search.WithBody(strings.NewReader(body)),
		e.client.Search.WithScroll(scrollKeepAlive),
		e.client.Search.WithContext(ctx),
	)
	if err != nil {
		return nil, fmt.Errorf("elasticsearch scroll: %w", err)
	}

	var (
		ids      []string
		scrollID string
	)
	defer func() {
		if scrollID == "" {
			return
		}
		cr, err := e.client.ClearScroll(
			e.client.ClearScroll.WithScrollID(scrollID),
			e.client.ClearScroll.WithContext(context.WithoutCancel(ctx)),
		)
		if err != nil {
			e.logger.Warn("failed to clear scroll", slog.String("error", err.Error()))
			return
		}
		_ = cr.Body.Close()
	}()

	for {
		page, err := decodeScrollPage(res)
		if err != nil {
			if res.StatusCode == http.StatusNotFound && len(ids) == 0 {
				return nil, nil
			}
			return nil, err
		}
		if page.ScrollID != "" {
			scrollID = page.ScrollID
		}
		if len(page.Hits.Hits) == 0 {
			return ids, nil
		}
		for _, h := range page.Hits.Hits {
			ids = append(ids, h.ID)
		}

		res, err = e.client.Scroll(
			e.client.Scroll.WithScrollID(scrollID),
			e.client.Scroll.WithScroll(scrollKeepAlive),
			e.client.Scroll.WithContext(ctx),
		)
		if err != nil {
			return nil, fmt.Errorf("elasticsearch scroll: %w", err)
		}
	}
}

func decodeScrollPage(res *esapi.Response) (*esSearchResponse, error) {
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return nil, responseError("scroll", res)
	}
	var page esSearchResponse
	if err := json.NewDecoder(res.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("elasticsearch scroll: decode response: %w", err)
	}
	return &page, nil
}

// DeleteIndex removes the whole index. A 404 is treated as success.
func (e *Engine) DeleteIndex(ctx context.Context) error {
	res, err := e.client.Indices.Delete([]string{e.indexName}, e.client.Indices.Delete.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("elasticsearch delete index: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return responseError("delete index", res)
	}
	return nil
}

func responseError(op string, res *esapi.Response) error {
	var errResp esErrorResponse
	if err := json.NewDecoder(res.Body).Decode(&errResp); err == nil && errResp.Error.Type != "" {
		return fmt.Errorf("elasticsearch %s: %s: %s", op, errResp.Error.Type, errResp.Error.Reason)
	}
	return fmt.Errorf("elasticsearch %s: unexpected status %s", op, res.Status())
}
