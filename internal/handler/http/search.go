package http

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/service"
	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/httputil"
)

// SearchHandler exposes the search dispatcher and the admin reindex.
type SearchHandler struct {
	search  *service.SearchService
	indexer *service.Indexer
	logger  *slog.Logger
}

// NewSearchHandler creates a new search HTTP handler.
func NewSearchHandler(search *service.SearchService, indexer *service.Indexer, logger *slog.Logger) *SearchHandler {
	return &SearchHandler{
		search:  search,
		indexer: indexer,
		logger:  logger,
	}
}

// Search handles GET /api/search?q=&mode=
// @Summary Search products
// @Description exact is a case-insensitive substring match on product and
// @Description category names, fuzzy tolerates typos, auto picks exact for
// @Description very short queries
// @Tags search
// @Produce json
// @Param q query string true "Search text"
// @Param mode query string false "Search mode" Enums(exact,fuzzy,auto)
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /api/search [get]
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	mode, err := domain.ParseMode(r.URL.Query().Get("mode"))
	if err != nil {
		httputil.WriteError(w, r, apperrors.InvalidInput("mode must be one of: exact, fuzzy, auto"), h.logger)
		return
	}
	h.dispatch(w, r, mode)
}

// Exact handles GET /api/search/simple and /api/search/secure
func (h *SearchHandler) Exact(w http.ResponseWriter, r *http.Request) {
	h.dispatch(w, r, domain.ModeExact)
}

// Fuzzy handles GET /api/search/elastic
func (h *SearchHandler) Fuzzy(w http.ResponseWriter, r *http.Request) {
	h.dispatch(w, r, domain.ModeFuzzy)
}

func (h *SearchHandler) dispatch(w http.ResponseWriter, r *http.Request, mode domain.Mode) {
	resp, err := h.search.Search(r.Context(), r.URL.Query().Get("q"), mode)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, resp, "")
}

// Reindex handles POST /api/admin/reindex?prune=
func (h *SearchHandler) Reindex(w http.ResponseWriter, r *http.Request) {
	prune := false
	if v := r.URL.Query().Get("prune"); v != "" {
		var err error
		if prune, err = strconv.ParseBool(v); err != nil {
			httputil.WriteError(w, r, apperrors.InvalidInput("prune must be a boolean"), h.logger)
			return
		}
	}

	report, err := h.indexer.Reindex(r.Context(), prune)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, report, "Reindex completed")
}
