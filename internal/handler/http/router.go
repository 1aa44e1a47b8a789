package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/storefront/internal/service"
	"github.com/utafrali/storefront/pkg/health"
	"github.com/utafrali/storefront/pkg/middleware"
)

// Services groups the application services exposed over HTTP.
type Services struct {
	Auth     *service.AuthService
	Category *service.CategoryService
	Product  *service.ProductService
	Search   *service.SearchService
	Indexer  *service.Indexer
}

// Options configures the router's cross-cutting middleware. Nil and zero
// fields switch the corresponding feature off.
type Options struct {
	CORS         middleware.CORSConfig
	CookieSecure bool
	CacheMaxAge  int

	// AuthLimiter throttles signup and signin per client IP.
	AuthLimiter *middleware.RateLimiter

	HTTPMetrics    *middleware.HTTPMetrics
	MetricsHandler http.Handler
	Tracing        bool

	PprofEnabled bool
	PprofCIDRs   []string
}

// NewRouter creates a chi router with all storefront routes registered.
func NewRouter(svc Services, healthHandler *health.Handler, opts Options, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogging(logger))
	if opts.Tracing {
		r.Use(middleware.Tracing())
	}
	r.Use(middleware.RequestLogger(logger))
	if opts.HTTPMetrics != nil {
		r.Use(opts.HTTPMetrics.Handler)
	}
	r.Use(middleware.CORS(opts.CORS))

	// Health check and metrics endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	if opts.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", opts.MetricsHandler)
	}
	if opts.PprofEnabled {
		middleware.RegisterPprof(r, opts.PprofCIDRs, logger)
	}

	// Protected groups run RequestLogger again so user_id reaches the logs.
	requireAuth := chi.Chain(middleware.Auth(svc.Auth.ValidateToken), middleware.RequestLogger(logger))
	cache := middleware.CacheControl(opts.CacheMaxAge)

	authHandler := NewAuthHandler(svc.Auth, opts.CookieSecure, logger)

	r.Route("/api/auth", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			if opts.AuthLimiter != nil {
				r.Use(opts.AuthLimiter.Handler)
			}
			r.Post("/signup", authHandler.Signup)
			r.Post("/signin", authHandler.Signin)
		})
		r.Post("/logout", authHandler.Logout)

		r.With(requireAuth...).Get("/verify", authHandler.Verify)
		r.With(requireAuth...).Get("/profile", authHandler.Profile)
	})

	categoryHandler := NewCategoryHandler(svc.Category, logger)

	r.Route("/api/categories", func(r chi.Router) {
		r.With(cache).Get("/", categoryHandler.ListCategories)
		r.With(cache).Get("/{id}", categoryHandler.GetCategory)

		r.Group(func(r chi.Router) {
			r.Use(requireAuth...)
			r.Post("/", categoryHandler.CreateCategory)
			r.Put("/{id}", categoryHandler.UpdateCategory)
			r.Delete("/{id}", categoryHandler.DeleteCategory)
		})
	})

	productHandler := NewProductHandler(svc.Product, logger)

	r.Route("/api/products", func(r chi.Router) {
		r.With(cache).Get("/all", productHandler.ListProducts)
		r.With(cache).Get("/category/{id}", productHandler.ListByCategory)
		r.With(cache).Get("/{id}", productHandler.GetProduct)

		r.Group(func(r chi.Router) {
			r.Use(requireAuth...)
			r.Post("/", productHandler.CreateProduct)
			r.Put("/{id}", productHandler.UpdateProduct)
			r.Delete("/{id}", productHandler.DeleteProduct)
		})
	})

	searchHandler := NewSearchHandler(svc.Search, svc.Indexer, logger)

	r.Route("/api/search", func(r chi.Router) {
		r.Get("/", searchHandler.Search)
		r.Get("/simple", searchHandler.Exact)
		r.Get("/elastic", searchHandler.Fuzzy)
		r.With(requireAuth...).Get("/secure", searchHandler.Exact)
	})

	r.With(requireAuth...).Post("/api/admin/reindex", searchHandler.Reindex)

	return r
}
