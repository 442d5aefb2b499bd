package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/prbretas/JEWELRY/internal/catalog"
	"github.com/prbretas/JEWELRY/internal/notify"
	"github.com/prbretas/JEWELRY/internal/service"
	"github.com/prbretas/JEWELRY/pkg/health"
	"github.com/prbretas/JEWELRY/pkg/middleware"
	"github.com/prbretas/JEWELRY/pkg/validator"
)

// ServiceName labels HTTP metrics and spans.
const ServiceName = "storefront"

// RouterConfig collects what the router needs to serve the storefront API.
type RouterConfig struct {
	Catalog  *catalog.Catalog
	Sessions *service.Registry
	Inbox    *notify.Inbox
	Health   *health.Handler
	CORS     middleware.CORSConfig
	Logger   *slog.Logger

	// Per-session request rate; zero disables limiting.
	RateLimitRPS   float64
	RateLimitBurst int
}

// NewRouter creates a chi router with all storefront routes registered.
func NewRouter(cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics(ServiceName))
	r.Use(middleware.Tracing(ServiceName))
	r.Use(middleware.RequestLogger(logger))

	// Health check endpoints
	r.Get("/health/live", cfg.Health.LivenessHandler())
	r.Get("/health/ready", cfg.Health.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	productHandler := NewProductHandler(cfg.Catalog, logger)
	cartHandler := NewCartHandler(cfg.Sessions, logger)
	wishlistHandler := NewWishlistHandler(cfg.Sessions, cfg.Inbox, logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Get("/products", productHandler.ListProducts)
		r.Get("/products/{id}", productHandler.GetProduct)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Session(func(id string) error {
				return validator.Var(id, "sessionid")
			}))
			r.Use(middleware.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst, logger))

			r.Get("/cart", cartHandler.GetCart)
			r.Delete("/cart", cartHandler.ClearCart)
			r.Post("/cart/items", cartHandler.AddItem)
			r.Patch("/cart/items/{variantKey}", cartHandler.UpdateQuantity)
			r.Delete("/cart/items/{variantKey}", cartHandler.RemoveItem)

			r.Post("/checkout", cartHandler.Checkout)

			r.Get("/wishlist", wishlistHandler.GetWishlist)
			r.Delete("/wishlist", wishlistHandler.ClearWishlist)
			r.Post("/wishlist/{productId}/toggle", wishlistHandler.Toggle)
			r.Get("/wishlist/share", wishlistHandler.Share)

			r.Get("/notifications", wishlistHandler.Notifications)
		})
	})

	return r
}
