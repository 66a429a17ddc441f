package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"aller-discovery/internal/discovery"
	"aller-discovery/internal/handlers"
	"aller-discovery/internal/service"
	"aller-discovery/internal/storage"
	"aller-discovery/internal/vectorstore"
)

// Deps holds dependencies for the HTTP router.
type Deps struct {
	SearchService service.SearchService
	Products      storage.ProductStore
	// Indexer is optional; the index route is not registered without it.
	Indexer     handlers.Indexer
	DB          handlers.Pinger
	VectorStore vectorstore.VectorStore
	Collections discovery.Collections
	// SearchTimeout bounds each search request; zero means no deadline.
	SearchTimeout time.Duration
}

// NewRouter creates a new HTTP router with the provided dependencies.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(LoggerMiddleware)
	r.Use(RequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(CORS)

	searchHandler := handlers.NewSearchHandler(deps.SearchService, deps.SearchTimeout)
	productHandler := handlers.NewProductHandler(deps.Products)
	healthHandler := handlers.NewHealthHandler(deps.DB, deps.VectorStore, deps.Collections)

	r.Route("/api", func(r chi.Router) {
		r.Method(http.MethodGet, "/health", healthHandler)

		r.Route("/v1", func(r chi.Router) {
			r.Method(http.MethodPost, "/search", searchHandler)
			r.Method(http.MethodGet, "/products/{id}", productHandler)
			if deps.Indexer != nil {
				r.Method(http.MethodPost, "/index", handlers.NewIndexHandler(deps.Indexer))
			}
		})
	})

	return r
}
