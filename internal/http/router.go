package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"docqa/internal/handlers"
	"docqa/internal/rag"
)

// Deps holds dependencies for the HTTP router.
type Deps struct {
	Engine rag.Engine
	// MaxUploadBytes bounds an ingest request body; 0 selects the handler default.
	MaxUploadBytes int64
}

// NewRouter creates a new HTTP router with the provided dependencies.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(LoggerMiddleware)
	r.Use(RequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(CORS)

	ingestHandler := handlers.NewIngestHandler(deps.Engine, deps.MaxUploadBytes)
	queryHandler := handlers.NewQueryHandler(deps.Engine)
	healthHandler := handlers.NewHealthHandler(deps.Engine)

	r.Route("/api", func(r chi.Router) {
		r.Method(http.MethodGet, "/health", healthHandler)
		r.Route("/v1", func(r chi.Router) {
			r.Method(http.MethodPost, "/ingest", ingestHandler)
			r.Method(http.MethodPost, "/query", queryHandler)
		})
	})

	return r
}
