package api

import (
	"log/slog"
	"net/http"

	"github.com/dgallion1/pagecraft/internal/config"
	"github.com/dgallion1/pagecraft/internal/engine"
	"github.com/dgallion1/pagecraft/internal/fallback"
	"github.com/dgallion1/pagecraft/internal/results"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server is the HTTP API server for pagecraft.
type Server struct {
	router   chi.Router
	engine   *engine.Engine
	results  *results.Store
	fallback *fallback.Collaborator
	log      *slog.Logger
	cfg      config.Config
}

// NewServer creates and configures the HTTP server. collab may be nil when no
// generative provider is configured.
func NewServer(eng *engine.Engine, store *results.Store, collab *fallback.Collaborator, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		engine:   eng,
		results:  store,
		fallback: collab,
		log:      log,
		cfg:      cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	r.Group(func(r chi.Router) {
		if s.cfg.APIKey != "" {
			r.Use(AuthMiddleware(s.cfg.APIKey, s.log))
		}

		r.Post("/api/transform", s.handleTransform)
		r.Get("/api/results/{resultID}", s.handleGetResult)
		r.Get("/api/results/{resultID}/preview", s.handlePreview)
		r.Get("/api/results/{resultID}/download", s.handleDownload)
		r.Get("/api/stats/fallback", s.handleFallbackStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
