// Package httpserver provides the HTTP REST API for the Kiga-ers paper
// discovery service.
package httpserver

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/nishipippi/kiga-ers/internal/deck"
	"github.com/nishipippi/kiga-ers/internal/library"
	"github.com/nishipippi/kiga-ers/internal/observability"
	"github.com/nishipippi/kiga-ers/internal/summary"
)

// Server is the HTTP REST API server.
type Server struct {
	router     chi.Router
	httpServer *http.Server
	decks      *deck.Manager
	library    *library.Store
	summaries  *summary.Service
	db         *sql.DB
	metrics    *observability.Metrics
	validate   *validator.Validate
	logger     zerolog.Logger
}

// Config holds HTTP server configuration.
type Config struct {
	Address         string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// NewServer creates a new HTTP server with all dependencies.
func NewServer(
	cfg Config,
	decks *deck.Manager,
	libraryStore *library.Store,
	summaries *summary.Service,
	db *sql.DB,
	metrics *observability.Metrics,
	logger zerolog.Logger,
) *Server {
	s := &Server{
		decks:     decks,
		library:   libraryStore,
		summaries: summaries,
		db:        db,
		metrics:   metrics,
		validate:  validator.New(),
		logger:    logger.With().Str("component", "http-server").Logger(),
	}

	s.router = s.buildRouter()

	s.httpServer = &http.Server{
		Addr:         cfg.Address,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return s
}

// buildRouter creates the chi router with all middleware and routes.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestContextMiddleware)
	r.Use(s.metricsMiddleware)
	r.Use(jsonContentTypeMiddleware)

	// Health endpoints
	r.Get("/healthz", s.healthHandler)
	r.Get("/readyz", s.readinessHandler)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/decks", s.createDeck)
		r.Route("/decks/{deckID}", func(r chi.Router) {
			r.Use(deckContextMiddleware)
			r.Get("/", s.getDeck)
			r.Delete("/", s.deleteDeck)
			r.Get("/stack", s.getStack)
			r.Post("/swipes", s.swipe)
			r.Post("/search", s.newSearch)
		})

		r.Get("/library", s.listLibrary)
		r.Post("/library", s.addToLibrary)
		r.Get("/library/{paperID}", s.getLibraryEntry)
		r.Delete("/library/{paperID}", s.removeFromLibrary)

		r.Post("/papers/{paperID}/summary", s.summarizePaper)
		r.Post("/papers/{paperID}/questions", s.askAboutPaper)
	})

	return r
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.logger.Info().Str("address", s.httpServer.Addr).Msg("HTTP server starting")
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listen on HTTP address: %w", err)
	}
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Handler returns the configured router, for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// healthHandler returns basic liveness status.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// readinessHandler reports readiness, including local storage health.
func (s *Server) readinessHandler(w http.ResponseWriter, r *http.Request) {
	if s.db != nil {
		if err := s.db.PingContext(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status":  "not_ready",
				"storage": "unhealthy",
				"error":   err.Error(),
			})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ready",
		"storage": "healthy",
	})
}
