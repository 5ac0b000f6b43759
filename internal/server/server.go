// Package server provides the HTTP server and routing for the planning API.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/aristath/supplyopt/internal/config"
	"github.com/aristath/supplyopt/internal/modules/planning"
	planninghandlers "github.com/aristath/supplyopt/internal/modules/planning/handlers"
	riskhandlers "github.com/aristath/supplyopt/internal/modules/risk/handlers"
	"github.com/aristath/supplyopt/internal/snapshot"
)

// requestTimeout bounds every request; solves are bounded separately by the
// solver timeout.
const requestTimeout = 60 * time.Second

// Config holds server configuration
type Config struct {
	Log           zerolog.Logger
	Config        *config.Config
	Service       *planning.Service
	Scorer        riskhandlers.SupplierScorer
	TablesVersion string
}

// Server represents the HTTP server
type Server struct {
	router        *chi.Mux
	server        *http.Server
	log           zerolog.Logger
	cfg           *config.Config
	service       *planning.Service
	scorer        riskhandlers.SupplierScorer
	tablesVersion string
	started       time.Time
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	s := &Server{
		router:        chi.NewRouter(),
		log:           cfg.Log.With().Str("component", "server").Logger(),
		cfg:           cfg.Config,
		service:       cfg.Service,
		scorer:        cfg.Scorer,
		tablesVersion: cfg.TablesVersion,
		started:       time.Now(),
	}

	s.setupMiddleware(cfg.Config.DevMode)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: requestTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Handler exposes the router
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware(devMode bool) {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(middleware.Timeout(requestTimeout))

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	defaults := snapshot.Defaults{
		ServiceLevel:       s.cfg.Planning.DefaultServiceLevel,
		FestivalMultiplier: s.cfg.Planning.DefaultFestivalMultiplier,
	}
	planningHandler := planninghandlers.NewHandler(s.service, defaults, s.log)
	riskHandler := riskhandlers.NewHandler(s.scorer, s.log)

	s.router.Route("/api", func(r chi.Router) {
		planningHandler.RegisterRoutes(r)
		riskHandler.RegisterRoutes(r)
	})
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info().Int("port", s.cfg.Port).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
