// Package api provides the HTTP API server and handlers for Fabrica.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/fabricaapp/fabrica-server/internal/sse"
	"github.com/fabricaapp/fabrica-server/internal/store"
	"github.com/fabricaapp/fabrica-server/internal/validation"
)

// apiPrefix is the mount point of every versioned route.
const apiPrefix = "/api/v1"

// DefaultStreamKeepAlive is how often an idle commit stream is pinged.
const DefaultStreamKeepAlive = 15 * time.Second

// Options configures the router.
type Options struct {
	CORSOrigins []string

	// StreamKeepAlive and StreamWriteTimeout tune commit streams. Zero
	// selects DefaultStreamKeepAlive and sse.DefaultWriteTimeout.
	StreamKeepAlive    time.Duration
	StreamWriteTimeout time.Duration
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	store      *store.Store
	services   *Services
	sseManager *sse.Manager
	validator  *validation.Validator
	router     *chi.Mux
	api        huma.API
	logger     *slog.Logger

	streamKeepAlive    time.Duration
	streamWriteTimeout time.Duration
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(st *store.Store, services *Services, sseManager *sse.Manager, opts Options, logger *slog.Logger) *Server {
	s := &Server{
		store:      st,
		services:   services,
		sseManager: sseManager,
		validator:  validation.New(),
		router:     chi.NewRouter(),
		logger:     logger,

		streamKeepAlive:    opts.StreamKeepAlive,
		streamWriteTimeout: opts.StreamWriteTimeout,
	}
	if s.streamKeepAlive <= 0 {
		s.streamKeepAlive = DefaultStreamKeepAlive
	}
	if s.streamWriteTimeout <= 0 {
		s.streamWriteTimeout = sse.DefaultWriteTimeout
	}

	s.setupMiddleware(opts)

	humaConfig := huma.DefaultConfig("Fabrica API", "1.0.0")
	humaConfig.Info.Description = "Books, chapters and artisans of a Fabrica content library."
	humaConfig.Transformers = append(humaConfig.Transformers, EnvelopeTransformer)
	s.api = humachi.New(s.router, humaConfig)
	RegisterErrorHandler()

	s.setupRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// API exposes the huma API, mainly for OpenAPI generation.
func (s *Server) API() huma.API {
	return s.api
}

// setupMiddleware configures middleware stack.
func (s *Server) setupMiddleware(opts Options) {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger(s.logger))
	s.router.Use(middleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"Content-Disposition", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.registerHealthRoutes()
	s.registerSettingsRoutes()
	s.registerBookRoutes()
	s.registerChapterRoutes()
	s.registerArtisanRoutes()
	s.registerCollectionRoutes()
	s.registerGenerationRoutes()
	s.registerLibraryRoutes()
	s.registerBackupRoutes()

	// The broadcast stream is long-lived and bypasses huma.
	if s.sseManager != nil {
		s.router.Handle(apiPrefix+"/events", sse.NewHandler(s.sseManager, s.logger))
	}
}

// validate checks a request body with the payload validator.
func (s *Server) validate(body any) error {
	return s.validator.Validate(body)
}
