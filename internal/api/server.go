// Package api exposes the aggregation pipeline over HTTP.
package api

import (
	"net/http"

	"github.com/KaramelBytes/csvtally/internal/analysis"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// DefaultMaxUploadBytes applies when Options.MaxUploadBytes is zero.
const DefaultMaxUploadBytes int64 = 32 << 20

// Options configures the HTTP surface.
type Options struct {
	MaxUploadBytes int64
	AllowedOrigins []string
	// RateLimitRPS <= 0 disables rate limiting of the upload endpoints.
	RateLimitRPS   float64
	RateLimitBurst int
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	pipeline *analysis.Pipeline
	opt      Options
	limiter  *keyedLimiter
	router   *chi.Mux
	log      *zap.Logger
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(pipeline *analysis.Pipeline, opt Options, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	if opt.MaxUploadBytes <= 0 {
		opt.MaxUploadBytes = DefaultMaxUploadBytes
	}
	s := &Server{
		pipeline: pipeline,
		opt:      opt,
		router:   chi.NewRouter(),
		log:      log,
	}
	if opt.RateLimitRPS > 0 {
		s.limiter = newKeyedLimiter(opt.RateLimitRPS, opt.RateLimitBurst)
	}

	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger(s.log))
	s.router.Use(middleware.Recoverer)

	origins := s.opt.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		ExposedHeaders: []string{runIDHeader},
		MaxAge:         300,
	}))
}

func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		if s.limiter != nil {
			r.Use(rateLimit(s.limiter, s.log))
		}
		r.Post("/aggregate", s.handleAggregate)
		r.Post("/unique", s.handleUnique)
	})
}
