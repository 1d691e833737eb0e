package server

import (
	"context"
	"net/http"
	"time"

	"github.com/elonfeng/redinsight/internal/insight"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
)

// Options configures the HTTP server.
type Options struct {
	Addr           string
	CORSOrigins    []string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	RequestTimeout time.Duration
}

// Server provides the HTTP API.
type Server struct {
	server  *http.Server
	router  *chi.Mux
	service *insight.Service
	logger  zerolog.Logger
	now     func() time.Time
}

// New creates a new HTTP server.
func New(service *insight.Service, opts Options, logger zerolog.Logger) *Server {
	if opts.Addr == "" {
		opts.Addr = ":8000"
	}
	if len(opts.CORSOrigins) == 0 {
		opts.CORSOrigins = []string{"*"}
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 2 * time.Minute
	}

	s := &Server{
		router:  chi.NewRouter(),
		service: service,
		logger:  logger.With().Str("component", "server").Logger(),
		now:     time.Now,
	}

	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(accessLog(s.logger))
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(opts.RequestTimeout))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: opts.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	s.routes()

	s.server = &http.Server{
		Addr:         opts.Addr,
		Handler:      s.router,
		ReadTimeout:  opts.ReadTimeout,
		WriteTimeout: opts.WriteTimeout,
	}
	return s
}

func (s *Server) routes() {
	s.router.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Post("/search", s.handleSearch)
		r.Post("/statistics", s.handleStatistics)

		r.Route("/ranking", func(r chi.Router) {
			r.Post("/", s.handleRanking)
			r.Get("/types", s.handleRankingTypes)
			r.Get("/overview", s.handleOverview)
			r.Get("/history", s.handleHistory)
			r.Get("/history/{id}", s.handleSnapshot)
		})

		r.Route("/regional", func(r chi.Router) {
			r.Post("/", s.handleRegional)
			r.Get("/cities", s.handleCities)
			r.Post("/compare", s.handleCompareCities)
			r.Get("/trending", s.handleTrendingCities)
		})

		r.Post("/compare", s.handleCompare)
	})
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	s.logger.Info().Str("addr", s.server.Addr).Msg("listening")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func accessLog(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				logger.Info().
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Int("status", ww.Status()).
					Int("bytes", ww.BytesWritten()).
					Dur("took", time.Since(start)).
					Str("request_id", middleware.GetReqID(r.Context())).
					Msg("request")
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
