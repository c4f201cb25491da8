// Package httpapi exposes a read-only HTTP view over the rebalancing
// pipeline: health, decision history, latest regime and Prometheus metrics.
package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/AndreChuabio/autonomous-portfolio-rebalancer/internal/metrics"
)

// Server is the read-only HTTP server.
type Server struct {
	router *mux.Router
	server *http.Server
	config Config
}

// Config holds server settings.
type Config struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// DefaultConfig returns local-only defaults.
func DefaultConfig() Config {
	return Config{
		Host:         "127.0.0.1",
		Port:         8080,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// NewServer builds the server and its routes.
func NewServer(config Config, h *Handlers, reg *metrics.Registry) *Server {
	router := mux.NewRouter()

	s := &Server{
		router: router,
		config: config,
	}

	router.Use(s.requestIDMiddleware)
	router.Use(s.requestLoggingMiddleware)

	api := router.PathPrefix("/").Subrouter()
	api.Use(jsonContentTypeMiddleware)
	api.HandleFunc("/health", h.Health).Methods("GET")
	api.HandleFunc("/decisions", h.Decisions).Methods("GET")
	api.HandleFunc("/regime", h.Regime).Methods("GET")
	router.NotFoundHandler = jsonContentTypeMiddleware(http.HandlerFunc(h.NotFound))

	if reg != nil {
		router.Handle("/metrics", reg.Handler()).Methods("GET")
	}

	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", config.Host, config.Port),
		Handler:      router,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		IdleTimeout:  config.IdleTimeout,
	}

	return s
}

// Router exposes the handler for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// Start blocks serving requests until Shutdown or failure.
func (s *Server) Start() error {
	log.Info().Str("addr", s.server.Addr).Msg("starting HTTP server (local-only, read-only)")
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	log.Info().Msg("shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

type ctxKey string

const requestIDKey ctxKey = "request_id"

func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.New().String()[:8]
		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) requestLoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapper := &responseWrapper{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapper, r)

		log.Debug().
			Str("request_id", fmt.Sprint(r.Context().Value(requestIDKey))).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", wrapper.statusCode).
			Dur("elapsed", time.Since(start)).
			Msg("request served")
	})
}

func jsonContentTypeMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

type responseWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWrapper) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
