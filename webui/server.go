// Package webui serves the upload and review flow over HTTP.
// This file contains the Server organism that wires the routes together.
package webui

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"discharge_backend/core"
	"discharge_backend/metrics"
	"discharge_backend/pipeline"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Server is the HTTP front end of the pipeline.
//
// Routes:
//   - POST /upload              PDF upload, returns a review token and the record
//   - GET  /review/{token}      stored record and its form values
//   - POST /review/{token}      reviewer edits, returns the rendered document
//   - GET  /health              system status
//   - GET  /api/stages          recent pipeline stages
//   - GET  /api/metrics         stage aggregates
//   - GET  /metrics             Prometheus exposition
type Server struct {
	httpServer *http.Server
	mux        *http.ServeMux
	config     ServerConfig
	service    *pipeline.Service
	collector  *metrics.Collector
	logger     *zap.Logger
	loggingMw  *LoggingMiddleware
	statusAPI  *StatusAPI
	limiter    *RateLimiter
}

// ServerConfig configures the Server.
type ServerConfig struct {
	// Port to listen on (default: 8000)
	Port int

	// Host to bind to (default: all interfaces)
	Host string

	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	// ShutdownTimeout bounds graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration

	// MaxUploadBytes caps the request body of /upload (default: 16 MiB)
	MaxUploadBytes int64

	// UploadsPerWindow limits uploads per client address (0 disables)
	UploadsPerWindow int
	UploadWindow     time.Duration

	// LogSkipPaths are paths the request log ignores
	LogSkipPaths []string
}

// DefaultServerConfig returns a ServerConfig with sensible defaults.
// WriteTimeout leaves room for a full retry cycle of the model call.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Port:            core.DefaultPort,
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    2 * time.Minute,
		IdleTimeout:     120 * time.Second,
		ShutdownTimeout: 30 * time.Second,
		MaxUploadBytes:  core.DefaultMaxUploadBytes,
		UploadWindow:    core.DefaultUploadWindow,
		LogSkipPaths:    []string{"/health", "/metrics"},
	}
}

// ServerConfigFromCore applies the server settings of cfg to the defaults.
func ServerConfigFromCore(cfg *core.Config) ServerConfig {
	config := DefaultServerConfig()
	if cfg == nil {
		return config
	}
	config.Port = cfg.Port
	config.MaxUploadBytes = cfg.MaxUploadBytes
	config.UploadsPerWindow = cfg.UploadsPerMinute
	return config
}

// NewServer creates a Server. A nil collector gets a fresh one so that the
// status endpoints always have a store to read.
func NewServer(config ServerConfig, service *pipeline.Service, collector *metrics.Collector, logger *zap.Logger) (*Server, error) {
	if service == nil {
		return nil, errors.New("webui: pipeline service is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if collector == nil {
		collector = metrics.NewCollector(metrics.NewStore(metrics.DefaultStoreConfig(), time.Now()))
	}
	defaults := DefaultServerConfig()
	if config.MaxUploadBytes <= 0 {
		config.MaxUploadBytes = defaults.MaxUploadBytes
	}
	if config.ShutdownTimeout <= 0 {
		config.ShutdownTimeout = defaults.ShutdownTimeout
	}

	server := &Server{
		mux:       http.NewServeMux(),
		config:    config,
		service:   service,
		collector: collector,
		logger:    logger,
		loggingMw: NewLoggingMiddleware(LoggingMiddlewareConfig{
			Logger:    logger,
			Observer:  collector,
			SkipPaths: config.LogSkipPaths,
		}),
		statusAPI: NewStatusAPI(collector.Store(), DefaultStatusAPIConfig()),
	}
	if config.UploadsPerWindow > 0 {
		server.limiter = NewRateLimiter(config.UploadsPerWindow, config.UploadWindow)
	}
	server.setupRoutes()

	addr := fmt.Sprintf("%s:%d", config.Host, config.Port)
	server.httpServer = &http.Server{
		Addr:         addr,
		Handler:      server.Handler(),
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		IdleTimeout:  config.IdleTimeout,
	}

	logger.Info("web server created",
		zap.String("addr", addr),
		zap.Int64("max_upload_bytes", config.MaxUploadBytes))
	return server, nil
}

func (s *Server) setupRoutes() {
	s.mux.HandleFunc("POST /upload", s.limitUploads(s.handleUpload))
	s.mux.HandleFunc("GET /review/{token}", s.handleGetReview)
	s.mux.HandleFunc("POST /review/{token}", s.handlePostReview)

	s.mux.HandleFunc("GET /health", s.statusAPI.HandleHealth)
	s.statusAPI.RegisterRoutes(s.mux)
	s.mux.Handle("GET /metrics", s.collector.Handler())
}

// limitUploads answers 429 once a client has used up its upload quota.
func (s *Server) limitUploads(next http.HandlerFunc) http.HandlerFunc {
	if s.limiter == nil {
		return next
	}
	return func(w http.ResponseWriter, r *http.Request) {
		allowed, retryAfter := s.limiter.Allow(getClientIP(r))
		if !allowed {
			seconds := int(retryAfter.Round(time.Second) / time.Second)
			if seconds < 1 {
				seconds = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(seconds))
			writeJSON(w, http.StatusTooManyRequests, ErrorResponse{
				Error: "Too many uploads. Please wait a moment and try again.",
				Retry: "upload",
			})
			return
		}
		next(w, r)
	}
}

// Handler returns the routes wrapped in the request logging middleware and
// the in-flight gauge.
func (s *Server) Handler() http.Handler {
	return promhttp.InstrumentHandlerInFlight(s.collector.InFlight, s.loggingMw.Handler(s.mux))
}

// Start listens until the server is shut down. The record store cleanup
// ticker runs until ctx is canceled.
func (s *Server) Start(ctx context.Context) error {
	s.service.Store().StartCleanupTicker(ctx, time.Minute, func(remaining int) {
		s.collector.SetActiveRecords(remaining)
	})

	if s.limiter != nil {
		s.limiter.StartCleanupTicker(ctx, 5*time.Minute)
	}

	s.logger.Info("web server starting", zap.String("addr", s.httpServer.Addr))

	err := s.httpServer.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server error: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down web server")

	shutdownCtx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown error: %w", err)
	}

	s.logger.Info("web server stopped")
	return nil
}

// Addr returns the server's address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}
