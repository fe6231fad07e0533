package webui

import (
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// RequestObserver receives one call per served request. *metrics.Collector
// implements it.
type RequestObserver interface {
	ObserveRequest(method, route string, status int, d time.Duration)
}

// LoggingMiddleware logs every HTTP request with method, route, status and
// duration, and reports it to an optional RequestObserver.
//
// Requests are labeled with the matched ServeMux pattern rather than the raw
// path so that review tokens never reach logs or metric labels.
type LoggingMiddleware struct {
	logger    *zap.Logger
	observer  RequestObserver
	skipPaths map[string]bool
	now       func() time.Time
}

// LoggingMiddlewareConfig holds configuration for the LoggingMiddleware.
type LoggingMiddlewareConfig struct {
	// Logger for request logging (default: no-op)
	Logger *zap.Logger

	// Observer receives request metrics (optional)
	Observer RequestObserver

	// SkipPaths are paths logged at debug level only (default: none).
	// They are still observed.
	SkipPaths []string
}

// NewLoggingMiddleware creates a LoggingMiddleware.
func NewLoggingMiddleware(config LoggingMiddlewareConfig) *LoggingMiddleware {
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}

	skipPaths := make(map[string]bool)
	for _, path := range config.SkipPaths {
		skipPaths[path] = true
	}

	return &LoggingMiddleware{
		logger:    config.Logger,
		observer:  config.Observer,
		skipPaths: skipPaths,
		now:       time.Now,
	}
}

// Handler wraps next with request logging.
func (m *LoggingMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := m.now()

		wrapped := &responseWriterWrapper{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}
		next.ServeHTTP(wrapped, r)

		duration := m.now().Sub(start)
		route := routeLabel(r)

		if m.observer != nil {
			m.observer.ObserveRequest(r.Method, route, wrapped.statusCode, duration)
		}

		level := levelForStatus(wrapped.statusCode)
		if m.skipPaths[r.URL.Path] && level == zapcore.InfoLevel {
			level = zapcore.DebugLevel
		}
		if ce := m.logger.Check(level, "http request"); ce != nil {
			ce.Write(
				zap.String("method", r.Method),
				zap.String("route", route),
				zap.Int("status", wrapped.statusCode),
				zap.Duration("duration", duration),
				zap.Int64("bytes", wrapped.bytesWritten),
				zap.String("remote_addr", getClientIP(r)),
			)
		}
	})
}

// routeLabel returns the pattern ServeMux matched, without the method
// prefix, or "unmatched".
func routeLabel(r *http.Request) string {
	if r.Pattern == "" {
		return "unmatched"
	}
	if _, path, ok := strings.Cut(r.Pattern, " "); ok {
		return path
	}
	return r.Pattern
}

func levelForStatus(status int) zapcore.Level {
	switch {
	case status >= 500:
		return zapcore.ErrorLevel
	case status >= 400:
		return zapcore.WarnLevel
	default:
		return zapcore.InfoLevel
	}
}

// responseWriterWrapper wraps http.ResponseWriter to capture status code
type responseWriterWrapper struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int64
	wroteHeader  bool
}

// WriteHeader captures the status code
func (w *responseWriterWrapper) WriteHeader(statusCode int) {
	if !w.wroteHeader {
		w.statusCode = statusCode
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(statusCode)
}

// Write captures the bytes written and ensures header is written
func (w *responseWriterWrapper) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	n, err := w.ResponseWriter.Write(b)
	w.bytesWritten += int64(n)
	return n, err
}

// Flush implements http.Flusher if the underlying writer supports it
func (w *responseWriterWrapper) Flush() {
	if flusher, ok := w.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

// getClientIP prefers the first X-Forwarded-For hop, then X-Real-IP.
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	return r.RemoteAddr
}
