// Package http exposes the expense ledger as a JSON API.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"spendtrack/internal/ledger"
	applog "spendtrack/internal/log"
)

// Server wires the JSON API on top of the ledger. It embeds http.Server
// so callers can tune timeouts before ListenAndServe.
type Server struct {
	http.Server

	ledger      *ledger.Ledger
	logger      *applog.Logger
	rateLimiter *rateLimiter
	now         func() time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// server. ratePerMinute bounds mutating requests per client.
func NewServer(addr string, led *ledger.Ledger, logger *applog.Logger, ratePerMinute int) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr: addr,
		},
		ledger:      led,
		logger:      logger.WithComponent(applog.ComponentHTTP),
		rateLimiter: newRateLimiter(ratePerMinute),
		now:         time.Now,
	}
	s.Handler = applog.Middleware(s.logger)(mux)

	mux.HandleFunc("GET /{$}", s.withMiddleware(s.handleIndex))
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	mux.HandleFunc("POST /expense", s.withMiddleware(s.handleAddExpense))
	mux.HandleFunc("GET /expenses", s.withMiddleware(s.handleListExpenses))
	mux.HandleFunc("GET /expense/{id}", s.withMiddleware(s.handleGetExpense))
	mux.HandleFunc("DELETE /expense/{id}", s.withMiddleware(s.handleDeleteExpense))
	mux.HandleFunc("DELETE /expenses/all", s.withMiddleware(s.handleDeleteAll))

	mux.HandleFunc("GET /analytics", s.withMiddleware(s.handleAnalytics))
	mux.HandleFunc("GET /insights", s.withMiddleware(s.handleInsights))
	mux.HandleFunc("GET /predict", s.withMiddleware(s.handlePredict))

	mux.HandleFunc("POST /budget", s.withMiddleware(s.handleSetBudget))
	mux.HandleFunc("GET /budget-status", s.withMiddleware(s.handleBudgetStatus))

	mux.HandleFunc("GET /stats", s.withMiddleware(s.handleStats))
	mux.HandleFunc("GET /export", s.withMiddleware(s.handleExport))

	return s
}

// Shutdown stops the rate limiter cleanup goroutine and then shuts down
// the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// withMiddleware adds request tracing, structured request logging, rate
// limiting for mutating methods, and baseline security headers.
func (s *Server) withMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := s.now()

		clientIP := r.Header.Get("X-Forwarded-For")
		if clientIP == "" {
			clientIP = r.Header.Get("X-Real-IP")
		}
		if clientIP == "" {
			clientIP = r.RemoteAddr
		}

		requestID := ulid.Make().String()
		reqLogger := applog.FromContext(r.Context()).With(
			applog.FieldRequestID, requestID,
			applog.FieldClientIP, clientIP,
		)
		ctx := applog.NewContext(r.Context(), reqLogger)
		r = r.WithContext(ctx)

		if mutating(r.Method) && !s.rateLimiter.allow(clientIP) {
			reqLogger.WarnContext(ctx, "Rate limit exceeded",
				applog.FieldMethod, r.Method,
				applog.FieldPath, r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded, please try again later")
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		reqLogger.InfoContext(ctx, "Request completed",
			applog.FieldMethod, r.Method,
			applog.FieldPath, r.URL.Path,
			applog.FieldStatus, rw.statusCode,
			applog.FieldDuration, time.Since(start).Milliseconds(),
			applog.FieldUserAgent, r.Header.Get("User-Agent"))
	}
}

func mutating(method string) bool {
	return method == http.MethodPost || method == http.MethodDelete
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
