// Package http exposes the JSON API: auth, transaction CRUD and
// search, reports, analytics, budgets, goals, recurring rules,
// reminders and CSV import/export.
package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"finbook/internal/auth"
	"finbook/internal/cache"
	"finbook/internal/log"
	"finbook/internal/report"
	"finbook/internal/services"
	"finbook/internal/store"
)

// Deps carries everything the server needs. Events may be nil.
type Deps struct {
	Store     store.Store
	Tokens    *auth.TokenIssuer
	Users     *services.UserService
	Txns      *services.TransactionService
	Budgets   *services.BudgetService
	Goals     *services.GoalService
	Recurring *services.RecurringService
	Reminders *services.ReminderService
}

type Server struct {
	http.Server

	store     store.Store
	tokens    *auth.TokenIssuer
	users     *services.UserService
	txns      *services.TransactionService
	budgets   *services.BudgetService
	goals     *services.GoalService
	recurring *services.RecurringService
	reminders *services.ReminderService

	rateLimiter *rateLimiter
	metrics     *securityMetrics
	reqLog      *log.StructuredLogger

	// Per-owner dashboard cache, invalidated on every write.
	dashCache    *cache.LRUCache[report.Dashboard]
	cacheManager *cache.Manager

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// server.
func NewServer(addr string, deps Deps) *Server {
	mux := http.NewServeMux()
	httpLogger := log.New(log.Config{Component: log.ComponentHTTP})

	s := &Server{
		Server: http.Server{
			Addr:           addr,
			Handler:        mux,
			ReadTimeout:    10 * time.Second,
			WriteTimeout:   10 * time.Second,
			IdleTimeout:    60 * time.Second,
			MaxHeaderBytes: 1 << 16,
		},
		store:        deps.Store,
		tokens:       deps.Tokens,
		users:        deps.Users,
		txns:         deps.Txns,
		budgets:      deps.Budgets,
		goals:        deps.Goals,
		recurring:    deps.Recurring,
		reminders:    deps.Reminders,
		rateLimiter:  newRateLimiter(),
		metrics:      &securityMetrics{},
		reqLog:       log.NewStructuredLogger(httpLogger),
		dashCache:    cache.NewLRUCache[report.Dashboard](200, 5*time.Minute),
		cacheManager: cache.NewManager(),
	}
	s.cacheManager.Register(s.dashCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	mux.HandleFunc("POST /api/register", s.withMiddleware(s.handleRegister))
	mux.HandleFunc("POST /api/login", s.withMiddleware(s.handleLogin))

	mux.HandleFunc("GET /api/transactions", s.protected(s.handleListTransactions))
	mux.HandleFunc("POST /api/transactions", s.protected(s.handleCreateTransaction))
	mux.HandleFunc("GET /api/transactions/search", s.protected(s.handleSearchTransactions))
	mux.HandleFunc("GET /api/transactions/{id}", s.protected(s.handleGetTransaction))
	mux.HandleFunc("PUT /api/transactions/{id}", s.protected(s.handleUpdateTransaction))
	mux.HandleFunc("DELETE /api/transactions/{id}", s.protected(s.handleDeleteTransaction))

	mux.HandleFunc("GET /api/reports/dashboard", s.protected(s.handleDashboard))
	mux.HandleFunc("GET /api/reports/monthly", s.protected(s.handleMonthlyReport))
	mux.HandleFunc("GET /api/reports/categories", s.protected(s.handleCategoryReport))
	mux.HandleFunc("GET /api/reports/trend", s.protected(s.handleTrendReport))

	mux.HandleFunc("GET /api/analytics/prediction", s.protected(s.handlePrediction))
	mux.HandleFunc("GET /api/analytics/health", s.protected(s.handleHealthScore))

	mux.HandleFunc("GET /api/budgets", s.protected(s.handleBudgetProgress))
	mux.HandleFunc("PUT /api/budgets", s.protected(s.handleSetBudget))
	mux.HandleFunc("DELETE /api/budgets", s.protected(s.handleDeleteBudget))

	mux.HandleFunc("GET /api/goals", s.protected(s.handleListGoals))
	mux.HandleFunc("POST /api/goals", s.protected(s.handleCreateGoal))
	mux.HandleFunc("POST /api/goals/{id}/progress", s.protected(s.handleGoalProgress))
	mux.HandleFunc("DELETE /api/goals/{id}", s.protected(s.handleDeleteGoal))

	mux.HandleFunc("GET /api/recurring", s.protected(s.handleListRules))
	mux.HandleFunc("POST /api/recurring", s.protected(s.handleCreateRule))
	mux.HandleFunc("POST /api/recurring/apply", s.protected(s.handleApplyDue))
	mux.HandleFunc("DELETE /api/recurring/{id}", s.protected(s.handleDeleteRule))

	mux.HandleFunc("GET /api/reminders", s.protected(s.handleListReminders))
	mux.HandleFunc("POST /api/reminders", s.protected(s.handleCreateReminder))
	mux.HandleFunc("GET /api/reminders/due-soon", s.protected(s.handleDueSoon))
	mux.HandleFunc("DELETE /api/reminders/{id}", s.protected(s.handleDeleteReminder))

	mux.HandleFunc("GET /api/export/transactions.csv", s.protected(s.handleExportTransactions))
	mux.HandleFunc("GET /api/export/users.csv", s.protected(s.handleExportUsers))
	mux.HandleFunc("POST /api/import/transactions", s.protected(s.handleImportTransactions))

	s.Server.Handler = log.Middleware(httpLogger)(mux)

	return s
}

// Shutdown stops the HTTP server and background cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		s.rateLimiter.stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// withMiddleware adds security headers, rate limiting on writes,
// request IDs and request logging.
func (s *Server) withMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		clientIP := extractClientIP(r)
		requestID := generateRequestID()

		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		r = r.WithContext(ctx)

		s.reqLog.LogHTTPStart(ctx, r, requestID, clientIP)

		if detectSuspiciousRequest(r, s.metrics) {
			slog.WarnContext(ctx, "Suspicious request",
				log.FieldComponent, log.ComponentSecurity,
				log.FieldRequestID, requestID,
				log.FieldClientIP, clientIP,
				log.FieldPath, r.URL.Path)
		}

		if r.Method != http.MethodGet && !s.rateLimiter.allow(clientIP, s.metrics) {
			slog.WarnContext(ctx, "Rate limit exceeded",
				log.FieldClientIP, clientIP,
				log.FieldMethod, r.Method,
				log.FieldPath, r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded, try again later")
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		s.reqLog.LogHTTPEnd(ctx, r, requestID, clientIP,
			rw.statusCode, time.Since(start).Milliseconds())
	}
}

// protected wraps an owner-scoped handler with the full middleware
// chain plus bearer-token authentication.
func (s *Server) protected(next ownerHandler) http.HandlerFunc {
	return s.withMiddleware(s.requireAuth(next))
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

type contextKey string

const requestIDKey contextKey = "request_id"

// generateRequestID creates a unique request ID for tracing.
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func (s *Server) invalidateDashboard(owner string) {
	s.dashCache.Delete(owner)
}
