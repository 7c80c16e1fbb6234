package router

import (
	"net/http"
	"time"

	"github.com/mailer8/mailer8/internal/handler"
	"github.com/mailer8/mailer8/internal/logger"
	"github.com/mailer8/mailer8/internal/middleware"
)

// New creates and configures the HTTP router
func New(h *handler.Handler, mw *middleware.Middleware, log *logger.Logger) http.Handler {
	mux := http.NewServeMux()

	// Health check endpoints (no auth required)
	mux.HandleFunc("GET /health", h.Health)
	mux.HandleFunc("GET /ready", h.Ready)

	// API v1 routes
	mux.HandleFunc("GET /api/v1/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"message":"Mailer8 API v1","version":"1.0.0"}`))
	})

	dispatchRateLimit := mw.RateLimit(middleware.RateLimitConfig{
		Limit:  10,
		Window: 1 * time.Minute,
		KeyFn:  middleware.IPKey,
	})

	// Admin trigger (session-authenticated, always runs)
	mux.Handle("POST /api/v1/jobs/birthday-emails",
		mw.Auth(dispatchRateLimit(http.HandlerFunc(h.SendBirthdayEmails))))

	// External cron trigger (pre-shared key, schedule gated)
	mux.Handle("POST /api/v1/jobs/birthday-emails/cron",
		mw.CronKey(dispatchRateLimit(http.HandlerFunc(h.SendBirthdayEmailsCron))))

	// Dispatch audit endpoints (session-authenticated)
	mux.Handle("GET /api/v1/jobs/email-logs", mw.Auth(http.HandlerFunc(h.GetEmailLogs)))
	mux.Handle("GET /api/v1/jobs/birthday-email-stats", mw.Auth(http.HandlerFunc(h.GetBirthdayEmailStats)))

	// Apply middleware stack
	var root http.Handler = mux

	// CORS (configure allowed origins based on environment)
	root = mw.CORS([]string{"http://localhost:3000", "http://localhost:5173"})(root)

	// Security headers
	root = mw.SecurityHeaders(root)

	// Request logging
	root = mw.Logger(root)

	// Timing
	root = mw.Timing(root)

	// Request ID
	root = mw.RequestID(root)

	// Panic recovery (outermost)
	root = mw.Recover(root)

	return root
}
