package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/efreitasn/toymarket/internal/service"
)

// NewRouter creates a chi router with all routes registered, request logging,
// and Content-Type validation middleware.
func NewRouter(svc *service.MarketService, logger *zap.Logger) chi.Router {
	r := chi.NewRouter()

	// Global middleware.
	r.Use(requestLogging(logger))
	r.Use(contentTypeJSON)

	// Create handlers.
	companyH := NewCompanyHandler(svc)
	tradeH := NewTradeHandler(svc)
	accountH := NewAccountHandler(svc)
	historyH := NewHistoryHandler(svc)
	schedulerH := NewSchedulerHandler(svc)

	// Health check.
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Company routes.
	r.Get("/companies", companyH.List)
	r.Post("/companies", companyH.Create)
	r.Get("/companies/{ref}", companyH.Get)
	r.Post("/companies/{ref}/events", companyH.ApplyEvent)

	// Trade routes.
	r.Post("/trades", tradeH.Submit)

	// Account routes.
	r.Put("/accounts/{user_id}", accountH.Open)
	r.Get("/accounts/{user_id}/balance", accountH.Balance)
	r.Put("/accounts/{user_id}/freeze", accountH.Freeze)
	r.Get("/accounts/{user_id}/positions", accountH.Positions)
	r.Get("/rankings", accountH.Ranking)

	// History routes.
	r.Get("/history", historyH.List)
	r.Get("/history/average", historyH.Average)
	r.Post("/history/snapshots", historyH.Snapshot)

	// Scheduler routes.
	r.Get("/scheduler", schedulerH.Status)
	r.Post("/scheduler/start", schedulerH.Start)
	r.Post("/scheduler/stop", schedulerH.Stop)

	return r
}

// requestLogging returns middleware that logs each request's method, path,
// status code, and duration.
func requestLogging(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r)
			logger.Info("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.status),
				zap.Duration("duration", time.Since(start)),
			)
		})
	}
}

// statusWriter wraps http.ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *statusWriter) WriteHeader(code int) {
	if !w.wroteHeader {
		w.status = code
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(code)
}

// contentTypeJSON rejects POST, PUT and PATCH requests that carry a body
// whose Content-Type is not application/json. Body-less requests pass.
func contentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch {
			ct := r.Header.Get("Content-Type")
			if r.ContentLength != 0 && (ct == "" || !strings.HasPrefix(ct, "application/json")) {
				WriteError(w, http.StatusBadRequest, "invalid_request",
					"Content-Type must be application/json")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}
