// Package http exposes the JSON API over net/http.
package http

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"fintrack/internal/cache"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/middleware/ratelimit"
	"fintrack/internal/middleware/security"
	"fintrack/internal/middleware/trace"
	"fintrack/internal/services"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Services groups the application services the handlers call.
type Services struct {
	Flows   *services.FlowService
	Debts   *services.DebtService
	Reports *services.ReportService
	Store   Pinger
}

// Options tunes the server. Zero values take defaults.
type Options struct {
	RateLimitRPM         int
	CacheCleanupInterval time.Duration
	Logger               *log.Logger
}

type Server struct {
	http.Server

	flows   *services.FlowService
	debts   *services.DebtService
	reports *services.ReportService
	store   Pinger

	logger   *log.Logger
	events   *log.StructuredLogger
	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware
	caches   *cache.Manager

	startedAt    time.Time
	stopLoops    context.CancelFunc
	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// server. Background cleanup loops run until Shutdown.
func NewServer(addr string, svc Services, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.Discard()
	}
	if opts.CacheCleanupInterval <= 0 {
		opts.CacheCleanupInterval = 10 * time.Minute
	}

	detector := security.NewDetector(logger)
	s := &Server{
		flows:     svc.Flows,
		debts:     svc.Debts,
		reports:   svc.Reports,
		store:     svc.Store,
		logger:    logger.WithComponent(log.ComponentHTTP),
		events:    log.NewStructuredLogger(logger),
		limiter:   ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitRPM}, logger),
		detector:  detector,
		tracer:    trace.NewMiddleware(detector.ExtractClientIP, logger),
		caches:    cache.NewManager(logger),
		startedAt: time.Now(),
	}
	if s.debts != nil {
		s.caches.Register(s.debts.PlanCache())
	}

	mux := http.NewServeMux()
	s.routes(mux)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.middleware(mux),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.stopLoops = cancel
	go s.limiter.Run(ctx)
	go s.caches.Run(ctx, opts.CacheCleanupInterval)

	return s
}

func (s *Server) routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	s.flowRoutes(mux, core.Income, "incomes", "income-entries")
	s.flowRoutes(mux, core.Expense, "expenses", "expense-entries")

	mux.HandleFunc("GET /api/banks", s.handleListBanks)
	mux.HandleFunc("POST /api/banks", s.handleCreateBank)
	mux.HandleFunc("GET /api/banks/{id}", s.handleGetBank)
	mux.HandleFunc("PUT /api/banks/{id}", s.handleUpdateBank)
	mux.HandleFunc("DELETE /api/banks/{id}", s.handleDeleteBank)
	mux.HandleFunc("GET /api/banks/{id}/plan", s.handlePlan)
	mux.HandleFunc("POST /api/banks/{id}/payments", s.handlePayMonth)
	mux.HandleFunc("POST /api/banks/{id}/extra-payments", s.handlePayExtra)
	mux.HandleFunc("PUT /api/banks/{id}/custom-payments/{month}", s.handleSetCustomPayment)
	mux.HandleFunc("DELETE /api/banks/{id}/custom-payments/{month}", s.handleClearCustomPayment)

	mux.HandleFunc("GET /api/summary", s.handleSummary)
}

// middleware wraps the mux. Order, outermost first: request logger, trace,
// request id on the logger, security headers, scan detection, rate limit on
// /api/.
func (s *Server) middleware(next http.Handler) http.Handler {
	limited := s.limiter.Middleware(s.detector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
		ErrorResponse(http.StatusTooManyRequests, "rate limit exceeded, retry later", "").Write(w)
	})(next)

	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/") {
			limited.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})

	var handler http.Handler = h
	handler = s.detector.Middleware(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = log.RequestIDMiddleware(func(r *http.Request) string {
		return trace.GetRequestID(r.Context())
	})(handler)
	handler = s.tracer.Middleware(handler)
	return log.Middleware(s.logger)(handler)
}

// Shutdown stops the background loops and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.stopLoops()
		err = s.Server.Shutdown(ctx)
	})
	return err
}
