// Package http exposes the analysis, records, auth and report endpoints.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"spendlens/internal/auth"
	"spendlens/internal/cache"
	"spendlens/internal/log"
	"spendlens/internal/middleware/ratelimit"
	"spendlens/internal/middleware/security"
	"spendlens/internal/middleware/trace"
	"spendlens/internal/services"
)

// Deps are the collaborators the server routes to.
type Deps struct {
	Auth     *auth.Service
	Records  *services.RecordService
	Analysis *services.AnalysisService
	Reports  *services.ReportService

	// Ready reports backend health for /readyz. Nil means always ready.
	Ready func(ctx context.Context) error
	// CacheStats reports the analysis cache counters for /metrics. Optional.
	CacheStats func() cache.Stats

	Logger             *log.Logger
	LoginRatePerMinute int
}

type Server struct {
	http.Server
	deps Deps

	logger           *log.Logger
	loginLimiter     *ratelimit.Limiter
	securityDetector *security.Detector
	traceMiddleware  *trace.Middleware
	appMetrics       *appMetrics

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = log.Discard()
	}

	detector := security.NewDetector()
	s := &Server{
		Server: http.Server{
			Addr:              addr,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      60 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		deps:             deps,
		logger:           logger.WithComponent(log.ComponentHTTP),
		loginLimiter:     ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: deps.LoginRatePerMinute}),
		securityDetector: detector,
		traceMiddleware:  trace.NewMiddleware(detector.ExtractClientIP),
		appMetrics:       newAppMetrics(),
	}
	s.Handler = s.routes()
	return s
}

func (s *Server) routes() http.Handler {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		NotFoundError("not found").Write(w)
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ErrorResponse(http.StatusMethodNotAllowed, "method not allowed").Write(w)
	})

	r.Use(
		log.Middleware(s.logger),
		s.traceMiddleware.Middleware,
		s.securityDetector.Middleware,
		security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware,
	)

	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/readyz", s.handleReady).Methods(http.MethodGet)
	r.HandleFunc("/metrics", s.handleMetrics).Methods(http.MethodGet)

	authRouter := r.PathPrefix("/auth").Subrouter()
	authRouter.Use(log.ComponentMiddleware(log.ComponentAuth))
	authRouter.Use(s.loginLimiter.Middleware(s.securityDetector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
		ErrorResponse(http.StatusTooManyRequests, "rate limit exceeded, try again later").Write(w)
	}))
	authRouter.HandleFunc("/signup", s.handleSignup).Methods(http.MethodPost)
	authRouter.HandleFunc("/login", s.handleLogin).Methods(http.MethodPost)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(s.requireAuth)
	api.HandleFunc("/records", s.handleListRecords).Methods(http.MethodGet)
	api.HandleFunc("/records", s.handleCreateRecord).Methods(http.MethodPost)
	api.HandleFunc("/records", s.handleClearRecords).Methods(http.MethodDelete)
	api.HandleFunc("/records/upload", s.handleUploadRecords).Methods(http.MethodPost)
	api.HandleFunc("/analysis", s.handleAnalysis).Methods(http.MethodGet)
	api.HandleFunc("/insights", s.handleInsights).Methods(http.MethodGet)
	api.HandleFunc("/reports", s.handleListReports).Methods(http.MethodGet)
	api.HandleFunc("/reports/stored/{id:[0-9]+}", s.handleDownloadStoredReport).Methods(http.MethodGet)
	api.HandleFunc("/reports/{format}", s.handleDownloadReport).Methods(http.MethodGet)
	api.HandleFunc("/reports/{format}", s.handleQueueReport).Methods(http.MethodPost)

	return r
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.loginLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
