package httpapi

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/isdmx/codeprobe/history"
	"github.com/isdmx/codeprobe/metrics"
	"github.com/isdmx/codeprobe/report"
	"github.com/isdmx/codeprobe/sandbox"
)

// Analyzer produces analysis reports
type Analyzer interface {
	Analyze(ctx context.Context, code, language string) report.Report
	Model() string
}

// HistoryStore records and lists analysis reports
type HistoryStore interface {
	Save(ctx context.Context, language, code string, r report.Report) (history.Entry, error)
	List(ctx context.Context, limit int) ([]history.Entry, error)
}

// Server is the JSON API in front of the sandbox and the analyzer
type Server struct {
	router   chi.Router
	logger   *zap.Logger
	executor sandbox.SandboxExecutor
	analyzer Analyzer
	history  HistoryStore
	vendor   string
	mcp      http.Handler
}

// Option configures a Server
type Option func(*Server)

// WithHistory enables analysis history
func WithHistory(store HistoryStore) Option {
	return func(s *Server) {
		s.history = store
	}
}

// WithVendor sets the provider name reported by /api/model-info
func WithVendor(vendor string) Option {
	return func(s *Server) {
		s.vendor = vendor
	}
}

// WithMCPHandler mounts an MCP streamable HTTP endpoint at /mcp
func WithMCPHandler(h http.Handler) Option {
	return func(s *Server) {
		s.mcp = h
	}
}

// New creates a Server and its routes
func New(logger *zap.Logger, executor sandbox.SandboxExecutor, analyzer Analyzer, opts ...Option) *Server {
	s := &Server{
		router:   chi.NewRouter(),
		logger:   logger,
		executor: executor,
		analyzer: analyzer,
		vendor:   "Local",
	}

	for _, opt := range opts {
		opt(s)
	}

	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(s.accessLog)
	s.router.Use(chimiddleware.Recoverer)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/model-info", s.handleModelInfo)
		r.Post("/execute/{language}", s.handleExecute)
		r.Post("/analyze", s.handleAnalyze)
		r.Post("/debug", s.handleAnalyze)
		r.Get("/history", s.handleHistory)
	})

	s.router.Handle("/metrics", metrics.Handler())

	if s.mcp != nil {
		s.router.Handle("/mcp", s.mcp)
	}
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
