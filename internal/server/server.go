// internal/server/server.go

// Package server exposes the condition engine over HTTP.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"loan-conditions-engine/internal/audit"
	"loan-conditions-engine/internal/catalog"
	"loan-conditions-engine/internal/common/config"
	"loan-conditions-engine/internal/common/logger"
	"loan-conditions-engine/internal/engine"
	"loan-conditions-engine/internal/mismo"
	"loan-conditions-engine/internal/notify"
	"loan-conditions-engine/internal/resultcache"
)

// Server wires the engine and its collaborators behind the HTTP API.
// Audit, cache, indexer, and notifier may be nil; the corresponding
// behavior is simply skipped.
type Server struct {
	cfg      *config.Config
	logger   logger.Logger
	store    *catalog.Store
	engine   *engine.Engine
	parser   *mismo.Parser
	cache    *resultcache.Cache
	audit    *audit.Store
	indexer  *catalog.Indexer
	notifier *notify.Notifier

	httpServer *http.Server
}

// Options carries the optional collaborators.
type Options struct {
	Cache    *resultcache.Cache
	Audit    *audit.Store
	Indexer  *catalog.Indexer
	Notifier *notify.Notifier
}

func New(cfg *config.Config, log logger.Logger, store *catalog.Store, opts Options) *Server {
	return &Server{
		cfg:      cfg,
		logger:   log,
		store:    store,
		engine:   engine.New(log),
		parser:   mismo.NewParser(log),
		cache:    opts.Cache,
		audit:    opts.Audit,
		indexer:  opts.Indexer,
		notifier: opts.Notifier,
	}
}

// Routes builds the full handler tree.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("POST /api/loans/evaluate", s.handleEvaluate)
	mux.HandleFunc("POST /api/loans/evaluate-facts", s.handleEvaluateFacts)
	mux.HandleFunc("POST /api/loans/export", s.handleExport)
	mux.HandleFunc("GET /api/loans/export/formats", s.handleExportFormats)
	mux.HandleFunc("GET /api/loans/{loanId}/audit", s.handleLoanAudit)
	mux.HandleFunc("GET /api/audit/recent", s.handleRecentAudit)

	mux.HandleFunc("GET /api/conditions", s.handleConditionList)
	mux.HandleFunc("GET /api/conditions/stats", s.handleConditionStats)
	mux.HandleFunc("GET /api/conditions/search", s.handleConditionSearch)
	mux.HandleFunc("GET /api/conditions/{code}", s.handleConditionDetails)
	mux.HandleFunc("POST /api/conditions/reload", s.handleReload)

	mux.Handle("GET /metrics", promhttp.Handler())

	return s.withRequestLogging(mux)
}

// Start runs the HTTP server until the listener fails.
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.cfg.Server.Port),
		Handler:      s.Routes(),
		ReadTimeout:  time.Duration(s.cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(s.cfg.Server.WriteTimeout) * time.Second,
	}
	s.logger.Info("http server starting", map[string]interface{}{
		"port": s.cfg.Server.Port,
	})
	return s.httpServer.ListenAndServe()
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}
