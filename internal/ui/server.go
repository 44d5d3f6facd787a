// Package ui provides a web view over the starlift state: the latest scan,
// its assignments, findings, move plan, and ledgers.
package ui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/lukhas-labs/starlift/pkg/audit"
	"github.com/lukhas-labs/starlift/pkg/core"
	"github.com/lukhas-labs/starlift/pkg/rules"
)

// Config holds configuration for the UI server.
type Config struct {
	Store   core.Store
	RuleSet *rules.RuleSet
	Addr    string
	Logger  *slog.Logger
}

// Server serves the report viewer.
type Server struct {
	store   core.Store
	ruleSet *rules.RuleSet
	addr    string
	logger  *slog.Logger
}

// NewServer creates a new UI server instance.
func NewServer(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Server{
		store:   cfg.Store,
		ruleSet: cfg.RuleSet,
		addr:    cfg.Addr,
		logger:  logger,
	}
}

// Serve starts the UI server and blocks until the context is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	s.logger.Info("starting UI server", "addr", fmt.Sprintf("http://%s", s.addr))

	eg, egctx := errgroup.WithContext(ctx)

	r := chi.NewMux()
	r.Use(
		middleware.Logger,
		middleware.Recoverer,
		middleware.Compress(5),
	)
	s.routes(r)

	srv := &http.Server{
		Addr:    s.addr,
		Handler: r,
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	eg.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Debug("shutting down UI server...")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}

func (s *Server) routes(r chi.Router) {
	r.Get("/", s.handleDashboard)
	r.Get("/assignments", s.handleAssignments)
	r.Get("/findings", s.handleFindings)
	r.Get("/moves", s.handleMoves)
	r.Get("/todos", s.handleTodos)
	r.Get("/suppressions", s.handleSuppressions)

	r.Route("/api", func(r chi.Router) {
		r.Get("/scan", s.apiScan)
		r.Get("/assignments", s.apiAssignments)
		r.Get("/findings", s.apiFindings)
		r.Get("/moves", s.apiMoves)
	})
}

// latestScan loads the most recent scan, or reports 404 when none exists.
func (s *Server) latestScan(w http.ResponseWriter) (*core.Scan, bool) {
	scan, err := s.store.GetLatestScan()
	if err != nil {
		http.Error(w, "no scan recorded yet, run 'starlift scan' first", http.StatusNotFound)
		return nil, false
	}
	return scan, true
}

// healthScore computes the score from the scan's persisted findings.
func (s *Server) healthScore(scanID string) int {
	counts, err := s.store.CountFindingsBySeverity(scanID)
	if err != nil {
		return 0
	}
	return audit.HealthScoreFromCounts(counts)
}
