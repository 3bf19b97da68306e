package api

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/open-mpi/mtt-reporter/pkg/config"
	"github.com/open-mpi/mtt-reporter/pkg/report"
	"github.com/open-mpi/mtt-reporter/pkg/store"
	"github.com/sirupsen/logrus"
)

const shutdownTimeout = 10 * time.Second

// Server exposes the reporter HTTP server lifecycle.
type Server interface {
	Start(ctx context.Context) error
	Stop() error
}

// Compile-time interface check.
var _ Server = (*server)(nil)

type server struct {
	log        logrus.FieldLogger
	cfg        *config.Config
	store      store.Store
	engine     report.Engine
	formatter  *report.Formatter
	digester   *report.Digester
	httpServer *http.Server
	wg         sync.WaitGroup
	// now is the request clock.
	now func() time.Time
}

// NewServer creates a new reporter server.
func NewServer(
	log logrus.FieldLogger,
	cfg *config.Config,
) Server {
	return &server{
		log: log.WithField("component", "api"),
		cfg: cfg,
		now: func() time.Time { return time.Now().UTC() },
	}
}

// Start connects the results database, prepares the report engine and
// starts the HTTP server.
func (s *server) Start(ctx context.Context) error {
	s.store = store.NewStore(s.log, &s.cfg.Database)
	if err := s.store.Start(ctx); err != nil {
		return fmt.Errorf("starting store: %w", err)
	}

	if err := s.prepareReports(report.NewEngine(s.log, s.store)); err != nil {
		return err
	}

	router := s.buildRouter()

	s.httpServer = &http.Server{
		Addr:              s.cfg.Server.Listen,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Bind the listener synchronously so we fail fast on port conflicts.
	ln, err := net.Listen("tcp", s.cfg.Server.Listen)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.cfg.Server.Listen, err)
	}

	s.wg.Add(1)

	go func() {
		defer s.wg.Done()

		s.log.WithField("listen", s.cfg.Server.Listen).
			Info("Reporter server starting")

		if err := s.httpServer.Serve(ln); err != nil &&
			err != http.ErrServerClosed {
			s.log.WithError(err).Error("HTTP server error")
		}
	}()

	return nil
}

// prepareReports wires the engine, formatter and digest presets.
func (s *server) prepareReports(engine report.Engine) error {
	formatter, err := report.NewFormatter()
	if err != nil {
		return fmt.Errorf("creating formatter: %w", err)
	}

	presets, err := report.LoadPresets(s.cfg.Report.Summary.Presets)
	if err != nil {
		return fmt.Errorf("loading summary presets: %w", err)
	}

	s.engine = engine
	s.formatter = formatter
	s.digester = report.NewDigester(
		s.log, engine, presets,
		s.cfg.Report.Client, s.cfg.Report.Summary.Concurrency,
	)

	return nil
}

// Stop gracefully shuts down the HTTP server and closes the store.
func (s *server) Stop() error {
	if s.httpServer != nil {
		ctx, cancel := context.WithTimeout(
			context.Background(), shutdownTimeout,
		)
		defer cancel()

		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.log.WithError(err).Warn("HTTP server shutdown error")
		}
	}

	s.wg.Wait()

	if s.store != nil {
		if err := s.store.Stop(); err != nil {
			return fmt.Errorf("stopping store: %w", err)
		}
	}

	s.log.Info("Reporter server stopped")

	return nil
}
