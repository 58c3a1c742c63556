// Package server wires configuration, engines, the dispatcher, and a
// front end together into one running process: load config, construct
// dependencies, start listeners, wait for shutdown.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/canhld94/HeteroServing/internal/apperr"
	"github.com/canhld94/HeteroServing/internal/config"
	"github.com/canhld94/HeteroServing/internal/dispatch"
	"github.com/canhld94/HeteroServing/internal/engine"
	_ "github.com/canhld94/HeteroServing/internal/engine/backend"
	"github.com/canhld94/HeteroServing/internal/grpcfront"
	"github.com/canhld94/HeteroServing/internal/httpfront"
	"github.com/canhld94/HeteroServing/internal/metrics"
)

// frontend is whichever protocol Server starts: httpfront.Server or
// grpcfront.Server both satisfy it.
type frontend interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

// Server is the fully wired HeteroServing process.
type Server struct {
	cfg        *config.Config
	log        *slog.Logger
	metrics    *metrics.Metrics
	dispatcher *dispatch.Dispatcher
	front      frontend
}

// New loads path, builds every configured engine, and wires the chosen
// protocol's front end. It does not start listening or serving; call Run
// for that. Config.ActiveEngines puts any singleton-accelerator spec
// first, so the FPGA context (created inside engine.Create, after its
// bitstream variable is set) exists before any other device's.
func New(path string, log *slog.Logger) (*Server, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = slog.Default()
	}
	log.Info("loaded configuration", "config", cfg.String())

	m := metrics.New()

	enginesByDevice := map[engine.Device][]engine.InferenceEngine{}
	var order []engine.Device
	for _, spec := range cfg.ActiveEngines() {
		for i := 0; i < spec.Replicas; i++ {
			eng, err := engine.Create(spec.Device, engine.ModelKind(spec.Model.Name), spec.Model.Graph, spec.Model.Label, spec.Bitstream)
			if err != nil {
				return nil, fmt.Errorf("construct engine for device %q: %w", spec.Device, err)
			}
			dev := eng.Device()
			if _, seen := enginesByDevice[dev]; !seen {
				order = append(order, dev)
			}
			enginesByDevice[dev] = append(enginesByDevice[dev], eng)
		}
	}

	d := dispatch.New(enginesByDevice, order, m, log)

	var front frontend
	addr := net.JoinHostPort(cfg.IP, cfg.Port)
	switch cfg.Protocol {
	case config.ProtocolHTTP:
		front = httpfront.New(addr, d, log)
	case config.ProtocolGRPC:
		front = grpcfront.New(addr, d, log)
	default:
		return nil, apperr.NewConfigError("unknown protocol %q", cfg.Protocol)
	}

	return &Server{cfg: cfg, log: log, metrics: m, dispatcher: d, front: front}, nil
}

// Run starts the front end and the worker pools and blocks until ctx is
// cancelled or a listener fails. Every worker runs on a background
// goroutine except one, which Run keeps for the calling goroutine: the
// singleton accelerator's worker when that device is configured (its SDK
// owns the process's main thread), otherwise an arbitrary worker.
func (s *Server) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := s.front.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("front end: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.front.Shutdown(shutdownCtx)
		return gctx.Err()
	})
	if s.cfg.MetricsPort != "" {
		g.Go(func() error {
			addr := net.JoinHostPort(s.cfg.IP, s.cfg.MetricsPort)
			mux := http.NewServeMux()
			mux.Handle("/metrics", s.metrics.Handler())
			s.log.Info("metrics listening", "addr", addr)
			if err := http.ListenAndServe(addr, mux); err != nil {
				return fmt.Errorf("metrics listener: %w", err)
			}
			return nil
		})
	}

	if w := s.dispatcher.Start(gctx); w != nil {
		// Blocks until gctx is cancelled (dispatcher closes the queues)
		// or a front-end goroutine fails (errgroup cancels gctx).
		w.Run(gctx)
	}
	return g.Wait()
}
