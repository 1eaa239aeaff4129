// Package server exposes the rewriter over HTTP: an index page, the
// POST /fetch endpoint, a health check and Prometheus metrics.
package server

import (
	"context"
	"embed"
	"io/fs"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/gaurav-prasanna/faleproxy/core"
	"github.com/gaurav-prasanna/faleproxy/internal/config"
	"github.com/gaurav-prasanna/faleproxy/internal/metrics"
)

//go:embed static/*
var staticFS embed.FS

const defaultShutdownTimeout = 10 * time.Second

// Options holds the collaborators a Server needs. Recorder and Metrics are
// optional.
type Options struct {
	Fetcher  core.Fetcher
	Rewriter core.Rewriter
	Recorder metrics.Recorder
	Metrics  http.Handler // served at /metrics when set
	Logger   zerolog.Logger
}

// Server is the faleproxy HTTP service.
type Server struct {
	cfg      config.ServerConfig
	fetcher  core.Fetcher
	rewriter core.Rewriter
	recorder metrics.Recorder
	logger   zerolog.Logger
	handler  http.Handler
}

// New wires the routes and middleware.
func New(cfg config.ServerConfig, opts Options) *Server {
	if opts.Recorder == nil {
		opts.Recorder = metrics.NoopRecorder{}
	}
	s := &Server{
		cfg:      cfg,
		fetcher:  opts.Fetcher,
		rewriter: opts.Rewriter,
		recorder: opts.Recorder,
		logger:   opts.Logger,
	}

	static, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err) // embedded at build time
	}

	mux := http.NewServeMux()
	mux.Handle("GET /", http.FileServerFS(static))
	mux.HandleFunc("POST /fetch", s.handleFetch)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	if opts.Metrics != nil {
		mux.Handle("GET /metrics", opts.Metrics)
	}

	s.handler = Chain(s.logger, s.recorder)(mux)
	return s
}

// Handler returns the root handler, middleware included.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run listens on the configured address and serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", s.cfg.Addr)
	if err != nil {
		return errors.Errorf("listening on %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled, then drains
// in-flight requests within the shutdown timeout.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: s.cfg.ReadHeaderTimeout,
		ReadTimeout:       s.cfg.ReadTimeout,
		WriteTimeout:      s.cfg.WriteTimeout,
		IdleTimeout:       s.cfg.IdleTimeout,
		BaseContext:       func(net.Listener) context.Context { return s.logger.WithContext(context.Background()) },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", ln.Addr().String()).Msg("faleproxy listening")
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.Errorf("serving HTTP: %w", err)
	case <-ctx.Done():
	}

	timeout := s.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = defaultShutdownTimeout
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	s.logger.Info().Msg("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Errorf("shutting down: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Errorf("serving HTTP: %w", err)
	}
	return nil
}
