// ABOUTME: HTTP server wiring: routes, middleware, and component lifecycle
// ABOUTME: Owns startup and graceful shutdown of the store, sweeper, and listener

package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/2389/hearth-bridge/internal/auth"
	"github.com/2389/hearth-bridge/internal/builtins"
	"github.com/2389/hearth-bridge/internal/config"
	"github.com/2389/hearth-bridge/internal/mailbox"
	"github.com/2389/hearth-bridge/internal/metrics"
	"github.com/2389/hearth-bridge/internal/rpc"
	"github.com/2389/hearth-bridge/internal/store"
	"github.com/2389/hearth-bridge/internal/stream"
	"github.com/2389/hearth-bridge/internal/tools"
)

// ServerName is advertised in initialize responses.
const ServerName = "hearth-bridge"

// Server assembles every component behind one HTTP listener.
type Server struct {
	cfg    *config.Config
	logger *slog.Logger

	store      *store.SQLiteStore
	registry   *tools.Registry
	dispatcher *tools.Dispatcher
	router     *rpc.Router
	mailbox    *mailbox.Mailbox
	sweeper    *mailbox.Sweeper
	transport  *stream.Transport
	limiter    *auth.RateLimiter
	handler    http.Handler
	httpServer *http.Server
	stopCh     chan struct{}
}

// New builds a fully wired server from configuration. The store is opened
// and the builtin tools registered here; nothing starts listening until
// Start.
func New(cfg *config.Config, version string, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "server")

	if err := mailbox.ValidateSchedule(cfg.Stream.SweepSchedule); err != nil {
		return nil, err
	}

	st, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	registry := tools.NewRegistry(st, logger)
	builtins.RegisterBase(registry)
	builtins.RegisterNotes(registry, st)

	dispatcher := tools.NewDispatcher(registry, logger)
	router := rpc.NewRouter(registry, dispatcher, ServerName, version, logger)

	mbox := mailbox.New(st, cfg.Stream.MessageTTL, logger)
	sweeper, err := mailbox.NewSweeper(mbox, cfg.Stream.SweepSchedule, logger)
	if err != nil {
		st.Close()
		return nil, err
	}

	transport := stream.NewTransport(mbox, stream.Config{
		BaseURL:           cfg.Server.BaseURL,
		Token:             cfg.Auth.Token,
		PollInterval:      cfg.Stream.PollInterval,
		HeartbeatInterval: cfg.Stream.HeartbeatInterval,
		IdleTimeout:       cfg.IdleTimeoutFor(cfg.Logging.Level),
	}, logger)

	s := &Server{
		cfg:        cfg,
		logger:     logger,
		store:      st,
		registry:   registry,
		dispatcher: dispatcher,
		router:     router,
		mailbox:    mbox,
		sweeper:    sweeper,
		transport:  transport,
	}
	s.handler = s.buildRoutes()
	return s, nil
}

func (s *Server) buildRoutes() http.Handler {
	authenticator := auth.NewAuthenticator(s.cfg.Auth, s.logger)
	authenticated := auth.Middleware(authenticator)

	if s.cfg.RateLimit.Enabled {
		s.limiter = auth.NewRateLimiter(s.cfg.RateLimit.RequestsPerSecond, s.cfg.RateLimit.Burst)
	}

	// Both protected routes share one limiter so a caller's budget spans
	// the stream and message endpoints.
	protect := func(h http.Handler) http.Handler {
		if s.limiter != nil {
			h = auth.RateLimitMiddleware(s.limiter)(h)
		}
		return authenticated(h)
	}

	mux := http.NewServeMux()
	mux.Handle("/sse", protect(s.transport))
	mux.Handle("/messages", protect(http.HandlerFunc(s.handleMessages)))
	mux.HandleFunc("/healthz", s.handleHealth)

	if s.cfg.Metrics.Enabled {
		path := s.cfg.Metrics.Path
		if path == "" {
			path = "/metrics"
		}
		mux.Handle(path, metrics.Handler())
	}
	return mux
}

// Handler exposes the routed handler, primarily for tests.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Registry exposes the tool registry for administrative commands.
func (s *Server) Registry() *tools.Registry {
	return s.registry
}

// Start begins the sweeper and serves HTTP until Shutdown or a listener
// failure.
func (s *Server) Start() error {
	s.sweeper.Start()

	s.stopCh = make(chan struct{})
	if s.limiter != nil {
		go s.resetLimiterLoop()
	}

	s.httpServer = &http.Server{
		Addr:              s.cfg.Server.HTTPAddr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.Info("listening", "addr", s.cfg.Server.HTTPAddr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// resetLimiterLoop drops every caller's limiter state on an hourly cadence
// so the per-caller map cannot grow without bound.
func (s *Server) resetLimiterLoop() {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.limiter.Reset()
		case <-s.stopCh:
			return
		}
	}
}

// Shutdown drains in-flight requests, stops the sweeper, and closes the
// store. SSE connections end when their request contexts are cancelled by
// the http server's shutdown.
func (s *Server) Shutdown(ctx context.Context) error {
	var firstErr error
	if s.stopCh != nil {
		close(s.stopCh)
		s.stopCh = nil
	}
	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			firstErr = err
		}
	}
	s.sweeper.Stop()
	if err := s.store.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	s.logger.Info("shutdown complete")
	return firstErr
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, `{"status":"ok"}`)
}
