// Package gateway exposes the tool registry over HTTP. It binds to loopback
// by default and serves health, metrics, tool invocation and the proposal
// ledger.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/flemzord/stagewright/internal/ledger"
	"github.com/flemzord/stagewright/internal/security"
	"github.com/flemzord/stagewright/internal/tool"
)

// Ledger is the read side of the artifact ledger used by the gateway.
// ledger.Store implements it.
type Ledger interface {
	List(ctx context.Context, f ledger.Filter) ([]ledger.Record, error)
	CountPending(ctx context.Context, olderThan time.Duration) (int, error)
	Ping(ctx context.Context) error
}

// Deps are the collaborators the gateway serves. Registry is required.
type Deps struct {
	Registry       *tool.Registry
	Ledger         Ledger       // optional; /api/proposals answers 503 without it
	MetricsHandler http.Handler // optional; /metrics is not mounted without it
	AuditLogger    *security.AuditLogger
	RateLimiter    *security.RateLimiter
	Logger         *slog.Logger
	Version        string
}

// Gateway is the HTTP surface. Create it with New, then Start and Stop it.
type Gateway struct {
	config    Config
	deps      Deps
	logger    *slog.Logger
	startedAt time.Time
	now       func() time.Time

	mu       sync.Mutex
	server   *http.Server
	listener net.Listener
}

// New validates cfg and returns a gateway that is not yet listening.
func New(cfg Config, deps Deps) (*Gateway, error) {
	if deps.Registry == nil {
		return nil, errors.New("gateway: registry is required")
	}
	cfg.Defaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Gateway{
		config:    cfg,
		deps:      deps,
		logger:    logger.With("component", "gateway"),
		startedAt: time.Now(),
		now:       time.Now,
	}, nil
}

// Handler returns the routed handler. Useful for tests and embedding.
func (g *Gateway) Handler() http.Handler {
	return g.buildRouter()
}

// Start binds the listener and serves in the background.
func (g *Gateway) Start() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.server != nil {
		return errors.New("gateway: already started")
	}

	g.startedAt = g.now()
	g.server = &http.Server{
		Addr:         g.config.Bind,
		Handler:      g.buildRouter(),
		ReadTimeout:  g.config.ReadTimeout,
		WriteTimeout: g.config.WriteTimeout,
	}

	var lc net.ListenConfig
	ln, err := lc.Listen(context.Background(), "tcp", g.config.Bind)
	if err != nil {
		g.server = nil
		return fmt.Errorf("gateway: listen failed: %w", err)
	}
	g.listener = ln

	srv := g.server
	go func() {
		g.logger.Info("gateway listening", "addr", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			g.logger.Error("gateway serve error", "error", err)
		}
	}()

	return nil
}

// Addr returns the bound address, or the configured one before Start.
func (g *Gateway) Addr() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.listener != nil {
		return g.listener.Addr().String()
	}
	return g.config.Bind
}

// Stop gracefully shuts down with the configured timeout.
func (g *Gateway) Stop(ctx context.Context) error {
	g.mu.Lock()
	srv := g.server
	g.server = nil
	g.listener = nil
	g.mu.Unlock()

	if srv == nil {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, g.config.ShutdownTimeout)
	defer cancel()

	g.logger.Info("gateway shutting down")
	return srv.Shutdown(shutdownCtx)
}
