// Package app is the composition root shared by every stagewright command:
// it turns a Config into a running registry of agent tools with its audit
// trail, ledger, metrics and tracing.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"go.opentelemetry.io/otel"

	"github.com/flemzord/stagewright/internal/config"
	"github.com/flemzord/stagewright/internal/ledger"
	"github.com/flemzord/stagewright/internal/memory"
	"github.com/flemzord/stagewright/internal/proposal"
	"github.com/flemzord/stagewright/internal/security"
	"github.com/flemzord/stagewright/internal/telemetry"
	"github.com/flemzord/stagewright/internal/tool"
	"github.com/flemzord/stagewright/internal/workspace"
)

// Params configures New.
type Params struct {
	// Config is the validated configuration. Defaults must be applied.
	Config *config.Config

	// ConfigPath is where Config came from; empty when running on defaults.
	// Serve watches it for policy reloads.
	ConfigPath string

	// Version is injected at build time via ldflags.
	Version string

	// LogOutput receives process logs. Defaults to os.Stderr; stdout is
	// reserved for command output and the MCP protocol.
	LogOutput io.Writer
}

// App holds the wired components. Create it with New and release it with
// Close.
type App struct {
	Config     *config.Config
	ConfigPath string
	Version    string

	Logger      *slog.Logger
	Redactor    *security.Redactor
	AuditLogger *security.AuditLogger
	RateLimiter *security.RateLimiter
	Gate        *security.SwitchGate
	Workspace   *workspace.Workspace
	Registry    *tool.Registry
	Metrics     *telemetry.Metrics

	// Ledger is nil when disabled in configuration.
	Ledger *ledger.Store

	closers []func(context.Context) error
}

// New builds the application. On error everything opened so far is
// released.
func New(ctx context.Context, p Params) (_ *App, err error) {
	if p.Config == nil {
		return nil, errors.New("app: config is required")
	}
	cfg := p.Config

	a := &App{
		Config:     cfg,
		ConfigPath: p.ConfigPath,
		Version:    p.Version,
	}
	defer func() {
		if err != nil {
			_ = a.Close(context.Background())
		}
	}()

	a.Redactor = security.NewRedactor()
	for _, secret := range []string{cfg.Gateway.Auth.BearerToken, cfg.Gateway.Auth.BasicPass} {
		a.Redactor.AddLiteral(secret)
	}
	a.Logger = newLogger(cfg.Log, p.LogOutput, a.Redactor)

	root, err := filepath.Abs(cfg.Workspace.Root)
	if err != nil {
		return nil, fmt.Errorf("app: resolving workspace root: %w", err)
	}
	a.Workspace = workspace.New(root).WithNamespace(cfg.Workspace.Namespace)
	if err := a.Workspace.EnsureStructure(); err != nil {
		return nil, fmt.Errorf("app: preparing workspace: %w", err)
	}

	if err := a.openAudit(); err != nil {
		return nil, err
	}

	if cfg.Ledger.IsEnabled() {
		store, err := ledger.Open(ctx, cfg.Ledger)
		if err != nil {
			return nil, err
		}
		a.Ledger = store
		a.closers = append(a.closers, func(context.Context) error { return store.Close() })
	}

	shutdownTracing, err := telemetry.SetupTracing(ctx, cfg.Telemetry.Tracing, p.Version)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, shutdownTracing)

	a.Metrics = telemetry.NewMetrics()
	a.RateLimiter = security.NewRateLimiter(cfg.Security.RateLimit())
	a.Gate = security.NewSwitchGate(security.NewPolicy(cfg.Security.Policy()))

	a.Registry = tool.NewRegistry()
	a.Registry.SetAuditLogger(a.AuditLogger)
	a.Registry.SetRateLimiter(a.RateLimiter)
	a.Registry.SetObserver(a.Metrics)
	a.Registry.SetTracerProvider(otel.GetTracerProvider())
	a.Registry.SetArgumentLimits(cfg.Security.MaxArgBytes, cfg.Security.MaxJSONDepth)

	if err := a.registerTools(); err != nil {
		return nil, err
	}

	a.Logger.Debug("app ready",
		"workspace", a.Workspace.Root,
		"namespace", a.Workspace.Namespace,
		"autonomy", cfg.Security.Autonomy,
		"ledger", a.Ledger != nil,
		"tools", len(a.Registry.Names()),
	)
	return a, nil
}

// registerTools wires the proposal and memory tools to the shared gate and
// ledger.
func (a *App) registerTools() error {
	var recorder ledger.Recorder
	if a.Ledger != nil {
		recorder = a.Ledger
	}

	if err := proposal.RegisterTools(a.Registry, proposal.Deps{
		Workspace: a.Workspace,
		Gate:      a.Gate,
		Recorder:  recorder,
		Audit:     a.AuditLogger,
		Logger:    a.Logger.With("component", "proposal"),
	}); err != nil {
		return fmt.Errorf("app: registering proposal tools: %w", err)
	}

	if err := memory.RegisterTools(a.Registry, memory.Deps{
		Workspace: a.Workspace,
		Gate:      a.Gate,
		Recorder:  recorder,
		Audit:     a.AuditLogger,
		Logger:    a.Logger.With("component", "memory"),
	}); err != nil {
		return fmt.Errorf("app: registering memory tools: %w", err)
	}
	return nil
}

// openAudit opens the JSONL audit trail in append mode. With auditing
// disabled the logger has no writer and events are dropped.
func (a *App) openAudit() error {
	cfg := a.Config.Audit
	auditCfg := security.AuditLoggerConfig{Redactor: a.Redactor}

	if cfg.IsEnabled() {
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o700); err != nil {
			return fmt.Errorf("app: creating audit directory: %w", err)
		}
		f, err := os.OpenFile(cfg.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
		if err != nil {
			return fmt.Errorf("app: opening audit log: %w", err)
		}
		auditCfg.Writer = f
		a.closers = append(a.closers, func(context.Context) error { return f.Close() })
	}

	a.AuditLogger = security.NewAuditLogger(auditCfg)
	return nil
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// newLogger builds the process logger behind the redacting handler.
func newLogger(cfg config.LogConfig, out io.Writer, redactor *security.Redactor) *slog.Logger {
	if out == nil {
		out = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}

	var inner slog.Handler
	if cfg.Format == "json" {
		inner = slog.NewJSONHandler(out, opts)
	} else {
		inner = slog.NewTextHandler(out, opts)
	}
	return slog.New(security.NewRedactingHandler(inner, redactor))
}
