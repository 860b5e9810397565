package reload

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/flemzord/stagewright/internal/config"
	"github.com/flemzord/stagewright/internal/security"
	"github.com/flemzord/stagewright/internal/tool"
)

// Handler applies a reloaded configuration to the running process. Only
// the security section takes effect live: autonomy, action budget, deny
// list and argument limits. Other sections need a restart.
type Handler struct {
	configPath string
	gate       *security.SwitchGate
	registry   *tool.Registry
	logger     *slog.Logger
}

// NewHandler creates a reload handler. registry may be nil.
func NewHandler(configPath string, gate *security.SwitchGate, registry *tool.Registry, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		configPath: configPath,
		gate:       gate,
		registry:   registry,
		logger:     logger,
	}
}

// HandleReload loads a fresh config from disk, validates it, and applies
// it. An invalid file leaves the running policy untouched.
func (h *Handler) HandleReload(ctx context.Context) error {
	if h.configPath == "" {
		return fmt.Errorf("reload: no configuration file to reload")
	}
	cfg, err := config.Load(h.configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	cfg.ApplyDefaults()
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("validating config: %w", err)
	}
	return h.Apply(ctx, cfg)
}

// Apply installs the security settings of an already-validated config.
// The new policy starts with an empty action window.
func (h *Handler) Apply(ctx context.Context, cfg *config.Config) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context cancelled before reload: %w", err)
	}

	policy := security.NewPolicy(cfg.Security.Policy())
	h.gate.Swap(policy)
	if h.registry != nil {
		h.registry.SetArgumentLimits(cfg.Security.MaxArgBytes, cfg.Security.MaxJSONDepth)
	}

	h.logger.Info("security policy reloaded",
		"autonomy", policy.Autonomy(),
		"denied_tools", len(cfg.Security.DeniedTools),
	)
	return nil
}
