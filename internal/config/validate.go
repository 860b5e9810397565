package config

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/flemzord/stagewright/internal/cron"
	"github.com/flemzord/stagewright/internal/security"
)

// Validate checks the structural validity of a Config. Defaults should be
// applied first. All problems are reported together.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Version == "" {
		errs = append(errs, errors.New("config: version field is required"))
	} else if cfg.Version != CurrentVersion {
		errs = append(errs, fmt.Errorf("config: unsupported version %q (supported: %q)", cfg.Version, CurrentVersion))
	}

	errs = append(errs, validateWorkspace(cfg.Workspace)...)
	errs = append(errs, validateLog(cfg.Log)...)
	errs = append(errs, validateSecurity(cfg.Security)...)

	if err := cfg.Ledger.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("config: %w", err))
	}
	if err := cfg.Gateway.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("config: %w", err))
	}
	if err := cfg.Telemetry.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("config: %w", err))
	}

	if err := cron.ValidateSchedule(cfg.Cron.PendingReview.Schedule); err != nil {
		errs = append(errs, fmt.Errorf("config: cron.pending_review.schedule: %w", err))
	}

	return errors.Join(errs...)
}

func validateWorkspace(ws WorkspaceConfig) []error {
	var errs []error
	if strings.TrimSpace(ws.Root) == "" {
		errs = append(errs, errors.New("config: workspace.root is required"))
	}
	ns := ws.Namespace
	if ns == "" || ns == "." || ns == ".." || strings.ContainsAny(ns, `/\`) || filepath.IsAbs(ns) {
		errs = append(errs, fmt.Errorf("config: workspace.namespace must be a single directory name, got %q", ns))
	}
	return errs
}

func validateLog(lc LogConfig) []error {
	var errs []error
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(lc.Level)); err != nil {
		errs = append(errs, fmt.Errorf("config: log.level: unknown level %q", lc.Level))
	}
	switch lc.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("config: log.format must be text or json, got %q", lc.Format))
	}
	return errs
}

func validateSecurity(sec SecurityConfig) []error {
	var errs []error

	if !security.AutonomyLevel(sec.Autonomy).Valid() {
		errs = append(errs, fmt.Errorf("config: security.autonomy: unknown level %q (want read_only, supervised or full)", sec.Autonomy))
	}
	for i, name := range sec.DeniedTools {
		if strings.TrimSpace(name) == "" {
			errs = append(errs, fmt.Errorf("config: security.denied_tools[%d] is empty", i))
		}
	}
	if sec.RateLimits.ToolCallsPerMin < 0 {
		errs = append(errs, errors.New("config: security.rate_limits.tool_calls_per_min must be non-negative"))
	}
	if sec.RateLimits.AuthPerMin < 0 {
		errs = append(errs, errors.New("config: security.rate_limits.auth_per_min must be non-negative"))
	}

	return errs
}
