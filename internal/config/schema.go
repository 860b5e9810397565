// Package config handles YAML configuration loading, environment variable
// expansion, defaults, and validation for stagewright.
package config

import (
	"log/slog"
	"time"

	"github.com/flemzord/stagewright/internal/gateway"
	"github.com/flemzord/stagewright/internal/ledger"
	"github.com/flemzord/stagewright/internal/security"
	"github.com/flemzord/stagewright/internal/telemetry"
)

// CurrentVersion is the only supported config format version.
const CurrentVersion = "1"

// Config is the top-level configuration structure.
type Config struct {
	// Version is the config format version. Currently only "1" is supported.
	Version string `yaml:"version"`

	Workspace WorkspaceConfig  `yaml:"workspace"`
	Log       LogConfig        `yaml:"log"`
	Security  SecurityConfig   `yaml:"security"`
	Ledger    ledger.Config    `yaml:"ledger"`
	Audit     AuditConfig      `yaml:"audit"`
	Gateway   gateway.Config   `yaml:"gateway"`
	Telemetry telemetry.Config `yaml:"telemetry"`
	Cron      CronConfig       `yaml:"cron"`
}

// WorkspaceConfig locates the directory tree the tools write into.
type WorkspaceConfig struct {
	// Root is the workspace root. Relative paths are resolved against the
	// working directory. Defaults to ".".
	Root string `yaml:"root"`

	// Namespace is the directory under Root holding proposals and notes.
	// Defaults to "ariadne".
	Namespace string `yaml:"namespace"`
}

// LogConfig controls the process logger.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
}

// SlogLevel parses Level. Unknown values fall back to info; Validate
// reports them.
func (c LogConfig) SlogLevel() slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.Level)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

// SecurityConfig configures the gate and the argument boundary checks.
type SecurityConfig struct {
	// Autonomy is read_only, supervised or full. Defaults to supervised.
	Autonomy string `yaml:"autonomy"`

	// MaxActionsPerHour bounds write operations. Unset uses the default;
	// zero denies every write; negative disables the budget.
	MaxActionsPerHour *int `yaml:"max_actions_per_hour"`

	// DeniedTools are always denied, reads included.
	DeniedTools []string `yaml:"denied_tools"`

	RateLimits RateLimitsConfig `yaml:"rate_limits"`

	// MaxArgBytes and MaxJSONDepth bound raw tool arguments.
	MaxArgBytes  int `yaml:"max_arg_bytes"`
	MaxJSONDepth int `yaml:"max_json_depth"`
}

// RateLimitsConfig bounds call volume independently of the action budget.
type RateLimitsConfig struct {
	ToolCallsPerMin int `yaml:"tool_calls_per_min"`
	AuthPerMin      int `yaml:"auth_per_min"`
}

// Policy returns the gate configuration.
func (c SecurityConfig) Policy() security.PolicyConfig {
	maxActions := security.DefaultMaxActionsPerHour
	if c.MaxActionsPerHour != nil {
		maxActions = *c.MaxActionsPerHour
	}
	return security.PolicyConfig{
		Autonomy:          security.AutonomyLevel(c.Autonomy),
		MaxActionsPerHour: maxActions,
		DeniedTools:       c.DeniedTools,
	}
}

// RateLimit returns the flood-guard configuration shared by the registry
// and the gateway auth middleware.
func (c SecurityConfig) RateLimit() security.RateLimitConfig {
	return security.RateLimitConfig{
		ActionsPerHour:  -1,
		ToolCallsPerMin: c.RateLimits.ToolCallsPerMin,
		AuthPerMin:      c.RateLimits.AuthPerMin,
	}
}

// AuditConfig controls the JSONL audit trail.
type AuditConfig struct {
	// Enabled defaults to true.
	Enabled *bool `yaml:"enabled"`

	// Path defaults to {DataDir}/audit.jsonl.
	Path string `yaml:"path"`
}

// IsEnabled reports whether audit events are written to disk.
func (c AuditConfig) IsEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}

// CronConfig controls background maintenance jobs.
type CronConfig struct {
	// Enabled defaults to true.
	Enabled *bool `yaml:"enabled"`

	PendingReview PendingReviewConfig `yaml:"pending_review"`
}

// IsEnabled reports whether the scheduler runs in serve mode.
func (c CronConfig) IsEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}

// PendingReviewConfig configures the pending_review_reminder job.
type PendingReviewConfig struct {
	Schedule string        `yaml:"schedule"`
	MaxAge   time.Duration `yaml:"max_age"`
}
