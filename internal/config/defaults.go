package config

import (
	"path/filepath"
	"time"

	"github.com/flemzord/stagewright/internal/security"
	"github.com/flemzord/stagewright/internal/workspace"
)

const (
	defaultAuditFile      = "audit.jsonl"
	defaultReviewSchedule = "0 * * * *"
	defaultReviewMaxAge   = 24 * time.Hour
)

// Default returns a configuration with every default applied, as used when
// no configuration file exists.
func Default() *Config {
	cfg := &Config{Version: CurrentVersion}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills zero values. It is idempotent.
func (c *Config) ApplyDefaults() {
	if c.Workspace.Root == "" {
		c.Workspace.Root = "."
	}
	if c.Workspace.Namespace == "" {
		c.Workspace.Namespace = workspace.DefaultNamespace
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}

	if c.Security.Autonomy == "" {
		c.Security.Autonomy = string(security.AutonomySupervised)
	}
	if c.Security.MaxArgBytes <= 0 {
		c.Security.MaxArgBytes = security.DefaultMaxArgBytes
	}
	if c.Security.MaxJSONDepth <= 0 {
		c.Security.MaxJSONDepth = security.DefaultMaxArgDepth
	}

	dataDir := c.DataDir()
	c.Ledger.Defaults(dataDir)
	if c.Audit.Path == "" {
		c.Audit.Path = filepath.Join(dataDir, defaultAuditFile)
	}

	c.Gateway.Defaults()
	c.Telemetry.Defaults()

	if c.Cron.PendingReview.Schedule == "" {
		c.Cron.PendingReview.Schedule = defaultReviewSchedule
	}
	if c.Cron.PendingReview.MaxAge <= 0 {
		c.Cron.PendingReview.MaxAge = defaultReviewMaxAge
	}
}

// NewWorkspace returns the workspace described by the configuration.
func (c *Config) NewWorkspace() *workspace.Workspace {
	return workspace.New(c.Workspace.Root).WithNamespace(c.Workspace.Namespace)
}

// DataDir is where the ledger and the audit trail live by default.
func (c *Config) DataDir() string {
	return c.NewWorkspace().DataDir()
}
