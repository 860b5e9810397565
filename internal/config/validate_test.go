package config

import (
	"strings"
	"testing"
)

func validConfig() *Config {
	cfg := &Config{Version: "1"}
	cfg.ApplyDefaults()
	return cfg
}

func TestValidate_Defaults(t *testing.T) {
	t.Parallel()

	if err := Validate(validConfig()); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestValidate_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"missing version", func(c *Config) { c.Version = "" }, "version field is required"},
		{"unsupported version", func(c *Config) { c.Version = "2" }, `unsupported version "2"`},
		{"blank root", func(c *Config) { c.Workspace.Root = "  " }, "workspace.root is required"},
		{"nested namespace", func(c *Config) { c.Workspace.Namespace = "a/b" }, "workspace.namespace"},
		{"dotdot namespace", func(c *Config) { c.Workspace.Namespace = ".." }, "workspace.namespace"},
		{"log level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
		{"log format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
		{"autonomy", func(c *Config) { c.Security.Autonomy = "yolo" }, "security.autonomy"},
		{"empty denied tool", func(c *Config) { c.Security.DeniedTools = []string{"ok", " "} }, "denied_tools[1]"},
		{"negative tool calls", func(c *Config) { c.Security.RateLimits.ToolCallsPerMin = -1 }, "tool_calls_per_min"},
		{"negative auth", func(c *Config) { c.Security.RateLimits.AuthPerMin = -1 }, "auth_per_min"},
		{"ledger busy timeout", func(c *Config) { c.Ledger.BusyTimeout = -5 }, "busy_timeout"},
		{"public gateway without auth", func(c *Config) { c.Gateway.Bind = "0.0.0.0:8080" }, "auth is required"},
		{"sample ratio", func(c *Config) { c.Telemetry.Tracing.SampleRatio = 2 }, "sample_ratio"},
		{"cron schedule", func(c *Config) { c.Cron.PendingReview.Schedule = "every hour" }, "cron.pending_review.schedule"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := validConfig()
			tt.mutate(cfg)
			err := Validate(cfg)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want substring %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_ReportsAllErrors(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.Version = ""
	cfg.Security.Autonomy = "bogus"
	cfg.Log.Format = "xml"

	err := Validate(cfg)
	if err == nil {
		t.Fatal("expected error")
	}
	for _, want := range []string{"version", "autonomy", "log.format"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q missing %q", err, want)
		}
	}
}
