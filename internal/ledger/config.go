package ledger

import (
	"fmt"
	"path/filepath"
)

const (
	defaultBusyTimeout = 5000
	defaultDBFile      = "ledger.db"
)

// Config holds the ledger configuration.
type Config struct {
	// Enabled turns the ledger on. Defaults to true.
	Enabled *bool `yaml:"enabled"`

	// Path is the database file path. Defaults to {DataDir}/ledger.db.
	Path string `yaml:"path"`

	// BusyTimeout is the milliseconds to wait on a busy lock. Defaults to 5000.
	BusyTimeout int `yaml:"busy_timeout"`
}

// Defaults fills unset fields. dataDir is used to derive Path.
func (c *Config) Defaults(dataDir string) {
	if c.Enabled == nil {
		t := true
		c.Enabled = &t
	}
	if c.Path == "" && dataDir != "" {
		c.Path = filepath.Join(dataDir, defaultDBFile)
	}
	if c.BusyTimeout == 0 {
		c.BusyTimeout = defaultBusyTimeout
	}
}

// IsEnabled reports whether the ledger should be opened.
func (c *Config) IsEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.BusyTimeout < 0 {
		return fmt.Errorf("ledger: busy_timeout must be non-negative, got %d", c.BusyTimeout)
	}
	return nil
}
