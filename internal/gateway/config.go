package gateway

import (
	"errors"
	"fmt"
	"net"
	"time"
)

// ErrUnauthenticatedBind is returned by Validate when the API would be
// reachable from other hosts without credentials.
var ErrUnauthenticatedBind = errors.New("gateway: auth is required when binding to a non-loopback address")

// DefaultMaxBodyBytes bounds POST /api/tools/{name} request bodies.
const DefaultMaxBodyBytes = 1 << 20

// Config holds HTTP gateway configuration.
type Config struct {
	Bind            string        `yaml:"bind"`
	Auth            AuthConfig    `yaml:"auth"`
	MaxBodyBytes    int64         `yaml:"max_body_bytes"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// Defaults fills zero values with sensible defaults.
func (c *Config) Defaults() {
	if c.Bind == "" {
		c.Bind = "127.0.0.1:8080"
	}
	if c.MaxBodyBytes <= 0 {
		c.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = 10 * time.Second
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = 30 * time.Second
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = 5 * time.Second
	}
}

// Validate checks the bind address and refuses an unauthenticated API on
// anything but loopback.
func (c *Config) Validate() error {
	host, _, err := net.SplitHostPort(c.Bind)
	if err != nil {
		return fmt.Errorf("gateway: invalid bind address %q: %w", c.Bind, err)
	}
	if c.Auth.IsConfigured() {
		return nil
	}
	if host == "localhost" {
		return nil
	}
	if ip := net.ParseIP(host); ip != nil && ip.IsLoopback() {
		return nil
	}
	return ErrUnauthenticatedBind
}

// AuthConfig configures authentication for the API endpoints.
type AuthConfig struct {
	BearerToken string `yaml:"bearer_token"`
	BasicUser   string `yaml:"basic_user"`
	BasicPass   string `yaml:"basic_pass"`
}

// IsConfigured returns true if any auth method is configured.
func (a AuthConfig) IsConfigured() bool {
	return a.BearerToken != "" || (a.BasicUser != "" && a.BasicPass != "")
}
