package telemetry

import (
	"errors"
	"fmt"
)

// Config groups the telemetry settings.
type Config struct {
	Metrics MetricsConfig `yaml:"metrics"`
	Tracing TracingConfig `yaml:"tracing"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	// Enabled exposes /metrics on the gateway. Defaults to true.
	Enabled *bool `yaml:"enabled"`
}

// IsEnabled reports whether metrics are exposed.
func (c MetricsConfig) IsEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}

// TracingConfig controls the OTLP/HTTP trace exporter.
type TracingConfig struct {
	Enabled     bool    `yaml:"enabled"`
	Endpoint    string  `yaml:"endpoint"` // host:port, e.g. "localhost:4318"
	URLPath     string  `yaml:"url_path"`
	Insecure    bool    `yaml:"insecure"`
	SampleRatio float64 `yaml:"sample_ratio"`
	ServiceName string  `yaml:"service_name"`
}

const (
	defaultServiceName = "stagewright"
	defaultEndpoint    = "localhost:4318"
)

// Defaults fills unset fields.
func (c *Config) Defaults() {
	if c.Tracing.ServiceName == "" {
		c.Tracing.ServiceName = defaultServiceName
	}
	if c.Tracing.Endpoint == "" {
		c.Tracing.Endpoint = defaultEndpoint
	}
	if c.Tracing.Enabled && c.Tracing.SampleRatio == 0 {
		c.Tracing.SampleRatio = 1.0
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	var errs []error
	if c.Tracing.SampleRatio < 0 || c.Tracing.SampleRatio > 1 {
		errs = append(errs, fmt.Errorf("telemetry.tracing.sample_ratio must be within [0, 1], got %v", c.Tracing.SampleRatio))
	}
	if c.Tracing.Enabled && c.Tracing.Endpoint == "" {
		errs = append(errs, errors.New("telemetry.tracing.endpoint is required when tracing is enabled"))
	}
	return errors.Join(errs...)
}
