package telemetry

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_ObserveToolCall(t *testing.T) {
	t.Parallel()

	m := NewMetrics()
	m.ObserveToolCall("write_memory", "success", 10*time.Millisecond)
	m.ObserveToolCall("write_memory", "success", 20*time.Millisecond)
	m.ObserveToolCall("write_memory", "denied", time.Millisecond)

	if got := testutil.ToFloat64(m.toolCalls.WithLabelValues("write_memory", "success")); got != 2 {
		t.Errorf("success count = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.toolCalls.WithLabelValues("write_memory", "denied")); got != 1 {
		t.Errorf("denied count = %v, want 1", got)
	}
	if got := testutil.CollectAndCount(m.toolDuration); got != 1 {
		t.Errorf("duration series = %d, want 1", got)
	}
}

func TestMetrics_PendingGauge(t *testing.T) {
	t.Parallel()

	m := NewMetrics()
	m.SetPendingProposals(4)
	if got := testutil.ToFloat64(m.pendingProposals); got != 4 {
		t.Errorf("pending = %v, want 4", got)
	}
}

func TestMetrics_Handler(t *testing.T) {
	t.Parallel()

	m := NewMetrics()
	m.ObserveToolCall("propose_change", "rejected", time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	if rec.Code != 200 {
		t.Fatalf("status = %d", rec.Code)
	}
	for _, want := range []string{
		`stagewright_tool_calls_total{outcome="rejected",tool="propose_change"} 1`,
		"stagewright_tool_call_duration_seconds_bucket",
		"go_goroutines",
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}

func TestSetupTracing_Disabled(t *testing.T) {
	t.Parallel()

	shutdown, err := SetupTracing(context.Background(), TracingConfig{}, "dev")
	if err != nil {
		t.Fatalf("SetupTracing: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Errorf("shutdown: %v", err)
	}
}

func TestNewTracerProvider(t *testing.T) {
	t.Parallel()

	tp, err := NewTracerProvider(context.Background(), TracingConfig{
		Enabled:     true,
		Endpoint:    "127.0.0.1:4318",
		Insecure:    true,
		SampleRatio: 0.5,
		ServiceName: "stagewright-test",
	}, "dev")
	if err != nil {
		t.Fatalf("NewTracerProvider: %v", err)
	}

	_, span := tp.Tracer("test").Start(context.Background(), "noop")
	span.End()

	// No collector is listening; shutdown must still return once the
	// context expires.
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	_ = tp.Shutdown(ctx)
}

func TestConfig_DefaultsAndValidate(t *testing.T) {
	t.Parallel()

	c := Config{Tracing: TracingConfig{Enabled: true}}
	c.Defaults()
	if c.Tracing.ServiceName != "stagewright" || c.Tracing.Endpoint != "localhost:4318" || c.Tracing.SampleRatio != 1 {
		t.Errorf("defaults = %+v", c.Tracing)
	}
	if err := c.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
	if !c.Metrics.IsEnabled() {
		t.Error("metrics should default to enabled")
	}

	bad := Config{Tracing: TracingConfig{SampleRatio: 2}}
	if err := bad.Validate(); err == nil {
		t.Error("expected sample_ratio error")
	}
}
