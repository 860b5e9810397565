package tool

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/flemzord/stagewright/internal/security"
)

const tracerName = "github.com/flemzord/stagewright/internal/tool"

// Call outcomes reported to the Observer.
const (
	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected"
	OutcomeDenied   = "denied"
	OutcomeError    = "error"
)

// Observer receives one measurement per executed call.
type Observer interface {
	ObserveToolCall(name, outcome string, elapsed time.Duration)
}

// Descriptor is the public description of a registered tool.
type Descriptor struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Operation   security.Operation `json:"operation"`
	Scopes      []Scope            `json:"scopes"`
	Schema      json.RawMessage    `json:"schema"`
}

// Registry holds registered tools and runs them behind the argument
// boundary checks, audit logging, metrics and tracing.
// It is instance-based (not global) for better testability.
type Registry struct {
	mu          sync.RWMutex
	tools       map[string]Tool
	auditLogger *security.AuditLogger
	rateLimiter *security.RateLimiter
	observer    Observer
	tracer      trace.Tracer
	argLimits   security.ArgumentLimits
}

// NewRegistry creates an empty tool registry.
func NewRegistry() *Registry {
	return &Registry{
		tools:  make(map[string]Tool),
		tracer: otel.Tracer(tracerName),
	}
}

// SetAuditLogger configures audit logging for tool executions.
func (r *Registry) SetAuditLogger(logger *security.AuditLogger) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.auditLogger = logger
}

// SetRateLimiter configures the raw call flood guard. It is independent of
// the gate's action budget and applies to every call, reads included.
func (r *Registry) SetRateLimiter(limiter *security.RateLimiter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rateLimiter = limiter
}

// SetObserver configures per-call metrics.
func (r *Registry) SetObserver(o Observer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.observer = o
}

// SetTracerProvider replaces the tracer used for execution spans. By default
// the global provider is used.
func (r *Registry) SetTracerProvider(tp trace.TracerProvider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tracer = tp.Tracer(tracerName)
}

// SetArgumentLimits bounds raw argument size in bytes and JSON nesting
// depth. Non-positive values select the security package defaults.
func (r *Registry) SetArgumentLimits(maxBytes, maxDepth int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.argLimits = security.ArgumentLimits{MaxBytes: maxBytes, MaxDepth: maxDepth}
}

// Register adds a tool to the registry.
// It returns ErrNoScopes if the tool declares no scopes,
// and ErrDuplicateTool if a tool with the same name is already registered.
func (r *Registry) Register(t Tool) error {
	name := strings.TrimSpace(t.Name())
	if name == "" {
		return ErrEmptyToolName
	}
	if len(t.Scopes()) == 0 {
		return fmt.Errorf("%w: %s", ErrNoScopes, name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateTool, name)
	}

	r.tools[name] = t
	return nil
}

// Get returns the tool with the given name, or ErrToolNotFound.
func (r *Registry) Get(name string) (Tool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.tools[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrToolNotFound, name)
	}
	return t, nil
}

// Describe returns all registered tools sorted by name.
func (r *Registry) Describe() []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Descriptor, 0, len(r.tools))
	for name, t := range r.tools {
		out = append(out, Descriptor{
			Name:        name,
			Description: t.Description(),
			Operation:   t.Operation(),
			Scopes:      t.Scopes(),
			Schema:      t.Schema(),
		})
	}
	slices.SortFunc(out, func(a, b Descriptor) int {
		return cmp.Compare(a.Name, b.Name)
	})
	return out
}

// Names returns all registered tool names sorted alphabetically.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Execute runs the named tool: lookup → flood guard → argument size and
// depth checks → tool.Execute, with audit events, a span and a metric
// around the call. Soft failures come back in the Result with a nil error.
func (r *Registry) Execute(ctx context.Context, name string, args json.RawMessage) (Result, error) {
	t, err := r.Get(name)
	if err != nil {
		return Result{}, err
	}

	r.mu.RLock()
	rl := r.rateLimiter
	al := r.auditLogger
	obs := r.observer
	tracer := r.tracer
	limits := r.argLimits
	r.mu.RUnlock()

	start := time.Now()
	ctx, span := tracer.Start(ctx, "tool.execute", trace.WithAttributes(
		attribute.String("tool.name", name),
		attribute.String("tool.operation", string(t.Operation())),
	))
	defer span.End()

	fail := func(err error) (Result, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if obs != nil {
			obs.ObserveToolCall(name, OutcomeError, time.Since(start))
		}
		return Result{}, fmt.Errorf("tool %s: %w", name, err)
	}

	if rl != nil {
		if err := rl.Allow(security.BucketToolCall); err != nil {
			if al != nil {
				al.Log(security.AuditEvent{
					Type:     security.EventRateLimit,
					ToolName: name,
					Detail:   "tool_call rate limit exceeded",
				})
			}
			return fail(err)
		}
	}

	if err := limits.Check(args); err != nil {
		return fail(err)
	}

	// Truncate args to prevent audit log bloat from large payloads.
	if al != nil {
		al.Log(security.AuditEvent{
			Type:     security.EventToolCall,
			ToolName: name,
			Detail:   truncateForAudit(string(args)),
		})
	}

	res, err := t.Execute(ctx, args)

	outcome := OutcomeSuccess
	switch {
	case err != nil:
		outcome = OutcomeError
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	case res.IsDenied():
		outcome = OutcomeDenied
	case !res.Success:
		outcome = OutcomeRejected
	}
	span.SetAttributes(attribute.String("tool.outcome", outcome))

	if al != nil {
		if outcome == OutcomeDenied {
			al.Log(security.AuditEvent{
				Type:     security.EventDenial,
				ToolName: name,
				Detail:   res.Error,
			})
		}

		detail := truncateForAudit(res.Output)
		switch {
		case err != nil:
			detail = "error: " + err.Error()
		case !res.Success:
			detail = "failed: " + res.Error
		}
		al.Log(security.AuditEvent{
			Type:     security.EventToolResult,
			ToolName: name,
			Detail:   detail,
			Metadata: map[string]string{"outcome": outcome},
		})
	}

	if obs != nil {
		obs.ObserveToolCall(name, outcome, time.Since(start))
	}

	return res, err
}

// maxAuditDetailLen is the maximum length of audit detail strings.
// Longer values are truncated to prevent log bloat from large tool outputs.
const maxAuditDetailLen = 4096

// truncateForAudit truncates a string to maxAuditDetailLen, appending
// a truncation indicator if the string was shortened.
// It walks back to a valid UTF-8 rune boundary to avoid splitting multi-byte
// characters when the cut falls mid-rune.
func truncateForAudit(s string) string {
	if len(s) <= maxAuditDetailLen {
		return s
	}
	i := maxAuditDetailLen
	for i > 0 && !utf8.RuneStart(s[i]) {
		i--
	}
	return s[:i] + "...(truncated)"
}
