package tool

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/flemzord/stagewright/internal/security"
)

type registryTestTool struct {
	name         string
	scopes       []Scope
	op           security.Operation
	result       Result
	executeErr   error
	executeCalls *int
}

func (t registryTestTool) Name() string            { return t.name }
func (t registryTestTool) Description() string     { return "registry test tool" }
func (t registryTestTool) Params() Params          { return nil }
func (t registryTestTool) Schema() json.RawMessage { return t.Params().Schema() }
func (t registryTestTool) Scopes() []Scope         { return t.scopes }
func (t registryTestTool) Operation() security.Operation {
	if t.op == "" {
		return security.OperationRead
	}
	return t.op
}

func (t registryTestTool) Execute(context.Context, json.RawMessage) (Result, error) {
	if t.executeCalls != nil {
		*t.executeCalls = *t.executeCalls + 1
	}
	if t.executeErr != nil {
		return Result{}, t.executeErr
	}
	if t.result != (Result{}) {
		return t.result, nil
	}
	return OK("ok"), nil
}

type recordingObserver struct {
	mu       sync.Mutex
	outcomes []string
}

func (o *recordingObserver) ObserveToolCall(_ string, outcome string, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.outcomes = append(o.outcomes, outcome)
}

func newAuditCapture() (*security.AuditLogger, func() []security.AuditEvent) {
	var (
		mu     sync.Mutex
		events []security.AuditEvent
	)
	logger := security.NewAuditLogger(security.AuditLoggerConfig{
		OnEvent: func(e security.AuditEvent) {
			mu.Lock()
			events = append(events, e)
			mu.Unlock()
		},
	})
	return logger, func() []security.AuditEvent {
		mu.Lock()
		defer mu.Unlock()
		return append([]security.AuditEvent(nil), events...)
	}
}

func TestRegistryRegister_EmptyName(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	err := r.Register(registryTestTool{name: "", scopes: []Scope{ScopeReadOnly}})
	if !errors.Is(err, ErrEmptyToolName) {
		t.Fatalf("expected ErrEmptyToolName, got %v", err)
	}
}

func TestRegistryRegister_WhitespaceName(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	err := r.Register(registryTestTool{name: "   ", scopes: []Scope{ScopeReadOnly}})
	if !errors.Is(err, ErrEmptyToolName) {
		t.Fatalf("expected ErrEmptyToolName, got %v", err)
	}
}

func TestRegistryRegister_NoScopes(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	err := r.Register(registryTestTool{name: "query_memory", scopes: nil})
	if !errors.Is(err, ErrNoScopes) {
		t.Fatalf("expected ErrNoScopes, got %v", err)
	}
}

func TestRegistryRegister_Duplicate(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	t1 := registryTestTool{name: "query_memory", scopes: []Scope{ScopeReadOnly}}
	if err := r.Register(t1); err != nil {
		t.Fatalf("unexpected first register error: %v", err)
	}

	err := r.Register(t1)
	if !errors.Is(err, ErrDuplicateTool) {
		t.Fatalf("expected ErrDuplicateTool, got %v", err)
	}
}

func TestRegistryDescribe_Sorted(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	for _, name := range []string{"write_memory", "propose_change", "query_memory"} {
		if err := r.Register(registryTestTool{name: name, scopes: []Scope{ScopeReadWrite}, op: security.OperationAct}); err != nil {
			t.Fatalf("Register(%s): %v", name, err)
		}
	}

	got := r.Describe()
	if len(got) != 3 {
		t.Fatalf("got %d descriptors, want 3", len(got))
	}
	for i, want := range []string{"propose_change", "query_memory", "write_memory"} {
		if got[i].Name != want {
			t.Errorf("descriptor %d = %q, want %q", i, got[i].Name, want)
		}
		if got[i].Operation != security.OperationAct {
			t.Errorf("descriptor %d operation = %q", i, got[i].Operation)
		}
		if string(got[i].Schema) != `{"type":"object","properties":{}}` {
			t.Errorf("descriptor %d schema = %s", i, got[i].Schema)
		}
	}

	if names := r.Names(); strings.Join(names, ",") != "propose_change,query_memory,write_memory" {
		t.Errorf("Names() = %v", names)
	}
}

func TestRegistryExecute_NotFound(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	_, err := r.Execute(context.Background(), "missing", json.RawMessage(`{}`))
	if !errors.Is(err, ErrToolNotFound) {
		t.Fatalf("expected ErrToolNotFound, got %v", err)
	}
}

func TestRegistryExecute_Success(t *testing.T) {
	t.Parallel()

	calls := 0
	r := NewRegistry()
	audit, events := newAuditCapture()
	obs := &recordingObserver{}
	r.SetAuditLogger(audit)
	r.SetObserver(obs)

	if err := r.Register(registryTestTool{name: "query_memory", scopes: []Scope{ScopeReadOnly}, executeCalls: &calls}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	res, err := r.Execute(context.Background(), "query_memory", json.RawMessage(`{"query":"x"}`))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !res.Success || res.Output != "ok" {
		t.Errorf("result = %+v", res)
	}
	if calls != 1 {
		t.Errorf("executeCalls = %d, want 1", calls)
	}

	got := events()
	if len(got) != 2 || got[0].Type != security.EventToolCall || got[1].Type != security.EventToolResult {
		t.Fatalf("audit events = %+v", got)
	}
	if got[0].Detail != `{"query":"x"}` {
		t.Errorf("tool_call detail = %q", got[0].Detail)
	}
	if got[1].Metadata["outcome"] != OutcomeSuccess {
		t.Errorf("outcome = %q", got[1].Metadata["outcome"])
	}
	if len(obs.outcomes) != 1 || obs.outcomes[0] != OutcomeSuccess {
		t.Errorf("observer outcomes = %v", obs.outcomes)
	}
}

func TestRegistryExecute_DeniedIsSoftAndAudited(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	audit, events := newAuditCapture()
	obs := &recordingObserver{}
	r.SetAuditLogger(audit)
	r.SetObserver(obs)

	reason := "security policy: read-only mode, cannot perform 'write_memory'"
	if err := r.Register(registryTestTool{
		name:   "write_memory",
		scopes: []Scope{ScopeReadWrite},
		op:     security.OperationAct,
		result: Denied(errors.New(reason)),
	}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	res, err := r.Execute(context.Background(), "write_memory", json.RawMessage(`{"note":"x"}`))
	if err != nil {
		t.Fatalf("denial must be a soft failure, got error %v", err)
	}
	if res.Success || res.Error != reason {
		t.Errorf("result = %+v", res)
	}

	var denial bool
	for _, e := range events() {
		if e.Type == security.EventDenial && e.Detail == reason {
			denial = true
		}
	}
	if !denial {
		t.Errorf("expected denial audit event, got %+v", events())
	}
	if obs.outcomes[0] != OutcomeDenied {
		t.Errorf("outcome = %q, want %q", obs.outcomes[0], OutcomeDenied)
	}
}

func TestRegistryExecute_RejectedOutcome(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	obs := &recordingObserver{}
	r.SetObserver(obs)
	_ = r.Register(registryTestTool{name: "t", scopes: []Scope{ScopeReadOnly}, result: Fail("Note must not be empty")})

	res, err := r.Execute(context.Background(), "t", nil)
	if err != nil || res.Success {
		t.Fatalf("res=%+v err=%v", res, err)
	}
	if obs.outcomes[0] != OutcomeRejected {
		t.Errorf("outcome = %q, want %q", obs.outcomes[0], OutcomeRejected)
	}
}

func TestRegistryExecute_HardErrorWrapped(t *testing.T) {
	t.Parallel()

	boom := errors.New("disk full")
	r := NewRegistry()
	obs := &recordingObserver{}
	r.SetObserver(obs)
	_ = r.Register(registryTestTool{name: "t", scopes: []Scope{ScopeReadWrite}, executeErr: boom})

	_, err := r.Execute(context.Background(), "t", json.RawMessage(`{}`))
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped error, got %v", err)
	}
	if obs.outcomes[0] != OutcomeError {
		t.Errorf("outcome = %q, want %q", obs.outcomes[0], OutcomeError)
	}
}

func TestRegistryExecute_ArgumentLimits(t *testing.T) {
	t.Parallel()

	calls := 0
	r := NewRegistry()
	r.SetArgumentLimits(32, 3)
	_ = r.Register(registryTestTool{name: "t", scopes: []Scope{ScopeReadOnly}, executeCalls: &calls})

	_, err := r.Execute(context.Background(), "t", json.RawMessage(`{"note":"`+strings.Repeat("x", 64)+`"}`))
	if !errors.Is(err, security.ErrMessageTooLarge) {
		t.Fatalf("expected ErrMessageTooLarge, got %v", err)
	}

	_, err = r.Execute(context.Background(), "t", json.RawMessage(`{"a":[[[[1]]]]}`))
	if !errors.Is(err, security.ErrJSONTooDeep) {
		t.Fatalf("expected ErrJSONTooDeep, got %v", err)
	}

	if calls != 0 {
		t.Errorf("tool must not run when boundary checks fail, ran %d times", calls)
	}
}

func TestRegistryExecute_FloodGuard(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	r.SetRateLimiter(security.NewRateLimiter(security.RateLimitConfig{ToolCallsPerMin: 1}))
	_ = r.Register(registryTestTool{name: "t", scopes: []Scope{ScopeReadOnly}})

	if _, err := r.Execute(context.Background(), "t", nil); err != nil {
		t.Fatalf("first call: %v", err)
	}
	if _, err := r.Execute(context.Background(), "t", nil); !errors.Is(err, security.ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
}

func TestTruncateForAudit(t *testing.T) {
	t.Parallel()

	short := "hello"
	if got := truncateForAudit(short); got != short {
		t.Errorf("short string changed: %q", got)
	}

	long := strings.Repeat("é", maxAuditDetailLen)
	got := truncateForAudit(long)
	if !strings.HasSuffix(got, "...(truncated)") {
		t.Errorf("expected truncation suffix")
	}
	body := strings.TrimSuffix(got, "...(truncated)")
	if len(body) > maxAuditDetailLen {
		t.Errorf("truncated body too long: %d", len(body))
	}
	if strings.ContainsRune(body, '�') {
		t.Error("truncation split a multi-byte rune")
	}
}

func TestRegistryExecute_Span(t *testing.T) {
	t.Parallel()

	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	defer func() { _ = tp.Shutdown(context.Background()) }()

	r := NewRegistry()
	r.SetTracerProvider(tp)
	_ = r.Register(registryTestTool{name: "write_memory", scopes: []Scope{ScopeReadWrite}, op: security.OperationAct})

	if _, err := r.Execute(context.Background(), "write_memory", nil); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("got %d spans, want 1", len(spans))
	}
	if spans[0].Name != "tool.execute" {
		t.Errorf("span name = %q", spans[0].Name)
	}

	attrs := map[string]string{}
	for _, kv := range spans[0].Attributes {
		attrs[string(kv.Key)] = kv.Value.AsString()
	}
	if attrs["tool.name"] != "write_memory" || attrs["tool.operation"] != "act" || attrs["tool.outcome"] != OutcomeSuccess {
		t.Errorf("span attributes = %v", attrs)
	}
}
