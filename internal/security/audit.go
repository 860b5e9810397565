package security

import (
	"encoding/json"
	"io"
	"maps"
	"sync"
	"time"
)

// EventType categorizes audit events.
type EventType string

// Audit event types covering every security-relevant interaction.
const (
	EventToolCall    EventType = "tool_call"
	EventToolResult  EventType = "tool_result"
	EventDenial      EventType = "denial"
	EventArtifact    EventType = "artifact"
	EventAuthSuccess EventType = "auth_success"
	EventAuthFailure EventType = "auth_failure"
	EventRateLimit   EventType = "rate_limit"
)

// AuditEvent is a single audit log entry.
type AuditEvent struct {
	Timestamp time.Time         `json:"timestamp"`
	Type      EventType         `json:"type"`
	ToolName  string            `json:"tool_name,omitempty"`
	Path      string            `json:"path,omitempty"`
	Detail    string            `json:"detail,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// AuditLoggerConfig configures the audit logger.
type AuditLoggerConfig struct {
	// Writer is the destination for JSONL output. If nil, events are only
	// dispatched to OnEvent (useful for testing).
	Writer io.Writer

	// Redactor, if non-nil, is applied to Detail and Metadata values before writing.
	Redactor *Redactor

	// OnEvent, if non-nil, is called for every event (used in tests).
	OnEvent func(AuditEvent)

	// Now overrides time.Now for testing. Defaults to time.Now.
	Now func() time.Time
}

// AuditLogger writes structured audit events as JSONL with optional redaction.
type AuditLogger struct {
	writer   io.Writer
	redactor *Redactor
	onEvent  func(AuditEvent)
	now      func() time.Time

	mu      sync.Mutex
	dropped int
}

// NewAuditLogger creates an audit logger with the given configuration.
func NewAuditLogger(cfg AuditLoggerConfig) *AuditLogger {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &AuditLogger{
		writer:   cfg.Writer,
		redactor: cfg.Redactor,
		onEvent:  cfg.OnEvent,
		now:      now,
	}
}

// Log writes an audit event, stamping it with the current time. Detail and
// Metadata values pass through the Redactor when one is configured; the
// caller's Metadata map is never mutated. A nil *AuditLogger discards the
// event, so components with an optional logger call it unguarded.
func (l *AuditLogger) Log(event AuditEvent) {
	if l == nil {
		return
	}
	event.Timestamp = l.now()
	event.Metadata = maps.Clone(event.Metadata)

	if l.redactor != nil {
		event.Detail = l.redactor.Redact(event.Detail)
		for k, v := range event.Metadata {
			event.Metadata[k] = l.redactor.Redact(v)
		}
	}

	// One lock covers the callback and the write so both see the same order.
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.onEvent != nil {
		l.onEvent(event)
	}
	if l.writer != nil {
		if err := json.NewEncoder(l.writer).Encode(event); err != nil {
			l.dropped++
		}
	}
}

// Dropped reports how many events failed to reach the writer.
func (l *AuditLogger) Dropped() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.dropped
}

// LogArtifact records that toolName wrote to path. detail is a short
// human-readable summary such as a proposal title.
func (l *AuditLogger) LogArtifact(toolName, path, detail string) {
	l.Log(AuditEvent{
		Type:     EventArtifact,
		ToolName: toolName,
		Path:     path,
		Detail:   detail,
	})
}
