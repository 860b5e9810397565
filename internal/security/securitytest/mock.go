// Package securitytest provides test doubles for the security package.
// It is intended for use by other packages' tests.
package securitytest

import (
	"fmt"
	"sync"

	"github.com/flemzord/stagewright/internal/security"
)

// Call records a single Enforce invocation.
type Call struct {
	Op       security.Operation
	ToolName string
}

// Gate is a configurable security.Gate. EnforceFunc decides; when nil every
// call is allowed. Calls are recorded for inspection.
type Gate struct {
	EnforceFunc func(op security.Operation, toolName string) error

	mu    sync.Mutex
	calls []Call
}

// Enforce implements security.Gate.
func (g *Gate) Enforce(op security.Operation, toolName string) error {
	g.mu.Lock()
	g.calls = append(g.calls, Call{Op: op, ToolName: toolName})
	g.mu.Unlock()

	if g.EnforceFunc != nil {
		return g.EnforceFunc(op, toolName)
	}
	return nil
}

// Calls returns a copy of the recorded calls.
func (g *Gate) Calls() []Call {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]Call(nil), g.calls...)
}

// AllowAll returns a gate that allows every operation.
func AllowAll() *Gate {
	return &Gate{}
}

// ReadOnly returns a gate that denies every act with a read-only reason,
// mirroring security.Policy in read-only mode.
func ReadOnly() *Gate {
	return &Gate{
		EnforceFunc: func(op security.Operation, toolName string) error {
			if op == security.OperationAct {
				return fmt.Errorf("security policy: %w, cannot perform '%s'", security.ErrReadOnly, toolName)
			}
			return nil
		},
	}
}

// RateLimited returns a gate whose action budget is already exhausted.
func RateLimited() *Gate {
	return &Gate{
		EnforceFunc: func(op security.Operation, _ string) error {
			if op == security.OperationAct {
				return fmt.Errorf("security policy: %w: action budget exhausted (0 per hour)", security.ErrRateLimited)
			}
			return nil
		},
	}
}

// Deny returns a gate that denies every operation with reason.
func Deny(reason string) *Gate {
	return &Gate{
		EnforceFunc: func(security.Operation, string) error {
			return fmt.Errorf("%s", reason)
		},
	}
}

// NewTestRedactor creates a Redactor with no patterns for testing.
// This avoids false positives in tests that use strings matching
// production secret patterns.
func NewTestRedactor() *security.Redactor {
	return &security.Redactor{}
}

// NewTestAuditLogger creates an AuditLogger that captures events in memory.
// Returns the logger and a function to retrieve logged events.
func NewTestAuditLogger() (*security.AuditLogger, func() []security.AuditEvent) {
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

// Interface guard.
var _ security.Gate = (*Gate)(nil)
