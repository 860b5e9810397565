// Package tool defines the capability contract every agent action implements
// and the registry that executes them. A tool declares its parameters, the
// scopes it needs and whether it observes or mutates state. Validation and
// the security gate always run before a tool touches disk.
package tool

import (
	"context"
	"encoding/json"

	"github.com/flemzord/stagewright/internal/security"
)

// Scope declares what kind of access a tool requires.
// Every tool must declare at least one scope.
type Scope string

// Scope values for tool access requirements.
const (
	ScopeReadOnly  Scope = "read_only"
	ScopeReadWrite Scope = "read_write"
)

// Tool is the interface that all agent capabilities implement.
type Tool interface {
	// Name returns the unique identifier for this tool.
	Name() string

	// Description returns a human-readable description of what the tool does.
	Description() string

	// Params returns the declarative parameter descriptor.
	Params() Params

	// Schema returns a JSON Schema describing the tool's parameters.
	// Implementations usually return Params().Schema().
	Schema() json.RawMessage

	// Scopes returns the access scopes this tool requires.
	// Must return at least one scope.
	Scopes() []Scope

	// Operation reports whether the tool reads or mutates state. It is the
	// operation passed to the security gate.
	Operation() security.Operation

	// Execute runs the tool. A returned error is a hard failure: the
	// arguments were unusable or the write itself failed. Anything the
	// caller can correct by retrying with different input comes back as a
	// Result with Success false.
	Execute(ctx context.Context, args json.RawMessage) (Result, error)
}

// Result is the outcome of a tool execution that reached the tool's own
// validation. Success false is a soft failure with a message for the caller.
type Result struct {
	Success bool   `json:"success"`
	Output  string `json:"output"`
	Error   string `json:"error,omitempty"`

	denied bool
}

// OK returns a successful result.
func OK(output string) Result {
	return Result{Success: true, Output: output}
}

// Fail returns a soft failure carrying msg.
func Fail(msg string) Result {
	return Result{Success: false, Error: msg}
}

// Denied returns a soft failure for a gate denial. The reason is copied
// verbatim.
func Denied(reason error) Result {
	return Result{Success: false, Error: reason.Error(), denied: true}
}

// IsDenied reports whether r was produced by Denied.
func (r Result) IsDenied() bool {
	return r.denied
}
