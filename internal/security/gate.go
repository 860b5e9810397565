// Package security holds the policy side of tool execution: the Gate
// consulted before any side effect, the autonomy and action-budget policy
// that implements it, audit logging, secret redaction for logs, and
// boundary validation of raw arguments.
package security

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Operation classifies what a tool is about to do.
type Operation string

// Operation values understood by the gate.
const (
	// OperationRead observes state without changing it.
	OperationRead Operation = "read"

	// OperationAct mutates state (writes to the workspace).
	OperationAct Operation = "act"
)

// Gate decides whether a tool may perform an operation right now.
// A nil error allows the call. A non-nil error denies it, and its message
// is surfaced unmodified to the caller as the denial reason.
// Implementations must be safe for concurrent use.
type Gate interface {
	Enforce(op Operation, toolName string) error
}

// Denial errors. Enforce wraps these so callers can match with errors.Is
// while the full message still carries the tool name and context.
var (
	ErrReadOnly     = errors.New("read-only mode")
	ErrToolDisabled = errors.New("tool is disabled")
)

// AutonomyLevel is the gate's operating mode.
type AutonomyLevel string

// AutonomyLevel values.
const (
	// AutonomyReadOnly allows observation only; every act is denied.
	AutonomyReadOnly AutonomyLevel = "read_only"

	// AutonomySupervised allows acts within the action budget. Proposals
	// are still staged for operator review and never applied.
	AutonomySupervised AutonomyLevel = "supervised"

	// AutonomyFull allows acts within the action budget.
	AutonomyFull AutonomyLevel = "full"
)

// Valid reports whether l is a known autonomy level.
func (l AutonomyLevel) Valid() bool {
	switch l {
	case AutonomyReadOnly, AutonomySupervised, AutonomyFull:
		return true
	default:
		return false
	}
}

// DefaultMaxActionsPerHour is the action budget applied when none is configured.
const DefaultMaxActionsPerHour = 20

// PolicyConfig configures a Policy.
type PolicyConfig struct {
	// Autonomy is the operating mode. Empty means AutonomySupervised.
	Autonomy AutonomyLevel

	// MaxActionsPerHour bounds act operations in a sliding one-hour window.
	// Zero denies every act; a negative value disables the budget.
	MaxActionsPerHour int

	// DeniedTools lists tool names that are always denied.
	DeniedTools []string
}

// Policy is the default Gate. It combines an autonomy level, a per-tool
// deny list and a sliding-window action budget. Read operations are never
// budgeted and remain available in read-only mode.
type Policy struct {
	autonomy    AutonomyLevel
	maxActions  int
	deniedTools []string
	limiter     *RateLimiter
}

// Compile-time check.
var _ Gate = (*Policy)(nil)

// NewPolicy creates a Policy from cfg.
func NewPolicy(cfg PolicyConfig) *Policy {
	autonomy := cfg.Autonomy
	if autonomy == "" {
		autonomy = AutonomySupervised
	}

	denied := make([]string, 0, len(cfg.DeniedTools))
	for _, name := range cfg.DeniedTools {
		if name = strings.TrimSpace(name); name != "" {
			denied = append(denied, name)
		}
	}

	return &Policy{
		autonomy:    autonomy,
		maxActions:  cfg.MaxActionsPerHour,
		deniedTools: denied,
		limiter:     NewRateLimiter(RateLimitConfig{ActionsPerHour: cfg.MaxActionsPerHour}),
	}
}

// Autonomy returns the configured autonomy level.
func (p *Policy) Autonomy() AutonomyLevel {
	return p.autonomy
}

// Enforce implements Gate.
func (p *Policy) Enforce(op Operation, toolName string) error {
	if slices.Contains(p.deniedTools, toolName) {
		return fmt.Errorf("security policy: %w: '%s'", ErrToolDisabled, toolName)
	}

	if op != OperationAct {
		return nil
	}

	if p.autonomy == AutonomyReadOnly {
		return fmt.Errorf("security policy: %w, cannot perform '%s'", ErrReadOnly, toolName)
	}

	if err := p.limiter.Allow(BucketAction); err != nil {
		return fmt.Errorf("security policy: %w: action budget exhausted (%d per hour)", err, max(p.maxActions, 0))
	}
	return nil
}
