// Package proposal implements the two proposal tools: propose_config_change,
// which stages a change to one of a closed set of configuration sections, and
// propose_change, which stages a free-form code change. Proposals are written
// once as Markdown for an operator to review. Nothing here applies them.
package proposal

import (
	"slices"
	"strings"
	"time"

	"github.com/flemzord/stagewright/internal/ledger"
)

// Status is the review state of a proposal.
type Status string

// StatusPending is the only state this package ever writes.
const StatusPending Status = ledger.StatusPending

// Config change targets. These symbolic names are the only way to address a
// configuration section, so no caller input ever becomes a path.
const (
	TargetCoreIdentity        = "core-identity"
	TargetOperationalBaseline = "operational-baseline"
	TargetCompanionMode       = "companion-mode"
	TargetGuardrails          = "guardrails"
	TargetStateMachine        = "state-machine"
)

// Targets returns the allowed config change targets in display order.
func Targets() []string {
	return []string{
		TargetCoreIdentity,
		TargetOperationalBaseline,
		TargetCompanionMode,
		TargetGuardrails,
		TargetStateMachine,
	}
}

// IsTarget reports whether s is an allowed config change target.
// Matching is exact.
func IsTarget(s string) bool {
	return slices.Contains(Targets(), s)
}

// Proposal is a staged change awaiting operator review.
type Proposal struct {
	Kind      ledger.Kind
	Title     string // config target or change title
	Summary   string // rationale or change summary
	Content   string // proposed content or diff
	Files     []string
	TestPlan  string
	Risks     string
	CreatedAt time.Time
	Status    Status
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
