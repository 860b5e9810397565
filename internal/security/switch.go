package security

import "sync/atomic"

// SwitchGate forwards Enforce to a Gate that can be replaced at runtime,
// which is how a configuration reload changes policy without rebuilding
// the tools that hold the gate.
type SwitchGate struct {
	current atomic.Pointer[gateBox]
}

type gateBox struct{ gate Gate }

// Compile-time check.
var _ Gate = (*SwitchGate)(nil)

// NewSwitchGate returns a SwitchGate delegating to initial.
func NewSwitchGate(initial Gate) *SwitchGate {
	s := &SwitchGate{}
	s.Swap(initial)
	return s
}

// Swap installs g for subsequent calls. Calls already inside Enforce finish
// against the previous gate.
func (s *SwitchGate) Swap(g Gate) {
	s.current.Store(&gateBox{gate: g})
}

// Current returns the installed gate.
func (s *SwitchGate) Current() Gate {
	return s.current.Load().gate
}

// Enforce implements Gate.
func (s *SwitchGate) Enforce(op Operation, toolName string) error {
	return s.Current().Enforce(op, toolName)
}
