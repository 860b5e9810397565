package security

import (
	"errors"
	"sync"
	"testing"
)

func TestSwitchGate_Swap(t *testing.T) {
	t.Parallel()

	g := NewSwitchGate(NewPolicy(PolicyConfig{Autonomy: AutonomyFull, MaxActionsPerHour: -1}))
	if err := g.Enforce(OperationAct, "propose_change"); err != nil {
		t.Fatalf("full autonomy denied: %v", err)
	}

	g.Swap(NewPolicy(PolicyConfig{Autonomy: AutonomyReadOnly}))
	if err := g.Enforce(OperationAct, "propose_change"); !errors.Is(err, ErrReadOnly) {
		t.Fatalf("expected ErrReadOnly after swap, got %v", err)
	}
	if p, ok := g.Current().(*Policy); !ok || p.Autonomy() != AutonomyReadOnly {
		t.Errorf("Current() = %#v", g.Current())
	}
}

func TestSwitchGate_ConcurrentSwap(t *testing.T) {
	t.Parallel()

	g := NewSwitchGate(NewPolicy(PolicyConfig{MaxActionsPerHour: -1}))

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = g.Enforce(OperationRead, "query_memory")
		}()
		go func() {
			defer wg.Done()
			level := AutonomySupervised
			if i%2 == 0 {
				level = AutonomyReadOnly
			}
			g.Swap(NewPolicy(PolicyConfig{Autonomy: level, MaxActionsPerHour: -1}))
		}()
	}
	wg.Wait()

	if err := g.Enforce(OperationRead, "query_memory"); err != nil {
		t.Errorf("reads must stay allowed: %v", err)
	}
}
