package memory

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/flemzord/stagewright/internal/security"
	"github.com/flemzord/stagewright/internal/security/securitytest"
	"github.com/flemzord/stagewright/internal/tool"
)

func queryArgs(query, tag string) json.RawMessage {
	data, _ := json.Marshal(map[string]string{"query": query, "tag": tag})
	return data
}

func TestQueryTool_Metadata(t *testing.T) {
	t.Parallel()

	tl := NewQueryTool(testDeps(t, securitytest.AllowAll()))
	if tl.Operation() != security.OperationRead {
		t.Errorf("Operation() = %q", tl.Operation())
	}
	if tl.Scopes()[0] != tool.ScopeReadOnly {
		t.Errorf("Scopes() = %v", tl.Scopes())
	}
}

func TestQueryTool_MissingFile(t *testing.T) {
	t.Parallel()

	res, err := NewQueryTool(testDeps(t, securitytest.AllowAll())).Execute(context.Background(), queryArgs("anything", ""))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !res.Success || res.Output != "No matching notes" {
		t.Errorf("result = %+v", res)
	}
}

func TestQueryTool_FindsWrittenNotes(t *testing.T) {
	t.Parallel()

	deps := testDeps(t, securitytest.AllowAll())
	clock := t0
	deps.Now = func() time.Time { clock = clock.Add(time.Second); return clock }

	w := NewWriteTool(deps)
	ctx := context.Background()
	for _, args := range []json.RawMessage{
		noteArgs("Disk pressure on node A", "ops"),
		noteArgs("User prefers short answers"),
		noteArgs("Disk replaced on node A", "ops", "hardware"),
	} {
		if res, err := w.Execute(ctx, args); err != nil || !res.Success {
			t.Fatalf("write: res=%+v err=%v", res, err)
		}
	}

	q := NewQueryTool(deps)
	res, err := q.Execute(ctx, queryArgs("disk", "hardware"))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !res.Success || !strings.HasPrefix(res.Output, "1 matching notes\n") || !strings.Contains(res.Output, "Disk replaced on node A") {
		t.Errorf("result = %+v", res)
	}

	res, _ = q.Execute(ctx, queryArgs("DISK", ""))
	first := strings.Index(res.Output, "Disk pressure")
	second := strings.Index(res.Output, "Disk replaced")
	if first < 0 || second < 0 || first > second {
		t.Errorf("expected both matches oldest first:\n%s", res.Output)
	}
}

func TestQueryTool_AllowedInReadOnly(t *testing.T) {
	t.Parallel()

	gate := security.NewPolicy(security.PolicyConfig{Autonomy: security.AutonomyReadOnly, MaxActionsPerHour: 0})
	res, err := NewQueryTool(testDeps(t, gate)).Execute(context.Background(), queryArgs("x", ""))
	if err != nil || !res.Success {
		t.Errorf("reads must be allowed in read-only mode: res=%+v err=%v", res, err)
	}
}

func TestQueryTool_Validation(t *testing.T) {
	t.Parallel()

	q := NewQueryTool(testDeps(t, securitytest.AllowAll()))

	res, err := q.Execute(context.Background(), queryArgs("  ", ""))
	if err != nil || res.Success || res.Error != "Query must not be empty" {
		t.Errorf("blank query: res=%+v err=%v", res, err)
	}

	if _, err := q.Execute(context.Background(), json.RawMessage(`{"tag":"ops"}`)); !errors.Is(err, tool.ErrInvalidArguments) {
		t.Errorf("missing query: err=%v", err)
	}
}

func TestQueryTool_Denied(t *testing.T) {
	t.Parallel()

	gate := securitytest.Deny("security policy: tool is disabled: 'query_memory'")
	res, err := NewQueryTool(testDeps(t, gate)).Execute(context.Background(), queryArgs("x", ""))
	if err != nil || res.Success || !res.IsDenied() {
		t.Errorf("res=%+v err=%v", res, err)
	}
}

func TestFormatMatches_Limit(t *testing.T) {
	t.Parallel()

	var entries []Entry
	for i := range 5 {
		entries = append(entries, Entry{Timestamp: t0.Add(time.Duration(i) * time.Second), Body: string(rune('a' + i))})
	}

	out := FormatMatches(entries, 2)
	if !strings.HasPrefix(out, "5 matching notes (showing the 2 most recent)\n") {
		t.Errorf("header = %q", strings.SplitN(out, "\n", 2)[0])
	}
	if strings.Contains(out, "\n\na\n") || !strings.Contains(out, "\n\nd\n") || !strings.Contains(out, "\n\ne\n") {
		t.Errorf("unexpected body:\n%s", out)
	}
}
