package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/flemzord/stagewright/internal/ledger"
	"github.com/flemzord/stagewright/internal/security"
	"github.com/flemzord/stagewright/internal/tool"
)

// WriteToolName is the registered name of the note append tool.
const WriteToolName = "write_memory"

// maxTitleLen bounds the ledger title derived from a note.
const maxTitleLen = 80

// NoteRequest is the decoded argument set of write_memory.
type NoteRequest struct {
	Note string   `json:"note"`
	Tags []string `json:"tags"`
}

// WriteTool appends notes to the workspace notes log. It has no path
// parameter: the destination is fixed by the workspace.
type WriteTool struct {
	deps Deps
}

// NewWriteTool creates the write_memory tool.
func NewWriteTool(deps Deps) *WriteTool {
	return &WriteTool{deps: deps.withDefaults()}
}

func (t *WriteTool) Name() string { return WriteToolName }
func (t *WriteTool) Description() string {
	return "Append a note to the agent's persistent memory notes file. Each note is timestamped and " +
		"preserved. Use for observations, decisions, preferences, or reminders that should persist across sessions."
}
func (t *WriteTool) Scopes() []tool.Scope          { return []tool.Scope{tool.ScopeReadWrite} }
func (t *WriteTool) Operation() security.Operation { return security.OperationAct }
func (t *WriteTool) Schema() json.RawMessage       { return t.Params().Schema() }

func (t *WriteTool) Params() tool.Params {
	return tool.Params{
		{Name: "note", Type: tool.TypeString, Required: true, Description: "The note to append. Plain text or Markdown."},
		{Name: "tags", Type: tool.TypeArray, Items: tool.TypeString, Description: "Optional labels used to filter notes later."},
	}
}

// Execute implements tool.Tool.
func (t *WriteTool) Execute(ctx context.Context, args json.RawMessage) (tool.Result, error) {
	var req NoteRequest
	if err := t.Params().Decode(args, &req); err != nil {
		return tool.Result{}, err
	}

	if strings.TrimSpace(req.Note) == "" {
		return tool.Fail("Note must not be empty"), nil
	}

	if err := t.deps.Gate.Enforce(security.OperationAct, WriteToolName); err != nil {
		t.deps.Logger.Warn("note denied", "tool", WriteToolName, "reason", err)
		return tool.Denied(err), nil
	}

	entry := Entry{
		Timestamp: t.deps.Now().UTC(),
		Tags:      NormalizeTags(req.Tags),
		Body:      req.Note,
	}
	path := t.deps.Workspace.NotesPath()

	n, err := appendEntry(path, FormatEntry(entry))
	if err != nil {
		return tool.Result{}, err
	}

	t.deps.Logger.Info("note appended", "path", path, "bytes", n, "tags", len(entry.Tags))
	t.deps.Audit.LogArtifact(WriteToolName, path, noteTitle(req.Note))

	if t.deps.Recorder != nil {
		rec := ledger.Record{
			Kind:      ledger.KindNote,
			Tool:      WriteToolName,
			Path:      path,
			Title:     noteTitle(req.Note),
			Status:    ledger.StatusAppended,
			CreatedAt: entry.Timestamp,
		}
		if err := t.deps.Recorder.Record(ctx, rec); err != nil {
			t.deps.Logger.Warn("ledger record failed", "tool", WriteToolName, "path", path, "error", err)
		}
	}

	return tool.OK(fmt.Sprintf("Note appended to %s (%d bytes)", path, n)), nil
}

// noteTitle is the first non-blank line of note, capped to maxTitleLen runes.
func noteTitle(note string) string {
	for line := range strings.SplitSeq(note, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if r := []rune(line); len(r) > maxTitleLen {
			return string(r[:maxTitleLen])
		}
		return line
	}
	return ""
}
