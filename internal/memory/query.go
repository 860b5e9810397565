package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/flemzord/stagewright/internal/security"
	"github.com/flemzord/stagewright/internal/tool"
)

// QueryToolName is the registered name of the note search tool.
const QueryToolName = "query_memory"

// MaxQueryResults caps how many matches query_memory returns. The most
// recent matches are kept.
const MaxQueryResults = 20

// QueryRequest is the decoded argument set of query_memory.
type QueryRequest struct {
	Query string `json:"query"`
	Tag   string `json:"tag"`
}

// QueryTool searches the notes log. It only reads.
type QueryTool struct {
	deps Deps
}

// NewQueryTool creates the query_memory tool.
func NewQueryTool(deps Deps) *QueryTool {
	return &QueryTool{deps: deps.withDefaults()}
}

func (t *QueryTool) Name() string { return QueryToolName }
func (t *QueryTool) Description() string {
	return "Search the agent's persistent memory notes for entries containing the query, optionally filtered by tag."
}
func (t *QueryTool) Scopes() []tool.Scope          { return []tool.Scope{tool.ScopeReadOnly} }
func (t *QueryTool) Operation() security.Operation { return security.OperationRead }
func (t *QueryTool) Schema() json.RawMessage       { return t.Params().Schema() }

func (t *QueryTool) Params() tool.Params {
	return tool.Params{
		{Name: "query", Type: tool.TypeString, Required: true, Description: "Case-insensitive text to look for in note bodies."},
		{Name: "tag", Type: tool.TypeString, Description: "Only return notes carrying this tag."},
	}
}

// Execute implements tool.Tool.
func (t *QueryTool) Execute(_ context.Context, args json.RawMessage) (tool.Result, error) {
	var req QueryRequest
	if err := t.Params().Decode(args, &req); err != nil {
		return tool.Result{}, err
	}

	if strings.TrimSpace(req.Query) == "" {
		return tool.Fail("Query must not be empty"), nil
	}

	if err := t.deps.Gate.Enforce(security.OperationRead, QueryToolName); err != nil {
		return tool.Denied(err), nil
	}

	entries, err := ReadNotes(t.deps.Workspace.NotesPath())
	if err != nil {
		return tool.Result{}, fmt.Errorf("read notes: %w", err)
	}

	matches := Search(entries, req.Query, req.Tag)
	if len(matches) == 0 {
		return tool.OK("No matching notes"), nil
	}

	return tool.OK(FormatMatches(matches, MaxQueryResults)), nil
}

// FormatMatches renders up to limit of the most recent matches, oldest
// first. A non-positive limit renders all of them.
func FormatMatches(matches []Entry, limit int) string {
	total := len(matches)
	if limit > 0 && total > limit {
		matches = matches[total-limit:]
	}

	var b strings.Builder
	if len(matches) < total {
		fmt.Fprintf(&b, "%d matching notes (showing the %d most recent)\n", total, len(matches))
	} else {
		fmt.Fprintf(&b, "%d matching notes\n", total)
	}
	for _, e := range matches {
		b.WriteString(FormatEntry(e))
	}
	return b.String()
}
