package proposal

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/flemzord/stagewright/internal/ledger"
	"github.com/flemzord/stagewright/internal/naming"
	"github.com/flemzord/stagewright/internal/security"
	"github.com/flemzord/stagewright/internal/tool"
)

// ChangeToolName is the registered name of the generic change tool.
const ChangeToolName = "propose_change"

// fallbackSlug names a proposal whose title has no slug-able characters.
const fallbackSlug = "proposal"

// ChangeRequest is the decoded argument set of propose_change.
type ChangeRequest struct {
	Title    string   `json:"title"`
	Summary  string   `json:"summary"`
	Diff     string   `json:"diff"`
	Files    []string `json:"files"`
	TestPlan string   `json:"test_plan"`
	Risks    string   `json:"risks"`
}

// ChangeTool stages a free-form change under
// <workspace>/<namespace>/proposals/<timestamp>_<slug>.md.
type ChangeTool struct {
	deps Deps
}

// NewChangeTool creates the propose_change tool.
func NewChangeTool(deps Deps) *ChangeTool {
	return &ChangeTool{deps: deps.withDefaults()}
}

func (t *ChangeTool) Name() string { return ChangeToolName }
func (t *ChangeTool) Description() string {
	return "Propose a code or documentation change for operator review. The diff is stored verbatim " +
		"in a Markdown proposal and is never applied automatically."
}
func (t *ChangeTool) Scopes() []tool.Scope          { return []tool.Scope{tool.ScopeReadWrite} }
func (t *ChangeTool) Operation() security.Operation { return security.OperationAct }
func (t *ChangeTool) Schema() json.RawMessage       { return t.Params().Schema() }

func (t *ChangeTool) Params() tool.Params {
	return tool.Params{
		{Name: "title", Type: tool.TypeString, Required: true, Description: "Short title; also used to name the proposal file."},
		{Name: "summary", Type: tool.TypeString, Required: true, Description: "What the change does and why."},
		{Name: "diff", Type: tool.TypeString, Required: true, Description: "The change itself, usually a unified diff. Stored verbatim."},
		{Name: "files", Type: tool.TypeArray, Items: tool.TypeString, Description: "Files touched by the change."},
		{Name: "test_plan", Type: tool.TypeString, Description: "How the change should be verified."},
		{Name: "risks", Type: tool.TypeString, Description: "Known risks or side effects."},
	}
}

// Execute implements tool.Tool.
func (t *ChangeTool) Execute(ctx context.Context, args json.RawMessage) (tool.Result, error) {
	var req ChangeRequest
	if err := t.Params().Decode(args, &req); err != nil {
		return tool.Result{}, err
	}

	switch {
	case isBlank(req.Title):
		return tool.Fail("Title must not be empty"), nil
	case isBlank(req.Summary):
		return tool.Fail("Summary must not be empty"), nil
	case isBlank(req.Diff):
		return tool.Fail("Diff must not be empty"), nil
	}

	if err := t.deps.Gate.Enforce(security.OperationAct, ChangeToolName); err != nil {
		t.deps.Logger.Warn("proposal denied", "tool", ChangeToolName, "reason", err)
		return tool.Denied(err), nil
	}

	p := Proposal{
		Kind:      ledger.KindChange,
		Title:     req.Title,
		Summary:   req.Summary,
		Content:   req.Diff,
		Files:     req.Files,
		TestPlan:  req.TestPlan,
		Risks:     req.Risks,
		CreatedAt: t.deps.Now().UTC(),
		Status:    StatusPending,
	}

	slug := naming.Slug(req.Title)
	if slug == "" {
		slug = fallbackSlug
	}
	name := naming.FileStamp(p.CreatedAt) + "_" + slug + ".md"

	path, err := writeExclusive(t.deps.Workspace.ProposalsDir(), name, RenderChange(p))
	if err != nil {
		return tool.Result{}, err
	}

	t.deps.Logger.Info("change proposed", "title", singleLine(req.Title), "path", path)
	t.deps.record(ctx, ChangeToolName, p, path)

	return tool.OK(fmt.Sprintf("Proposal written to %s; awaiting operator review", path)), nil
}
