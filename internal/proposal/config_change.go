package proposal

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/flemzord/stagewright/internal/ledger"
	"github.com/flemzord/stagewright/internal/naming"
	"github.com/flemzord/stagewright/internal/security"
	"github.com/flemzord/stagewright/internal/tool"
)

// ConfigChangeToolName is the registered name of the config change tool.
const ConfigChangeToolName = "propose_config_change"

// ConfigChangeRequest is the decoded argument set of propose_config_change.
type ConfigChangeRequest struct {
	Target          string `json:"target"`
	Rationale       string `json:"rationale"`
	ProposedContent string `json:"proposed_content"`
}

// ConfigChangeTool stages a change to one configuration section under
// <workspace>/<namespace>/proposals/<timestamp>-<target>.md.
type ConfigChangeTool struct {
	deps Deps
}

// NewConfigChangeTool creates the propose_config_change tool.
func NewConfigChangeTool(deps Deps) *ConfigChangeTool {
	return &ConfigChangeTool{deps: deps.withDefaults()}
}

func (t *ConfigChangeTool) Name() string { return ConfigChangeToolName }
func (t *ConfigChangeTool) Description() string {
	return "Propose a change to an agent configuration section. Writes the proposal to the " +
		"proposals directory for operator review. The proposal is NEVER applied automatically; " +
		"a human operator must approve and apply it. Allowed targets: " + strings.Join(Targets(), ", ") + "."
}
func (t *ConfigChangeTool) Scopes() []tool.Scope          { return []tool.Scope{tool.ScopeReadWrite} }
func (t *ConfigChangeTool) Operation() security.Operation { return security.OperationAct }
func (t *ConfigChangeTool) Schema() json.RawMessage       { return t.Params().Schema() }

func (t *ConfigChangeTool) Params() tool.Params {
	return tool.Params{
		{
			Name:        "target",
			Type:        tool.TypeString,
			Required:    true,
			Enum:        Targets(),
			Description: "The configuration section to propose changes for. Allowed values: " + strings.Join(Targets(), ", ") + ".",
		},
		{
			Name:        "rationale",
			Type:        tool.TypeString,
			Required:    true,
			Description: "Explanation of why this change is proposed and what problem it solves.",
		},
		{
			Name:        "proposed_content",
			Type:        tool.TypeString,
			Required:    true,
			Description: "The proposed new content or patch description. Plain text or unified diff.",
		},
	}
}

// Execute implements tool.Tool.
func (t *ConfigChangeTool) Execute(ctx context.Context, args json.RawMessage) (tool.Result, error) {
	var req ConfigChangeRequest
	if err := t.Params().Decode(args, &req); err != nil {
		return tool.Result{}, err
	}

	if !IsTarget(req.Target) {
		return tool.Fail(fmt.Sprintf("Unknown proposal target '%s'. Allowed: %s", req.Target, strings.Join(Targets(), ", "))), nil
	}
	if isBlank(req.Rationale) {
		return tool.Fail("Rationale must not be empty"), nil
	}
	if isBlank(req.ProposedContent) {
		return tool.Fail("Proposed content must not be empty"), nil
	}

	if err := t.deps.Gate.Enforce(security.OperationAct, ConfigChangeToolName); err != nil {
		t.deps.Logger.Warn("proposal denied", "tool", ConfigChangeToolName, "target", req.Target, "reason", err)
		return tool.Denied(err), nil
	}

	p := Proposal{
		Kind:      ledger.KindConfigChange,
		Title:     req.Target,
		Summary:   req.Rationale,
		Content:   req.ProposedContent,
		CreatedAt: t.deps.Now().UTC(),
		Status:    StatusPending,
	}

	name := naming.SecondStamp(p.CreatedAt) + naming.Separator + req.Target + ".md"
	path, err := writeExclusive(t.deps.Workspace.ProposalsDir(), name, RenderConfigChange(p))
	if err != nil {
		return tool.Result{}, err
	}

	t.deps.Logger.Info("config change proposed", "target", req.Target, "path", path)
	t.deps.record(ctx, ConfigChangeToolName, p, path)

	return tool.OK(fmt.Sprintf("Proposal written to %s; awaiting operator review", path)), nil
}
