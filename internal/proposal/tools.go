package proposal

import (
	"context"
	"log/slog"
	"time"

	"github.com/flemzord/stagewright/internal/ledger"
	"github.com/flemzord/stagewright/internal/security"
	"github.com/flemzord/stagewright/internal/tool"
	"github.com/flemzord/stagewright/internal/workspace"
)

// Deps holds the collaborators shared by the proposal tools.
type Deps struct {
	Workspace *workspace.Workspace
	Gate      security.Gate

	// Recorder, if non-nil, indexes every written proposal.
	Recorder ledger.Recorder

	// Audit, if non-nil, receives an artifact event per write.
	Audit *security.AuditLogger

	// Logger defaults to slog.Default().
	Logger *slog.Logger

	// Now overrides time.Now for testing.
	Now func() time.Time
}

func (d Deps) withDefaults() Deps {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return d
}

// RegisterTools registers propose_config_change and propose_change.
func RegisterTools(registry *tool.Registry, deps Deps) error {
	for _, t := range []tool.Tool{NewConfigChangeTool(deps), NewChangeTool(deps)} {
		if err := registry.Register(t); err != nil {
			return err
		}
	}
	return nil
}

// record audits and indexes a written proposal. The file is already on
// disk, so a ledger failure is logged and otherwise ignored.
func (d Deps) record(ctx context.Context, toolName string, p Proposal, path string) {
	d.Audit.LogArtifact(toolName, path, singleLine(p.Title))
	if d.Recorder == nil {
		return
	}
	err := d.Recorder.Record(ctx, ledger.Record{
		Kind:      p.Kind,
		Tool:      toolName,
		Path:      path,
		Title:     singleLine(p.Title),
		Status:    string(p.Status),
		CreatedAt: p.CreatedAt,
	})
	if err != nil {
		d.Logger.Warn("ledger record failed", "tool", toolName, "path", path, "error", err)
	}
}
