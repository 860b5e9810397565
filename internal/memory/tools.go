package memory

import (
	"log/slog"
	"time"

	"github.com/flemzord/stagewright/internal/ledger"
	"github.com/flemzord/stagewright/internal/security"
	"github.com/flemzord/stagewright/internal/tool"
	"github.com/flemzord/stagewright/internal/workspace"
)

// Deps holds the collaborators shared by the memory tools.
type Deps struct {
	Workspace *workspace.Workspace
	Gate      security.Gate

	// Recorder, if non-nil, indexes every appended note.
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

// RegisterTools registers write_memory and query_memory.
func RegisterTools(registry *tool.Registry, deps Deps) error {
	for _, t := range []tool.Tool{NewWriteTool(deps), NewQueryTool(deps)} {
		if err := registry.Register(t); err != nil {
			return err
		}
	}
	return nil
}
