package app

import (
	"context"
	"io"

	"github.com/flemzord/stagewright/internal/mcpserver"
)

const mcpInstructions = `Tools in this server never change the running system directly.
propose_config_change and propose_change stage Markdown proposals for an operator to review.
write_memory appends a note to the shared notes log; query_memory searches it.
A result flagged as an error is a rejection you can fix by retrying with different input.`

// ServeMCP speaks MCP on in/out until ctx is cancelled or in is closed.
func (a *App) ServeMCP(ctx context.Context, in io.Reader, out io.Writer) error {
	srv := mcpserver.New(a.Registry, mcpserver.Options{
		Version:      a.Version,
		Instructions: mcpInstructions,
		Logger:       a.Logger,
	})
	return srv.Serve(ctx, in, out)
}
