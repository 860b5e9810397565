// Package mcpserver exposes the tool registry to MCP clients. Soft failures
// become tool results flagged as errors; hard failures become JSON-RPC
// errors.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/flemzord/stagewright/internal/security"
	"github.com/flemzord/stagewright/internal/tool"
)

// DefaultName is the server name announced during initialize.
const DefaultName = "stagewright"

// Options configure New.
type Options struct {
	Name         string
	Version      string
	Instructions string
	Logger       *slog.Logger
}

// Server wraps an MCP server whose tools are the registry's tools.
type Server struct {
	mcp      *server.MCPServer
	registry *tool.Registry
	logger   *slog.Logger
}

// New registers every tool currently in reg. Tools registered afterwards
// are not exposed.
func New(reg *tool.Registry, opts Options) *Server {
	if opts.Name == "" {
		opts.Name = DefaultName
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	serverOpts := []server.ServerOption{
		server.WithToolCapabilities(true),
		server.WithRecovery(),
	}
	if opts.Instructions != "" {
		serverOpts = append(serverOpts, server.WithInstructions(opts.Instructions))
	}

	s := &Server{
		mcp:      server.NewMCPServer(opts.Name, opts.Version, serverOpts...),
		registry: reg,
		logger:   logger.With("component", "mcp"),
	}
	for _, d := range reg.Describe() {
		s.mcp.AddTool(definition(d), s.handler(d.Name))
	}
	return s
}

// MCP returns the underlying server.
func (s *Server) MCP() *server.MCPServer {
	return s.mcp
}

// Serve speaks MCP over line-delimited JSON-RPC on in/out until ctx is
// cancelled or in is closed.
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	stdio := server.NewStdioServer(s.mcp)
	stdio.SetErrorLogger(slog.NewLogLogger(s.logger.Handler(), slog.LevelError))
	s.logger.Info("mcp: serving", "tools", len(s.registry.Names()))
	if err := stdio.Listen(ctx, in, out); err != nil && ctx.Err() == nil {
		return fmt.Errorf("mcp: %w", err)
	}
	return nil
}

// definition converts a registry descriptor into an MCP tool.
func definition(d tool.Descriptor) mcp.Tool {
	t := mcp.NewToolWithRawSchema(d.Name, d.Description, d.Schema)
	readOnly := d.Operation == security.OperationRead
	t.Annotations = mcp.ToolAnnotation{
		ReadOnlyHint:    mcp.ToBoolPtr(readOnly),
		DestructiveHint: mcp.ToBoolPtr(false),
		IdempotentHint:  mcp.ToBoolPtr(readOnly),
		OpenWorldHint:   mcp.ToBoolPtr(false),
	}
	return t
}

// handler runs the named tool through the registry so MCP calls get the
// same boundary checks, audit events and metrics as every other caller.
func (s *Server) handler(name string) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, err := rawArguments(req)
		if err != nil {
			return nil, err
		}

		res, err := s.registry.Execute(ctx, name, args)
		if err != nil {
			s.logger.Warn("mcp: tool call failed", "tool", name, "error", err)
			return nil, err
		}
		if !res.Success {
			return mcp.NewToolResultError(res.Error), nil
		}
		return mcp.NewToolResultText(res.Output), nil
	}
}

// rawArguments re-encodes the decoded call arguments. Absent arguments are
// passed through as empty so the tool treats them as {}.
func rawArguments(req mcp.CallToolRequest) (json.RawMessage, error) {
	if req.Params.Arguments == nil {
		return nil, nil
	}
	raw, err := json.Marshal(req.Params.Arguments)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", tool.ErrInvalidArguments, err)
	}
	return raw, nil
}
