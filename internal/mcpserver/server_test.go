package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/flemzord/stagewright/internal/security"
	"github.com/flemzord/stagewright/internal/tool"
	"github.com/flemzord/stagewright/internal/tool/tooltest"
)

func newTestServer(t *testing.T) (*Server, *tooltest.MockTool) {
	t.Helper()

	echo := tooltest.SimpleTool("echo", security.OperationRead)
	reg := tool.NewRegistry()
	for _, tl := range []tool.Tool{
		echo,
		tooltest.SimpleTool("act", security.OperationAct),
		&tooltest.MockTool{
			NameFunc: func() string { return "soft" },
			ExecuteFunc: func(context.Context, json.RawMessage) (tool.Result, error) {
				return tool.Fail("Summary must not be empty"), nil
			},
		},
		&tooltest.MockTool{
			NameFunc: func() string { return "hard" },
			ExecuteFunc: func(context.Context, json.RawMessage) (tool.Result, error) {
				return tool.Result{}, errors.New("write failed")
			},
		},
	} {
		if err := reg.Register(tl); err != nil {
			t.Fatalf("Register: %v", err)
		}
	}
	return New(reg, Options{Version: "test"}), echo
}

func callRequest(args any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()

	var sb strings.Builder
	for _, c := range res.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			sb.WriteString(tc.Text)
		}
	}
	return sb.String()
}

func TestHandler_Success(t *testing.T) {
	t.Parallel()

	s, echo := newTestServer(t)
	res, err := s.handler("echo")(context.Background(), callRequest(map[string]any{"input": "hello"}))
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	if res.IsError {
		t.Fatalf("unexpected error result: %s", resultText(t, res))
	}
	if got := resultText(t, res); got != "executed: echo hello" {
		t.Errorf("text = %q", got)
	}
	if string(echo.LastArgs) != `{"input":"hello"}` {
		t.Errorf("args = %s", echo.LastArgs)
	}
}

func TestHandler_NilArguments(t *testing.T) {
	t.Parallel()

	s, echo := newTestServer(t)
	res, err := s.handler("echo")(context.Background(), callRequest(nil))
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	if res.IsError {
		t.Fatalf("unexpected error result: %s", resultText(t, res))
	}
	if len(echo.LastArgs) != 0 {
		t.Errorf("args = %s, want empty", echo.LastArgs)
	}
}

func TestHandler_SoftFailureIsToolError(t *testing.T) {
	t.Parallel()

	s, _ := newTestServer(t)
	res, err := s.handler("soft")(context.Background(), callRequest(map[string]any{}))
	if err != nil {
		t.Fatalf("soft failure must not be a protocol error: %v", err)
	}
	if !res.IsError {
		t.Fatal("expected IsError")
	}
	if got := resultText(t, res); got != "Summary must not be empty" {
		t.Errorf("text = %q", got)
	}
}

func TestHandler_HardFailures(t *testing.T) {
	t.Parallel()

	s, _ := newTestServer(t)

	tests := []struct {
		name    string
		tool    string
		args    any
		wantErr error
	}{
		{"tool error", "hard", map[string]any{}, nil},
		{"wrong type", "echo", map[string]any{"input": 42}, tool.ErrInvalidArguments},
		{"not an object", "echo", []any{"x"}, tool.ErrInvalidArguments},
		{"unencodable", "echo", map[string]any{"input": make(chan int)}, tool.ErrInvalidArguments},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			res, err := s.handler(tt.tool)(context.Background(), callRequest(tt.args))
			if err == nil {
				t.Fatalf("expected error, got result %+v", res)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestDefinition_Annotations(t *testing.T) {
	t.Parallel()

	read := definition(tool.Descriptor{Name: "q", Operation: security.OperationRead, Schema: json.RawMessage(`{"type":"object"}`)})
	if read.Annotations.ReadOnlyHint == nil || !*read.Annotations.ReadOnlyHint {
		t.Error("read tool should be read-only")
	}

	act := definition(tool.Descriptor{Name: "w", Operation: security.OperationAct, Schema: json.RawMessage(`{"type":"object"}`)})
	if act.Annotations.ReadOnlyHint == nil || *act.Annotations.ReadOnlyHint {
		t.Error("act tool should not be read-only")
	}
	if string(act.RawInputSchema) != `{"type":"object"}` {
		t.Errorf("schema = %s", act.RawInputSchema)
	}
}

func TestServer_ListAndCallOverJSONRPC(t *testing.T) {
	t.Parallel()

	s, _ := newTestServer(t)
	ctx := context.Background()

	list := s.MCP().HandleMessage(ctx, json.RawMessage(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`))
	out, err := json.Marshal(list)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	for _, name := range []string{"echo", "act", "soft", "hard"} {
		if !strings.Contains(string(out), `"name":"`+name+`"`) {
			t.Errorf("tools/list missing %q: %s", name, out)
		}
	}

	call := s.MCP().HandleMessage(ctx, json.RawMessage(
		`{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"echo","arguments":{"input":"rpc"}}}`))
	out, _ = json.Marshal(call)
	if !strings.Contains(string(out), "executed: echo rpc") {
		t.Errorf("tools/call = %s", out)
	}

	hard := s.MCP().HandleMessage(ctx, json.RawMessage(
		`{"jsonrpc":"2.0","id":3,"method":"tools/call","params":{"name":"hard","arguments":{}}}`))
	out, _ = json.Marshal(hard)
	if !strings.Contains(string(out), `"error"`) || !strings.Contains(string(out), "write failed") {
		t.Errorf("hard failure should be a JSON-RPC error: %s", out)
	}
}
