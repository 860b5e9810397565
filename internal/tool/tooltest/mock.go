// Package tooltest provides test helpers and mocks for the tool package.
package tooltest

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/flemzord/stagewright/internal/security"
	"github.com/flemzord/stagewright/internal/tool"
)

// MockTool is a configurable mock implementation of tool.Tool.
type MockTool struct {
	NameFunc        func() string
	DescriptionFunc func() string
	ParamsFunc      func() tool.Params
	ScopesFunc      func() []tool.Scope
	OperationFunc   func() security.Operation
	ExecuteFunc     func(ctx context.Context, args json.RawMessage) (tool.Result, error)

	mu           sync.Mutex
	ExecuteCalls int
	LastArgs     json.RawMessage
}

// Name implements tool.Tool.
func (m *MockTool) Name() string {
	if m.NameFunc != nil {
		return m.NameFunc()
	}
	return "mock-tool"
}

// Description implements tool.Tool.
func (m *MockTool) Description() string {
	if m.DescriptionFunc != nil {
		return m.DescriptionFunc()
	}
	return "a mock tool"
}

// Params implements tool.Tool.
func (m *MockTool) Params() tool.Params {
	if m.ParamsFunc != nil {
		return m.ParamsFunc()
	}
	return nil
}

// Schema implements tool.Tool.
func (m *MockTool) Schema() json.RawMessage {
	return m.Params().Schema()
}

// Scopes implements tool.Tool.
func (m *MockTool) Scopes() []tool.Scope {
	if m.ScopesFunc != nil {
		return m.ScopesFunc()
	}
	return []tool.Scope{tool.ScopeReadOnly}
}

// Operation implements tool.Tool.
func (m *MockTool) Operation() security.Operation {
	if m.OperationFunc != nil {
		return m.OperationFunc()
	}
	return security.OperationRead
}

// Execute implements tool.Tool.
func (m *MockTool) Execute(ctx context.Context, args json.RawMessage) (tool.Result, error) {
	m.mu.Lock()
	m.ExecuteCalls++
	m.LastArgs = args
	m.mu.Unlock()

	if m.ExecuteFunc != nil {
		return m.ExecuteFunc(ctx, args)
	}
	return tool.OK("ok"), nil
}

// Calls returns the number of Execute invocations.
func (m *MockTool) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ExecuteCalls
}

// SimpleTool creates a minimal tool for testing with the given name and
// operation. It declares one optional string parameter "input" and echoes it.
func SimpleTool(name string, op security.Operation) *MockTool {
	scope := tool.ScopeReadOnly
	if op == security.OperationAct {
		scope = tool.ScopeReadWrite
	}
	params := tool.Params{{Name: "input", Type: tool.TypeString, Description: "echoed back"}}
	return &MockTool{
		NameFunc:        func() string { return name },
		DescriptionFunc: func() string { return "simple test tool: " + name },
		ParamsFunc:      func() tool.Params { return params },
		ScopesFunc:      func() []tool.Scope { return []tool.Scope{scope} },
		OperationFunc:   func() security.Operation { return op },
		ExecuteFunc: func(_ context.Context, args json.RawMessage) (tool.Result, error) {
			var req struct {
				Input string `json:"input"`
			}
			if err := params.Decode(args, &req); err != nil {
				return tool.Result{}, err
			}
			return tool.OK("executed: " + name + " " + req.Input), nil
		},
	}
}

// Interface guard.
var _ tool.Tool = (*MockTool)(nil)
