package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/flemzord/stagewright/internal/ledger"
	"github.com/flemzord/stagewright/internal/proposal"
	"github.com/flemzord/stagewright/internal/security"
	"github.com/flemzord/stagewright/internal/tool"
	"github.com/flemzord/stagewright/internal/tool/tooltest"
)

// fakeLedger is an in-memory Ledger.
type fakeLedger struct {
	mu       sync.Mutex
	records  []ledger.Record
	filters  []ledger.Filter
	pingErr  error
	listErr  error
	pending  int
	countErr error
}

func (l *fakeLedger) List(_ context.Context, f ledger.Filter) ([]ledger.Record, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.filters = append(l.filters, f)
	if l.listErr != nil {
		return nil, l.listErr
	}
	var out []ledger.Record
	for _, r := range l.records {
		if f.Kind != "" && r.Kind != f.Kind {
			continue
		}
		if f.Status != "" && r.Status != f.Status {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (l *fakeLedger) CountPending(context.Context, time.Duration) (int, error) {
	return l.pending, l.countErr
}

func (l *fakeLedger) Ping(context.Context) error { return l.pingErr }

func (l *fakeLedger) lastFilter() ledger.Filter {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.filters[len(l.filters)-1]
}

// newTestRegistry registers an echo tool, a tool that always fails softly,
// and one returning each hard error the gateway maps.
func newTestRegistry(t *testing.T) *tool.Registry {
	t.Helper()

	reg := tool.NewRegistry()
	tools := []tool.Tool{
		tooltest.SimpleTool("echo", security.OperationRead),
		&tooltest.MockTool{
			NameFunc: func() string { return "soft" },
			ExecuteFunc: func(context.Context, json.RawMessage) (tool.Result, error) {
				return tool.Fail("Title must not be empty"), nil
			},
		},
		&tooltest.MockTool{
			NameFunc: func() string { return "deny" },
			ExecuteFunc: func(context.Context, json.RawMessage) (tool.Result, error) {
				return tool.Denied(errors.New("security policy: read-only mode")), nil
			},
		},
		&tooltest.MockTool{
			NameFunc: func() string { return "exists" },
			ExecuteFunc: func(context.Context, json.RawMessage) (tool.Result, error) {
				return tool.Result{}, proposal.ErrProposalExists
			},
		},
		&tooltest.MockTool{
			NameFunc: func() string { return "broken" },
			ExecuteFunc: func(context.Context, json.RawMessage) (tool.Result, error) {
				return tool.Result{}, errors.New("disk on fire at /secret/path")
			},
		},
	}
	for _, tl := range tools {
		if err := reg.Register(tl); err != nil {
			t.Fatalf("Register %s: %v", tl.Name(), err)
		}
	}
	return reg
}

func newTestGateway(t *testing.T, cfg Config, deps Deps) *Gateway {
	t.Helper()

	if deps.Registry == nil {
		deps.Registry = newTestRegistry(t)
	}
	g, err := New(cfg, deps)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return g
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeBody[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	if err := json.NewDecoder(rr.Body).Decode(&v); err != nil {
		t.Fatalf("decode body %q: %v", rr.Body.String(), err)
	}
	return v
}

func newAuthedRequest(method, target, body, token string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}
