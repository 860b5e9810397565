package gateway

import (
	"net/http"
	"strconv"

	"github.com/flemzord/stagewright/internal/ledger"
)

// handleListProposals lists ledger records, newest first.
// Query parameters: kind, status, limit.
func (g *Gateway) handleListProposals() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if g.deps.Ledger == nil {
			writeError(w, http.StatusServiceUnavailable, "ledger is disabled")
			return
		}

		q := r.URL.Query()
		kind, err := ledger.ParseKind(q.Get("kind"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "unknown kind: "+q.Get("kind"))
			return
		}
		f := ledger.Filter{Kind: kind, Status: q.Get("status")}
		if raw := q.Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n <= 0 {
				writeError(w, http.StatusBadRequest, "limit must be a positive integer")
				return
			}
			f.Limit = n
		}

		records, err := g.deps.Ledger.List(r.Context(), f)
		if err != nil {
			g.logger.Error("gateway: list ledger", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if records == nil {
			records = []ledger.Record{}
		}
		writeJSON(w, http.StatusOK, records)
	}
}
