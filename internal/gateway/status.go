package gateway

import (
	"net/http"
	"time"
)

// StatusResponse is the JSON response for GET /status.
type StatusResponse struct {
	Version          string `json:"version,omitempty"`
	UptimeSeconds    int64  `json:"uptime_seconds"`
	Tools            int    `json:"tools"`
	PendingProposals *int   `json:"pending_proposals,omitempty"`
}

// handleStatus returns an http.HandlerFunc for GET /status.
func (g *Gateway) handleStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := StatusResponse{
			Version:       g.deps.Version,
			UptimeSeconds: int64(g.now().Sub(g.startedAt) / time.Second),
			Tools:         len(g.deps.Registry.Names()),
		}

		if g.deps.Ledger != nil {
			n, err := g.deps.Ledger.CountPending(r.Context(), 0)
			if err != nil {
				g.logger.Warn("gateway: count pending proposals", "error", err)
			} else {
				resp.PendingProposals = &n
			}
		}

		writeJSON(w, http.StatusOK, resp)
	}
}
