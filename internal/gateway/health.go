package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// HealthResponse is the JSON response for GET /health.
type HealthResponse struct {
	Status string `json:"status"` // "ok" or "degraded"
	Ledger string `json:"ledger,omitempty"`
}

// handleHealth returns an http.HandlerFunc for GET /health.
// Returns 503 when the ledger is configured but unreachable.
func (g *Gateway) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := HealthResponse{Status: "ok"}

		if g.deps.Ledger != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			err := g.deps.Ledger.Ping(ctx)
			cancel()
			if err != nil {
				g.logger.Warn("gateway: ledger ping failed", "error", err)
				resp.Status = "degraded"
				resp.Ledger = "unavailable"
			} else {
				resp.Ledger = "ok"
			}
		}

		status := http.StatusOK
		if resp.Status == "degraded" {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, resp)
	}
}

// writeJSON encodes v with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// errorResponse is the body of every non-2xx API response.
type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
