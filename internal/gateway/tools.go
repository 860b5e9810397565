package gateway

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/flemzord/stagewright/internal/proposal"
	"github.com/flemzord/stagewright/internal/security"
	"github.com/flemzord/stagewright/internal/tool"
)

// handleListTools returns every registered tool with its JSON Schema.
func (g *Gateway) handleListTools() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, g.deps.Registry.Describe())
	}
}

// handleInvokeTool executes a tool with the request body as its arguments.
// Soft failures are a 200 with success=false; hard failures map to an HTTP
// error status.
func (g *Gateway) handleInvokeTool() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "name")

		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, g.config.MaxBodyBytes))
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
				return
			}
			writeError(w, http.StatusBadRequest, "failed to read request body")
			return
		}

		res, err := g.deps.Registry.Execute(r.Context(), name, body)
		if err != nil {
			status := statusForError(err)
			if status == http.StatusInternalServerError {
				g.logger.Error("gateway: tool execution failed", "tool", name, "error", err)
				writeError(w, status, "internal error")
				return
			}
			writeError(w, status, err.Error())
			return
		}

		writeJSON(w, http.StatusOK, res)
	}
}

// statusForError maps hard tool failures to HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, tool.ErrToolNotFound):
		return http.StatusNotFound
	case errors.Is(err, tool.ErrInvalidArguments), errors.Is(err, security.ErrInvalidJSON):
		return http.StatusBadRequest
	case errors.Is(err, security.ErrMessageTooLarge), errors.Is(err, security.ErrJSONTooDeep):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, security.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, proposal.ErrProposalExists):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
