package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/Om1001-OPS/mkol/internal/workflow"
	"github.com/Om1001-OPS/mkol/pkg/handlers"
	"github.com/Om1001-OPS/mkol/pkg/routes"
	wf "github.com/Om1001-OPS/mkol/workflow"
)

// ErrInvalidRequest marks a run submission that cannot be decoded or is
// missing its required fields.
var ErrInvalidRequest = errors.New("invalid run request")

// RunsHandler provides HTTP endpoints for workflow runs.
type RunsHandler struct {
	rt     *workflow.Runtime
	logger *slog.Logger
}

// NewRunsHandler creates a RunsHandler with the given workflow runtime and logger.
func NewRunsHandler(rt *workflow.Runtime, logger *slog.Logger) *RunsHandler {
	return &RunsHandler{
		rt:     rt,
		logger: logger.With("handler", "runs"),
	}
}

// Routes returns the route group definition for run endpoints.
func (h *RunsHandler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/runs",
		Routes: []routes.Route{
			{Method: "POST", Pattern: "", Handler: h.Submit},
			{Method: "GET", Pattern: "/doc-types", Handler: h.DocTypes},
		},
	}
}

// Submit executes one workflow run synchronously. A completed run returns
// the final state; a faulted run returns the fault, its originating step,
// and the partial state under a status mapped from the fault kind.
func (h *RunsHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req wf.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidRequest)
		return
	}

	result, err := workflow.Execute(r.Context(), h.rt, &req)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}

	if !result.Succeeded() {
		handlers.RespondJSON(w, MapHTTPStatus(result.Fault), result)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// DocTypes returns the canonical document-type set.
func (h *RunsHandler) DocTypes(w http.ResponseWriter, r *http.Request) {
	handlers.RespondJSON(w, http.StatusOK, wf.DocTypes())
}
