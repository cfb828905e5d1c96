package workflow

import (
	"context"
	"fmt"

	"github.com/Om1001-OPS/mkol/internal/services"
	"github.com/Om1001-OPS/mkol/pkg/graph"
	"github.com/Om1001-OPS/mkol/workflow"
)

const routePath = "/route"

type routeRequest struct {
	DocType workflow.DocType `json:"doc_type"`
	Role    string           `json:"role"`
	Action  string           `json:"action"`
}

type routeResponse struct {
	NextStep string `json:"next_step"`
}

// RoutingStep asks the routing service for the run's next-step hint. An
// unset action defaults to upload for the user role and review for any
// other role.
func RoutingStep(rt *Runtime) graph.NodeFunc[*workflow.State] {
	return func(ctx context.Context, s *workflow.State) error {
		if !s.DocType.Canonical() {
			return fmt.Errorf("%w: doc_type %q is not canonical", workflow.ErrPrecondition, s.DocType)
		}
		if s.Role() == "" {
			return fmt.Errorf("%w: no role in state", workflow.ErrPrecondition)
		}

		action := s.Action
		if action == "" {
			if s.Role() == "user" {
				action = "upload"
			} else {
				action = "review"
			}
			s.Action = action
		}

		payload := routeRequest{
			DocType: s.DocType,
			Role:    s.Role(),
			Action:  action,
		}

		var resp routeResponse
		if err := rt.Services.Post(ctx, services.SvcRouting, routePath, s.Token(), payload, &resp); err != nil {
			return fmt.Errorf("%w: %w", workflow.ErrUpstream, err)
		}

		s.Decision = &workflow.RoutingDecision{NextStep: resp.NextStep}

		rt.Logger.InfoContext(
			ctx, "routing step complete",
			"run_id", s.RunID,
			"action", action,
			"next_step", resp.NextStep,
		)

		return nil
	}
}
