package workflow

import "fmt"

// RouteAfterDecision maps the routing service's hint to the next node. An
// explicit "SelectDocument Type" decision terminates the run: it cannot
// proceed without a document type. Any unrecognized decision also terminates.
// The sync branch's admin requirement is enforced by the admin-review node
// itself, not here.
func RouteAfterDecision(s *State) (string, error) {
	if s.Decision == nil {
		return "", fmt.Errorf("%w: no routing decision in state", ErrRouting)
	}

	switch s.Decision.NextStep {
	case DecisionIntake:
		return NodeIntake, nil
	case DecisionSync:
		return NodeAdminReview, nil
	case DecisionSelectDocType:
		return "", fmt.Errorf("%w: document type not selected", ErrRouting)
	default:
		return "", fmt.Errorf("%w: unrecognized decision %q", ErrRouting, s.Decision.NextStep)
	}
}

// RouteAfterValidation sends valid results to persistence and everything
// else, including a missing verdict, to feedback. No value of the verdict is
// a failure; persistence is simply skipped when it is absent or false.
func RouteAfterValidation(s *State) (string, error) {
	if s.Validation != nil && s.Validation.Valid {
		return NodePersist, nil
	}
	return NodeFeedback, nil
}
