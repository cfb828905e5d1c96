package workflow

import (
	"context"
	"fmt"

	"github.com/Om1001-OPS/mkol/internal/services"
	"github.com/Om1001-OPS/mkol/pkg/graph"
	"github.com/Om1001-OPS/mkol/workflow"
)

const recordsPath = "/records"

// ReviewStep reads the persisted records for an admin reviewer. It is a
// terminal branch reserved for the admin role; any other role fails before a
// call is made. Records accepted by a just-completed persist batch may not
// yet be visible here, since the persistence service stores on a background
// task.
func ReviewStep(rt *Runtime) graph.NodeFunc[*workflow.State] {
	return func(ctx context.Context, s *workflow.State) error {
		if s.Role() != "admin" {
			return fmt.Errorf("%w: role %q cannot review records", workflow.ErrAuthorization, s.Role())
		}

		var records []map[string]any
		if err := rt.Services.Get(ctx, services.SvcPersistence, recordsPath, s.Token(), &records); err != nil {
			return fmt.Errorf("%w: %w", workflow.ErrUpstream, err)
		}

		s.Review = &workflow.ReviewResult{Records: records}

		rt.Logger.InfoContext(
			ctx, "admin-review step complete",
			"run_id", s.RunID,
			"records", len(records),
		)

		return nil
	}
}
