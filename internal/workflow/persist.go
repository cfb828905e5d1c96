package workflow

import (
	"context"
	"fmt"

	"github.com/Om1001-OPS/mkol/internal/services"
	"github.com/Om1001-OPS/mkol/pkg/graph"
	"github.com/Om1001-OPS/mkol/workflow"
)

const syncBatchPath = "/sync/batch"

type syncRecord struct {
	RecordID      string `json:"record_id"`
	ValidatedJSON any    `json:"validated_json"`
}

type syncBatchRequest struct {
	Records []syncRecord `json:"records"`
}

// PersistStep wraps the validation result as a single-record batch and sends
// it to the persistence service. A success response means the batch was
// accepted, not that it is visible: the service embeds and stores on a
// background task, so an immediately following admin-review read may not see
// the record. The run always proceeds to feedback afterward.
func PersistStep(rt *Runtime) graph.NodeFunc[*workflow.State] {
	return func(ctx context.Context, s *workflow.State) error {
		if s.Validation == nil {
			return fmt.Errorf("%w: no validation result in state", workflow.ErrPrecondition)
		}

		payload := syncBatchRequest{
			Records: []syncRecord{
				{
					RecordID:      fmt.Sprintf("%s-1", s.RunID),
					ValidatedJSON: s.Validation,
				},
			},
		}

		var resp workflow.PersistenceResult
		if err := rt.Services.Post(ctx, services.SvcPersistence, syncBatchPath, s.Token(), payload, &resp); err != nil {
			return fmt.Errorf("%w: %w", workflow.ErrUpstream, err)
		}

		s.Persistence = &resp

		rt.Logger.InfoContext(
			ctx, "persist step complete",
			"run_id", s.RunID,
			"status", resp.Status,
			"synced_records", resp.SyncedRecords,
		)

		return nil
	}
}
