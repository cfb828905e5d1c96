package workflow

import (
	"context"
	"fmt"

	"github.com/Om1001-OPS/mkol/internal/services"
	"github.com/Om1001-OPS/mkol/pkg/graph"
	"github.com/Om1001-OPS/mkol/workflow"
)

const preprocessPath = "/preprocess"

type preprocessRequest struct {
	FilePath string           `json:"file_path"`
	DocID    string           `json:"doc_id,omitempty"`
	IDLabel  string           `json:"id_label,omitempty"`
	DocType  workflow.DocType `json:"doc_type"`
}

// PreprocessStep sends the intake-resolved file to the preprocessing service
// and stores the full result, per-page records and processed file paths, into
// the state.
func PreprocessStep(rt *Runtime) graph.NodeFunc[*workflow.State] {
	return func(ctx context.Context, s *workflow.State) error {
		if s.Document == nil {
			return fmt.Errorf("%w: no document in state", workflow.ErrPrecondition)
		}

		payload := preprocessRequest{
			FilePath: s.Document.FilePath,
			DocID:    s.DocID,
			IDLabel:  s.IDLabel,
			DocType:  s.DocType,
		}

		var resp workflow.PreprocessResult
		if err := rt.Services.Post(ctx, services.SvcPreprocessing, preprocessPath, s.Token(), payload, &resp); err != nil {
			return fmt.Errorf("%w: %w", workflow.ErrUpstream, err)
		}

		s.Preprocessed = &resp

		rt.Logger.InfoContext(
			ctx, "preprocess step complete",
			"run_id", s.RunID,
			"pages", len(resp.Pages),
			"processed_files", len(resp.ImagePaths),
		)

		return nil
	}
}
