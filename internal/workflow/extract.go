package workflow

import (
	"context"
	"fmt"

	"github.com/Om1001-OPS/mkol/internal/services"
	"github.com/Om1001-OPS/mkol/pkg/graph"
	"github.com/Om1001-OPS/mkol/workflow"
)

const extractPath = "/extract"

type extractRequest struct {
	FilePaths []string         `json:"file_paths"`
	DocType   workflow.DocType `json:"doc_type"`
	DocID     string           `json:"doc_id,omitempty"`
	IDLabel   string           `json:"id_label,omitempty"`
}

// ExtractStep sends the preprocessed file list to the extraction service.
// When no preprocessing result is present it degrades to the single original
// document path with a warning. Extraction output is not trusted for the
// doc_type field: a missing or mismatched value is overwritten with the
// known-good state value and logged.
func ExtractStep(rt *Runtime) graph.NodeFunc[*workflow.State] {
	return func(ctx context.Context, s *workflow.State) error {
		if !s.DocType.Canonical() {
			return fmt.Errorf("%w: doc_type %q is not canonical", workflow.ErrPrecondition, s.DocType)
		}

		paths := filePaths(ctx, rt, s)
		if len(paths) == 0 {
			return fmt.Errorf("%w: no file paths to extract", workflow.ErrPrecondition)
		}

		payload := extractRequest{
			FilePaths: paths,
			DocType:   s.DocType,
			DocID:     s.DocID,
			IDLabel:   s.IDLabel,
		}

		var resp workflow.ExtractionResult
		if err := rt.Services.Post(ctx, services.SvcExtraction, extractPath, s.Token(), payload, &resp); err != nil {
			return fmt.Errorf("%w: %w", workflow.ErrUpstream, err)
		}

		if resp.DocType != s.DocType {
			rt.Logger.WarnContext(
				ctx, "extraction doc_type corrected",
				"run_id", s.RunID,
				"reported", resp.DocType,
				"expected", s.DocType,
			)
			resp.DocType = s.DocType
		}

		s.Extracted = &resp

		rt.Logger.InfoContext(
			ctx, "extract step complete",
			"run_id", s.RunID,
			"results", len(resp.Results),
		)

		return nil
	}
}

func filePaths(ctx context.Context, rt *Runtime, s *workflow.State) []string {
	if s.Preprocessed != nil && len(s.Preprocessed.ImagePaths) > 0 {
		return s.Preprocessed.ImagePaths
	}

	if s.Document == nil {
		return nil
	}

	rt.Logger.WarnContext(
		ctx, "no preprocessing result, extracting from original file",
		"run_id", s.RunID,
		"file_path", s.Document.FilePath,
	)
	return []string{s.Document.FilePath}
}
