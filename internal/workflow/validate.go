package workflow

import (
	"context"
	"fmt"

	"github.com/Om1001-OPS/mkol/internal/services"
	"github.com/Om1001-OPS/mkol/pkg/formatting"
	"github.com/Om1001-OPS/mkol/pkg/graph"
	"github.com/Om1001-OPS/mkol/workflow"
)

const validatePath = "/validate"

// ValidateStep submits the first extraction record's field map to the
// validation service and stores the full verdict. Fields that arrived as raw
// text are parsed as JSON; a parse failure degrades to an empty field map
// with a warning rather than failing the run.
func ValidateStep(rt *Runtime) graph.NodeFunc[*workflow.State] {
	return func(ctx context.Context, s *workflow.State) error {
		if s.Extracted == nil {
			return fmt.Errorf("%w: no extraction result in state", workflow.ErrPrecondition)
		}

		payload := map[string]any{
			"doc_type": s.DocType,
		}
		for key, value := range extractedFields(ctx, rt, s) {
			payload[key] = value
		}
		if s.DocID != "" {
			payload["doc_id"] = s.DocID
		}
		if s.IDLabel != "" {
			payload["id_label"] = s.IDLabel
		}

		var resp workflow.ValidationResult
		if err := rt.Services.Post(ctx, services.SvcValidation, validatePath, s.Token(), payload, &resp); err != nil {
			return fmt.Errorf("%w: %w", workflow.ErrUpstream, err)
		}

		s.Validation = &resp

		rt.Logger.InfoContext(
			ctx, "validate step complete",
			"run_id", s.RunID,
			"valid", resp.Valid,
			"verdict", resp.Verdict,
		)

		return nil
	}
}

// extractedFields returns the first extraction record's field map, parsing
// the OCR text as JSON when no structured fields were returned.
func extractedFields(ctx context.Context, rt *Runtime, s *workflow.State) map[string]any {
	if len(s.Extracted.Results) == 0 {
		return nil
	}

	record := s.Extracted.Results[0]
	if record.Fields != nil {
		return record.Fields
	}
	if record.OCRText == "" {
		return nil
	}

	fields, err := formatting.Parse[map[string]any](record.OCRText)
	if err != nil {
		rt.Logger.WarnContext(
			ctx, "extracted text is not structured, validating with empty fields",
			"run_id", s.RunID,
		)
		return nil
	}
	return fields
}
