package workflow

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Om1001-OPS/mkol/internal/services"
	"github.com/Om1001-OPS/mkol/pkg/graph"
	"github.com/Om1001-OPS/mkol/workflow"
)

const (
	uploadPath    = "/upload"
	fileIndexPath = "/files"
)

type uploadResponse struct {
	Previews []struct {
		Filename string `json:"filename"`
		FilePath string `json:"file_path"`
	} `json:"previews"`
}

// fileIndex maps username to the intake service's locally stored files.
type fileIndex map[string][]struct {
	Filename  string `json:"filename"`
	LocalPath string `json:"local_path"`
}

// IntakeStep uploads the run's file to the intake service and resolves the
// locally stored path via the service's file index. The step is idempotent:
// a state with an already populated document performs no calls. The upload
// succeeding while the index lookup misses is a consistency fault between
// the two intake calls.
func IntakeStep(rt *Runtime) graph.NodeFunc[*workflow.State] {
	return func(ctx context.Context, s *workflow.State) error {
		if s.Document != nil {
			rt.Logger.InfoContext(
				ctx, "intake step skipped",
				"run_id", s.RunID,
				"file_path", s.Document.FilePath,
			)
			return nil
		}

		if s.UploadedFilePath == "" {
			return fmt.Errorf("%w: no uploaded file path in state", workflow.ErrPrecondition)
		}
		if !s.DocType.Canonical() {
			return fmt.Errorf("%w: doc_type %q is not canonical", workflow.ErrPrecondition, s.DocType)
		}

		filename := filepath.Base(s.UploadedFilePath)

		file, err := os.Open(s.UploadedFilePath)
		if err != nil {
			return fmt.Errorf("%w: open upload: %w", workflow.ErrPrecondition, err)
		}
		defer file.Close()

		fields := map[string]string{
			"document_type": string(s.DocType),
			"username":      s.Identity.Username,
			"mobile":        s.Identity.Mobile,
		}
		if s.DocID != "" {
			fields["doc_id"] = s.DocID
		}
		if s.IDLabel != "" {
			fields["id_label"] = s.IDLabel
		}

		var uploaded uploadResponse
		if err := rt.Services.Upload(
			ctx, services.SvcIntake, uploadPath, s.Token(),
			filename, file, fields, &uploaded,
		); err != nil {
			return fmt.Errorf("%w: %w", workflow.ErrUpstream, err)
		}

		localPath, err := resolveLocalPath(ctx, rt, s, filename)
		if err != nil {
			return err
		}

		s.Document = &workflow.Document{
			FilePath: localPath,
			DocType:  s.DocType,
			Metadata: fields,
		}

		rt.Logger.InfoContext(
			ctx, "intake step complete",
			"run_id", s.RunID,
			"filename", filename,
			"file_path", localPath,
		)

		return nil
	}
}

func resolveLocalPath(ctx context.Context, rt *Runtime, s *workflow.State, filename string) (string, error) {
	var index fileIndex
	if err := rt.Services.Get(ctx, services.SvcIntake, fileIndexPath, s.Token(), &index); err != nil {
		return "", fmt.Errorf("%w: %w", workflow.ErrUpstream, err)
	}

	for _, entry := range index[s.Identity.Username] {
		if entry.Filename == filename {
			return entry.LocalPath, nil
		}
	}

	return "", fmt.Errorf("%w: %s for user %s", workflow.ErrConsistency, filename, s.Identity.Username)
}
