package workflow

import (
	"context"
	"errors"
	"testing"

	wf "github.com/Om1001-OPS/mkol/workflow"
)

func authedState(role string) *wf.State {
	return &wf.State{
		DocType: wf.DocTypeIDProof,
		Identity: &wf.Identity{
			Token:    "Bearer test-token",
			Role:     role,
			Username: "alice01",
			Mobile:   "5550100",
		},
	}
}

func TestIntakeIdempotent(t *testing.T) {
	rt, s := newStub(t, defaultStubConfig())
	step := IntakeStep(rt)

	document := &wf.Document{
		FilePath: "/data/alice01/claim.pdf",
		DocType:  wf.DocTypeIDProof,
	}
	state := authedState("user")
	state.Document = document

	if err := step(context.Background(), state); err != nil {
		t.Fatalf("IntakeStep() unexpected error: %v", err)
	}

	if state.Document != document {
		t.Error("pre-attached document was replaced")
	}
	if got := s.totalCalls(); got != 0 {
		t.Errorf("re-entrant intake performed %d calls, want 0", got)
	}
}

func TestIntakeUploadsAndResolvesPath(t *testing.T) {
	rt, s := newStub(t, defaultStubConfig())
	step := IntakeStep(rt)

	state := authedState("user")
	state.UploadedFilePath = writeUpload(t)
	state.DocID = "D-77"

	if err := step(context.Background(), state); err != nil {
		t.Fatalf("IntakeStep() unexpected error: %v", err)
	}

	if state.Document == nil {
		t.Fatal("no document produced")
	}
	if state.Document.FilePath != "/data/alice01/claim.pdf" {
		t.Errorf("file path = %q, want index-resolved path", state.Document.FilePath)
	}
	if state.Document.DocType != wf.DocTypeIDProof {
		t.Errorf("doc type = %q, want %q", state.Document.DocType, wf.DocTypeIDProof)
	}
	if got := state.Document.Metadata["doc_id"]; got != "D-77" {
		t.Errorf("metadata doc_id = %q, want %q", got, "D-77")
	}
	if got := s.count("/upload"); got != 1 {
		t.Errorf("upload called %d times, want 1", got)
	}
	if got := s.count("/files"); got != 1 {
		t.Errorf("file index called %d times, want 1", got)
	}
}

func TestIntakeConsistencyFault(t *testing.T) {
	rt, s := newStub(t, defaultStubConfig())
	step := IntakeStep(rt)

	// The stub's index only knows claim.pdf; upload a differently named file.
	state := authedState("user")
	state.UploadedFilePath = writeUploadNamed(t, "receipt.pdf")

	err := step(context.Background(), state)
	if !errors.Is(err, wf.ErrConsistency) {
		t.Fatalf("IntakeStep() error = %v, want ErrConsistency", err)
	}
	if state.Document != nil {
		t.Errorf("document produced despite consistency fault: %+v", state.Document)
	}
	if got := s.count("/upload"); got != 1 {
		t.Errorf("upload called %d times, want 1", got)
	}
}

func TestIntakePreconditions(t *testing.T) {
	tests := []struct {
		name  string
		state func(t *testing.T) *wf.State
	}{
		{
			"missing uploaded file path",
			func(t *testing.T) *wf.State {
				return authedState("user")
			},
		},
		{
			"non-canonical doc type",
			func(t *testing.T) *wf.State {
				state := authedState("user")
				state.DocType = "tax_form"
				state.UploadedFilePath = writeUpload(t)
				return state
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rt, s := newStub(t, defaultStubConfig())
			step := IntakeStep(rt)

			err := step(context.Background(), tt.state(t))
			if !errors.Is(err, wf.ErrPrecondition) {
				t.Fatalf("IntakeStep() error = %v, want ErrPrecondition", err)
			}
			if got := s.totalCalls(); got != 0 {
				t.Errorf("precondition failure performed %d calls, want 0", got)
			}
		})
	}
}
