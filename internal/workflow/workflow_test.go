package workflow

import (
	"context"
	"net/http"
	"slices"
	"strings"
	"testing"

	wf "github.com/Om1001-OPS/mkol/workflow"
)

func TestExecuteHappyPath(t *testing.T) {
	cfg := defaultStubConfig()
	rt, s := newStub(t, cfg)

	result, err := Execute(context.Background(), rt, testRequest(writeUpload(t)))
	if err != nil {
		t.Fatalf("Execute() unexpected error: %v", err)
	}
	if !result.Succeeded() {
		t.Fatalf("run faulted: %+v", result.Fault)
	}

	wantTrace := []string{
		wf.NodeIdentity, wf.NodeRouting, wf.NodeIntake, wf.NodePreprocess,
		wf.NodeExtract, wf.NodeValidate, wf.NodePersist, wf.NodeFeedback,
		wf.NodeNotify,
	}
	if !slices.Equal(result.Trace, wantTrace) {
		t.Errorf("trace = %v, want %v", result.Trace, wantTrace)
	}

	state := result.State
	if state.Persistence == nil || state.Persistence.Status != "accepted" {
		t.Errorf("persistence result missing or wrong: %+v", state.Persistence)
	}
	if state.Feedback == nil {
		t.Fatal("feedback result missing")
	}
	if state.Feedback.IssueText != "no error details" {
		t.Errorf("issue text = %q, want %q", state.Feedback.IssueText, "no error details")
	}
	if state.Notification == nil || state.Notification.Status != "validated" {
		t.Errorf("notification result missing or wrong: %+v", state.Notification)
	}
	if state.Document == nil || state.Document.FilePath != "/data/alice01/claim.pdf" {
		t.Errorf("document not resolved from intake index: %+v", state.Document)
	}

	if got := s.count("/sync/batch"); got != 1 {
		t.Errorf("persistence called %d times, want 1", got)
	}
}

func TestExecuteInvalidValidation(t *testing.T) {
	cfg := defaultStubConfig()
	cfg.valid = false
	cfg.reason = "amount mismatch"
	rt, s := newStub(t, cfg)

	result, err := Execute(context.Background(), rt, testRequest(writeUpload(t)))
	if err != nil {
		t.Fatalf("Execute() unexpected error: %v", err)
	}
	if !result.Succeeded() {
		t.Fatalf("run faulted: %+v", result.Fault)
	}

	state := result.State
	if state.Persistence != nil {
		t.Errorf("persistence result present on invalid run: %+v", state.Persistence)
	}
	if got := s.count("/sync/batch"); got != 0 {
		t.Errorf("persistence called %d times, want 0", got)
	}
	if slices.Contains(result.Trace, wf.NodePersist) {
		t.Errorf("trace contains persist node: %v", result.Trace)
	}

	if state.Feedback == nil {
		t.Fatal("feedback result missing")
	}
	if state.Feedback.IssueText != "amount mismatch" {
		t.Errorf("issue text = %q, want %q", state.Feedback.IssueText, "amount mismatch")
	}
	if state.Notification == nil || state.Notification.Status != "rejected" {
		t.Errorf("notification result missing or wrong: %+v", state.Notification)
	}
}

func TestExecuteValidationErrorListPriority(t *testing.T) {
	cfg := defaultStubConfig()
	cfg.valid = false
	cfg.reason = "amount mismatch"
	cfg.validationErrors = []string{"missing name", "bad date"}
	rt, _ := newStub(t, cfg)

	result, err := Execute(context.Background(), rt, testRequest(writeUpload(t)))
	if err != nil {
		t.Fatalf("Execute() unexpected error: %v", err)
	}

	if got := result.State.Feedback.IssueText; got != "missing name; bad date" {
		t.Errorf("issue text = %q, want error list over reason", got)
	}
}

func TestExecuteSelectDocTypeTerminates(t *testing.T) {
	cfg := defaultStubConfig()
	cfg.nextStep = wf.DecisionSelectDocType
	rt, s := newStub(t, cfg)

	result, err := Execute(context.Background(), rt, testRequest(writeUpload(t)))
	if err != nil {
		t.Fatalf("Execute() unexpected error: %v", err)
	}
	if result.Succeeded() {
		t.Fatal("run succeeded, want routing fault")
	}
	if result.Fault.Kind != wf.FaultRouting {
		t.Errorf("fault kind = %q, want %q", result.Fault.Kind, wf.FaultRouting)
	}
	if result.Fault.Step != wf.NodeRouting {
		t.Errorf("fault step = %q, want %q", result.Fault.Step, wf.NodeRouting)
	}
	if want := []string{wf.NodeIdentity, wf.NodeRouting}; !slices.Equal(result.Trace, want) {
		t.Errorf("trace = %v, want %v", result.Trace, want)
	}
	if got := s.count("/upload"); got != 0 {
		t.Errorf("intake called %d times after routing fault, want 0", got)
	}
}

func TestExecuteUnrecognizedDecisionTerminates(t *testing.T) {
	cfg := defaultStubConfig()
	cfg.nextStep = "Mystery Agent"
	rt, _ := newStub(t, cfg)

	result, err := Execute(context.Background(), rt, testRequest(writeUpload(t)))
	if err != nil {
		t.Fatalf("Execute() unexpected error: %v", err)
	}
	if result.Succeeded() || result.Fault.Kind != wf.FaultRouting {
		t.Fatalf("want routing fault, got %+v", result.Fault)
	}
	if !strings.Contains(result.Fault.Message, "Mystery Agent") {
		t.Errorf("fault message %q does not name the decision", result.Fault.Message)
	}
}

func TestExecuteAdminReview(t *testing.T) {
	cfg := defaultStubConfig()
	cfg.role = "admin"
	cfg.nextStep = wf.DecisionSync
	rt, _ := newStub(t, cfg)

	req := testRequest("")
	req.Action = "review"

	result, err := Execute(context.Background(), rt, req)
	if err != nil {
		t.Fatalf("Execute() unexpected error: %v", err)
	}
	if !result.Succeeded() {
		t.Fatalf("run faulted: %+v", result.Fault)
	}

	want := []string{wf.NodeIdentity, wf.NodeRouting, wf.NodeAdminReview}
	if !slices.Equal(result.Trace, want) {
		t.Errorf("trace = %v, want %v", result.Trace, want)
	}
	if result.State.Review == nil || len(result.State.Review.Records) != 1 {
		t.Errorf("review result missing or wrong: %+v", result.State.Review)
	}
}

func TestExecuteAdminReviewForbiddenForUser(t *testing.T) {
	cfg := defaultStubConfig()
	cfg.role = "user"
	cfg.nextStep = wf.DecisionSync
	rt, s := newStub(t, cfg)

	result, err := Execute(context.Background(), rt, testRequest(""))
	if err != nil {
		t.Fatalf("Execute() unexpected error: %v", err)
	}
	if result.Succeeded() {
		t.Fatal("run succeeded, want authorization fault")
	}
	if result.Fault.Kind != wf.FaultAuthorization {
		t.Errorf("fault kind = %q, want %q", result.Fault.Kind, wf.FaultAuthorization)
	}
	if result.Fault.Step != wf.NodeAdminReview {
		t.Errorf("fault step = %q, want %q", result.Fault.Step, wf.NodeAdminReview)
	}
	if got := s.count("/records"); got != 0 {
		t.Errorf("records read %d times by non-admin, want 0", got)
	}
}

func TestExecuteBadCredentials(t *testing.T) {
	cfg := defaultStubConfig()
	cfg.loginStatus = http.StatusUnauthorized
	rt, s := newStub(t, cfg)

	result, err := Execute(context.Background(), rt, testRequest(""))
	if err != nil {
		t.Fatalf("Execute() unexpected error: %v", err)
	}
	if result.Succeeded() {
		t.Fatal("run succeeded, want auth fault")
	}
	if result.Fault.Kind != wf.FaultAuth {
		t.Errorf("fault kind = %q, want %q", result.Fault.Kind, wf.FaultAuth)
	}
	if result.Fault.Step != wf.NodeIdentity {
		t.Errorf("fault step = %q, want %q", result.Fault.Step, wf.NodeIdentity)
	}
	if got := s.count("/route"); got != 0 {
		t.Errorf("routing called %d times after auth fault, want 0", got)
	}
}

func TestExecuteNonCanonicalDocType(t *testing.T) {
	cfg := defaultStubConfig()
	rt, s := newStub(t, cfg)

	req := testRequest("")
	req.DocType = "tax_form"

	result, err := Execute(context.Background(), rt, req)
	if err != nil {
		t.Fatalf("Execute() unexpected error: %v", err)
	}
	if result.Succeeded() {
		t.Fatal("run succeeded, want precondition fault")
	}
	if result.Fault.Kind != wf.FaultPrecondition {
		t.Errorf("fault kind = %q, want %q", result.Fault.Kind, wf.FaultPrecondition)
	}
	if got := s.count("/route"); got != 0 {
		t.Errorf("routing service called %d times for bad doc_type, want 0", got)
	}
}

func TestExecuteUpstreamFault(t *testing.T) {
	cfg := defaultStubConfig()
	cfg.preprocessStatus = http.StatusServiceUnavailable
	rt, s := newStub(t, cfg)

	result, err := Execute(context.Background(), rt, testRequest(writeUpload(t)))
	if err != nil {
		t.Fatalf("Execute() unexpected error: %v", err)
	}
	if result.Succeeded() {
		t.Fatal("run succeeded, want upstream fault")
	}
	if result.Fault.Kind != wf.FaultUpstream {
		t.Errorf("fault kind = %q, want %q", result.Fault.Kind, wf.FaultUpstream)
	}
	if result.Fault.Step != wf.NodePreprocess {
		t.Errorf("fault step = %q, want %q", result.Fault.Step, wf.NodePreprocess)
	}
	if got := s.count("/extract"); got != 0 {
		t.Errorf("extraction called %d times after preprocess fault, want 0", got)
	}
	if result.State.Document == nil {
		t.Error("partial state lost the intake document")
	}
}
