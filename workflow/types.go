package workflow

import (
	"time"

	"github.com/google/uuid"
)

// Node names for the run graph.
const (
	NodeIdentity    = "identity"
	NodeRouting     = "routing"
	NodeIntake      = "intake"
	NodePreprocess  = "preprocess"
	NodeExtract     = "extract"
	NodeValidate    = "validate"
	NodePersist     = "persist"
	NodeFeedback    = "feedback"
	NodeNotify      = "notify"
	NodeAdminReview = "admin-review"
)

// Routing decisions the routing service may return.
const (
	DecisionIntake        = "Intake Agent"
	DecisionSync          = "Sync Agent"
	DecisionSelectDocType = "SelectDocument Type"
)

// Credentials authenticate the caller against the identity service. Consumed
// once by the identity step.
type Credentials struct {
	Identifier string `json:"identifier"`
	Secret     string `json:"secret"`
}

// Identity holds the authenticated session produced by the identity step.
// Token is the scheme-prefixed bearer value attached to every later call.
type Identity struct {
	Token    string `json:"token"`
	Role     string `json:"role"`
	Username string `json:"username"`
	Mobile   string `json:"mobile"`
	Email    string `json:"email,omitempty"`
}

// RoutingDecision is the routing service's next-step hint.
type RoutingDecision struct {
	NextStep string `json:"next_step"`
}

// Document describes the intake-resolved document for this run.
type Document struct {
	FilePath string            `json:"file_path"`
	DocType  DocType           `json:"doc_type"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// PreprocessResult holds per-page records and processed file paths from the
// preprocessing service.
type PreprocessResult struct {
	ImagePaths []string         `json:"preprocessed_image_paths"`
	Pages      []map[string]any `json:"per_page,omitempty"`
}

// ExtractionRecord is one per-file extraction result.
type ExtractionRecord struct {
	Fields  map[string]any `json:"extracted_fields,omitempty"`
	OCRText string         `json:"ocr_text,omitempty"`
}

// ExtractionResult holds the extraction service output after doc-type
// normalization.
type ExtractionResult struct {
	DocType DocType            `json:"doc_type"`
	Results []ExtractionRecord `json:"results"`
}

// ValidationResult is the validation service's verdict on extracted fields.
// Valid drives the post-validation route; false or absent redirects the run
// to feedback without touching persistence.
type ValidationResult struct {
	Valid      bool           `json:"valid"`
	Verdict    string         `json:"verdict,omitempty"`
	Reason     string         `json:"reason,omitempty"`
	Errors     []string       `json:"errors,omitempty"`
	Normalized map[string]any `json:"normalized,omitempty"`
}

// PersistenceResult acknowledges acceptance of a record batch. Acceptance is
// not visibility: the service embeds and stores the batch on a background
// task, so a record acknowledged here may not yet appear in an admin-review
// read.
type PersistenceResult struct {
	Status        string `json:"status"`
	SyncedRecords int    `json:"synced_records"`
}

// LabelScore is one classification label with its confidence.
type LabelScore struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// FeedbackResult holds the classified feedback submission.
type FeedbackResult struct {
	Category    string       `json:"issue_category"`
	RoutedAgent string       `json:"classified_agent"`
	IssueText   string       `json:"issue_text"`
	Labels      []LabelScore `json:"labels_scores,omitempty"`
}

// NotificationResult aggregates the delivery outcome across both channels.
type NotificationResult struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Summary string `json:"summary,omitempty"`
}

// ReviewResult holds the persisted records returned to an admin reviewer.
type ReviewResult struct {
	Records []map[string]any `json:"records"`
}

// State is the single shared record for one run. It is created once from the
// caller-supplied fields, passed by reference through every step, and never
// reset mid-run. Nil result pointers mean "not yet produced"; each result is
// written once by its producing step and never overwritten by a different
// step.
type State struct {
	RunID            uuid.UUID   `json:"run_id"`
	Credentials      Credentials `json:"-"`
	DocType          DocType     `json:"doc_type"`
	Action           string      `json:"action,omitempty"`
	UploadedFilePath string      `json:"uploaded_file_path,omitempty"`
	DocID            string      `json:"doc_id,omitempty"`
	IDLabel          string      `json:"id_label,omitempty"`

	Identity     *Identity           `json:"identity,omitempty"`
	Decision     *RoutingDecision    `json:"decision,omitempty"`
	Document     *Document           `json:"document,omitempty"`
	Preprocessed *PreprocessResult   `json:"preprocessed,omitempty"`
	Extracted    *ExtractionResult   `json:"extracted,omitempty"`
	Validation   *ValidationResult   `json:"validation,omitempty"`
	Persistence  *PersistenceResult  `json:"persistence,omitempty"`
	Feedback     *FeedbackResult     `json:"feedback,omitempty"`
	Notification *NotificationResult `json:"notification,omitempty"`
	Review       *ReviewResult       `json:"review,omitempty"`
}

// Token returns the session bearer token, empty until the identity step runs.
func (s *State) Token() string {
	if s.Identity == nil {
		return ""
	}
	return s.Identity.Token
}

// Role returns the authenticated role, empty until the identity step runs.
func (s *State) Role() string {
	if s.Identity == nil {
		return ""
	}
	return s.Identity.Role
}

// Request carries the caller-supplied fields that seed a run's State.
// Document may be pre-attached to re-enter the pipeline with an already
// resolved file; the intake step then no-ops.
type Request struct {
	Credentials      Credentials `json:"credentials"`
	DocType          DocType     `json:"doc_type"`
	Action           string      `json:"action,omitempty"`
	UploadedFilePath string      `json:"uploaded_file_path,omitempty"`
	DocID            string      `json:"doc_id,omitempty"`
	IDLabel          string      `json:"id_label,omitempty"`
	Document         *Document   `json:"document,omitempty"`
}

// NewState seeds a run State from a Request with a fresh run ID.
func NewState(req *Request) *State {
	return &State{
		RunID:            uuid.New(),
		Credentials:      req.Credentials,
		DocType:          req.DocType,
		Action:           req.Action,
		UploadedFilePath: req.UploadedFilePath,
		DocID:            req.DocID,
		IDLabel:          req.IDLabel,
		Document:         req.Document,
	}
}

// Result is the terminal envelope for one run. On failure Fault carries the
// originating step and detail while State retains whatever had accumulated.
type Result struct {
	RunID       uuid.UUID `json:"run_id"`
	Trace       []string  `json:"trace"`
	State       *State    `json:"state"`
	Fault       *Fault    `json:"fault,omitempty"`
	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at"`
}

// Succeeded reports whether the run reached a terminal node without a fault.
func (r *Result) Succeeded() bool {
	return r.Fault == nil
}
