package workflow

import (
	"context"
	"fmt"

	"github.com/Om1001-OPS/mkol/internal/services"
	"github.com/Om1001-OPS/mkol/pkg/graph"
	"github.com/Om1001-OPS/mkol/workflow"
)

const (
	notifyPath        = "/notify"
	defaultDetailText = "no details available"
)

type notifyRequest struct {
	DocumentType  workflow.DocType `json:"document_type"`
	Status        string           `json:"status"`
	ExtractedText string           `json:"extracted_text"`
	IssueText     string           `json:"issue_text,omitempty"`
	Username      string           `json:"username,omitempty"`
	IssueCategory string           `json:"issue_category,omitempty"`
	Email         string           `json:"email,omitempty"`
	Phone         string           `json:"phone,omitempty"`
}

// NotifyStep reports the run outcome to the user over the notification
// service, which attempts message and mail delivery independently and
// aggregates both channel outcomes with a generated summary.
func NotifyStep(rt *Runtime) graph.NodeFunc[*workflow.State] {
	return func(ctx context.Context, s *workflow.State) error {
		if s.Identity == nil {
			return fmt.Errorf("%w: no identity in state", workflow.ErrPrecondition)
		}

		payload := notifyRequest{
			DocumentType:  s.DocType,
			Status:        notifyStatus(s),
			ExtractedText: detailText(s),
			Username:      s.Identity.Username,
			Email:         s.Identity.Email,
			Phone:         s.Identity.Mobile,
		}
		if s.Feedback != nil {
			payload.IssueText = s.Feedback.IssueText
			payload.IssueCategory = s.Feedback.Category
		}

		var resp workflow.NotificationResult
		if err := rt.Services.Post(ctx, services.SvcNotification, notifyPath, s.Token(), payload, &resp); err != nil {
			return fmt.Errorf("%w: %w", workflow.ErrUpstream, err)
		}

		s.Notification = &resp

		rt.Logger.InfoContext(
			ctx, "notify step complete",
			"run_id", s.RunID,
			"status", resp.Status,
		)

		return nil
	}
}

// notifyStatus derives the outcome string from the validation verdict. An
// absent verdict reports as unknown rather than guessing either way.
func notifyStatus(s *workflow.State) string {
	if s.Validation == nil {
		return "unknown"
	}
	if s.Validation.Valid {
		return "validated"
	}
	return "rejected"
}

// detailText selects the summary body: feedback issue text, then raw
// extracted text, then validation reason, then a placeholder.
func detailText(s *workflow.State) string {
	if s.Feedback != nil && s.Feedback.IssueText != "" {
		return s.Feedback.IssueText
	}
	if s.Extracted != nil && len(s.Extracted.Results) > 0 && s.Extracted.Results[0].OCRText != "" {
		return s.Extracted.Results[0].OCRText
	}
	if s.Validation != nil && s.Validation.Reason != "" {
		return s.Validation.Reason
	}
	return defaultDetailText
}
