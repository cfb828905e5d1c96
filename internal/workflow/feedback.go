package workflow

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/Om1001-OPS/mkol/internal/services"
	"github.com/Om1001-OPS/mkol/pkg/graph"
	"github.com/Om1001-OPS/mkol/workflow"
)

const (
	feedbackPath     = "/feedback"
	defaultIssueText = "no error details"
	maxIssueLabels   = 3
	unknownAgent     = "unknown"
)

// agentByCategory is the fixed lookup from issue category to the pipeline
// agent responsible for it. Labels outside the table route to the unknown
// sentinel.
var agentByCategory = map[string]string{
	"document_quality":    "Preprocessing Agent",
	"extraction_error":    "Extraction Agent",
	"data_mismatch":       "Validation Agent",
	"missing_information": "Intake Agent",
	"routing_issue":       "Routing Agent",
	"sync_failure":        "Sync Agent",
}

type feedbackRequest struct {
	Username  string `json:"username"`
	IssueText string `json:"issue_text"`
	Rating    int    `json:"rating"`
	Mobile    string `json:"mobile,omitempty"`
}

type feedbackResponse struct {
	ClassifiedAgent string               `json:"classified_agent"`
	IssueCategory   string               `json:"issue_category"`
	LabelsScores    []workflow.LabelScore `json:"labels_scores"`
}

// FeedbackStep submits the run's issue text to the feedback service and
// normalizes the classification: only the top-3 labels by confidence are
// kept, and the routed agent is resolved from the fixed category table.
func FeedbackStep(rt *Runtime) graph.NodeFunc[*workflow.State] {
	return func(ctx context.Context, s *workflow.State) error {
		if s.Identity == nil {
			return fmt.Errorf("%w: no identity in state", workflow.ErrPrecondition)
		}

		issueText := issueText(s)

		payload := feedbackRequest{
			Username:  s.Identity.Username,
			IssueText: issueText,
			Rating:    1,
			Mobile:    s.Identity.Mobile,
		}

		var resp feedbackResponse
		if err := rt.Services.Post(ctx, services.SvcFeedback, feedbackPath, s.Token(), payload, &resp); err != nil {
			return fmt.Errorf("%w: %w", workflow.ErrUpstream, err)
		}

		s.Feedback = &workflow.FeedbackResult{
			Category:    resp.IssueCategory,
			RoutedAgent: routedAgent(resp.IssueCategory),
			IssueText:   issueText,
			Labels:      topLabels(resp.LabelsScores, maxIssueLabels),
		}

		rt.Logger.InfoContext(
			ctx, "feedback step complete",
			"run_id", s.RunID,
			"category", s.Feedback.Category,
			"agent", s.Feedback.RoutedAgent,
		)

		return nil
	}
}

// issueText builds the feedback submission from, in priority order, the
// validation error list, the validation reason, and a default placeholder.
func issueText(s *workflow.State) string {
	if s.Validation != nil {
		if len(s.Validation.Errors) > 0 {
			return strings.Join(s.Validation.Errors, "; ")
		}
		if s.Validation.Reason != "" {
			return s.Validation.Reason
		}
	}
	return defaultIssueText
}

func routedAgent(category string) string {
	if agent, ok := agentByCategory[category]; ok {
		return agent
	}
	return unknownAgent
}

// topLabels returns the n highest-confidence labels in descending score
// order without mutating the input.
func topLabels(labels []workflow.LabelScore, n int) []workflow.LabelScore {
	ranked := make([]workflow.LabelScore, len(labels))
	copy(ranked, labels)

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}
