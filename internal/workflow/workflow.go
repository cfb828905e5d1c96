// Package workflow assembles the run graph and drives a single document
// through it: identity, routing, then either the processing pipeline
// (intake, preprocess, extract, validate, persist?, feedback, notify) or the
// admin-review branch. Steps communicate only through the shared State;
// sequencing lives here and in pkg/graph.
package workflow

import (
	"context"
	"errors"
	"time"

	"github.com/Om1001-OPS/mkol/pkg/graph"
	"github.com/Om1001-OPS/mkol/workflow"
)

// Execute runs one document through the workflow. The returned Result always
// carries the final state, the visited-node trace, and timing; on failure its
// Fault names the originating step and the upstream detail, with whatever
// partial state had accumulated. The error return is reserved for graph
// construction problems.
func Execute(ctx context.Context, rt *Runtime, req *workflow.Request) (*workflow.Result, error) {
	g, err := buildGraph(rt)
	if err != nil {
		return nil, err
	}

	state := workflow.NewState(req)
	result := &workflow.Result{
		RunID:     state.RunID,
		State:     state,
		StartedAt: time.Now(),
	}

	trace, runErr := g.Execute(ctx, state)
	result.Trace = trace
	result.CompletedAt = time.Now()

	if runErr != nil {
		result.Fault = toFault(runErr)
		rt.Logger.ErrorContext(
			ctx, "run failed",
			"run_id", state.RunID,
			"step", result.Fault.Step,
			"kind", result.Fault.Kind,
			"error", runErr,
		)
		return result, nil
	}

	rt.Logger.InfoContext(
		ctx, "run complete",
		"run_id", state.RunID,
		"trace", trace,
		"duration", result.CompletedAt.Sub(result.StartedAt),
	)

	return result, nil
}

func buildGraph(rt *Runtime) (*graph.Graph[*workflow.State], error) {
	g := graph.New[*workflow.State]("document-run", rt.Logger)

	nodes := map[string]graph.NodeFunc[*workflow.State]{
		workflow.NodeIdentity:    IdentityStep(rt),
		workflow.NodeRouting:     RoutingStep(rt),
		workflow.NodeIntake:      IntakeStep(rt),
		workflow.NodePreprocess:  PreprocessStep(rt),
		workflow.NodeExtract:     ExtractStep(rt),
		workflow.NodeValidate:    ValidateStep(rt),
		workflow.NodePersist:     PersistStep(rt),
		workflow.NodeFeedback:    FeedbackStep(rt),
		workflow.NodeNotify:      NotifyStep(rt),
		workflow.NodeAdminReview: ReviewStep(rt),
	}
	for name, fn := range nodes {
		if err := g.AddNode(name, fn); err != nil {
			return nil, err
		}
	}

	edges := [][2]string{
		{workflow.NodeIdentity, workflow.NodeRouting},
		{workflow.NodeIntake, workflow.NodePreprocess},
		{workflow.NodePreprocess, workflow.NodeExtract},
		{workflow.NodeExtract, workflow.NodeValidate},
		{workflow.NodePersist, workflow.NodeFeedback},
		{workflow.NodeFeedback, workflow.NodeNotify},
	}
	for _, edge := range edges {
		if err := g.AddEdge(edge[0], edge[1]); err != nil {
			return nil, err
		}
	}

	if err := g.AddRouter(workflow.NodeRouting, workflow.RouteAfterDecision); err != nil {
		return nil, err
	}
	if err := g.AddRouter(workflow.NodeValidate, workflow.RouteAfterValidation); err != nil {
		return nil, err
	}

	if err := g.SetEntry(workflow.NodeIdentity); err != nil {
		return nil, err
	}
	if err := g.SetTerminal(workflow.NodeNotify); err != nil {
		return nil, err
	}
	if err := g.SetTerminal(workflow.NodeAdminReview); err != nil {
		return nil, err
	}

	return g, nil
}

func toFault(err error) *workflow.Fault {
	fault := &workflow.Fault{
		Kind:    workflow.Classify(err),
		Message: err.Error(),
	}

	var stepErr *graph.StepError
	if errors.As(err, &stepErr) {
		fault.Step = stepErr.Node
		fault.Message = stepErr.Err.Error()
	}

	return fault
}
