package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	wfsteps "github.com/Om1001-OPS/mkol/internal/workflow"
	"github.com/Om1001-OPS/mkol/workflow"
)

func newBatchCommand(ctx *commandContext) *cobra.Command {
	var (
		manifest string
		limit    int
	)

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Execute a manifest of workflow runs concurrently",
		Long: "Reads a JSON array of run requests from the manifest file and executes " +
			"them as independent runs with a bounded concurrency limit. Runs share " +
			"no state; a faulted run does not cancel the others.",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := ctx.runtime()
			if err != nil {
				return err
			}

			data, err := os.ReadFile(manifest)
			if err != nil {
				return fmt.Errorf("read manifest: %w", err)
			}

			var requests []workflow.Request
			if err := json.Unmarshal(data, &requests); err != nil {
				return fmt.Errorf("parse manifest: %w", err)
			}
			if len(requests) == 0 {
				return fmt.Errorf("manifest %s contains no runs", manifest)
			}

			results := make([]*workflow.Result, len(requests))
			var mu sync.Mutex
			faulted := 0

			g, gctx := errgroup.WithContext(cmd.Context())
			g.SetLimit(limit)

			for i := range requests {
				g.Go(func() error {
					result, err := wfsteps.Execute(gctx, rt, &requests[i])
					if err != nil {
						return err
					}
					results[i] = result

					if !result.Succeeded() {
						mu.Lock()
						faulted++
						mu.Unlock()
					}
					return nil
				})
			}

			if err := g.Wait(); err != nil {
				return err
			}

			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			if err := encoder.Encode(results); err != nil {
				return err
			}

			if faulted > 0 {
				return fmt.Errorf("%d of %d runs faulted", faulted, len(requests))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&manifest, "manifest", "", "path to the JSON run manifest")
	cmd.Flags().IntVar(&limit, "limit", 4, "maximum concurrent runs")
	cmd.MarkFlagRequired("manifest")

	return cmd
}
