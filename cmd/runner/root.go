package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Om1001-OPS/mkol/internal/config"
	"github.com/Om1001-OPS/mkol/internal/infrastructure"
	"github.com/Om1001-OPS/mkol/internal/workflow"
)

// commandContext lazily assembles the shared runtime for all subcommands.
type commandContext struct {
	rt *workflow.Runtime
}

func (c *commandContext) runtime() (*workflow.Runtime, error) {
	if c.rt != nil {
		return c.rt, nil
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	infra, err := infrastructure.New(cfg)
	if err != nil {
		return nil, err
	}

	c.rt = &workflow.Runtime{
		Services: infra.Services,
		Logger:   infra.Logger.With("system", "workflow"),
	}
	return c.rt, nil
}

func newRootCommand() *cobra.Command {
	ctx := &commandContext{}

	rootCmd := &cobra.Command{
		Use:           "runner",
		Short:         "Execute document-processing workflow runs",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(newRunCommand(ctx))
	rootCmd.AddCommand(newBatchCommand(ctx))

	return rootCmd
}
