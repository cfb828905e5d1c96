package api

import (
	"github.com/Om1001-OPS/mkol/internal/config"
	"github.com/Om1001-OPS/mkol/internal/infrastructure"
	"github.com/Om1001-OPS/mkol/internal/workflow"
)

// Runtime extends Infrastructure with the workflow runtime for run handlers.
type Runtime struct {
	*infrastructure.Infrastructure
	Workflow *workflow.Runtime
}

// NewRuntime creates an API runtime with a module-scoped logger.
func NewRuntime(cfg *config.Config, infra *infrastructure.Infrastructure) *Runtime {
	logger := infra.Logger.With("module", "api")

	return &Runtime{
		Infrastructure: &infrastructure.Infrastructure{
			Lifecycle: infra.Lifecycle,
			Logger:    logger,
			Services:  infra.Services,
		},
		Workflow: &workflow.Runtime{
			Services: infra.Services,
			Logger:   logger.With("system", "workflow"),
		},
	}
}
