package workflow

import (
	"log/slog"

	"github.com/Om1001-OPS/mkol/internal/services"
)

// Runtime bundles the dependencies that workflow steps require. It is
// constructed once by composition code from the immutable infrastructure
// handles; steps never initialize or mutate shared clients themselves.
type Runtime struct {
	Services *services.Client
	Logger   *slog.Logger
}
