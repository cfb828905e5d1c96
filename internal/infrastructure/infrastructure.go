// Package infrastructure provides core service initialization for
// application startup. It assembles the shared dependencies (logging,
// lifecycle coordination, the collaborator service client) exactly once;
// downstream code receives immutable handles and never re-initializes them.
package infrastructure

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/Om1001-OPS/mkol/internal/config"
	"github.com/Om1001-OPS/mkol/internal/services"
	"github.com/Om1001-OPS/mkol/pkg/lifecycle"
)

// Infrastructure holds the core systems required by all modules.
type Infrastructure struct {
	Lifecycle *lifecycle.Coordinator
	Logger    *slog.Logger
	Services  *services.Client
}

// New creates an Infrastructure from the application configuration.
func New(cfg *config.Config) (*Infrastructure, error) {
	lc := lifecycle.New()
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	client, err := services.New(&cfg.Services, logger)
	if err != nil {
		return nil, fmt.Errorf("services init failed: %w", err)
	}

	return &Infrastructure{
		Lifecycle: lc,
		Logger:    logger,
		Services:  client,
	}, nil
}
