// Package api assembles the API module with the run handler and route
// registration.
package api

import (
	"net/http"

	"github.com/Om1001-OPS/mkol/internal/config"
	"github.com/Om1001-OPS/mkol/internal/infrastructure"
	"github.com/Om1001-OPS/mkol/pkg/middleware"
	"github.com/Om1001-OPS/mkol/pkg/module"
	"github.com/Om1001-OPS/mkol/pkg/routes"
)

// NewModule creates the API module with the run handler and middleware.
func NewModule(cfg *config.Config, infra *infrastructure.Infrastructure) (*module.Module, error) {
	runtime := NewRuntime(cfg, infra)

	mux := http.NewServeMux()
	runs := NewRunsHandler(runtime.Workflow, runtime.Logger)
	routes.Register(mux, runs.Routes())

	m := module.New(cfg.API.BasePath, mux)
	m.Use(middleware.CORS(&cfg.API.CORS))
	m.Use(middleware.Logger(runtime.Logger))

	return m, nil
}
