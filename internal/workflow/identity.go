package workflow

import (
	"context"
	"fmt"

	"github.com/Om1001-OPS/mkol/internal/services"
	"github.com/Om1001-OPS/mkol/pkg/graph"
	"github.com/Om1001-OPS/mkol/workflow"
)

const loginPath = "/login"

type loginRequest struct {
	Identifier string `json:"identifier"`
	Secret     string `json:"secret"`
}

type loginResponse struct {
	Token    string `json:"token"`
	Role     string `json:"role"`
	Username string `json:"username"`
	Mobile   string `json:"mobile"`
	Email    string `json:"email"`
}

// IdentityStep authenticates the run's credentials against the identity
// service and populates the session. Every failure here is fatal: no routing
// is possible without an identity.
func IdentityStep(rt *Runtime) graph.NodeFunc[*workflow.State] {
	return func(ctx context.Context, s *workflow.State) error {
		if s.Credentials.Identifier == "" || s.Credentials.Secret == "" {
			return fmt.Errorf("%w: missing credentials", workflow.ErrAuth)
		}

		payload := loginRequest{
			Identifier: s.Credentials.Identifier,
			Secret:     s.Credentials.Secret,
		}

		var resp loginResponse
		if err := rt.Services.Post(ctx, services.SvcIdentity, loginPath, "", payload, &resp); err != nil {
			return fmt.Errorf("%w: %w", workflow.ErrAuth, err)
		}
		if resp.Token == "" {
			return fmt.Errorf("%w: identity response carried no token", workflow.ErrAuth)
		}

		s.Identity = &workflow.Identity{
			Token:    resp.Token,
			Role:     resp.Role,
			Username: resp.Username,
			Mobile:   resp.Mobile,
			Email:    resp.Email,
		}

		rt.Logger.InfoContext(
			ctx, "identity step complete",
			"run_id", s.RunID,
			"username", resp.Username,
			"role", resp.Role,
		)

		return nil
	}
}
