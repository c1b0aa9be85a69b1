package access

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/voxlane/console-core/internal/api"
)

// AgentLister is the backend surface of the agent presence check.
type AgentLister interface {
	ListAgents(ctx context.Context, workspaceID string) ([]api.Agent, error)
}

// HasAgents reports whether the workspace has at least one configured calling
// agent. Errors count as "no agents": the check fails closed toward
// onboarding, never toward granting access.
func HasAgents(ctx context.Context, lister AgentLister, workspaceID string, logger zerolog.Logger) bool {
	agents := safeDefault(logger, "list_agents", nil, func() ([]api.Agent, error) {
		return lister.ListAgents(ctx, workspaceID)
	})
	return len(agents) > 0
}
