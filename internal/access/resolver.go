package access

import (
	"context"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/voxlane/console-core/internal/api"
	"github.com/voxlane/console-core/internal/logging"
	"github.com/voxlane/console-core/internal/metrics"
	"github.com/voxlane/console-core/internal/subscription"
)

// SessionValidator confirms the local session with the backend.
type SessionValidator interface {
	Validate(ctx context.Context) bool
}

// SubscriptionResolver determines workspace entitlement.
type SubscriptionResolver interface {
	Resolve(ctx context.Context, workspaceID string, ev subscription.Evidence) bool
}

// WorkspaceAPI is the backend surface the resolver consumes directly.
type WorkspaceAPI interface {
	AgentLister
	ListMyWorkspaces(ctx context.Context) ([]api.Workspace, error)
}

// Resolver runs one access-resolution pass.
type Resolver struct {
	sessions      SessionValidator
	subscriptions SubscriptionResolver
	api           WorkspaceAPI
	logger        zerolog.Logger
}

// NewResolver creates an access resolver.
func NewResolver(sessions SessionValidator, subscriptions SubscriptionResolver, workspaceAPI WorkspaceAPI, logger zerolog.Logger) *Resolver {
	return &Resolver{
		sessions:      sessions,
		subscriptions: subscriptions,
		api:           workspaceAPI,
		logger:        logger,
	}
}

// Resolve runs one pass and returns the routing decision. The returned error
// is non-nil only when the context was cancelled mid-pass; the caller must
// then discard the decision instead of routing on stale state.
func (r *Resolver) Resolve(ctx context.Context, ev subscription.Evidence) (Decision, error) {
	ctx, passID := logging.WithPassID(ctx, "")
	logger := r.logger.With().Str("passId", passID).Logger()

	if !r.sessions.Validate(ctx) {
		return r.commit(ctx, logger, Inputs{})
	}

	workspaces := safeDefault(logger, "list_workspaces", nil, func() ([]api.Workspace, error) {
		return r.api.ListMyWorkspaces(ctx)
	})
	if len(workspaces) == 0 {
		return r.commit(ctx, logger, Inputs{Authenticated: true, NoWorkspace: true})
	}

	// Single-workspace invariant: the first listed workspace is the primary
	// one and the only one this pass acts on.
	primary := workspaces[0]

	var subscriptionActive, hasAgents bool
	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		subscriptionActive = r.subscriptions.Resolve(groupCtx, primary.ID, ev)
		return nil
	})
	group.Go(func() error {
		hasAgents = HasAgents(groupCtx, r.api, primary.ID, logger)
		return nil
	})
	_ = group.Wait() // both checks swallow their own errors

	return r.commit(ctx, logger, Inputs{
		Authenticated:      true,
		SubscriptionActive: subscriptionActive,
		HasAgents:          hasAgents,
	})
}

// commit finalizes the pass. A cancelled context never commits: in-flight
// results are discarded so a torn-down caller cannot act on them.
func (r *Resolver) commit(ctx context.Context, logger zerolog.Logger, in Inputs) (Decision, error) {
	if err := ctx.Err(); err != nil {
		logger.Debug().Msg("Resolution pass cancelled, discarding decision")
		return Unauthenticated, err
	}

	decision := Evaluate(in)
	metrics.ResolutionPasses.WithLabelValues(decision.String()).Inc()
	logger.Info().
		Bool("authenticated", in.Authenticated).
		Bool("subscriptionActive", in.SubscriptionActive).
		Bool("hasAgents", in.HasAgents).
		Str("decision", decision.String()).
		Msg("Access resolution pass complete")
	return decision, nil
}
