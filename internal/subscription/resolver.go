// Package subscription decides whether a workspace currently has an active
// paid entitlement. Billing webhooks settle asynchronously, so right after a
// payment the backend may briefly report no subscription; the resolver absorbs
// that with a bounded, fixed-delay retry.
package subscription

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/voxlane/console-core/internal/api"
	"github.com/voxlane/console-core/internal/metrics"
	"github.com/voxlane/console-core/internal/store"
)

const (
	// retryDelay is the fixed wait between attempts. No backoff, no jitter:
	// the delay only needs to outlast typical webhook settlement.
	retryDelay = 3000 * time.Millisecond

	settledAttempts = 3
	defaultAttempts = 1
)

// StatusAPI is the backend surface the resolver consumes.
type StatusAPI interface {
	GetSubscription(ctx context.Context, workspaceID string) (*api.SubscriptionStatus, error)
	GetWorkspaceDetails(ctx context.Context, workspaceID string) (*api.WorkspaceDetails, error)
}

// SleepFunc waits for d or until the context is cancelled. Injected so tests
// run all attempts without real time passing.
type SleepFunc func(ctx context.Context, d time.Duration)

func defaultSleep(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}

// Evidence carries contextual hints that a payment just completed.
type Evidence struct {
	// PaymentSuccess is set when the console was entered through a
	// payment-success return URL (payment=success query parameter).
	PaymentSuccess bool
}

// Resolver determines workspace entitlement.
type Resolver struct {
	api    StatusAPI
	store  store.AccessStateStore
	sleep  SleepFunc
	logger zerolog.Logger
}

// NewResolver creates a subscription resolver.
func NewResolver(statusAPI StatusAPI, s store.AccessStateStore, logger zerolog.Logger) *Resolver {
	return &Resolver{
		api:    statusAPI,
		store:  s,
		sleep:  defaultSleep,
		logger: logger,
	}
}

// WithSleep replaces the inter-attempt sleep. For tests.
func (r *Resolver) WithSleep(sleep SleepFunc) *Resolver {
	r.sleep = sleep
	return r
}

// Resolve reports whether the workspace has an active subscription. It never
// returns an error; any state it cannot resolve counts as inactive.
//
// The primary source is polled up to three times when there is settlement
// evidence (payment-success return URL or a stored selected-plan marker),
// otherwise once. If no attempt reports active, legacy entitlement fields on
// the workspace record are consulted as a fallback.
func (r *Resolver) Resolve(ctx context.Context, workspaceID string, ev Evidence) bool {
	maxAttempts := defaultAttempts
	if ev.PaymentSuccess || r.store.SelectedPlan() != "" {
		maxAttempts = settledAttempts
	}

	active := false
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		status, err := r.api.GetSubscription(ctx, workspaceID)
		if err != nil {
			metrics.SubscriptionAttempts.WithLabelValues("error").Inc()
			r.logger.Warn().Err(err).
				Str("workspaceId", workspaceID).
				Int("attempt", attempt).
				Msg("Subscription status fetch failed")
		} else if status.Active() {
			metrics.SubscriptionAttempts.WithLabelValues("active").Inc()
			active = true
			break
		} else {
			metrics.SubscriptionAttempts.WithLabelValues("inactive").Inc()
		}

		if attempt < maxAttempts {
			r.sleep(ctx, retryDelay)
			if ctx.Err() != nil {
				break
			}
		}
	}

	if !active {
		active = r.fallbackActive(ctx, workspaceID)
	}
	return active
}

// fallbackActive checks legacy entitlement fields on the workspace record.
// Several generations of the backend wrote entitlement under different names;
// any one of them indicating active is enough.
func (r *Resolver) fallbackActive(ctx context.Context, workspaceID string) bool {
	metrics.SubscriptionFallbacks.Inc()

	details, err := r.api.GetWorkspaceDetails(ctx, workspaceID)
	if err != nil {
		r.logger.Debug().Err(err).
			Str("workspaceId", workspaceID).
			Msg("Workspace details fallback fetch failed")
		return false
	}

	return details.IsSubscriptionActive ||
		details.HasActiveSubscription ||
		details.SubscriptionActive ||
		details.SubscriptionStatus == "active" ||
		details.BillingStatus == "active"
}
