// Package usage watches the primary workspace's metered usage and emits
// dismissible nudges: a subscription-cancelled alert or a usage-threshold
// alert on call minutes. The monitor never blocks access resolution; every
// failure path simply shows nothing.
package usage

import (
	"context"
	"fmt"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"github.com/voxlane/console-core/internal/api"
	"github.com/voxlane/console-core/internal/metrics"
	"github.com/voxlane/console-core/internal/store"
)

// Usage thresholds, in percent of the billing-period limit.
const (
	ThresholdWarning  = 75
	ThresholdCritical = 90
)

// Alert is one emitted nudge. Dismissing it records its exact detection key,
// so the same (workspace, period, kind, threshold) combination never fires
// again while a new period or threshold does.
type Alert struct {
	ID          string
	Kind        store.AlertKind
	WorkspaceID string
	Threshold   int // 0 for cancellation alerts
	Message     string
	Key         store.DismissalKey
}

// StatusAPI is the backend surface the monitor consumes.
type StatusAPI interface {
	GetUsageStatus(ctx context.Context, workspaceID string) (*api.UsageStatus, error)
}

// Monitor computes usage nudges for admins of the primary workspace.
type Monitor struct {
	api    StatusAPI
	store  store.AccessStateStore
	logger zerolog.Logger
}

// NewMonitor creates a usage monitor.
func NewMonitor(statusAPI StatusAPI, s store.AccessStateStore, logger zerolog.Logger) *Monitor {
	return &Monitor{api: statusAPI, store: s, logger: logger}
}

// Check runs one monitor pass for the workspace and returns the alert to
// show, or nil. Only workspace admins see nudges. A subscription-cancelled
// alert takes priority and suppresses usage alerts for the pass. Errors are
// swallowed; the pass then shows nothing.
func (m *Monitor) Check(ctx context.Context, workspace api.Workspace) *Alert {
	if !workspace.IsAdmin() {
		return nil
	}

	status, err := m.api.GetUsageStatus(ctx, workspace.ID)
	if err != nil {
		metrics.MonitorFailures.Inc()
		m.logger.Debug().Err(err).
			Str("workspaceId", workspace.ID).
			Msg("Usage snapshot fetch failed, skipping monitor pass")
		return nil
	}

	if alert := m.cancellationAlert(workspace.ID, status); alert != nil {
		return alert
	}
	return m.usageAlert(workspace.ID, status)
}

// Dismiss records the alert's detection key. Later passes with the same key
// never re-emit; a new billing period or threshold always does.
func (m *Monitor) Dismiss(alert *Alert) error {
	if alert == nil {
		return nil
	}
	if err := m.store.RecordDismissal(alert.Key); err != nil {
		return fmt.Errorf("record dismissal: %w", err)
	}
	return nil
}

func (m *Monitor) cancellationAlert(workspaceID string, status *api.UsageStatus) *Alert {
	sub := status.Subscription
	if sub == nil || !sub.ShowAlert {
		return nil
	}

	key := store.CancellationDismissal(workspaceID, sub.ID)
	if m.store.Dismissed(key) {
		return nil
	}

	metrics.UsageAlerts.WithLabelValues(string(store.AlertKindCancelled)).Inc()
	return &Alert{
		ID:          ulid.Make().String(),
		Kind:        store.AlertKindCancelled,
		WorkspaceID: workspaceID,
		Message:     "Your subscription has been cancelled. Pick a plan to keep your agents answering calls.",
		Key:         key,
	}
}

func (m *Monitor) usageAlert(workspaceID string, status *api.UsageStatus) *Alert {
	feature, ok := status.Features[api.FeatureCallMinutes]
	if !ok || feature.Unlimited || feature.Limit == nil || *feature.Limit <= 0 {
		return nil
	}

	threshold := thresholdFor(feature.Used / *feature.Limit)
	if threshold == 0 {
		return nil
	}

	key := store.UsageDismissal(workspaceID, status.BillingPeriod.End, threshold)
	if m.store.Dismissed(key) {
		return nil
	}

	metrics.UsageAlerts.WithLabelValues(string(store.AlertKindUsage)).Inc()
	return &Alert{
		ID:          ulid.Make().String(),
		Kind:        store.AlertKindUsage,
		WorkspaceID: workspaceID,
		Threshold:   threshold,
		Message: fmt.Sprintf("You've used %d%% of your call minutes for this billing period (%.0f of %.0f).",
			threshold, feature.Used, *feature.Limit),
		Key: key,
	}
}

// thresholdFor maps a used/limit ratio to the crossed threshold, or 0.
func thresholdFor(ratio float64) int {
	switch {
	case ratio >= 0.9:
		return ThresholdCritical
	case ratio >= 0.75:
		return ThresholdWarning
	default:
		return 0
	}
}
