// Package metrics exposes Prometheus counters for access resolution so
// operators can watch decision distribution and webhook-settlement retries.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ResolutionPasses counts completed access-resolution passes by decision.
	ResolutionPasses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voxlane_console_resolution_passes_total",
		Help: "Completed access-resolution passes by decision",
	}, []string{"decision"})

	// SubscriptionAttempts counts subscription-status attempts by outcome.
	SubscriptionAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voxlane_console_subscription_attempts_total",
		Help: "Subscription-status attempts by outcome (active, inactive, error)",
	}, []string{"outcome"})

	// SubscriptionFallbacks counts passes that consulted the legacy
	// workspace-details fallback after the primary source reported inactive.
	SubscriptionFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voxlane_console_subscription_fallbacks_total",
		Help: "Resolution passes that consulted the workspace-details fallback",
	})

	// UsageAlerts counts usage-monitor alerts emitted, by kind.
	UsageAlerts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voxlane_console_usage_alerts_total",
		Help: "Usage-monitor alerts emitted, by kind (usage, cancelled)",
	}, []string{"kind"})

	// MonitorFailures counts usage-monitor passes swallowed due to errors.
	MonitorFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voxlane_console_usage_monitor_failures_total",
		Help: "Usage-monitor passes aborted silently due to errors",
	})

	// SessionInvalidations counts sessions cleared by failed validation.
	SessionInvalidations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voxlane_console_session_invalidations_total",
		Help: "Sessions cleared because local or remote validation failed",
	})
)
