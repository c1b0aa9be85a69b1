// Package access combines session validation, subscription resolution, and
// agent presence into a single routing decision for the console shell.
package access

// Decision is the routing outcome of one access-resolution pass. Derived,
// never persisted, recomputed on every pass.
type Decision int

const (
	// Unauthenticated routes to the login screen.
	Unauthenticated Decision = iota
	// NeedsWelcome routes a brand-new, unconfigured user to the welcome wizard.
	NeedsWelcome
	// NeedsPlanSelection routes to the plan-selection prompt.
	NeedsPlanSelection
	// Granted shows the application.
	Granted
)

func (d Decision) String() string {
	switch d {
	case Unauthenticated:
		return "unauthenticated"
	case NeedsWelcome:
		return "needs_welcome"
	case NeedsPlanSelection:
		return "needs_plan_selection"
	case Granted:
		return "granted"
	default:
		return "unknown"
	}
}

// Inputs are the resolved facts the decision is a pure function of.
type Inputs struct {
	Authenticated      bool
	NoWorkspace        bool
	SubscriptionActive bool
	HasAgents          bool
}

// Evaluate maps resolved facts to a routing decision. It performs no I/O and
// holds no state; all error swallowing happens before the facts get here.
func Evaluate(in Inputs) Decision {
	switch {
	case !in.Authenticated:
		return Unauthenticated
	case in.NoWorkspace:
		// Cannot onboard without a workspace to attach a plan to.
		return NeedsPlanSelection
	case !in.SubscriptionActive && !in.HasAgents:
		return NeedsWelcome
	case !in.SubscriptionActive:
		return NeedsPlanSelection
	default:
		return Granted
	}
}
