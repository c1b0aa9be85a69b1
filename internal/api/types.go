package api

// UserProfile is the authenticated user's record from the whoami endpoint.
type UserProfile struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
	Role  string `json:"role,omitempty"`
}

// Workspace is one entry from the workspace listing. The first entry is the
// primary workspace; the console core never acts on any other entry.
type Workspace struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role string `json:"role,omitempty"`
}

// IsAdmin reports whether the calling user administers this workspace.
func (w Workspace) IsAdmin() bool {
	return w.Role == "admin" || w.Role == "owner"
}

// WorkspaceDetails is the full workspace record. Several generations of the
// backend exposed entitlement through differently named fields; all of them
// are kept so the subscription fallback can read whichever one is populated.
type WorkspaceDetails struct {
	ID   string `json:"id"`
	Name string `json:"name"`

	IsSubscriptionActive  bool   `json:"is_subscription_active,omitempty"`
	HasActiveSubscription bool   `json:"has_active_subscription,omitempty"`
	SubscriptionActive    bool   `json:"subscription_active,omitempty"`
	SubscriptionStatus    string `json:"subscription_status,omitempty"`
	BillingStatus         string `json:"billing_status,omitempty"`
}

// Subscription is the nested subscription record of a SubscriptionStatus.
type Subscription struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// SubscriptionStatus is the response of the subscription-status endpoint.
type SubscriptionStatus struct {
	HasSubscription bool          `json:"has_subscription"`
	Subscription    *Subscription `json:"subscription,omitempty"`
}

// Active reports whether the workspace currently has a paid, active
// subscription. Both the existence flag and the literal status "active" are
// required; any other status (trialing, past_due, canceled) is inactive.
func (s SubscriptionStatus) Active() bool {
	return s.HasSubscription && s.Subscription != nil && s.Subscription.Status == "active"
}

// Agent is one configured calling agent of a workspace.
type Agent struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Status string `json:"status,omitempty"`
}

// BillingPeriod bounds one usage accounting window.
type BillingPeriod struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// UsageFeature is a single metered feature inside a usage snapshot.
type UsageFeature struct {
	Used      float64  `json:"used"`
	Limit     *float64 `json:"limit"`
	Unlimited bool     `json:"unlimited"`
}

// UsageSubscription carries the subscription display state inside a usage
// snapshot, including whether a cancellation banner should be shown.
type UsageSubscription struct {
	ID            string `json:"id,omitempty"`
	Status        string `json:"status,omitempty"`
	DisplayStatus string `json:"display_status,omitempty"`
	ShowAlert     bool   `json:"show_alert,omitempty"`
}

// UsageStatus is one point-in-time usage snapshot for a workspace.
type UsageStatus struct {
	Workspace     Workspace               `json:"workspace"`
	Features      map[string]UsageFeature `json:"features"`
	BillingPeriod BillingPeriod           `json:"billing_period"`
	Subscription  *UsageSubscription      `json:"subscription,omitempty"`
}

// FeatureCallMinutes is the metered feature the usage monitor watches.
const FeatureCallMinutes = "call_minutes"
