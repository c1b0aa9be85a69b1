// Package store is the persisted flag store of the console core: the auth
// token, the login flag, the onboarding flag, the selected-plan marker, and
// per-alert dismissal records. All backends are last-write-wins key/value
// stores; the resolver and the usage monitor only see the AccessStateStore
// interface.
package store

import (
	"fmt"
	"strconv"
)

// Storage keys. The login and onboarding flags are stored as boolean-as-string
// values; only the exact sentinel "true" counts as set.
const (
	keyAuthToken           = "auth_token"
	keyLoggedIn            = "logged_in"
	keyOnboardingCompleted = "onboarding_completed"
	keySelectedPlan        = "selected_plan"
	keyCachedProfile       = "cached_profile"

	dismissalPrefix = "dismissal:"

	truthySentinel = "true"
)

// AlertKind distinguishes the two nudge families the usage monitor emits.
type AlertKind string

const (
	// AlertKindUsage is a usage-threshold nudge (75% or 90% of call minutes).
	AlertKindUsage AlertKind = "usage"
	// AlertKindCancelled is a subscription-cancelled nudge.
	AlertKindCancelled AlertKind = "cancelled"
)

// DismissalKey scopes a user's "don't show again" choice to one workspace,
// one billing period or subscription, one alert kind, and one threshold.
// A new billing period or a different crossed threshold yields a different
// key, so the same nudge fires again.
type DismissalKey struct {
	WorkspaceID string
	// Scope is the billing-period end for usage alerts, or the subscription
	// ID (or "none") for cancellation alerts.
	Scope     string
	Kind      AlertKind
	Threshold int // 0 for cancellation alerts
}

// UsageDismissal builds the key for a usage-threshold alert.
func UsageDismissal(workspaceID, billingPeriodEnd string, threshold int) DismissalKey {
	return DismissalKey{
		WorkspaceID: workspaceID,
		Scope:       billingPeriodEnd,
		Kind:        AlertKindUsage,
		Threshold:   threshold,
	}
}

// CancellationDismissal builds the key for a subscription-cancelled alert.
// An empty subscription ID is recorded as "none" so the key stays stable for
// workspaces whose subscription record has already been deleted.
func CancellationDismissal(workspaceID, subscriptionID string) DismissalKey {
	if subscriptionID == "" {
		subscriptionID = "none"
	}
	return DismissalKey{
		WorkspaceID: workspaceID,
		Scope:       subscriptionID,
		Kind:        AlertKindCancelled,
	}
}

// Canonical returns the serialized storage key. Equality of keys is equality
// of their fields; the serialization exists only so key/value backends can
// store the record.
func (k DismissalKey) Canonical() string {
	return fmt.Sprintf("%s%s|%s|%s|%d", dismissalPrefix, k.WorkspaceID, k.Scope, k.Kind, k.Threshold)
}

// AccessStateStore is the persisted flag store consumed by the session
// validator, the subscription resolver, and the usage monitor.
type AccessStateStore interface {
	// Token returns the stored auth token, or "" when logged out. It also
	// satisfies the API client's TokenSource.
	Token() string
	SetToken(token string) error

	// LoggedIn reports whether the login flag holds the exact sentinel "true".
	LoggedIn() bool
	SetLoggedIn(v bool) error

	// ClearSession removes the token, the login flag, and the cached profile
	// in one pass. Called on every validation failure.
	ClearSession() error

	OnboardingCompleted() bool
	SetOnboardingCompleted(v bool) error

	// SelectedPlan returns the locally stored plan marker written by the
	// plan-selection flow, read by the subscription resolver as settlement
	// evidence.
	SelectedPlan() string
	SetSelectedPlan(plan string) error

	Dismissed(key DismissalKey) bool
	RecordDismissal(key DismissalKey) error
}

// KV is the minimal backend contract a flag-store backend must provide.
// All writes are idempotent last-write-wins.
type KV interface {
	Get(key string) (string, bool)
	Set(key, value string) error
	Delete(keys ...string) error
}

// FlagStore implements AccessStateStore over any KV backend.
type FlagStore struct {
	kv KV
}

// NewFlagStore wraps a KV backend in the typed flag store.
func NewFlagStore(kv KV) *FlagStore {
	return &FlagStore{kv: kv}
}

var _ AccessStateStore = (*FlagStore)(nil)

func (s *FlagStore) Token() string {
	token, _ := s.kv.Get(keyAuthToken)
	return token
}

func (s *FlagStore) SetToken(token string) error {
	return s.kv.Set(keyAuthToken, token)
}

func (s *FlagStore) LoggedIn() bool {
	flag, _ := s.kv.Get(keyLoggedIn)
	return flag == truthySentinel
}

func (s *FlagStore) SetLoggedIn(v bool) error {
	return s.kv.Set(keyLoggedIn, strconv.FormatBool(v))
}

func (s *FlagStore) ClearSession() error {
	return s.kv.Delete(keyAuthToken, keyLoggedIn, keyCachedProfile)
}

func (s *FlagStore) OnboardingCompleted() bool {
	flag, _ := s.kv.Get(keyOnboardingCompleted)
	return flag == truthySentinel
}

func (s *FlagStore) SetOnboardingCompleted(v bool) error {
	return s.kv.Set(keyOnboardingCompleted, strconv.FormatBool(v))
}

func (s *FlagStore) SelectedPlan() string {
	plan, _ := s.kv.Get(keySelectedPlan)
	return plan
}

func (s *FlagStore) SetSelectedPlan(plan string) error {
	if plan == "" {
		return s.kv.Delete(keySelectedPlan)
	}
	return s.kv.Set(keySelectedPlan, plan)
}

func (s *FlagStore) Dismissed(key DismissalKey) bool {
	flag, _ := s.kv.Get(key.Canonical())
	return flag == truthySentinel
}

func (s *FlagStore) RecordDismissal(key DismissalKey) error {
	return s.kv.Set(key.Canonical(), truthySentinel)
}

// SetCachedProfile stores the last fetched profile JSON for display while a
// fresh fetch is in flight. Cleared together with the session.
func (s *FlagStore) SetCachedProfile(profileJSON string) error {
	return s.kv.Set(keyCachedProfile, profileJSON)
}

// CachedProfile returns the cached profile JSON, if any.
func (s *FlagStore) CachedProfile() (string, bool) {
	return s.kv.Get(keyCachedProfile)
}
