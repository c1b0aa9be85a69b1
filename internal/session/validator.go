// Package session validates a locally claimed console session against the
// backend. Validation never returns an error: every failure path resolves to
// "not authenticated" and clears the persisted session.
package session

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/voxlane/console-core/internal/api"
	"github.com/voxlane/console-core/internal/metrics"
	"github.com/voxlane/console-core/internal/store"
)

// ProfileFetcher is the single backend call validation needs.
type ProfileFetcher interface {
	GetProfile(ctx context.Context) (*api.UserProfile, error)
}

// Validator confirms a local session is still accepted by the backend.
type Validator struct {
	store  store.AccessStateStore
	api    ProfileFetcher
	logger zerolog.Logger
}

// NewValidator creates a session validator.
func NewValidator(s store.AccessStateStore, fetcher ProfileFetcher, logger zerolog.Logger) *Validator {
	return &Validator{store: s, api: fetcher, logger: logger}
}

// Validate reports whether the session is authenticated. A missing token or an
// unset login flag fails fast without a network call. A rejected profile fetch
// counts as an authentication failure. Both paths clear the session.
func (v *Validator) Validate(ctx context.Context) bool {
	if v.store.Token() == "" || !v.store.LoggedIn() {
		v.invalidate("missing local session")
		return false
	}

	if _, err := v.api.GetProfile(ctx); err != nil {
		v.logger.Debug().Err(err).Msg("Profile fetch rejected, clearing session")
		v.invalidate("profile fetch rejected")
		return false
	}

	return true
}

func (v *Validator) invalidate(reason string) {
	if err := v.store.ClearSession(); err != nil {
		v.logger.Warn().Err(err).Str("reason", reason).Msg("Failed to clear session state")
	}
	metrics.SessionInvalidations.Inc()
}
