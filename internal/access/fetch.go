package access

import "github.com/rs/zerolog"

// safeDefault runs a fallible fetch and swallows its error into a safe
// default. Every boolean the decision function consumes goes through this
// boundary, so the decision itself never sees an error.
func safeDefault[T any](logger zerolog.Logger, op string, def T, fn func() (T, error)) T {
	value, err := fn()
	if err != nil {
		logger.Debug().Err(err).Str("op", op).Msg("Fetch failed, using safe default")
		return def
	}
	return value
}
