package jwks

import "errors"

var (
	// ErrKeyLookupFailed is returned by key sources when the authoritative
	// source could not produce any keys (network error, empty or malformed set)
	ErrKeyLookupFailed = errors.New("signing key lookup failed")

	// ErrKeySourceUnavailable is returned when the refresh lock could not be
	// acquired within the configured wait timeout. Callers may retry.
	ErrKeySourceUnavailable = errors.New("signing key source unavailable")

	// ErrKeyNotFound is returned when a refresh succeeded but no key in the
	// resulting set matches the requested kid
	ErrKeyNotFound = errors.New("signing key not found")

	// ErrInvalidConfig is returned by NewCachedProvider for unusable settings
	ErrInvalidConfig = errors.New("invalid key cache configuration")
)
