/*
Package jwks provides cached signing-key lookup for JWT verification.

A CachedProvider wraps an authoritative KeySource (an HTTP JWKS endpoint, a Vault
Transit key, a file) and keeps the most recent key set in memory for a fixed TTL.
Concurrent callers that find the cache stale collapse into a single fetch: the
refresh is guarded by a lock that callers wait on for at most LockWaitTimeout.

Basic usage:

	provider, err := jwks.NewCachedProvider(jwks.Config{
	    Source:          source,
	    TTL:             10 * time.Hour,
	    LockWaitTimeout: 2 * time.Second,
	})

	// Resolve the key for an incoming token
	key, err := provider.GetByID(ctx, kid)

A lookup for a kid that is missing from the cached set forces one extra refresh,
so rotated-in keys are picked up before the TTL lapses. Every refresh replaces the
whole set; a key that disappears from the source is no longer resolvable.
*/
package jwks
