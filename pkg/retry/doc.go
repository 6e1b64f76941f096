// Package retry decorates a jwks.KeySource with an exponential backoff retry
// policy built on github.com/cenkalti/backoff/v5.
//
// Place it between the authoritative source and the cache:
//
//	base, _ := jwksurl.NewSource(jwksurl.Config{URL: url})
//	source, _ := retry.NewSource(base, retry.Config{MaxAttempts: 3})
//	provider, _ := jwks.NewCachedProvider(jwks.Config{Source: source})
//
// The cache holds its refresh lock while the retry loop runs, so keep
// MaxElapsedTime short compared to the callers' tolerance.
package retry
