package jwks

import (
	"context"
	"fmt"
	"slices"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"
	"k8s.io/klog/v2"
	"k8s.io/utils/clock"
)

const (
	// DefaultTTL is used when Config.TTL is zero
	DefaultTTL = 10 * time.Hour

	// DefaultLockWaitTimeout is used when Config.LockWaitTimeout is zero
	DefaultLockWaitTimeout = 2 * time.Second
)

// Key is a single public key resolvable by its key ID
type Key struct {
	// ID is the key identifier (kid), unique within one key set
	ID string

	// Algorithm is the JWA algorithm the key is intended for (e.g., "RS256"), if known
	Algorithm string

	// KeyType is the JWK key type ("RSA", "EC", "OKP")
	KeyType string

	// PublicKey holds the raw public key (*rsa.PublicKey, *ecdsa.PublicKey, ed25519.PublicKey)
	PublicKey any
}

// KeySource is the authoritative origin of a key set
type KeySource interface {
	// FetchKeys retrieves the complete, ordered key set.
	// Failures should wrap ErrKeyLookupFailed.
	FetchKeys(ctx context.Context) ([]Key, error)
}

// KeySourceFunc adapts a plain function to KeySource
type KeySourceFunc func(ctx context.Context) ([]Key, error)

// FetchKeys calls f(ctx)
func (f KeySourceFunc) FetchKeys(ctx context.Context) ([]Key, error) {
	return f(ctx)
}

// Provider resolves signing keys for token verification
type Provider interface {
	GetAll(ctx context.Context) ([]Key, error)
	GetByID(ctx context.Context, kid string) (Key, error)
}

// Compile-time checks
var (
	_ Provider  = (*CachedProvider)(nil)
	_ KeySource = (*CachedProvider)(nil)
)

// Config holds configuration for the key cache
type Config struct {
	// Source is the wrapped key source. Required.
	Source KeySource

	// TTL is how long a fetched key set stays valid.
	// Defaults to DefaultTTL if zero.
	TTL time.Duration

	// LockWaitTimeout bounds how long a caller waits for another caller's
	// refresh before failing with ErrKeySourceUnavailable.
	// Defaults to DefaultLockWaitTimeout if zero.
	LockWaitTimeout time.Duration

	// Clock supplies the reference time for expiry checks.
	// Defaults to the real clock.
	Clock clock.PassiveClock
}

// CachedProvider caches the key set of a KeySource in a single slot.
// Refreshes are serialized; concurrent callers that need a refresh share one fetch.
type CachedProvider struct {
	source          KeySource
	ttl             time.Duration
	lockWaitTimeout time.Duration
	clock           clock.PassiveClock

	// lock gates every fetch and every write to current
	lock    *semaphore.Weighted
	current atomic.Pointer[snapshot]
}

// NewCachedProvider creates a new key cache around config.Source
func NewCachedProvider(config Config) (*CachedProvider, error) {
	if config.Source == nil {
		return nil, fmt.Errorf("%w: source is required", ErrInvalidConfig)
	}
	if config.TTL < 0 {
		return nil, fmt.Errorf("%w: negative TTL %s", ErrInvalidConfig, config.TTL)
	}
	if config.LockWaitTimeout < 0 {
		return nil, fmt.Errorf("%w: negative lock wait timeout %s", ErrInvalidConfig, config.LockWaitTimeout)
	}

	p := &CachedProvider{
		source:          config.Source,
		ttl:             config.TTL,
		lockWaitTimeout: config.LockWaitTimeout,
		clock:           config.Clock,
		lock:            semaphore.NewWeighted(1),
	}
	if p.ttl == 0 {
		p.ttl = DefaultTTL
	}
	if p.lockWaitTimeout == 0 {
		p.lockWaitTimeout = DefaultLockWaitTimeout
	}
	if p.clock == nil {
		p.clock = clock.RealClock{}
	}

	return p, nil
}

// GetAll returns the cached key set, fetching it from the source if the
// cache is empty or expired
func (p *CachedProvider) GetAll(ctx context.Context) ([]Key, error) {
	snap, err := p.load(ctx)
	if err != nil {
		return nil, err
	}
	return slices.Clone(snap.keys), nil
}

// FetchKeys implements KeySource so a CachedProvider can be wrapped by other layers
func (p *CachedProvider) FetchKeys(ctx context.Context) ([]Key, error) {
	return p.GetAll(ctx)
}

// GetByID returns the key with the given kid.
// A kid missing from the cached set triggers exactly one forced refresh before
// failing with ErrKeyNotFound.
func (p *CachedProvider) GetByID(ctx context.Context, kid string) (Key, error) {
	snap, err := p.load(ctx)
	if err != nil {
		return Key{}, err
	}
	if key, ok := snap.find(kid); ok {
		return key, nil
	}

	klog.FromContext(ctx).WithName("jwks").V(2).Info("kid not in cached key set, forcing refresh", "kid", kid)

	snap, err = p.refresh(ctx, p.clock.Now(), snap)
	if err != nil {
		return Key{}, err
	}
	if key, ok := snap.find(kid); ok {
		return key, nil
	}

	return Key{}, fmt.Errorf("%w: %s", ErrKeyNotFound, kid)
}

// BaseSource returns the wrapped key source
func (p *CachedProvider) BaseSource() KeySource {
	return p.source
}

// Expiry returns the instant at which a key set fetched at now goes stale
func (p *CachedProvider) Expiry(now time.Time) time.Time {
	return now.Add(p.ttl)
}

func (p *CachedProvider) load(ctx context.Context) (*snapshot, error) {
	now := p.clock.Now()
	current := p.current.Load()
	if current.valid(now) {
		return current, nil
	}
	return p.refresh(ctx, now, current)
}

// refresh fetches a new key set under the refresh lock. seen is the snapshot
// the caller judged unusable; if the slot holds a different valid snapshot
// once the lock is acquired, that one is returned without fetching.
func (p *CachedProvider) refresh(ctx context.Context, now time.Time, seen *snapshot) (*snapshot, error) {
	logger := klog.FromContext(ctx).WithName("jwks")

	waitCtx, cancel := context.WithTimeout(ctx, p.lockWaitTimeout)
	defer cancel()

	if err := p.lock.Acquire(waitCtx, 1); err != nil {
		logger.V(1).Info("gave up waiting for key set refresh", "timeout", p.lockWaitTimeout)
		return nil, fmt.Errorf("%w: refresh lock not acquired within %s: %w", ErrKeySourceUnavailable, p.lockWaitTimeout, err)
	}
	defer p.lock.Release(1)

	// Double check: another caller may have refreshed while we waited
	if current := p.current.Load(); current != seen && current.valid(now) {
		logger.V(4).Info("key set refreshed by another caller")
		return current, nil
	}

	keys, err := p.source.FetchKeys(ctx)
	if err != nil {
		logger.Error(err, "failed to refresh key set")
		return nil, err
	}
	if len(keys) == 0 {
		return nil, fmt.Errorf("%w: source returned an empty key set", ErrKeyLookupFailed)
	}

	next := &snapshot{
		keys:      keys,
		expiresAt: p.Expiry(now),
	}
	p.current.Store(next)

	logger.V(2).Info("refreshed key set", "keys", len(keys), "expiresAt", next.expiresAt.Format(time.RFC3339Nano))
	return next, nil
}
