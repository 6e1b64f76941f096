package retry

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"k8s.io/klog/v2"

	"github.com/alexadamm/jwks-cache-go/pkg/jwks"
)

const (
	// DefaultMaxAttempts is used when Config.MaxAttempts is zero
	DefaultMaxAttempts = 3

	// DefaultRetryInterval is used when Config.RetryInterval is zero
	DefaultRetryInterval = 200 * time.Millisecond

	// DefaultMaxElapsedTime is used when Config.MaxElapsedTime is zero
	DefaultMaxElapsedTime = 5 * time.Second
)

// Compile-time check that Source implements jwks.KeySource
var _ jwks.KeySource = (*Source)(nil)

// Config configures the retry behavior
type Config struct {
	// MaxAttempts is the total number of fetches, including the first one
	MaxAttempts int

	// RetryInterval is the initial wait between attempts; it grows exponentially
	RetryInterval time.Duration

	// MaxElapsedTime bounds the whole retry loop
	MaxElapsedTime time.Duration
}

// Source retries a failing KeySource with exponential backoff
type Source struct {
	base           jwks.KeySource
	maxAttempts    int
	retryInterval  time.Duration
	maxElapsedTime time.Duration
}

// NewSource wraps base with the retry policy in config
func NewSource(base jwks.KeySource, config Config) (*Source, error) {
	if base == nil {
		return nil, fmt.Errorf("%w: base source is required", jwks.ErrInvalidConfig)
	}
	if config.MaxAttempts < 0 || config.RetryInterval < 0 || config.MaxElapsedTime < 0 {
		return nil, fmt.Errorf("%w: negative retry settings", jwks.ErrInvalidConfig)
	}

	s := &Source{
		base:           base,
		maxAttempts:    config.MaxAttempts,
		retryInterval:  config.RetryInterval,
		maxElapsedTime: config.MaxElapsedTime,
	}
	if s.maxAttempts == 0 {
		s.maxAttempts = DefaultMaxAttempts
	}
	if s.retryInterval == 0 {
		s.retryInterval = DefaultRetryInterval
	}
	if s.maxElapsedTime == 0 {
		s.maxElapsedTime = DefaultMaxElapsedTime
	}

	return s, nil
}

// FetchKeys fetches from the base source, retrying failures until the attempt
// or time budget is used up. The last error of the base source is returned
// unchanged. Context cancellation stops retrying immediately.
func (s *Source) FetchKeys(ctx context.Context) ([]jwks.Key, error) {
	logger := klog.FromContext(ctx).WithName("retry")

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = s.retryInterval

	attempt := 0
	operation := func() ([]jwks.Key, error) {
		attempt++
		keys, err := s.base.FetchKeys(ctx)
		if err != nil && ctx.Err() != nil {
			return nil, backoff.Permanent(err)
		}
		return keys, err
	}

	keys, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(policy),
		backoff.WithMaxTries(uint(s.maxAttempts)),
		backoff.WithMaxElapsedTime(s.maxElapsedTime),
		backoff.WithNotify(func(err error, next time.Duration) {
			logger.V(1).Info("key fetch failed, retrying", "attempt", attempt, "retryIn", next, "err", err.Error())
		}),
	)
	if err != nil {
		return nil, err
	}

	return keys, nil
}
