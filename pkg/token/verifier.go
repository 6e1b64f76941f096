package token

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/golang-jwt/jwt/v5"
	"k8s.io/klog/v2"
	"k8s.io/utils/clock"

	"github.com/alexadamm/jwks-cache-go/pkg/jwks"
	"github.com/alexadamm/jwks-cache-go/pkg/token/algorithms"
)

// Verifier validates JWTs against keys resolved through a jwks.Provider
type Verifier struct {
	provider   jwks.Provider
	algorithms []string
	options    []jwt.ParserOption
}

// NewVerifier creates a new Verifier
func NewVerifier(config Config) (*Verifier, error) {
	if config.Provider == nil {
		return nil, fmt.Errorf("%w: provider is required", jwks.ErrInvalidConfig)
	}

	algs := config.Algorithms
	if len(algs) == 0 {
		algs = DefaultAlgorithms
	}
	for _, alg := range algs {
		if _, err := algorithms.Get(alg); err != nil {
			return nil, fmt.Errorf("%w: %w", jwks.ErrInvalidConfig, err)
		}
	}

	clk := config.Clock
	if clk == nil {
		clk = clock.RealClock{}
	}

	options := []jwt.ParserOption{
		jwt.WithIssuedAt(),
		jwt.WithLeeway(config.Leeway),
		jwt.WithTimeFunc(clk.Now),
	}
	if config.Issuer != "" {
		options = append(options, jwt.WithIssuer(config.Issuer))
	}
	if config.Audience != "" {
		options = append(options, jwt.WithAudience(config.Audience))
	}
	if config.RequireExpiration {
		options = append(options, jwt.WithExpirationRequired())
	}

	return &Verifier{
		provider:   config.Provider,
		algorithms: slices.Clone(algs),
		options:    options,
	}, nil
}

// Verify validates a JWT and returns the verified token with map claims
// Performs validation of:
// - Token format and structure
// - Signature using the key named by the "kid" header
// - Standard claims (exp, nbf, iat, and iss/aud when configured)
func (v *Verifier) Verify(ctx context.Context, raw string) (*VerifiedToken, error) {
	return v.VerifyWithClaims(ctx, raw, jwt.MapClaims{})
}

// VerifyWithClaims is like Verify but decodes the payload into claims,
// which is typically a pointer to a struct embedding jwt.RegisteredClaims
func (v *Verifier) VerifyWithClaims(ctx context.Context, raw string, claims jwt.Claims) (*VerifiedToken, error) {
	logger := klog.FromContext(ctx).WithName("token")

	parsed, err := jwt.ParseWithClaims(raw, claims, keyfunc(ctx, v.provider, v.algorithms), v.options...)
	if err != nil {
		err = classify(err)
		logger.V(2).Info("rejected token", "reason", err.Error())
		return nil, err
	}

	kid, _ := parsed.Header["kid"].(string)
	return &VerifiedToken{
		Raw:            raw,
		KeyID:          kid,
		Algorithm:      parsed.Method.Alg(),
		Claims:         parsed.Claims,
		StandardClaims: standardClaims(parsed.Claims),
	}, nil
}

// Keyfunc returns a jwt.Keyfunc resolving verification keys through provider.
// It can be passed directly to jwt.Parse for callers that drive golang-jwt themselves.
func Keyfunc(ctx context.Context, provider jwks.Provider) jwt.Keyfunc {
	return keyfunc(ctx, provider, DefaultAlgorithms)
}

func keyfunc(ctx context.Context, provider jwks.Provider, accepted []string) jwt.Keyfunc {
	return func(t *jwt.Token) (any, error) {
		alg := t.Method.Alg()
		if !slices.Contains(accepted, alg) {
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedAlgorithm, alg)
		}

		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, ErrMissingKID
		}

		key, err := provider.GetByID(ctx, kid)
		if err != nil {
			return nil, err
		}

		if key.Algorithm != "" && key.Algorithm != alg {
			return nil, fmt.Errorf("%w: token uses %s, key %s is for %s", ErrAlgorithmMismatch, alg, kid, key.Algorithm)
		}

		a, err := algorithms.Get(alg)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrUnsupportedAlgorithm, err)
		}
		if err := a.KeyCheck(key.PublicKey); err != nil {
			return nil, fmt.Errorf("%w: key %s: %w", ErrAlgorithmMismatch, kid, err)
		}

		return key.PublicKey, nil
	}
}

// classify maps golang-jwt errors onto the package sentinels.
// Errors raised while resolving the key already carry their own sentinel.
func classify(err error) error {
	switch {
	case errors.Is(err, ErrMissingKID),
		errors.Is(err, ErrUnsupportedAlgorithm),
		errors.Is(err, ErrAlgorithmMismatch),
		errors.Is(err, jwks.ErrKeyNotFound),
		errors.Is(err, jwks.ErrKeySourceUnavailable),
		errors.Is(err, jwks.ErrKeyLookupFailed):
		return err
	case errors.Is(err, jwt.ErrTokenMalformed):
		return fmt.Errorf("%w: %w", ErrInvalidToken, err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return fmt.Errorf("%w: %w", ErrInvalidSignature, err)
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %w", ErrTokenExpired, err)
	case errors.Is(err, jwt.ErrTokenNotValidYet):
		return fmt.Errorf("%w: %w", ErrTokenNotValidYet, err)
	case errors.Is(err, jwt.ErrTokenUsedBeforeIssued):
		return fmt.Errorf("%w: %w", ErrTokenUsedBeforeIssued, err)
	case errors.Is(err, jwt.ErrTokenInvalidClaims):
		return fmt.Errorf("%w: %w", ErrInvalidClaims, err)
	}
	return fmt.Errorf("%w: %w", ErrInvalidToken, err)
}
