package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"k8s.io/utils/clock"

	"github.com/alexadamm/jwks-cache-go/pkg/jwks"
)

// DefaultAlgorithms are accepted when Config.Algorithms is empty
var DefaultAlgorithms = []string{
	"ES256", "ES384", "ES512",
	"RS256", "RS384", "RS512",
	"PS256", "PS384", "PS512",
	"EdDSA",
}

// Config holds the configuration for a Verifier
type Config struct {
	// Provider resolves the verification key by the token's "kid" header. Required.
	Provider jwks.Provider

	// Algorithms lists the accepted "alg" header values.
	// Defaults to DefaultAlgorithms if empty.
	Algorithms []string

	// Issuer, if set, must match the "iss" claim
	Issuer string

	// Audience, if set, must be contained in the "aud" claim
	Audience string

	// Leeway is the clock skew tolerated for exp, nbf and iat
	Leeway time.Duration

	// RequireExpiration rejects tokens without an "exp" claim
	RequireExpiration bool

	// Clock supplies the current time for claim validation.
	// Defaults to the real clock.
	Clock clock.PassiveClock
}

// VerifiedToken represents a verified JWT token
type VerifiedToken struct {
	// Raw is the original token string
	Raw string

	// KeyID is the "kid" of the key that verified the signature
	KeyID string

	// Algorithm is the token's "alg" header
	Algorithm string

	// Claims holds the parsed claims
	Claims jwt.Claims

	// StandardClaims holds the registered JWT claims
	StandardClaims *StandardClaims
}

// StandardClaims represents the standard JWT claims
type StandardClaims struct {
	// Issuer identifies the principal that issued the JWT
	Issuer string `json:"iss,omitempty"`

	// Subject identifies the principal that is the subject of the JWT
	Subject string `json:"sub,omitempty"`

	// Audience identifies the recipients that the JWT is intended for
	Audience []string `json:"aud,omitempty"`

	// ExpiresAt identifies the expiration time on or after which the JWT must not be accepted
	ExpiresAt int64 `json:"exp,omitempty"`

	// NotBefore identifies the time before which the JWT must not be accepted
	NotBefore int64 `json:"nbf,omitempty"`

	// IssuedAt identifies the time at which the JWT was issued
	IssuedAt int64 `json:"iat,omitempty"`
}

// standardClaims copies the registered claims out of an already validated claim set
func standardClaims(claims jwt.Claims) *StandardClaims {
	sc := &StandardClaims{}
	sc.Issuer, _ = claims.GetIssuer()
	sc.Subject, _ = claims.GetSubject()
	if aud, err := claims.GetAudience(); err == nil {
		sc.Audience = aud
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		sc.ExpiresAt = exp.Unix()
	}
	if nbf, err := claims.GetNotBefore(); err == nil && nbf != nil {
		sc.NotBefore = nbf.Unix()
	}
	if iat, err := claims.GetIssuedAt(); err == nil && iat != nil {
		sc.IssuedAt = iat.Unix()
	}
	return sc
}
