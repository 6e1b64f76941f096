package token

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/alexadamm/jwks-cache-go/pkg/jwks"
)

type contextKey struct{}

// FromContext returns the token stored by Middleware
func FromContext(ctx context.Context) (*VerifiedToken, bool) {
	verified, ok := ctx.Value(contextKey{}).(*VerifiedToken)
	return verified, ok
}

// NewContext returns a copy of ctx carrying verified
func NewContext(ctx context.Context, verified *VerifiedToken) context.Context {
	return context.WithValue(ctx, contextKey{}, verified)
}

// Middleware verifies the bearer token of every request before calling next.
// Rejected tokens get 401; failures to obtain keys get 503.
func Middleware(v *Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(r)
			if !ok {
				w.Header().Set("WWW-Authenticate", "Bearer")
				http.Error(w, "authorization header required", http.StatusUnauthorized)
				return
			}

			verified, err := v.Verify(r.Context(), raw)
			if err != nil {
				if errors.Is(err, jwks.ErrKeySourceUnavailable) || errors.Is(err, jwks.ErrKeyLookupFailed) {
					http.Error(w, "signing keys unavailable", http.StatusServiceUnavailable)
					return
				}
				w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(NewContext(r.Context(), verified)))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	scheme, raw, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	raw = strings.TrimSpace(raw)
	return raw, raw != ""
}
