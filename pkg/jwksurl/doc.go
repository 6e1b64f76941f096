// Package jwksurl provides a key source that reads a JSON Web Key Set (RFC 7517)
// from an HTTP(S) endpoint or a local file:// URL.
//
// Documents are parsed with github.com/lestrrat-go/jwx/v3/jwk. Keys without a kid
// and symmetric keys are skipped; the remaining keys keep their document order.
package jwksurl
