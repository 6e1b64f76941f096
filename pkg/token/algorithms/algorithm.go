package algorithms

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rsa"
	"errors"
	"fmt"
)

var (
	ErrUnsupportedAlgorithm = errors.New("unsupported algorithm")
	ErrInvalidKeyType       = errors.New("invalid key type")
)

// KeyType represents supported key families
type KeyType int

const (
	KeyTypeECDSA KeyType = iota
	KeyTypeRSA
	KeyTypeEdDSA
)

// JWK returns the JWK "kty" value of the key family
func (k KeyType) JWK() string {
	switch k {
	case KeyTypeECDSA:
		return "EC"
	case KeyTypeRSA:
		return "RSA"
	case KeyTypeEdDSA:
		return "OKP"
	}
	return ""
}

// Algorithm describes a JWS signing algorithm and the keys it accepts
type Algorithm struct {
	name    string
	keyType KeyType
	curve   string // ECDSA only

	// vaultTypes are the Transit key types able to produce this algorithm
	vaultTypes []string
}

// Name returns the algorithm name (e.g., "ES256", "RS256")
func (a Algorithm) Name() string {
	return a.name
}

// KeyType returns the key family the algorithm requires
func (a Algorithm) KeyType() KeyType {
	return a.keyType
}

// VaultKeyTypes returns the Vault Transit key types that can back the algorithm
func (a Algorithm) VaultKeyTypes() []string {
	return append([]string(nil), a.vaultTypes...)
}

// KeyCheck validates that key can verify signatures of this algorithm
func (a Algorithm) KeyCheck(key any) error {
	switch a.keyType {
	case KeyTypeECDSA:
		ecKey, ok := key.(*ecdsa.PublicKey)
		if !ok {
			return fmt.Errorf("%w: %s expects ECDSA, got %T", ErrInvalidKeyType, a.name, key)
		}
		if ecKey.Curve == nil || ecKey.Curve.Params().Name != a.curve {
			return fmt.Errorf("%w: %s expects curve %s", ErrInvalidKeyType, a.name, a.curve)
		}
	case KeyTypeRSA:
		if _, ok := key.(*rsa.PublicKey); !ok {
			return fmt.Errorf("%w: %s expects RSA, got %T", ErrInvalidKeyType, a.name, key)
		}
	case KeyTypeEdDSA:
		if _, ok := key.(ed25519.PublicKey); !ok {
			return fmt.Errorf("%w: %s expects Ed25519, got %T", ErrInvalidKeyType, a.name, key)
		}
	}
	return nil
}
