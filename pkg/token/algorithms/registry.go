package algorithms

import (
	"fmt"
	"slices"
	"strings"
)

var rsaVaultTypes = []string{"rsa-2048", "rsa-3072", "rsa-4096"}

var algorithms = map[string]Algorithm{
	"ES256": {name: "ES256", keyType: KeyTypeECDSA, curve: "P-256", vaultTypes: []string{"ecdsa-p256"}},
	"ES384": {name: "ES384", keyType: KeyTypeECDSA, curve: "P-384", vaultTypes: []string{"ecdsa-p384"}},
	"ES512": {name: "ES512", keyType: KeyTypeECDSA, curve: "P-521", vaultTypes: []string{"ecdsa-p521"}},
	"RS256": {name: "RS256", keyType: KeyTypeRSA, vaultTypes: rsaVaultTypes},
	"RS384": {name: "RS384", keyType: KeyTypeRSA, vaultTypes: rsaVaultTypes},
	"RS512": {name: "RS512", keyType: KeyTypeRSA, vaultTypes: rsaVaultTypes},
	"PS256": {name: "PS256", keyType: KeyTypeRSA, vaultTypes: rsaVaultTypes},
	"PS384": {name: "PS384", keyType: KeyTypeRSA, vaultTypes: rsaVaultTypes},
	"PS512": {name: "PS512", keyType: KeyTypeRSA, vaultTypes: rsaVaultTypes},
	"EdDSA": {name: "EdDSA", keyType: KeyTypeEdDSA, vaultTypes: []string{"ed25519"}},
}

// defaults maps a Vault Transit key type to the algorithm assumed when none is configured
var defaults = map[string]string{
	"ecdsa-p256": "ES256",
	"ecdsa-p384": "ES384",
	"ecdsa-p521": "ES512",
	"rsa-2048":   "RS256",
	"rsa-3072":   "RS256",
	"rsa-4096":   "RS256",
	"ed25519":    "EdDSA",
}

// Get retrieves an algorithm from the registry by name
// Returns ErrUnsupportedAlgorithm if algorithm not found
func Get(name string) (Algorithm, error) {
	alg, exists := algorithms[name]
	if !exists {
		return Algorithm{}, fmt.Errorf("%w: %s", ErrUnsupportedAlgorithm, name)
	}
	return alg, nil
}

// List returns all registered algorithm names, sorted
func List() []string {
	names := make([]string, 0, len(algorithms))
	for name := range algorithms {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// ForVaultKeyType returns the default algorithm for a Vault Transit key type
func ForVaultKeyType(keyType string) (Algorithm, error) {
	name, ok := defaults[strings.ToLower(keyType)]
	if !ok {
		return Algorithm{}, fmt.Errorf("%w: no algorithm for vault key type %q", ErrUnsupportedAlgorithm, keyType)
	}
	return algorithms[name], nil
}
