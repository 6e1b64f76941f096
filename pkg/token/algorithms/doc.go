/*
Package algorithms describes the JWS signing algorithms accepted for verification
and the keys each one requires.

The registry maps an algorithm name to its key family and, for HashiCorp Vault
Transit keys, to the key types that can back it.

Supported Algorithms:
- ECDSA
  - ES256 (P-256 + SHA-256)
  - ES384 (P-384 + SHA-384)
  - ES512 (P-521 + SHA-512)

- RSA PKCS1v15
  - RS256, RS384, RS512

- RSA-PSS
  - PS256, PS384, PS512

- EdDSA
  - EdDSA (Ed25519)

KeyCheck rejects keys of the wrong family or curve before a signature is checked.
*/
package algorithms
