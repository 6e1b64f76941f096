/*
Package vault provides a key source backed by HashiCorp Vault's Transit engine.

Every version of an asymmetric transit key is exposed as a jwks.Key whose kid is
"<transit key name>:<version>", ordered from oldest to newest. Wrapping the client
in a jwks.CachedProvider avoids a Vault round-trip per token verification while
still picking up new versions after RotateKey.

Supported Key Types:
- ECDSA: P-256, P-384, P-521
- RSA: 2048, 3072, 4096 bits
- Ed25519

Key Operations:
- Public key retrieval for all versions
- Key rotation
- Key version lookup
*/
package vault
