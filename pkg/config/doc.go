// Package config loads key cache settings from the environment with
// github.com/ilyakaznacheev/cleanenv and assembles the provider stack:
// an authoritative source (JWKS URL or Vault Transit), a retry layer, and
// the TTL cache on top.
package config
