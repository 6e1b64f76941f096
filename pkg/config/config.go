package config

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"k8s.io/klog/v2"

	"github.com/alexadamm/jwks-cache-go/pkg/jwks"
	"github.com/alexadamm/jwks-cache-go/pkg/jwksurl"
	"github.com/alexadamm/jwks-cache-go/pkg/retry"
	"github.com/alexadamm/jwks-cache-go/pkg/vault"
)

// ErrNoSource is returned when neither a JWKS URL nor a Vault transit key is configured
var ErrNoSource = errors.New("no key source configured")

// Config is the environment configuration of a key cache
type Config struct {
	// HTTP(S) or file JWKS source
	JWKSURL     string        `env:"JWKS_URL" env-description:"URL of a JSON Web Key Set (http, https or file)"`
	HTTPTimeout time.Duration `env:"JWKS_HTTP_TIMEOUT" env-default:"10s" env-description:"timeout of a single JWKS request"`

	// Vault Transit source
	VaultAddr       string `env:"VAULT_ADDR" env-default:"http://127.0.0.1:8200" env-description:"Vault server address"`
	VaultToken      string `env:"VAULT_TOKEN" env-description:"Vault token"`
	VaultTransitKey string `env:"VAULT_TRANSIT_KEY" env-description:"name of the Vault Transit key"`
	VaultAlgorithm  string `env:"VAULT_ALGORITHM" env-description:"JWA algorithm override for Transit keys"`

	// Cache
	CacheTTL        time.Duration `env:"JWKS_CACHE_TTL" env-default:"10h" env-description:"how long a fetched key set is used"`
	LockWaitTimeout time.Duration `env:"JWKS_LOCK_WAIT_TIMEOUT" env-default:"2s" env-description:"how long a caller waits for a refresh in progress"`

	// Retry
	RetryMaxAttempts int           `env:"JWKS_RETRY_MAX_ATTEMPTS" env-default:"3" env-description:"fetch attempts per refresh"`
	RetryInterval    time.Duration `env:"JWKS_RETRY_INTERVAL" env-default:"200ms" env-description:"initial wait between attempts"`
	RetryMaxElapsed  time.Duration `env:"JWKS_RETRY_MAX_ELAPSED" env-default:"5s" env-description:"upper bound for all attempts of one refresh"`
}

// ReadEnv reads the configuration from the environment without validating it,
// so callers can apply overrides first
func ReadEnv() (Config, error) {
	var config Config
	if err := cleanenv.ReadEnv(&config); err != nil {
		return Config{}, fmt.Errorf("%w: %w", jwks.ErrInvalidConfig, err)
	}
	return config, nil
}

// Load reads the configuration from the environment and validates it
func Load() (Config, error) {
	config, err := ReadEnv()
	if err != nil {
		return Config{}, err
	}
	if err := config.Validate(); err != nil {
		return Config{}, err
	}
	return config, nil
}

// Usage describes the environment variables understood by Load
func Usage() string {
	header := "Environment variables:"
	text, err := cleanenv.GetDescription(&Config{}, &header)
	if err != nil {
		return header
	}
	return text
}

// Validate checks that exactly one key source is configured and all durations are usable
func (c Config) Validate() error {
	switch {
	case c.JWKSURL == "" && c.VaultTransitKey == "":
		return fmt.Errorf("%w: set JWKS_URL or VAULT_TRANSIT_KEY", ErrNoSource)
	case c.JWKSURL != "" && c.VaultTransitKey != "":
		return fmt.Errorf("%w: JWKS_URL and VAULT_TRANSIT_KEY are mutually exclusive", jwks.ErrInvalidConfig)
	}

	if c.CacheTTL < 0 || c.LockWaitTimeout < 0 || c.HTTPTimeout < 0 {
		return fmt.Errorf("%w: durations must not be negative", jwks.ErrInvalidConfig)
	}
	if c.RetryMaxAttempts < 0 || c.RetryInterval < 0 || c.RetryMaxElapsed < 0 {
		return fmt.Errorf("%w: retry settings must not be negative", jwks.ErrInvalidConfig)
	}

	return nil
}

// Source builds the configured authoritative key source, without retry or caching
func (c Config) Source() (jwks.KeySource, error) {
	if c.VaultTransitKey != "" {
		client, err := vault.NewClient(vault.Config{
			Address:     c.VaultAddr,
			Token:       c.VaultToken,
			TransitPath: c.VaultTransitKey,
			Algorithm:   c.VaultAlgorithm,
		})
		if err != nil {
			return nil, err
		}
		return client, nil
	}

	source, err := jwksurl.NewSource(jwksurl.Config{
		URL:     c.JWKSURL,
		Timeout: c.HTTPTimeout,
	})
	if err != nil {
		return nil, err
	}
	return source, nil
}

// NewProvider composes source, retry and cache into a ready provider
func (c Config) NewProvider(ctx context.Context) (*jwks.CachedProvider, error) {
	logger := klog.FromContext(ctx).WithName("config")

	if err := c.Validate(); err != nil {
		return nil, err
	}

	base, err := c.Source()
	if err != nil {
		return nil, fmt.Errorf("failed to create key source: %w", err)
	}

	retrying, err := retry.NewSource(base, retry.Config{
		MaxAttempts:    c.RetryMaxAttempts,
		RetryInterval:  c.RetryInterval,
		MaxElapsedTime: c.RetryMaxElapsed,
	})
	if err != nil {
		return nil, err
	}

	provider, err := jwks.NewCachedProvider(jwks.Config{
		Source:          retrying,
		TTL:             c.CacheTTL,
		LockWaitTimeout: c.LockWaitTimeout,
	})
	if err != nil {
		return nil, err
	}

	logger.V(1).Info("key provider ready", "source", c.describeSource(), "ttl", c.CacheTTL, "lockWaitTimeout", c.LockWaitTimeout)
	return provider, nil
}

func (c Config) describeSource() string {
	if c.VaultTransitKey != "" {
		return "vault:" + c.VaultTransitKey
	}
	return c.JWKSURL
}
