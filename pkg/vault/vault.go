package vault

import (
	"cmp"
	"context"
	"crypto/ed25519"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"slices"
	"strconv"

	"github.com/hashicorp/vault/api"
	"k8s.io/klog/v2"

	"github.com/alexadamm/jwks-cache-go/pkg/jwks"
	"github.com/alexadamm/jwks-cache-go/pkg/token/algorithms"
)

// Compile-time check that Client implements jwks.KeySource
var _ jwks.KeySource = (*Client)(nil)

// Client reads the public key versions of a HashiCorp Vault Transit key
type Client struct {
	client      *api.Client
	transitPath string
	algorithm   string
}

// Config holds configuration for the Vault client
type Config struct {
	// Address is the Vault server address
	Address string

	// Token is the authentication token
	Token string

	// TransitPath is the name of the transit engine key
	TransitPath string

	// Algorithm overrides the JWA algorithm derived from the Transit key type.
	// Useful for RSA keys, which can back RS* or PS* signatures.
	Algorithm string
}

// NewClient creates a new Vault client
func NewClient(config Config) (*Client, error) {
	if config.TransitPath == "" {
		return nil, fmt.Errorf("transit key path is required")
	}
	if config.Algorithm != "" {
		if _, err := algorithms.Get(config.Algorithm); err != nil {
			return nil, err
		}
	}

	vaultConfig := api.DefaultConfig()
	vaultConfig.Address = config.Address

	client, err := api.NewClient(vaultConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create vault client: %w", err)
	}

	client.SetToken(config.Token)

	return &Client{
		client:      client,
		transitPath: config.TransitPath,
		algorithm:   config.Algorithm,
	}, nil
}

// KeyID returns the kid used for a version of the transit key
func (c *Client) KeyID(version int64) string {
	return fmt.Sprintf("%s:%d", c.transitPath, version)
}

func (c *Client) readKey(ctx context.Context) (*api.Secret, error) {
	path := fmt.Sprintf("transit/keys/%s", c.transitPath)
	secret, err := c.client.Logical().ReadWithContext(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read key info: %w", jwks.ErrKeyLookupFailed, err)
	}

	if secret == nil || secret.Data == nil {
		return nil, fmt.Errorf("%w: key not found at path: %s", jwks.ErrKeyLookupFailed, c.transitPath)
	}

	return secret, nil
}

// GetCurrentKeyVersion retrieves the current version of the transit key
func (c *Client) GetCurrentKeyVersion(ctx context.Context) (int64, error) {
	secret, err := c.readKey(ctx)
	if err != nil {
		return 0, err
	}

	latestVersion, ok := secret.Data["latest_version"].(json.Number)
	if !ok {
		return 0, fmt.Errorf("invalid version format")
	}

	version, err := latestVersion.Int64()
	if err != nil {
		return 0, fmt.Errorf("failed to parse version: %w", err)
	}

	return version, nil
}

// FetchKeys returns every public key version of the transit key, oldest first
func (c *Client) FetchKeys(ctx context.Context) ([]jwks.Key, error) {
	logger := klog.FromContext(ctx).WithName("vault")

	secret, err := c.readKey(ctx)
	if err != nil {
		return nil, err
	}

	keyType, _ := secret.Data["type"].(string)
	defaultAlg, err := algorithms.ForVaultKeyType(keyType)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", jwks.ErrKeyLookupFailed, err)
	}
	alg := c.algorithm
	if alg == "" {
		alg = defaultAlg.Name()
	}

	versions, ok := secret.Data["keys"].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("%w: invalid key data format", jwks.ErrKeyLookupFailed)
	}

	type versioned struct {
		version int64
		key     jwks.Key
	}

	found := make([]versioned, 0, len(versions))
	for v, data := range versions {
		version, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			logger.V(2).Info("skipping key with invalid version", "version", v)
			continue
		}

		keyData, ok := data.(map[string]interface{})
		if !ok {
			// symmetric keys only expose creation times
			continue
		}

		encoded, ok := keyData["public_key"].(string)
		if !ok || encoded == "" {
			continue
		}

		pub, err := parsePublicKey(encoded, keyType)
		if err != nil {
			logger.Error(err, "skipping unparseable public key", "version", version)
			continue
		}

		found = append(found, versioned{
			version: version,
			key: jwks.Key{
				ID:        c.KeyID(version),
				Algorithm: alg,
				KeyType:   defaultAlg.KeyType().JWK(),
				PublicKey: pub,
			},
		})
	}

	if len(found) == 0 {
		return nil, fmt.Errorf("%w: no public keys found for %s", jwks.ErrKeyLookupFailed, c.transitPath)
	}

	slices.SortFunc(found, func(a, b versioned) int {
		return cmp.Compare(a.version, b.version)
	})

	keys := make([]jwks.Key, len(found))
	for i, f := range found {
		keys[i] = f.key
	}

	logger.V(2).Info("fetched transit public keys", "key", c.transitPath, "versions", len(keys))
	return keys, nil
}

// RotateKey triggers a key rotation in the transit engine and returns the new version
func (c *Client) RotateKey(ctx context.Context) (int64, error) {
	path := fmt.Sprintf("transit/keys/%s/rotate", c.transitPath)

	_, err := c.client.Logical().WriteWithContext(ctx, path, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to rotate key: %w", err)
	}

	return c.GetCurrentKeyVersion(ctx)
}

func parsePublicKey(encoded, keyType string) (interface{}, error) {
	block, _ := pem.Decode([]byte(encoded))
	if block != nil {
		pub, err := x509.ParsePKIXPublicKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("failed to parse public key: %w", err)
		}
		return pub, nil
	}

	// ed25519 keys are returned as base64 instead of PEM
	if keyType == "ed25519" {
		raw, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return nil, fmt.Errorf("failed to decode ed25519 public key: %w", err)
		}
		if len(raw) != ed25519.PublicKeySize {
			return nil, fmt.Errorf("invalid ed25519 public key size %d", len(raw))
		}
		return ed25519.PublicKey(raw), nil
	}

	return nil, fmt.Errorf("failed to decode PEM block")
}
