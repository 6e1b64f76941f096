package jwksurl

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"k8s.io/klog/v2"

	"github.com/alexadamm/jwks-cache-go/pkg/jwks"
)

const (
	// DefaultTimeout bounds a single HTTP fetch when Config.Timeout is zero
	DefaultTimeout = 10 * time.Second

	// maxBodySize caps how much of a key set document is read
	maxBodySize = 1 << 20
)

// Compile-time check that Source implements jwks.KeySource
var _ jwks.KeySource = (*Source)(nil)

// Config holds configuration for a JWKS URL source
type Config struct {
	// URL of the key set, either http(s):// or file://
	URL string

	// HTTPClient is used for http(s) URLs. Defaults to a client with Timeout.
	HTTPClient *http.Client

	// Timeout for a single fetch. Defaults to DefaultTimeout.
	Timeout time.Duration

	// Headers are added to every HTTP request
	Headers map[string]string
}

// Source fetches a key set from a URL
type Source struct {
	url        *url.URL
	httpClient *http.Client
	headers    map[string]string
}

// NewSource creates a new JWKS URL source
func NewSource(config Config) (*Source, error) {
	u, err := url.Parse(config.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid JWKS URL %q: %w", config.URL, err)
	}

	switch u.Scheme {
	case "http", "https", "file":
	default:
		return nil, fmt.Errorf("unsupported JWKS URL scheme %q", u.Scheme)
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		timeout := config.Timeout
		if timeout == 0 {
			timeout = DefaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Source{
		url:        u,
		httpClient: httpClient,
		headers:    config.Headers,
	}, nil
}

// URL returns the key set location
func (s *Source) URL() string {
	return s.url.String()
}

// FetchKeys downloads and parses the key set
func (s *Source) FetchKeys(ctx context.Context) ([]jwks.Key, error) {
	logger := klog.FromContext(ctx).WithName("jwksurl")

	var (
		body []byte
		err  error
	)
	if s.url.Scheme == "file" {
		body, err = os.ReadFile(s.url.Path)
	} else {
		body, err = s.get(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", jwks.ErrKeyLookupFailed, err)
	}

	keys, err := ParseKeys(ctx, body)
	if err != nil {
		return nil, fmt.Errorf("%w (from %s)", err, s.url.Redacted())
	}

	logger.V(2).Info("fetched key set", "url", s.url.Redacted(), "keys", len(keys))
	return keys, nil
}

func (s *Source) get(ctx context.Context) ([]byte, error) {
	endpoint := s.url.String()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	for k, v := range s.headers {
		req.Header.Set(k, v)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch keys from %s: %w", s.url.Redacted(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("unexpected status code %d from %s: %s", resp.StatusCode, s.url.Redacted(), string(body))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return body, nil
}

// ParseKeys converts a JWKS document into keys, preserving document order.
// Keys that cannot be used are skipped; if none remain the reasons are
// reported together with jwks.ErrKeyLookupFailed.
func ParseKeys(ctx context.Context, data []byte) ([]jwks.Key, error) {
	logger := klog.FromContext(ctx).WithName("jwksurl")

	keySet, err := jwk.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse JWKs response: %w", jwks.ErrKeyLookupFailed, err)
	}

	var skipped *multierror.Error
	keys := make([]jwks.Key, 0, keySet.Len())
	for i := range keySet.Len() {
		key, ok := keySet.Key(i)
		if !ok {
			continue
		}

		kid, ok := key.KeyID()
		if !ok || kid == "" {
			skipped = multierror.Append(skipped, fmt.Errorf("key %d: missing kid", i))
			continue
		}

		keyType := key.KeyType().String()
		if keyType == "oct" {
			skipped = multierror.Append(skipped, fmt.Errorf("key %q: symmetric keys are not published", kid))
			continue
		}

		pub, err := jwk.PublicKeyOf(key)
		if err != nil {
			skipped = multierror.Append(skipped, fmt.Errorf("key %q: %w", kid, err))
			continue
		}

		var raw any
		if err := jwk.Export(pub, &raw); err != nil {
			skipped = multierror.Append(skipped, fmt.Errorf("key %q: %w", kid, err))
			continue
		}

		var alg string
		if a, ok := key.Algorithm(); ok {
			alg = a.String()
		}

		keys = append(keys, jwks.Key{
			ID:        kid,
			Algorithm: alg,
			KeyType:   keyType,
			PublicKey: raw,
		})
	}

	if err := skipped.ErrorOrNil(); err != nil {
		logger.V(1).Info("skipped unusable keys", "reason", err.Error())
	}

	if len(keys) == 0 {
		if err := skipped.ErrorOrNil(); err != nil {
			return nil, fmt.Errorf("%w: no usable keys in key set: %w", jwks.ErrKeyLookupFailed, err)
		}
		return nil, fmt.Errorf("%w: no usable keys in key set", jwks.ErrKeyLookupFailed)
	}

	return keys, nil
}
