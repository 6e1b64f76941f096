package jwksurl

import (
	"context"
	"crypto/ecdsa"
	"crypto/rsa"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/klog/v2"
	"k8s.io/klog/v2/ktesting"

	"github.com/alexadamm/jwks-cache-go/pkg/jwks"
)

const (
	rsaKeyA = `{
		"kty": "RSA",
		"use": "sig",
		"kid": "NkJCQzIyQzRBMEU4NjhGNUU4MzU4RkY0M0ZDQzkwOUQ0Q0VGNUMwQg",
		"alg": "RS256",
		"n": "vDdioGpDuAEQDd4WRXyWa4sZ5EeS9OPsRrU_jU3PbZdDcANxfh_WSeSvSBKGfGXGC3fIzu0Ernk9VjXcs3LeFdRq2N4nNRZvCzsd_MjBtn7CWgjM_Sk9DXEGn3cHHilcJUJQ4i2YgX9bHu0odNgE6cSVIUEMIC2EGuGk_I7lwroinAAwXpNLLQkV_25kv_QQof2i5f7AocY6QTd0SAo8ZUqFBzanupkeFpl3-Bsz6_zdt_N0x9k5XHQn42Q2oTupTwvXFbE1x8XtCpiaP3_fsQ9dN7t4z6HtwlNUJB2tFfF6PgdKZ9LuJpYjFPYzJQ6Rv28fuc8YHcF7Jittjyzmew",
		"e": "AQAB"
	}`

	rsaKeyB = `{
		"kty": "RSA",
		"use": "sig",
		"kid": "RUVBOTVEMEZBMTA5NDAzNEQzNTZGNzMyMTI4MzU1RkNFQzhCQTM0Mg",
		"alg": "RS256",
		"n": "4J0VE8FK1rSQUBGiLpk4MkPyFApCyCugOfkuH0hiHclxZay96JgyZylH97eqs-ZmWXtv42ynYctIj2ZleaoqVDfMOqZ1GsbccyNAYReDtUYgeUtJEajpfUo1vitoh6OEB6nB0Hau07ELLqcUoxH_zkH5Kwoi_BgxByJDQ1HOut6nyEPTXLTMrAYK_pqL_kzsU0OtrCgSBh6j-11ToqUfxsLupbadRC0t5zrq4-3mZKqxBUz4XB2g3b9d2lH7mOTl5J_E8jcD4tK9DePzjdbkRWonBEJetWl9f2mh_VD1sxJbie1kzM5cdQylXzV_AvhSr58w00qy6XR_QXI10UU16Q",
		"e": "AQAB"
	}`

	ecKey = `{
		"kty": "EC",
		"crv": "P-256",
		"kid": "ec-key-1",
		"x": "MKBCTNIcKUSDii11ySs3526iDZ8AiTo7Tu6KPAqv7D4",
		"y": "4Etl6SRW2YiLUrN5vfvVHuhp7x8PxltmWWlbbM4IFyM"
	}`

	noKidKey = `{
		"kty": "RSA",
		"alg": "RS256",
		"n": "vDdioGpDuAEQDd4WRXyWa4sZ5EeS9OPsRrU_jU3PbZdDcANxfh_WSeSvSBKGfGXGC3fIzu0Ernk9VjXcs3LeFdRq2N4nNRZvCzsd_MjBtn7CWgjM_Sk9DXEGn3cHHilcJUJQ4i2YgX9bHu0odNgE6cSVIUEMIC2EGuGk_I7lwroinAAwXpNLLQkV_25kv_QQof2i5f7AocY6QTd0SAo8ZUqFBzanupkeFpl3-Bsz6_zdt_N0x9k5XHQn42Q2oTupTwvXFbE1x8XtCpiaP3_fsQ9dN7t4z6HtwlNUJB2tFfF6PgdKZ9LuJpYjFPYzJQ6Rv28fuc8YHcF7Jittjyzmew",
		"e": "AQAB"
	}`
)

func keySet(keys ...string) string {
	body := `{"keys": [`
	for i, k := range keys {
		if i > 0 {
			body += ","
		}
		body += k
	}
	return body + `]}`
}

func testContext(t *testing.T) context.Context {
	t.Helper()
	logger := ktesting.NewLogger(t, ktesting.DefaultConfig)
	return klog.NewContext(t.Context(), logger)
}

// jwksServer serves whatever body is currently set
type jwksServer struct {
	mu       sync.Mutex
	status   int
	body     string
	requests int
}

func (s *jwksServer) set(status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = status
	s.body = body
}

func (s *jwksServer) Requests() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests
}

func mockJWKSServer(t *testing.T, status int, body string) (*jwksServer, *httptest.Server) {
	t.Helper()
	js := &jwksServer{status: status, body: body}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Accept"))

		js.mu.Lock()
		defer js.mu.Unlock()
		js.requests++

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(js.status)
		_, _ = w.Write([]byte(js.body))
	}))
	t.Cleanup(server.Close)

	return js, server
}

func newTestSource(t *testing.T, rawURL string) *Source {
	t.Helper()
	source, err := NewSource(Config{URL: rawURL})
	require.NoError(t, err)
	return source
}

func TestSource_FetchKeys(t *testing.T) {
	t.Run("successful fetch keeps document order", func(t *testing.T) {
		_, server := mockJWKSServer(t, http.StatusOK, keySet(rsaKeyA, ecKey, rsaKeyB))

		keys, err := newTestSource(t, server.URL).FetchKeys(testContext(t))
		require.NoError(t, err)
		require.Len(t, keys, 3)

		assert.Equal(t, "NkJCQzIyQzRBMEU4NjhGNUU4MzU4RkY0M0ZDQzkwOUQ0Q0VGNUMwQg", keys[0].ID)
		assert.Equal(t, "RS256", keys[0].Algorithm)
		assert.Equal(t, "RSA", keys[0].KeyType)
		assert.IsType(t, &rsa.PublicKey{}, keys[0].PublicKey)

		assert.Equal(t, "ec-key-1", keys[1].ID)
		assert.Equal(t, "EC", keys[1].KeyType)
		assert.Empty(t, keys[1].Algorithm)
		assert.IsType(t, &ecdsa.PublicKey{}, keys[1].PublicKey)

		assert.Equal(t, "RUVBOTVEMEZBMTA5NDAzNEQzNTZGNzMyMTI4MzU1RkNFQzhCQTM0Mg", keys[2].ID)
	})

	t.Run("skips keys without kid", func(t *testing.T) {
		_, server := mockJWKSServer(t, http.StatusOK, keySet(noKidKey, rsaKeyA))

		keys, err := newTestSource(t, server.URL).FetchKeys(testContext(t))
		require.NoError(t, err)
		require.Len(t, keys, 1)
		assert.Equal(t, "NkJCQzIyQzRBMEU4NjhGNUU4MzU4RkY0M0ZDQzkwOUQ0Q0VGNUMwQg", keys[0].ID)
	})

	t.Run("error when no key is usable", func(t *testing.T) {
		_, server := mockJWKSServer(t, http.StatusOK, keySet(noKidKey))

		_, err := newTestSource(t, server.URL).FetchKeys(testContext(t))
		require.ErrorIs(t, err, jwks.ErrKeyLookupFailed)
		assert.Contains(t, err.Error(), "missing kid")
	})

	t.Run("error on empty key set", func(t *testing.T) {
		_, server := mockJWKSServer(t, http.StatusOK, `{"keys": []}`)

		_, err := newTestSource(t, server.URL).FetchKeys(testContext(t))
		require.ErrorIs(t, err, jwks.ErrKeyLookupFailed)
		assert.Contains(t, err.Error(), "no usable keys")
	})

	t.Run("error on non-200 status", func(t *testing.T) {
		_, server := mockJWKSServer(t, http.StatusInternalServerError, "")

		_, err := newTestSource(t, server.URL).FetchKeys(testContext(t))
		require.ErrorIs(t, err, jwks.ErrKeyLookupFailed)
		assert.Contains(t, err.Error(), "unexpected status code 500")
	})

	t.Run("error on invalid JSON", func(t *testing.T) {
		_, server := mockJWKSServer(t, http.StatusOK, "invalid json")

		_, err := newTestSource(t, server.URL).FetchKeys(testContext(t))
		require.ErrorIs(t, err, jwks.ErrKeyLookupFailed)
		assert.Contains(t, err.Error(), "failed to parse JWKs response")
	})

	t.Run("context cancellation", func(t *testing.T) {
		_, server := mockJWKSServer(t, http.StatusOK, keySet(rsaKeyA))

		ctx, cancel := context.WithCancel(testContext(t))
		cancel()

		_, err := newTestSource(t, server.URL).FetchKeys(ctx)
		require.ErrorIs(t, err, jwks.ErrKeyLookupFailed)
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("sends configured headers", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") != "Bearer secret" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			_, _ = w.Write([]byte(keySet(rsaKeyA)))
		}))
		t.Cleanup(server.Close)

		source, err := NewSource(Config{
			URL:     server.URL,
			Headers: map[string]string{"Authorization": "Bearer secret"},
		})
		require.NoError(t, err)

		keys, err := source.FetchKeys(testContext(t))
		require.NoError(t, err)
		assert.Len(t, keys, 1)
	})
}

func TestSource_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jwks.json")
	require.NoError(t, os.WriteFile(path, []byte(keySet(rsaKeyA, rsaKeyB)), 0o600))

	keys, err := newTestSource(t, "file://"+path).FetchKeys(testContext(t))
	require.NoError(t, err)
	assert.Len(t, keys, 2)

	_, err = newTestSource(t, "file://"+filepath.Join(t.TempDir(), "missing.json")).FetchKeys(testContext(t))
	require.ErrorIs(t, err, jwks.ErrKeyLookupFailed)
}

func TestNewSource(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{name: "https", url: "https://example.com/.well-known/jwks.json"},
		{name: "http", url: "http://localhost:8080/jwks.json"},
		{name: "file", url: "file:///etc/jwks.json"},
		{name: "unsupported scheme", url: "mock://my-jwks.json", wantErr: true},
		{name: "invalid", url: "://bad", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			source, err := NewSource(Config{URL: tt.url})
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.url, source.URL())
		})
	}
}

func TestRevokedKeys(t *testing.T) {
	keyA := "NkJCQzIyQzRBMEU4NjhGNUU4MzU4RkY0M0ZDQzkwOUQ0Q0VGNUMwQg"
	keyB := "RUVBOTVEMEZBMTA5NDAzNEQzNTZGNzMyMTI4MzU1RkNFQzhCQTM0Mg"

	js, server := mockJWKSServer(t, http.StatusOK, keySet(rsaKeyA))
	provider, err := jwks.NewCachedProvider(jwks.Config{Source: newTestSource(t, server.URL)})
	require.NoError(t, err)
	ctx := testContext(t)

	a, err := provider.GetByID(ctx, keyA)
	require.NoError(t, err)
	assert.NotNil(t, a.PublicKey)

	js.set(http.StatusOK, keySet(rsaKeyB))

	b, err := provider.GetByID(ctx, keyB)
	require.NoError(t, err)
	assert.NotNil(t, b.PublicKey)

	_, err = provider.GetByID(ctx, keyA)
	require.ErrorIs(t, err, jwks.ErrKeyNotFound, "expected key %s to be revoked", keyA)
	assert.Equal(t, 3, js.Requests())
}
