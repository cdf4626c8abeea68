// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package jwt

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-jose/go-jose/v4"
	"github.com/lernkit/idp/oidc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolver_Fetch(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	tp := oidc.StartTestProvider(t)

	rsaPriv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	tp.AddJWKs(oidc.TestPublicJWK(rsaPriv.Public(), jose.RS256, "rsa-key"))

	tests := []struct {
		name      string
		url       string
		opt       []Option
		wantLen   int
		wantErr   bool
		wantIsErr error
	}{
		{
			name:    "valid",
			url:     tp.JWKSURL(),
			opt:     []Option{WithProviderCA(tp.CACert())},
			wantLen: 2,
		},
		{
			name:    "valid-with-client",
			url:     tp.JWKSURL(),
			opt:     []Option{WithHTTPClient(tp.HTTPClient())},
			wantLen: 2,
		},
		{
			name:      "empty-url",
			url:       "",
			opt:       []Option{WithProviderCA(tp.CACert())},
			wantErr:   true,
			wantIsErr: ErrKeySetUnavailable,
		},
		{
			name:      "not-found",
			url:       tp.Addr() + "/auth/keys_missing",
			opt:       []Option{WithProviderCA(tp.CACert())},
			wantErr:   true,
			wantIsErr: ErrKeySetUnavailable,
		},
		{
			name:      "not-a-keyset",
			url:       tp.Addr() + "/auth/keys_invalid",
			opt:       []Option{WithProviderCA(tp.CACert())},
			wantErr:   true,
			wantIsErr: ErrKeySetUnavailable,
		},
		{
			name:      "untrusted-tls",
			url:       tp.JWKSURL(),
			wantErr:   true,
			wantIsErr: ErrKeySetUnavailable,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert, require := assert.New(t), require.New(t)
			r, err := NewResolver(tt.opt...)
			require.NoError(err)
			got, err := r.Fetch(ctx, tt.url)
			if tt.wantErr {
				require.Error(err)
				assert.Truef(errors.Is(err, tt.wantIsErr), "wanted \"%s\" but got \"%s\"", tt.wantIsErr, err)
				return
			}
			require.NoError(err)
			assert.Equal(tt.wantLen, got.Len())
			_, ok := got.Lookup(oidc.TestKeyID, ES256)
			assert.True(ok)
			_, ok = got.Lookup("rsa-key", RS256)
			assert.True(ok)
		})
	}

	t.Run("fresh-fetch-every-call", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		tp := oidc.StartTestProvider(t)
		r, err := NewResolver(WithHTTPClient(tp.HTTPClient()))
		require.NoError(err)
		for i := 0; i < 3; i++ {
			_, err := r.Fetch(ctx, tp.JWKSURL())
			require.NoError(err)
		}
		assert.Equal(3, tp.JWKSRequests())
	})

	t.Run("timeout", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(200 * time.Millisecond)
			_, _ = w.Write([]byte(`{"keys":[]}`))
		}))
		t.Cleanup(srv.Close)
		r, err := NewResolver(WithTimeout(20 * time.Millisecond))
		require.NoError(err)
		_, err = r.Fetch(ctx, srv.URL)
		require.Error(err)
		assert.True(errors.Is(err, ErrKeySetUnavailable))
	})

	t.Run("bad-ca", func(t *testing.T) {
		_, err := NewResolver(WithProviderCA("not a pem"))
		require.Error(t, err)
	})
}

func TestParseKeySet(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		doc     string
		wantLen int
		wantErr bool
	}{
		{
			name:    "skips-unparsable-keys",
			doc:     `{"keys":[{"kty":"EC","crv":"P-256","kid":"k1","x":"f83OJ3D2xF1Bg8vub9tLe1gHMzV76e8Tus9uPHvRVEU","y":"x_FEzRu9m36HLN_tue659LNpXW6pCyStikYjKIWI5a0"},{"kty":"bogus"}]}`,
			wantLen: 1,
		},
		{
			name:    "skips-encryption-keys",
			doc:     `{"keys":[{"kty":"EC","use":"enc","crv":"P-256","kid":"k1","x":"f83OJ3D2xF1Bg8vub9tLe1gHMzV76e8Tus9uPHvRVEU","y":"x_FEzRu9m36HLN_tue659LNpXW6pCyStikYjKIWI5a0"}]}`,
			wantLen: 0,
		},
		{
			name:    "empty-keys",
			doc:     `{"keys":[]}`,
			wantLen: 0,
		},
		{
			name:    "missing-keys",
			doc:     `{"kid":"k1"}`,
			wantErr: true,
		},
		{
			name:    "not-json",
			doc:     `nope`,
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert, require := assert.New(t), require.New(t)
			got, err := ParseKeySet([]byte(tt.doc))
			if tt.wantErr {
				require.Error(err)
				assert.True(errors.Is(err, ErrKeySetUnavailable))
				return
			}
			require.NoError(err)
			assert.Equal(tt.wantLen, got.Len())
		})
	}
}

type countingFetcher struct {
	calls int32
	err   error
	ks    *KeySet
}

func (f *countingFetcher) Fetch(_ context.Context, _ string) (*KeySet, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.err != nil {
		return nil, f.err
	}
	return f.ks, nil
}

func TestCachingResolver_Fetch(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	t.Run("caches-success", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		next := &countingFetcher{ks: NewKeySet()}
		c := NewCachingResolver(next, time.Minute)
		for i := 0; i < 3; i++ {
			got, err := c.Fetch(ctx, "https://appleid.apple.com/auth/keys")
			require.NoError(err)
			assert.Same(next.ks, got)
		}
		assert.Equal(int32(1), atomic.LoadInt32(&next.calls))

		c.Invalidate("https://appleid.apple.com/auth/keys")
		_, err := c.Fetch(ctx, "https://appleid.apple.com/auth/keys")
		require.NoError(err)
		assert.Equal(int32(2), atomic.LoadInt32(&next.calls))
	})
	t.Run("never-caches-errors", func(t *testing.T) {
		assert := assert.New(t)
		next := &countingFetcher{err: ErrKeySetUnavailable}
		c := NewCachingResolver(next, 0)
		for i := 0; i < 2; i++ {
			_, err := c.Fetch(ctx, "https://appleid.apple.com/auth/keys")
			assert.True(errors.Is(err, ErrKeySetUnavailable))
		}
		assert.Equal(int32(2), atomic.LoadInt32(&next.calls))
	})
	t.Run("expires", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		next := &countingFetcher{ks: NewKeySet()}
		c := NewCachingResolver(next, 10*time.Millisecond)
		_, err := c.Fetch(ctx, "u")
		require.NoError(err)
		time.Sleep(30 * time.Millisecond)
		_, err = c.Fetch(ctx, "u")
		require.NoError(err)
		assert.Equal(int32(2), atomic.LoadInt32(&next.calls))
	})
}
