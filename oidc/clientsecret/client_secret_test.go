// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package clientsecret

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"errors"
	"testing"
	"time"

	"github.com/go-jose/go-jose/v4"
	"github.com/go-jose/go-jose/v4/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKey(t *testing.T, curve elliptic.Curve) *ecdsa.PrivateKey {
	t.Helper()
	k, err := ecdsa.GenerateKey(curve, rand.Reader)
	require.NoError(t, err)
	return k
}

// TestSecretBare tests what errors we expect if &Secret{} is instantiated
// directly, rather than using the constructor New().
func TestSecretBare(t *testing.T) {
	s := &Secret{}
	tokenStr, err := s.Serialize()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingFuncNow))
	assert.Equal(t, "", tokenStr)
}

func TestNew(t *testing.T) {
	t.Parallel()
	p256 := testKey(t, elliptic.P256())
	p384 := testKey(t, elliptic.P384())

	tests := []struct {
		name      string
		teamID    string
		clientID  string
		keyID     string
		key       *ecdsa.PrivateKey
		opts      []Option
		wantErrIs []error
	}{
		{
			name:     "valid",
			teamID:   "TEAM123456",
			clientID: "com.example.lms",
			keyID:    "KEY1234567",
			key:      p256,
		},
		{
			name:     "valid-with-options",
			teamID:   "TEAM123456",
			clientID: "com.example.lms",
			keyID:    "KEY1234567",
			key:      p256,
			opts:     []Option{WithLifetime(time.Hour), WithAudience("https://example.com"), WithNow(time.Now)},
		},
		{
			name:      "everything-missing",
			wantErrIs: []error{ErrMissingTeamID, ErrMissingClientID, ErrMissingKeyID, ErrNilPrivateKey},
		},
		{
			name:      "wrong-curve",
			teamID:    "TEAM123456",
			clientID:  "com.example.lms",
			keyID:     "KEY1234567",
			key:       p384,
			wantErrIs: []error{ErrUnsupportedKey},
		},
		{
			name:      "lifetime-too-long",
			teamID:    "TEAM123456",
			clientID:  "com.example.lms",
			keyID:     "KEY1234567",
			key:       p256,
			opts:      []Option{WithLifetime(MaxLifetime + time.Second)},
			wantErrIs: []error{ErrInvalidLifetime},
		},
		{
			name:      "zero-lifetime-and-empty-audience",
			teamID:    "TEAM123456",
			clientID:  "com.example.lms",
			keyID:     "KEY1234567",
			key:       p256,
			opts:      []Option{WithLifetime(0), WithAudience("")},
			wantErrIs: []error{ErrInvalidLifetime, ErrMissingAudience},
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert, require := assert.New(t), require.New(t)
			s, err := New(tt.teamID, tt.clientID, tt.keyID, tt.key, tt.opts...)
			if len(tt.wantErrIs) > 0 {
				require.Error(err)
				assert.Nil(s)
				for _, want := range tt.wantErrIs {
					assert.Truef(errors.Is(err, want), "wanted \"%s\" but got \"%s\"", want, err)
				}
				return
			}
			require.NoError(err)
			assert.NotNil(s)
		})
	}
}

func TestSecret_Serialize(t *testing.T) {
	t.Parallel()
	assert, require := assert.New(t), require.New(t)
	key := testKey(t, elliptic.P256())
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	s, err := New("TEAM123456", "com.example.lms", "KEY1234567", key,
		WithLifetime(90*24*time.Hour),
		WithNow(func() time.Time { return now }),
	)
	require.NoError(err)

	raw, err := s.Serialize()
	require.NoError(err)

	parsed, err := jwt.ParseSigned(raw, []jose.SignatureAlgorithm{jose.ES256})
	require.NoError(err)
	require.Len(parsed.Headers, 1)
	assert.Equal("KEY1234567", parsed.Headers[0].KeyID)
	assert.Equal(string(jose.ES256), parsed.Headers[0].Algorithm)

	var claims jwt.Claims
	require.NoError(parsed.Claims(&key.PublicKey, &claims))
	assert.Equal("TEAM123456", claims.Issuer)
	assert.Equal("com.example.lms", claims.Subject)
	assert.Equal(jwt.Audience{Audience}, claims.Audience)
	assert.Equal(now, claims.IssuedAt.Time().UTC())
	assert.Equal(now.Add(90*24*time.Hour), claims.Expiry.Time().UTC())

	info, err := Parse(raw)
	require.NoError(err)
	assert.True(info.HasExpiry())
	assert.Equal("TEAM123456", info.Issuer)
	assert.Equal("com.example.lms", info.Subject)
	assert.Equal([]string{Audience}, info.Audience)
	assert.Equal(now, info.IssuedAt.UTC())
	assert.Equal(now.Add(90*24*time.Hour), info.Expiry.UTC())
}

func TestParse(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name       string
		secret     string
		wantErr    bool
		wantExpiry bool
	}{
		{
			// {"alg":"ES256"} . {"exp":1791984600,"sub":"com.example.lms"}
			name:       "unsigned-payload-is-enough",
			secret:     "eyJhbGciOiJFUzI1NiJ9.eyJleHAiOjE3OTE5ODQ2MDAsInN1YiI6ImNvbS5leGFtcGxlLmxtcyJ9",
			wantExpiry: true,
		},
		{
			// {"alg":"ES256"} . {"sub":"x"}
			name:   "no-exp",
			secret: "eyJhbGciOiJFUzI1NiJ9.eyJzdWIiOiJ4In0",
		},
		{
			name:    "plain-string-secret",
			secret:  "not-a-jwt",
			wantErr: true,
		},
		{
			name:    "empty",
			secret:  "",
			wantErr: true,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert, require := assert.New(t), require.New(t)
			info, err := Parse(tt.secret)
			if tt.wantErr {
				require.Error(err)
				assert.Nil(info)
				return
			}
			require.NoError(err)
			assert.Equal(tt.wantExpiry, info.HasExpiry())
			if tt.wantExpiry {
				assert.Equal(int64(1791984600), info.Expiry.Unix())
			}
		})
	}
}
