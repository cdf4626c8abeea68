// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package oidc

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"testing"

	"github.com/go-jose/go-jose/v4"
	"github.com/go-jose/go-jose/v4/jwt"
	"github.com/stretchr/testify/require"
)

// TestGenerateKeys will generate a test ECDSA P-256 pub/priv key pair.
func TestGenerateKeys(t *testing.T) (crypto.PublicKey, crypto.PrivateKey) {
	t.Helper()
	require := require.New(t)
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(err)
	return &priv.PublicKey, priv
}

// TestSignJWT will bundle the provided claims into a test signed JWT. A
// non-empty keyID is written to the "kid" header.
func TestSignJWT(t *testing.T, key crypto.PrivateKey, alg jose.SignatureAlgorithm, keyID string, claims interface{}) string {
	t.Helper()
	require := require.New(t)

	sig, err := jose.NewSigner(
		jose.SigningKey{Algorithm: alg, Key: jose.JSONWebKey{Key: key, KeyID: keyID}},
		(&jose.SignerOptions{}).WithType("JWT"),
	)
	require.NoError(err)

	raw, err := jwt.Signed(sig).Claims(claims).Serialize()
	require.NoError(err)
	return raw
}

// TestPublicJWK returns the verification JWK for pub, as a provider would
// publish it.
func TestPublicJWK(pub crypto.PublicKey, alg jose.SignatureAlgorithm, keyID string) jose.JSONWebKey {
	return jose.JSONWebKey{
		Key:       pub,
		KeyID:     keyID,
		Algorithm: string(alg),
		Use:       "sig",
	}
}
