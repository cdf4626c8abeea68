// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package jwt

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/go-jose/go-jose/v4"
	sdkhttp "github.com/lernkit/idp/sdk/http"
)

// maxKeySetSize bounds how much of a JWKS response is read.
const maxKeySetSize = 1 << 20

// KeySet is an immutable set of verification keys indexed by key id.
type KeySet struct {
	keys map[string][]jose.JSONWebKey
}

// NewKeySet indexes the public parts of the given keys by their key id.
// Keys used for anything other than signatures are skipped.
func NewKeySet(keys ...jose.JSONWebKey) *KeySet {
	ks := &KeySet{keys: make(map[string][]jose.JSONWebKey, len(keys))}
	for _, k := range keys {
		if k.Use != "" && k.Use != "sig" {
			continue
		}
		if !k.IsPublic() {
			k = k.Public()
		}
		if k.Key == nil {
			continue
		}
		ks.keys[k.KeyID] = append(ks.keys[k.KeyID], k)
	}
	return ks
}

// Len returns the number of keys in the set.
func (ks *KeySet) Len() int {
	if ks == nil {
		return 0
	}
	n := 0
	for _, v := range ks.keys {
		n += len(v)
	}
	return n
}

// Lookup returns the key with the given kid that may be used with alg. A key
// that declares its own alg only matches that alg exactly.
func (ks *KeySet) Lookup(kid string, alg Alg) (jose.JSONWebKey, bool) {
	if ks == nil || kid == "" {
		return jose.JSONWebKey{}, false
	}
	for _, k := range ks.keys[kid] {
		if k.Algorithm != "" && k.Algorithm != string(alg) {
			continue
		}
		return k, true
	}
	return jose.JSONWebKey{}, false
}

// KeySetFetcher retrieves the key set published at a URL.
type KeySetFetcher interface {
	Fetch(ctx context.Context, jwksURL string) (*KeySet, error)
}

// Resolver fetches a fresh KeySet from a remote JWKS URL on every call.
type Resolver struct {
	client *http.Client
}

// NewResolver creates a Resolver.
//
// Supported options: WithHTTPClient, WithProviderCA, WithTimeout
func NewResolver(opt ...Option) (*Resolver, error) {
	const op = "jwt.NewResolver"
	opts := getResolverOpts(opt...)
	client := opts.withHTTPClient
	if client == nil {
		var err error
		client, err = sdkhttp.NewClient(opts.withProviderCA, opts.withTimeout)
		if err != nil {
			return nil, fmt.Errorf("%s: unable to create http client: %w", op, err)
		}
	}
	return &Resolver{client: client}, nil
}

// Fetch issues a GET for jwksURL and converts the "keys" array of the
// response into a KeySet. Individual keys that can't be parsed are skipped;
// transport failures, non-200 responses and malformed bodies return
// ErrKeySetUnavailable.
func (r *Resolver) Fetch(ctx context.Context, jwksURL string) (*KeySet, error) {
	const op = "Resolver.Fetch"
	if jwksURL == "" {
		return nil, fmt.Errorf("%s: jwks URL is empty: %w", op, ErrKeySetUnavailable)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, jwksURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: unable to create request: %w: %w", op, ErrKeySetUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: request failed: %w: %w", op, ErrKeySetUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxKeySetSize))
	if err != nil {
		return nil, fmt.Errorf("%s: unable to read response: %w: %w", op, ErrKeySetUnavailable, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s: unexpected status %d: %w", op, resp.StatusCode, ErrKeySetUnavailable)
	}
	return ParseKeySet(body)
}

// ParseKeySet converts a JWKS document into a KeySet.
func ParseKeySet(doc []byte) (*KeySet, error) {
	const op = "jwt.ParseKeySet"
	var raw struct {
		Keys []json.RawMessage `json:"keys"`
	}
	if err := json.Unmarshal(doc, &raw); err != nil {
		return nil, fmt.Errorf("%s: invalid json: %w", op, ErrKeySetUnavailable)
	}
	if raw.Keys == nil {
		return nil, fmt.Errorf("%s: missing keys: %w", op, ErrKeySetUnavailable)
	}
	keys := make([]jose.JSONWebKey, 0, len(raw.Keys))
	for _, rk := range raw.Keys {
		var k jose.JSONWebKey
		if err := k.UnmarshalJSON(rk); err != nil {
			continue
		}
		keys = append(keys, k)
	}
	return NewKeySet(keys...), nil
}
