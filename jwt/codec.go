// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package jwt

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/go-jose/go-jose/v4/jwt"
)

// Claims is the set of claims found in a token payload.
type Claims map[string]interface{}

// String returns the named claim when it's a non-empty string.
func (c Claims) String(name string) (string, bool) {
	s, ok := c[name].(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

// Time returns the named NumericDate claim (seconds since the epoch). Claims
// that are missing, non-numeric or non-finite report false.
func (c Claims) Time(name string) (time.Time, bool) {
	var secs float64
	switch v := c[name].(type) {
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return time.Time{}, false
		}
		secs = f
	case float64:
		secs = v
	case int64:
		secs = float64(v)
	case int:
		secs = float64(v)
	default:
		return time.Time{}, false
	}
	if math.IsNaN(secs) || math.IsInf(secs, 0) {
		return time.Time{}, false
	}
	whole, frac := math.Modf(secs)
	return time.Unix(int64(whole), int64(frac*1e9)).UTC(), true
}

// Audience returns the "aud" claim, which may be either a single string or a
// list of strings.
func (c Claims) Audience() []string {
	switch v := c["aud"].(type) {
	case string:
		return []string{v}
	case []interface{}:
		auds := make([]string, 0, len(v))
		for _, a := range v {
			if s, ok := a.(string); ok {
				auds = append(auds, s)
			}
		}
		return auds
	case []string:
		return v
	}
	return nil
}

// DecodeUnverified returns the claims from the payload segment of a compact
// serialized token without checking its signature. It must only be used to
// inspect tokens the caller issued itself (for example a client secret), never
// to authenticate anyone.
func DecodeUnverified(token string) (Claims, error) {
	const op = "jwt.DecodeUnverified"
	parts := strings.Split(token, ".")
	if len(parts) < 2 {
		return nil, fmt.Errorf("%s: token has %d segments: %w", op, len(parts), ErrMalformedToken)
	}
	claims, err := decodeSegment(parts[1])
	if err != nil {
		return nil, fmt.Errorf("%s: payload: %w", op, err)
	}
	return claims, nil
}

// DecodeVerified parses a JWS compact serialized token, verifies its
// signature with the key from ks matching the header's "kid" and "alg", and
// returns its claims. The header alg must be one of the allowed algorithms
// (DefaultAllowedAlgs unless WithAllowedAlgs is given); "none" is never
// accepted. Registered claims such as exp and iss are not validated here.
//
// Supported options: WithAllowedAlgs
func DecodeVerified(token string, ks *KeySet, opt ...Option) (Claims, error) {
	const op = "jwt.DecodeVerified"
	opts := getDecodeOpts(opt...)
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return nil, fmt.Errorf("%s: token has %d segments: %w", op, len(parts), ErrMalformedToken)
	}
	hdr, err := decodeHeader(parts[0])
	if err != nil {
		return nil, fmt.Errorf("%s: header: %w", op, err)
	}
	alg := Alg(hdr.Alg)
	if !allowed(opts.withAllowedAlgs, alg) {
		return nil, fmt.Errorf("%s: %q is not an allowed algorithm: %w: %w", op, hdr.Alg, ErrUnsupportedAlgorithm, ErrInvalidSignature)
	}
	if ks == nil {
		return nil, fmt.Errorf("%s: key set is nil: %w", op, ErrInvalidSignature)
	}

	parsed, err := jwt.ParseSigned(token, joseAlgs(opts.withAllowedAlgs))
	if err != nil {
		return nil, fmt.Errorf("%s: unable to parse token: %w", op, ErrMalformedToken)
	}
	key, ok := ks.Lookup(hdr.Kid, alg)
	if !ok {
		return nil, fmt.Errorf("%s: no key for kid %q and alg %q: %w", op, hdr.Kid, hdr.Alg, ErrInvalidSignature)
	}

	claims := Claims{}
	if err := parsed.Claims(key.Key, &claims); err != nil {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidSignature)
	}
	return claims, nil
}

type header struct {
	Alg string `json:"alg"`
	Kid string `json:"kid"`
}

func decodeHeader(seg string) (*header, error) {
	raw, err := decodeBase64URL(seg)
	if err != nil {
		return nil, err
	}
	var h header
	if err := json.Unmarshal(raw, &h); err != nil {
		return nil, fmt.Errorf("invalid json: %w", ErrMalformedToken)
	}
	return &h, nil
}

func decodeSegment(seg string) (Claims, error) {
	raw, err := decodeBase64URL(seg)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var claims Claims
	if err := dec.Decode(&claims); err != nil || claims == nil {
		return nil, fmt.Errorf("not a json object: %w", ErrMalformedToken)
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return nil, fmt.Errorf("trailing data after json object: %w", ErrMalformedToken)
	}
	return claims, nil
}

func decodeBase64URL(seg string) ([]byte, error) {
	// some issuers pad their segments
	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(seg, "="))
	if err != nil {
		return nil, fmt.Errorf("invalid base64url: %w", ErrMalformedToken)
	}
	return raw, nil
}

func allowed(algs []Alg, a Alg) bool {
	if a == "" || strings.EqualFold(string(a), "none") {
		return false
	}
	for _, v := range algs {
		if v == a {
			return true
		}
	}
	return false
}
