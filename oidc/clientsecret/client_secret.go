// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package clientsecret

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"errors"
	"fmt"
	"time"

	"github.com/go-jose/go-jose/v4"
	"github.com/go-jose/go-jose/v4/jwt"
	cjwt "github.com/lernkit/idp/jwt"
)

const (
	// Audience is the default "aud" of a client secret.
	Audience = "https://appleid.apple.com"

	// MaxLifetime is the longest lifetime the provider accepts (six months).
	MaxLifetime = 15777000 * time.Second

	// DefaultLifetime is used when WithLifetime isn't given.
	DefaultLifetime = MaxLifetime
)

// Secret builds a signed client secret.
type Secret struct {
	teamID   string
	clientID string
	keyID    string
	key      *ecdsa.PrivateKey
	audience string
	lifetime time.Duration

	// overwritten for testing
	now func() time.Time
}

// New creates a Secret issued by teamID for clientID (the service id), signed
// with the ES256 key identified by keyID.
//
// Supported Options:
// * WithLifetime
// * WithAudience
// * WithNow
func New(teamID, clientID, keyID string, key *ecdsa.PrivateKey, opts ...Option) (*Secret, error) {
	const op = "clientsecret.New"
	s := &Secret{
		teamID:   teamID,
		clientID: clientID,
		keyID:    keyID,
		key:      key,
		audience: Audience,
		lifetime: DefaultLifetime,
		now:      time.Now,
	}

	var errs []error
	for _, opt := range opts {
		if err := opt(s); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("%s: %w", op, errors.Join(errs...))
	}

	if err := s.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return s, nil
}

// Serialize returns the signed client secret, valid from now for the
// configured lifetime.
func (s *Secret) Serialize() (string, error) {
	const op = "Secret.Serialize"
	if err := s.validate(); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	signer, err := jose.NewSigner(
		jose.SigningKey{Algorithm: jose.ES256, Key: jose.JSONWebKey{Key: s.key, KeyID: s.keyID}},
		(&jose.SignerOptions{}).WithType("JWT"),
	)
	if err != nil {
		return "", fmt.Errorf("%s: %w: %w", op, ErrCreatingSigner, err)
	}
	token, err := jwt.Signed(signer).Claims(s.claims()).Serialize()
	if err != nil {
		return "", fmt.Errorf("%s: failed to serialize token: %w", op, err)
	}
	return token, nil
}

func (s *Secret) validate() error {
	const op = "Secret.validate"
	if s.now == nil {
		return fmt.Errorf("%s: %w", op, ErrMissingFuncNow)
	}
	var errs []error
	if s.teamID == "" {
		errs = append(errs, ErrMissingTeamID)
	}
	if s.clientID == "" {
		errs = append(errs, ErrMissingClientID)
	}
	if s.keyID == "" {
		errs = append(errs, ErrMissingKeyID)
	}
	if s.audience == "" {
		errs = append(errs, ErrMissingAudience)
	}
	switch {
	case s.key == nil:
		errs = append(errs, ErrNilPrivateKey)
	case s.key.Curve != elliptic.P256():
		errs = append(errs, ErrUnsupportedKey)
	}
	if s.lifetime <= 0 || s.lifetime > MaxLifetime {
		errs = append(errs, ErrInvalidLifetime)
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s: %w", op, errors.Join(errs...))
	}
	return nil
}

func (s *Secret) claims() *jwt.Claims {
	now := s.now().UTC().Truncate(time.Second)
	return &jwt.Claims{
		Issuer:   s.teamID,
		Subject:  s.clientID,
		Audience: jwt.Audience{s.audience},
		IssuedAt: jwt.NewNumericDate(now),
		Expiry:   jwt.NewNumericDate(now.Add(s.lifetime)),
	}
}

// Info is what a stored client secret says about itself.
type Info struct {
	Issuer   string
	Subject  string
	Audience []string

	// IssuedAt and Expiry are zero when the claim is missing or not a
	// NumericDate.
	IssuedAt time.Time
	Expiry   time.Time
}

// HasExpiry reports whether the secret carries a usable "exp".
func (i *Info) HasExpiry() bool {
	return i != nil && !i.Expiry.IsZero()
}

// Parse reads the claims of a stored client secret without verifying its
// signature. The secret was produced by the operator's own tooling, so this
// is for inspection only.
func Parse(secret string) (*Info, error) {
	const op = "clientsecret.Parse"
	claims, err := cjwt.DecodeUnverified(secret)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	info := &Info{
		Audience: claims.Audience(),
	}
	info.Issuer, _ = claims.String("iss")
	info.Subject, _ = claims.String("sub")
	info.IssuedAt, _ = claims.Time("iat")
	info.Expiry, _ = claims.Time("exp")
	return info, nil
}
