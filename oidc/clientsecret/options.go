// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package clientsecret

import (
	"fmt"
	"time"
)

// Option configures the Secret
type Option func(*Secret) error

// WithLifetime sets how long the secret is valid for. It must be positive and
// no more than MaxLifetime.
func WithLifetime(d time.Duration) Option {
	const op = "WithLifetime"
	return func(s *Secret) error {
		if d <= 0 || d > MaxLifetime {
			return fmt.Errorf("%s: %w: %s", op, ErrInvalidLifetime, d)
		}
		s.lifetime = d
		return nil
	}
}

// WithAudience overrides the "aud" claim, which defaults to Audience.
func WithAudience(aud string) Option {
	const op = "WithAudience"
	return func(s *Secret) error {
		if aud == "" {
			return fmt.Errorf("%s: %w", op, ErrMissingAudience)
		}
		s.audience = aud
		return nil
	}
}

// WithNow sets the clock used for "iat" and "exp".
func WithNow(now func() time.Time) Option {
	return func(s *Secret) error {
		s.now = now
		return nil
	}
}
