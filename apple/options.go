// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package apple

import (
	"net/http"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/jonboulle/clockwork"
	"github.com/lernkit/idp/jwt"
)

// Option defines a common functional options type which can be used in a
// variadic parameter pattern.
type Option func(interface{})

// ApplyOpts takes a pointer to the options struct as a set of default options
// and applies the slice of opts as overrides.
func ApplyOpts(opts interface{}, opt ...Option) {
	for _, o := range opt {
		if o == nil { // ignore any nil Options
			continue
		}
		o(opts)
	}
}

type providerOptions struct {
	withLogger         hclog.Logger
	withHTTPClient     *http.Client
	withProviderCA     string
	withTimeout        time.Duration
	withMaxAttempts    int
	withKeySetFetcher  jwt.KeySetFetcher
	withKeySetCacheTTL time.Duration
	withAllowedAlgs    []jwt.Alg
	withClock          clockwork.Clock
	withClockSkew      time.Duration
}

func providerDefaults() providerOptions {
	return providerOptions{
		withLogger:      hclog.NewNullLogger(),
		withMaxAttempts: 1,
		withAllowedAlgs: jwt.DefaultAllowedAlgs,
		withClock:       clockwork.NewRealClock(),
		withClockSkew:   DefaultClockSkew,
	}
}

func getProviderOpts(opt ...Option) providerOptions {
	opts := providerDefaults()
	ApplyOpts(&opts, opt...)
	return opts
}

// WithLogger provides an optional logger.
func WithLogger(l hclog.Logger) Option {
	return func(o interface{}) {
		if o, ok := o.(*providerOptions); ok && l != nil {
			o.withLogger = l
		}
	}
}

// WithHTTPClient provides the client used for every call to the provider.
// When set, WithProviderCA, WithTimeout and WithMaxAttempts are ignored.
func WithHTTPClient(c *http.Client) Option {
	return func(o interface{}) {
		if o, ok := o.(*providerOptions); ok {
			o.withHTTPClient = c
		}
	}
}

// WithProviderCA provides an optional CA cert PEM trusted when calling the
// provider.
func WithProviderCA(caPEM string) Option {
	return func(o interface{}) {
		if o, ok := o.(*providerOptions); ok {
			o.withProviderCA = caPEM
		}
	}
}

// WithTimeout overrides the per request timeout.
func WithTimeout(d time.Duration) Option {
	return func(o interface{}) {
		if o, ok := o.(*providerOptions); ok {
			o.withTimeout = d
		}
	}
}

// WithMaxAttempts retries calls to the provider with bounded backoff, making
// at most n attempts. The default is a single attempt.
func WithMaxAttempts(n int) Option {
	return func(o interface{}) {
		if o, ok := o.(*providerOptions); ok && n > 0 {
			o.withMaxAttempts = n
		}
	}
}

// WithKeySetFetcher replaces the JWKS fetcher.
func WithKeySetFetcher(f jwt.KeySetFetcher) Option {
	return func(o interface{}) {
		if o, ok := o.(*providerOptions); ok {
			o.withKeySetFetcher = f
		}
	}
}

// WithKeySetCache keeps fetched key sets for ttl. Without it every identity
// verification fetches the key set.
func WithKeySetCache(ttl time.Duration) Option {
	return func(o interface{}) {
		if o, ok := o.(*providerOptions); ok {
			o.withKeySetCacheTTL = ttl
			if ttl <= 0 {
				o.withKeySetCacheTTL = jwt.DefaultKeySetTTL
			}
		}
	}
}

// WithAllowedAlgs overrides the id_token signing algorithms accepted.
func WithAllowedAlgs(algs ...jwt.Alg) Option {
	return func(o interface{}) {
		if o, ok := o.(*providerOptions); ok && len(algs) > 0 {
			o.withAllowedAlgs = algs
		}
	}
}

// WithClock provides the clock used to check id_token expiry.
func WithClock(c clockwork.Clock) Option {
	return func(o interface{}) {
		if o, ok := o.(*providerOptions); ok && c != nil {
			o.withClock = c
		}
	}
}

// WithClockSkew overrides the leeway allowed when checking id_token expiry.
func WithClockSkew(d time.Duration) Option {
	return func(o interface{}) {
		if o, ok := o.(*providerOptions); ok && d >= 0 {
			o.withClockSkew = d
		}
	}
}
