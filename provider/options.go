// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package provider

import (
	"net/http"
	"time"

	"github.com/hashicorp/go-hclog"
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

type options struct {
	withLogger      hclog.Logger
	withHTTPClient  *http.Client
	withProviderCA  string
	withTimeout     time.Duration
	withMaxAttempts int
	withKeySetTTL   time.Duration
}

func getDefaults() options {
	return options{
		withLogger: hclog.NewNullLogger(),
	}
}

func getOpts(opt ...Option) options {
	opts := getDefaults()
	ApplyOpts(&opts, opt...)
	return opts
}

// WithLogger provides an optional logger.
// Valid for: New, NewClient
func WithLogger(l hclog.Logger) Option {
	return func(o interface{}) {
		if o, ok := o.(*options); ok && l != nil {
			o.withLogger = l
		}
	}
}

// WithHTTPClient provides the client used for calls to the provider.
// Valid for: New
func WithHTTPClient(c *http.Client) Option {
	return func(o interface{}) {
		if o, ok := o.(*options); ok {
			o.withHTTPClient = c
		}
	}
}

// WithProviderCA provides an optional CA cert PEM for the provider.
// Valid for: New
func WithProviderCA(caPEM string) Option {
	return func(o interface{}) {
		if o, ok := o.(*options); ok {
			o.withProviderCA = caPEM
		}
	}
}

// WithTimeout overrides the per request timeout.
// Valid for: New
func WithTimeout(d time.Duration) Option {
	return func(o interface{}) {
		if o, ok := o.(*options); ok {
			o.withTimeout = d
		}
	}
}

// WithMaxAttempts enables bounded retries of calls to the provider.
// Valid for: New
func WithMaxAttempts(n int) Option {
	return func(o interface{}) {
		if o, ok := o.(*options); ok {
			o.withMaxAttempts = n
		}
	}
}

// WithKeySetCache keeps fetched key sets for ttl.
// Valid for: New
func WithKeySetCache(ttl time.Duration) Option {
	return func(o interface{}) {
		if o, ok := o.(*options); ok {
			o.withKeySetTTL = ttl
		}
	}
}
