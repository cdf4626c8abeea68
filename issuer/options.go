// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package issuer

import (
	"net/http"
	"time"
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

type discoveryOptions struct {
	withHTTPClient *http.Client
	withProviderCA string
	withTimeout    time.Duration
}

func discoveryDefaults() discoveryOptions {
	return discoveryOptions{}
}

func getDiscoveryOpts(opt ...Option) discoveryOptions {
	opts := discoveryDefaults()
	ApplyOpts(&opts, opt...)
	return opts
}

// WithHTTPClient provides the client used to fetch the discovery document.
// It takes precedence over WithProviderCA and WithTimeout.
// Valid for: FetchDiscovery
func WithHTTPClient(c *http.Client) Option {
	return func(o interface{}) {
		if o, ok := o.(*discoveryOptions); ok {
			o.withHTTPClient = c
		}
	}
}

// WithProviderCA provides an optional CA cert used to reach the provider.
// Valid for: FetchDiscovery
func WithProviderCA(caPEM string) Option {
	return func(o interface{}) {
		if o, ok := o.(*discoveryOptions); ok {
			o.withProviderCA = caPEM
		}
	}
}

// WithTimeout provides an optional request timeout.
// Valid for: FetchDiscovery
func WithTimeout(d time.Duration) Option {
	return func(o interface{}) {
		if o, ok := o.(*discoveryOptions); ok {
			o.withTimeout = d
		}
	}
}
