// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package jwt

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

type decodeOptions struct {
	withAllowedAlgs []Alg
}

func decodeDefaults() decodeOptions {
	return decodeOptions{
		withAllowedAlgs: DefaultAllowedAlgs,
	}
}

func getDecodeOpts(opt ...Option) decodeOptions {
	opts := decodeDefaults()
	ApplyOpts(&opts, opt...)
	return opts
}

type resolverOptions struct {
	withHTTPClient *http.Client
	withProviderCA string
	withTimeout    time.Duration
}

func resolverDefaults() resolverOptions {
	return resolverOptions{}
}

func getResolverOpts(opt ...Option) resolverOptions {
	opts := resolverDefaults()
	ApplyOpts(&opts, opt...)
	return opts
}

// WithAllowedAlgs overrides the signing algorithms DecodeVerified accepts.
// Valid for: DecodeVerified
func WithAllowedAlgs(algs ...Alg) Option {
	return func(o interface{}) {
		if o, ok := o.(*decodeOptions); ok {
			o.withAllowedAlgs = algs
		}
	}
}

// WithHTTPClient provides the client used to fetch key sets. When set,
// WithProviderCA and WithTimeout are ignored.
// Valid for: NewResolver
func WithHTTPClient(c *http.Client) Option {
	return func(o interface{}) {
		if o, ok := o.(*resolverOptions); ok {
			o.withHTTPClient = c
		}
	}
}

// WithProviderCA provides an optional CA cert PEM trusted when fetching key
// sets.
// Valid for: NewResolver
func WithProviderCA(caPEM string) Option {
	return func(o interface{}) {
		if o, ok := o.(*resolverOptions); ok {
			o.withProviderCA = caPEM
		}
	}
}

// WithTimeout overrides the default request timeout.
// Valid for: NewResolver
func WithTimeout(d time.Duration) Option {
	return func(o interface{}) {
		if o, ok := o.(*resolverOptions); ok {
			o.withTimeout = d
		}
	}
}
