// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package oidc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	sdkhttp "github.com/lernkit/idp/sdk/http"
)

// ClientSecret is an oauth client secret. For some providers this is itself
// a signed token carrying an expiry.
type ClientSecret string

// RedactedClientSecret is the redacted string or json for an oauth client secret
const RedactedClientSecret = "[REDACTED: client secret]"

// String will redact the client secret
func (t ClientSecret) String() string {
	return RedactedClientSecret
}

// MarshalJSON will redact the client secret
func (t ClientSecret) MarshalJSON() ([]byte, error) {
	return json.Marshal(RedactedClientSecret)
}

// Config represents what's needed to run a refresh grant against a
// provider's token endpoint.
type Config struct {
	// ClientID is the relying party id
	ClientID string

	// ClientSecret is the relying party secret
	ClientSecret ClientSecret

	// TokenURL is the provider's token endpoint.
	TokenURL string

	// ProviderCA is an optional CA cert to use when sending requests to the provider.
	ProviderCA string

	// Timeout is the request timeout for calls to the provider. Zero means
	// sdk/http.DefaultTimeout.
	Timeout time.Duration

	// client overrides ProviderCA and Timeout when set.
	client *http.Client
}

// NewConfig composes a new config for a provider's token endpoint.
//
// Supported options: WithProviderCA, WithTimeout, WithHTTPClient
func NewConfig(clientID string, clientSecret ClientSecret, tokenURL string, opt ...Option) (*Config, error) {
	const op = "NewConfig"
	opts := getConfigOpts(opt...)
	c := &Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     tokenURL,
		ProviderCA:   opts.withProviderCA,
		Timeout:      opts.withTimeout,
		client:       opts.withHTTPClient,
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("%s: invalid provider config: %w", op, err)
	}
	return c, nil
}

// Validate the config. It doesn't verify the token URL is reachable.
func (c *Config) Validate() error {
	const op = "Config.Validate"
	if c == nil {
		return fmt.Errorf("%s: provider config is nil: %w", op, ErrNilParameter)
	}
	if c.ClientID == "" {
		return fmt.Errorf("%s: client id is empty: %w", op, ErrInvalidParameter)
	}
	if c.ClientSecret == "" {
		return fmt.Errorf("%s: client secret is empty: %w", op, ErrInvalidParameter)
	}
	if c.TokenURL == "" {
		return fmt.Errorf("%s: token URL is empty: %w", op, ErrInvalidParameter)
	}
	u, err := url.Parse(c.TokenURL)
	if err != nil {
		return fmt.Errorf("%s: token URL %s is invalid: %w", op, c.TokenURL, ErrInvalidParameter)
	}
	if u.Scheme != "https" && u.Scheme != "http" {
		return fmt.Errorf("%s: token URL %s scheme is not http or https: %w", op, c.TokenURL, ErrInvalidParameter)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("%s: timeout is negative: %w", op, ErrInvalidParameter)
	}
	return nil
}

// HTTPClient returns the client used for calls to the provider.
func (c *Config) HTTPClient() (*http.Client, error) {
	const op = "Config.HTTPClient"
	if c.client != nil {
		return c.client, nil
	}
	client, err := sdkhttp.NewClient(c.ProviderCA, c.Timeout)
	if err != nil {
		if errors.Is(err, sdkhttp.ErrInvalidCertificatePem) {
			return nil, fmt.Errorf("%s: could not parse CA PEM value: %w", op, ErrInvalidCACert)
		}
		return nil, fmt.Errorf("%s: could not get an http client: %w", op, err)
	}
	return client, nil
}

// HTTPClientContext is a helper function that returns a new Context that
// carries the provided HTTP client. This method sets the same context key used
// by the github.com/coreos/go-oidc and golang.org/x/oauth2 packages, so the
// returned context works for those packages as well.
func HTTPClientContext(ctx context.Context, client *http.Client) context.Context {
	// simple to implement as a wrapper for the coreos package
	return oidc.ClientContext(ctx, client)
}

type configOptions struct {
	withProviderCA string
	withTimeout    time.Duration
	withHTTPClient *http.Client
}

func configDefaults() configOptions {
	return configOptions{}
}

func getConfigOpts(opt ...Option) configOptions {
	opts := configDefaults()
	ApplyOpts(&opts, opt...)
	return opts
}

// WithProviderCA provides an optional CA cert for the provider's config
func WithProviderCA(cert string) Option {
	return func(o interface{}) {
		if o, ok := o.(*configOptions); ok {
			o.withProviderCA = cert
		}
	}
}

// WithTimeout provides an optional request timeout for the provider's config
func WithTimeout(d time.Duration) Option {
	return func(o interface{}) {
		if o, ok := o.(*configOptions); ok {
			o.withTimeout = d
		}
	}
}

// WithHTTPClient provides the client used for calls to the provider, for
// example one from sdk/http.NewRetryClient.
func WithHTTPClient(c *http.Client) Option {
	return func(o interface{}) {
		if o, ok := o.(*configOptions); ok {
			o.withHTTPClient = c
		}
	}
}
