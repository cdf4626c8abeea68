// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package issuer

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
	sdkhttp "github.com/lernkit/idp/sdk/http"
)

// DiscoveryInfo is a provider's raw discovery document
// (/.well-known/openid-configuration).
type DiscoveryInfo map[string]interface{}

// String returns the named field when it's a non-empty string.
func (d DiscoveryInfo) String(name string) (string, bool) {
	s, ok := d[name].(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

// Has reports whether the document carries the named field.
func (d DiscoveryInfo) Has(name string) bool {
	_, ok := d[name]
	return ok
}

// Without returns a copy of d with the named fields removed.
func (d DiscoveryInfo) Without(names ...string) DiscoveryInfo {
	out := make(DiscoveryInfo, len(d))
	for k, v := range d {
		out[k] = v
	}
	for _, n := range names {
		delete(out, n)
	}
	return out
}

// FetchDiscovery retrieves the discovery document published under baseURL.
// The document's issuer must equal baseURL.
//
// Supported options: WithHTTPClient, WithProviderCA, WithTimeout
func FetchDiscovery(ctx context.Context, baseURL string, opt ...Option) (DiscoveryInfo, error) {
	const op = "issuer.FetchDiscovery"
	if baseURL == "" {
		return nil, fmt.Errorf("%s: base URL is empty: %w", op, ErrInvalidParameter)
	}
	opts := getDiscoveryOpts(opt...)
	client := opts.withHTTPClient
	if client == nil {
		var err error
		client, err = sdkhttp.NewClient(opts.withProviderCA, opts.withTimeout)
		if err != nil {
			return nil, fmt.Errorf("%s: unable to create http client: %w", op, err)
		}
	}
	// the coreos package wants the issuer without a trailing slash, the same
	// way the provider publishes it.
	issuerURL := strings.TrimSuffix(baseURL, "/")
	p, err := oidc.NewProvider(oidc.ClientContext(ctx, client), issuerURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, ErrDiscoveryFailed, err)
	}
	var info DiscoveryInfo
	if err := p.Claims(&info); err != nil {
		return nil, fmt.Errorf("%s: unable to read provider metadata: %w: %w", op, ErrDiscoveryFailed, err)
	}
	return info, nil
}

// GenericMapper maps a standard discovery document to endpoint records: every
// "*_endpoint" field becomes an endpoint of the same name, unless its name is
// in recorded. It also copies scopes_supported onto iss.
//
// Endpoints are returned sorted by name.
func GenericMapper(iss *Issuer, info DiscoveryInfo, recorded Endpoints) Endpoints {
	if iss == nil {
		return nil
	}
	var out Endpoints
	for k := range info {
		if !strings.HasSuffix(k, "_endpoint") || recorded.Has(k) {
			continue
		}
		u, ok := info.String(k)
		if !ok {
			continue
		}
		out = append(out, Endpoint{IssuerID: iss.ID, Name: k, URL: u})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })

	if scopes := stringList(info["scopes_supported"]); len(scopes) > 0 {
		iss.ScopesSupported = strings.Join(scopes, " ")
	}
	return out
}

func stringList(v interface{}) []string {
	switch v := v.(type) {
	case []string:
		return v
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, s := range v {
			if s, ok := s.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	case string:
		return strings.Fields(v)
	}
	return nil
}
