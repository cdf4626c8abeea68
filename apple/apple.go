// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package apple

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/jonboulle/clockwork"
	"github.com/lernkit/idp/issuer"
	"github.com/lernkit/idp/jwt"
	"github.com/lernkit/idp/oidc"
	sdkhttp "github.com/lernkit/idp/sdk/http"
)

const (
	// ServiceType is the Issuer.ServiceType of Apple issuers.
	ServiceType = "apple"

	// BaseURL is the provider's issuer url.
	BaseURL = "https://appleid.apple.com"

	// DefaultClockSkew is the leeway allowed when checking id_token expiry.
	DefaultClockSkew = time.Minute
)

// Template returns the bootstrap values of a new Apple issuer. The provider
// only posts the authorization response when the name or email scopes are
// requested, so form_post is always asked for.
func Template() issuer.Template {
	return issuer.Template{
		Name:               "Apple",
		Image:              "https://www.apple.com/apple-touch-icon.png",
		BaseURL:            BaseURL,
		LoginScopes:        "name email",
		LoginScopesOffline: "name email",
		LoginParams:        "response_mode=form_post",
		ServiceType:        ServiceType,
		Visibility:         issuer.Everywhere,
	}
}

// ApplyDiscovery returns the endpoints to record for iss given the provider's
// discovery document:
//
//   - token_endpoint is recorded as userinfo_endpoint, since identity is
//     fetched with a refresh grant.
//   - a discovered userinfo_endpoint is discarded.
//   - jwks_uri is recorded as jwks_endpoint.
//
// Everything else is handed to issuer.GenericMapper, which never overrides a
// name recorded here.
func ApplyDiscovery(iss *issuer.Issuer, info issuer.DiscoveryInfo) issuer.Endpoints {
	if iss == nil {
		return nil
	}
	var recorded issuer.Endpoints
	if u, ok := info.String(issuer.TokenEndpoint); ok {
		recorded = append(recorded, issuer.Endpoint{IssuerID: iss.ID, Name: issuer.UserInfoEndpoint, URL: u})
	}
	if u, ok := info.String("jwks_uri"); ok && !info.Has(issuer.JWKSEndpoint) {
		recorded = append(recorded, issuer.Endpoint{IssuerID: iss.ID, Name: issuer.JWKSEndpoint, URL: u})
	}
	generic := issuer.GenericMapper(iss, info.Without(issuer.UserInfoEndpoint), recorded)
	return append(recorded, generic...)
}

// Provider is the Apple issuer.Variant.
type Provider struct {
	logger      hclog.Logger
	client      *http.Client
	fetcher     jwt.KeySetFetcher
	exchanger   *oidc.Exchanger
	allowedAlgs []jwt.Alg
	clock       clockwork.Clock
	skew        time.Duration
}

var _ issuer.Variant = (*Provider)(nil)

// New creates a Provider.
//
// Supported options: WithLogger, WithHTTPClient, WithProviderCA, WithTimeout,
// WithMaxAttempts, WithKeySetFetcher, WithKeySetCache, WithAllowedAlgs,
// WithClock, WithClockSkew
func New(opt ...Option) (*Provider, error) {
	const op = "apple.New"
	opts := getProviderOpts(opt...)
	if err := jwt.SupportedSigningAlgorithm(opts.withAllowedAlgs...); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	client := opts.withHTTPClient
	if client == nil {
		var err error
		switch {
		case opts.withMaxAttempts > 1:
			client, err = sdkhttp.NewRetryClient(opts.withProviderCA, opts.withTimeout, opts.withMaxAttempts, opts.withLogger.Named("http"))
		default:
			client, err = sdkhttp.NewClient(opts.withProviderCA, opts.withTimeout)
		}
		if err != nil {
			if errors.Is(err, sdkhttp.ErrInvalidCertificatePem) {
				return nil, fmt.Errorf("%s: could not parse CA PEM value: %w", op, oidc.ErrInvalidCACert)
			}
			return nil, fmt.Errorf("%s: unable to create http client: %w", op, err)
		}
	}

	fetcher := opts.withKeySetFetcher
	if fetcher == nil {
		r, err := jwt.NewResolver(jwt.WithHTTPClient(client))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		fetcher = r
	}
	if opts.withKeySetCacheTTL > 0 {
		fetcher = jwt.NewCachingResolver(fetcher, opts.withKeySetCacheTTL)
	}

	return &Provider{
		logger:      opts.withLogger,
		client:      client,
		fetcher:     fetcher,
		exchanger:   oidc.NewExchanger(oidc.WithLogger(opts.withLogger)),
		allowedAlgs: opts.withAllowedAlgs,
		clock:       opts.withClock,
		skew:        opts.withClockSkew,
	}, nil
}

// ServiceType implements issuer.Variant.
func (p *Provider) ServiceType() string { return ServiceType }

// Template implements issuer.Variant.
func (p *Provider) Template() issuer.Template { return Template() }

// Discover fetches the discovery document under iss.BaseURL, records the
// endpoints from ApplyDiscovery in store and updates the issuer's supported
// scopes.
func (p *Provider) Discover(ctx context.Context, iss *issuer.Issuer, store issuer.Store) (issuer.Endpoints, error) {
	const op = "Provider.Discover"
	switch {
	case iss == nil:
		return nil, fmt.Errorf("%s: issuer is nil: %w", op, issuer.ErrNilParameter)
	case store == nil:
		return nil, fmt.Errorf("%s: store is nil: %w", op, issuer.ErrNilParameter)
	}
	info, err := issuer.FetchDiscovery(ctx, iss.BaseURL, issuer.WithHTTPClient(p.client))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	endpoints := ApplyDiscovery(iss, info)
	for _, e := range endpoints {
		if err := store.CreateEndpoint(ctx, e); err != nil {
			return nil, fmt.Errorf("%s: unable to create %s: %w", op, e.Name, err)
		}
	}
	if iss.ScopesSupported != "" {
		if err := store.UpdateScopesSupported(ctx, iss.ID, iss.ScopesSupported); err != nil {
			return nil, fmt.Errorf("%s: unable to update supported scopes: %w", op, err)
		}
	}
	p.logger.Debug("discovered endpoints", "op", op, "issuer_id", iss.ID, "endpoints", len(endpoints))
	return endpoints, nil
}

// ExchangeIdentity runs a refresh grant against the recorded userinfo
// endpoint (the provider's token endpoint), fetches the key set from the
// recorded jwks endpoint and returns the verified claims of the id_token.
//
// Failures wrap the kind of the failing step: oidc.ErrTokenExchange,
// jwt.ErrKeySetUnavailable, jwt.ErrInvalidSignature, jwt.ErrMalformedToken or
// ErrInvalidClaims.
func (p *Provider) ExchangeIdentity(ctx context.Context, iss *issuer.Issuer, endpoints issuer.Endpoints, rt oidc.RefreshToken) (map[string]interface{}, error) {
	const op = "Provider.ExchangeIdentity"
	if iss == nil {
		return nil, fmt.Errorf("%s: issuer is nil: %w", op, issuer.ErrNilParameter)
	}
	tokenURL, err := endpoints.URL(issuer.UserInfoEndpoint)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	jwksURL, err := endpoints.URL(issuer.JWKSEndpoint)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	cfg, err := oidc.NewConfig(iss.ClientID, iss.ClientSecret, tokenURL, oidc.WithHTTPClient(p.client))
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, oidc.ErrTokenExchange, err)
	}
	tk, err := p.exchanger.RefreshIdentity(ctx, cfg, rt)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	claims, err := p.verify(ctx, string(tk.IDToken), jwksURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := p.validateClaims(iss, claims); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return claims, nil
}

// NormalizeUserInfo implements issuer.Variant.
func (p *Provider) NormalizeUserInfo(claims map[string]interface{}, slot *oidc.ProfileSlot) (*oidc.UserInfo, error) {
	return oidc.Normalize(claims, slot)
}

type invalidator interface {
	Invalidate(jwksURL string)
}

func (p *Provider) verify(ctx context.Context, idToken, jwksURL string) (jwt.Claims, error) {
	const op = "Provider.verify"
	ks, err := p.fetcher.Fetch(ctx, jwksURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	claims, err := jwt.DecodeVerified(idToken, ks, jwt.WithAllowedAlgs(p.allowedAlgs...))
	if err == nil {
		return claims, nil
	}
	// a cached key set may predate a key rotation, so give a cached fetcher
	// one chance to load the current keys.
	inv, ok := p.fetcher.(invalidator)
	if !ok || !errors.Is(err, jwt.ErrInvalidSignature) || errors.Is(err, jwt.ErrUnsupportedAlgorithm) {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	inv.Invalidate(jwksURL)
	if ks, err = p.fetcher.Fetch(ctx, jwksURL); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if claims, err = jwt.DecodeVerified(idToken, ks, jwt.WithAllowedAlgs(p.allowedAlgs...)); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return claims, nil
}

func (p *Provider) validateClaims(iss *issuer.Issuer, claims jwt.Claims) error {
	const op = "Provider.validateClaims"
	if want := strings.TrimSuffix(iss.BaseURL, "/"); want != "" {
		if got, _ := claims.String("iss"); got != want {
			return fmt.Errorf("%s: issuer %q does not match %q: %w", op, got, want, ErrInvalidClaims)
		}
	}
	found := false
	for _, aud := range claims.Audience() {
		if aud == iss.ClientID {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("%s: audience does not contain client id: %w", op, ErrInvalidClaims)
	}
	exp, ok := claims.Time("exp")
	if !ok {
		return fmt.Errorf("%s: exp claim is missing: %w", op, ErrInvalidClaims)
	}
	if p.clock.Now().After(exp.Add(p.skew)) {
		return fmt.Errorf("%s: id_token expired at %s: %w", op, exp.Format(time.RFC3339), ErrInvalidClaims)
	}
	return nil
}
