// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package issuer

import (
	"fmt"
	"strings"

	"github.com/lernkit/idp/oidc"
)

// Visibility controls where an issuer is offered to end users.
type Visibility int

const (
	// LoginOnly shows the issuer on the login page only.
	LoginOnly Visibility = iota + 1

	// Everywhere shows the issuer on the login page and wherever accounts
	// can be linked.
	Everywhere

	// ServiceOnly hides the issuer from end users.
	ServiceOnly
)

func (v Visibility) String() string {
	switch v {
	case LoginOnly:
		return "login-only"
	case Everywhere:
		return "everywhere"
	case ServiceOnly:
		return "service-only"
	default:
		return fmt.Sprintf("visibility(%d)", int(v))
	}
}

// Issuer is a configured identity provider.
type Issuer struct {
	ID          int64
	Name        string
	Enabled     bool
	ServiceType string

	ClientID string

	// ClientSecret may itself be a signed token; see oidc/clientsecret.
	ClientSecret oidc.ClientSecret

	BaseURL string
	Image   string

	// LoginScopes and LoginScopesOffline are space separated.
	LoginScopes        string
	LoginScopesOffline string

	// LoginParams are extra authorization request parameters, encoded as a
	// query string (for example "response_mode=form_post").
	LoginParams string

	// ScopesSupported is filled in from discovery, space separated.
	ScopesSupported string

	Visibility Visibility
}

// Template is the set of bootstrap values a provider variant supplies when an
// administrator creates a new issuer of that type.
type Template struct {
	Name               string
	Image              string
	BaseURL            string
	LoginScopes        string
	LoginScopesOffline string
	LoginParams        string
	ServiceType        string
	Visibility         Visibility
}

// NewIssuer returns an unsaved, disabled Issuer populated from t.
func (t Template) NewIssuer() *Issuer {
	return &Issuer{
		Name:               t.Name,
		Image:              t.Image,
		BaseURL:            t.BaseURL,
		LoginScopes:        t.LoginScopes,
		LoginScopesOffline: t.LoginScopesOffline,
		LoginParams:        t.LoginParams,
		ServiceType:        t.ServiceType,
		Visibility:         t.Visibility,
	}
}

// Generic endpoint names.
const (
	TokenEndpoint         = "token_endpoint"
	UserInfoEndpoint      = "userinfo_endpoint"
	JWKSEndpoint          = "jwks_endpoint"
	AuthorizationEndpoint = "authorization_endpoint"
)

// Endpoint records where to reach a named operation of an issuer.
type Endpoint struct {
	IssuerID int64
	Name     string
	URL      string
}

// Endpoints is the set of endpoints recorded for one issuer.
type Endpoints []Endpoint

// URL returns the url of the named endpoint. Short names are accepted, so
// "jwks" finds "jwks_endpoint".
func (e Endpoints) URL(name string) (string, error) {
	const op = "Endpoints.URL"
	if !strings.HasSuffix(name, "_endpoint") {
		name += "_endpoint"
	}
	for _, ep := range e {
		if ep.Name == name {
			return ep.URL, nil
		}
	}
	return "", fmt.Errorf("%s: %s: %w", op, name, ErrEndpointNotDefined)
}

// Has reports whether an endpoint with the given name is recorded.
func (e Endpoints) Has(name string) bool {
	_, err := e.URL(name)
	return err == nil
}
