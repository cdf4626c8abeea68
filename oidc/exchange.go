// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package oidc

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"
	"golang.org/x/oauth2"
)

// Exchanger runs refresh-token grants to obtain an id_token for a user that
// already authorized the relying party. Each call is a single round trip;
// wrap the config's client with sdk/http.NewRetryClient to retry.
type Exchanger struct {
	logger hclog.Logger
}

// NewExchanger creates an Exchanger.
//
// Supported options: WithLogger
func NewExchanger(opt ...Option) *Exchanger {
	opts := getExchangerOpts(opt...)
	return &Exchanger{logger: opts.withLogger}
}

// RefreshIdentity posts a refresh_token grant (client_id, client_secret,
// grant_type, refresh_token as form parameters) to c.TokenURL and returns the
// tokens from the response. The returned id_token is unverified. Only the
// id_token is required in the response.
//
// An empty refresh token fails before any request is made. Every failure
// wraps ErrTokenExchange. A response with an error status also wraps an
// *oauth2.RetrieveError carrying the provider's error code.
func (e *Exchanger) RefreshIdentity(ctx context.Context, c *Config, rt RefreshToken) (*Token, error) {
	const op = "Exchanger.RefreshIdentity"
	if rt == "" {
		return nil, fmt.Errorf("%s: refresh token is empty: %w", op, ErrTokenExchange)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, ErrTokenExchange, err)
	}
	client, err := c.HTTPClient()
	if err != nil {
		return nil, fmt.Errorf("%s: unable to create http client: %w: %w", op, ErrTokenExchange, err)
	}

	form := url.Values{}
	form.Set("client_id", c.ClientID)
	form.Set("client_secret", string(c.ClientSecret))
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", string(rt))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("%s: unable to build token request: %w: %w", op, ErrTokenExchange, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: unable to refresh with provider: %w: %w", op, ErrTokenExchange, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxTokenResponseSize))
	if err != nil {
		return nil, fmt.Errorf("%s: unable to read token response: %w: %w", op, ErrTokenExchange, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		re := &oauth2.RetrieveError{Response: resp, Body: body}
		var tr tokenErrorResponse
		if json.Unmarshal(body, &tr) == nil {
			re.ErrorCode = tr.Code
			re.ErrorDescription = tr.Description
			re.ErrorURI = tr.URI
		}
		e.logger.Debug("refresh grant failed", "op", op, "token_url", c.TokenURL, "status", resp.StatusCode, "error_code", re.ErrorCode)
		return nil, fmt.Errorf("%s: unable to refresh with provider: %w: %w", op, ErrTokenExchange, re)
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return nil, fmt.Errorf("%s: token response is not json: %w: %w", op, ErrTokenExchange, err)
	}
	if tr.IDToken == "" {
		return nil, fmt.Errorf("%s: id_token is missing from refresh response: %w: %w", op, ErrTokenExchange, ErrMissingIDToken)
	}
	t := &Token{
		IDToken:      IDToken(tr.IDToken),
		AccessToken:  AccessToken(tr.AccessToken),
		RefreshToken: rt,
	}
	if tr.ExpiresIn > 0 {
		t.Expiry = time.Now().Add(time.Duration(tr.ExpiresIn) * time.Second)
	}
	// providers may rotate the refresh token
	if tr.RefreshToken != "" {
		t.RefreshToken = RefreshToken(tr.RefreshToken)
	}
	return t, nil
}

const maxTokenResponseSize = 1 << 20

type tokenResponse struct {
	IDToken      string `json:"id_token"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

type tokenErrorResponse struct {
	Code        string `json:"error"`
	Description string `json:"error_description"`
	URI         string `json:"error_uri"`
}

type exchangerOptions struct {
	withLogger hclog.Logger
}

func exchangerDefaults() exchangerOptions {
	return exchangerOptions{
		withLogger: hclog.NewNullLogger(),
	}
}

func getExchangerOpts(opt ...Option) exchangerOptions {
	opts := exchangerDefaults()
	ApplyOpts(&opts, opt...)
	return opts
}

// WithLogger provides an optional logger.
// Valid for: NewExchanger
func WithLogger(l hclog.Logger) Option {
	return func(o interface{}) {
		if o, ok := o.(*exchangerOptions); ok && l != nil {
			o.withLogger = l
		}
	}
}
