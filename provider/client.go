// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package provider

import (
	"context"
	"fmt"
	"sync"

	"github.com/hashicorp/go-hclog"
	"github.com/lernkit/idp/issuer"
	"github.com/lernkit/idp/oidc"
)

// Client is the login session of one user with one issuer. It holds the
// user's refresh token and the profile captured at authorization time for the
// duration of the login; neither is persisted.
type Client struct {
	variant   issuer.Variant
	iss       *issuer.Issuer
	endpoints issuer.Endpoints
	slot      *oidc.ProfileSlot
	logger    hclog.Logger

	mu           sync.Mutex
	refreshToken oidc.RefreshToken
	rawUserInfo  map[string]interface{}
}

// NewClient creates a login session. slot may be nil.
//
// Supported options: WithLogger
func NewClient(v issuer.Variant, iss *issuer.Issuer, endpoints issuer.Endpoints, rt oidc.RefreshToken, slot *oidc.ProfileSlot, opt ...Option) (*Client, error) {
	const op = "provider.NewClient"
	switch {
	case v == nil:
		return nil, fmt.Errorf("%s: variant is nil: %w", op, issuer.ErrNilParameter)
	case iss == nil:
		return nil, fmt.Errorf("%s: issuer is nil: %w", op, issuer.ErrNilParameter)
	}
	opts := getOpts(opt...)
	return &Client{
		variant:      v,
		iss:          iss,
		endpoints:    endpoints,
		slot:         slot,
		logger:       opts.withLogger,
		refreshToken: rt,
	}, nil
}

// RawUserInfo returns the verified identity claims, exchanging the refresh
// token on first use. Later calls within the session reuse the claims.
func (c *Client) RawUserInfo(ctx context.Context) (map[string]interface{}, error) {
	const op = "Client.RawUserInfo"
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.rawUserInfo != nil {
		return c.rawUserInfo, nil
	}
	claims, err := c.variant.ExchangeIdentity(ctx, c.iss, c.endpoints, c.refreshToken)
	if err != nil {
		c.logger.Error("identity exchange failed", "op", op, "issuer_id", c.iss.ID, "error", err)
		return nil, fmt.Errorf("%s: %w: %w", op, oidc.ErrLoginFailed, err)
	}
	c.rawUserInfo = claims
	return claims, nil
}

// UserInfo returns the normalized identity of the session's user. On any
// failure it returns a nil UserInfo and an error wrapping oidc.ErrLoginFailed;
// use oidc.PublicErrorMessage for what to show the user.
func (c *Client) UserInfo(ctx context.Context) (*oidc.UserInfo, error) {
	const op = "Client.UserInfo"
	claims, err := c.RawUserInfo(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	info, err := c.variant.NormalizeUserInfo(claims, c.slot)
	if err != nil {
		c.logger.Error("unable to normalize identity", "op", op, "issuer_id", c.iss.ID, "error", err)
		return nil, fmt.Errorf("%s: %w: %w", op, oidc.ErrLoginFailed, err)
	}
	return info, nil
}
