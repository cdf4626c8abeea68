// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package issuer

import (
	"context"

	"github.com/lernkit/idp/oidc"
)

// Variant is the provider specific behaviour of an issuer, selected by its
// ServiceType when the issuer is configured.
type Variant interface {
	// ServiceType is the tag stored in Issuer.ServiceType.
	ServiceType() string

	// Template returns the bootstrap values for a new issuer.
	Template() Template

	// Discover fetches the provider's discovery document and persists the
	// endpoints derived from it.
	Discover(ctx context.Context, iss *Issuer, store Store) (Endpoints, error)

	// ExchangeIdentity turns a refresh token into verified identity claims.
	ExchangeIdentity(ctx context.Context, iss *Issuer, endpoints Endpoints, rt oidc.RefreshToken) (map[string]interface{}, error)

	// NormalizeUserInfo maps verified claims, plus any profile captured at
	// authorization time, to a UserInfo.
	NormalizeUserInfo(claims map[string]interface{}, slot *oidc.ProfileSlot) (*oidc.UserInfo, error)
}
