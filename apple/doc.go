// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

/*
Package apple is the Sign in with Apple issuer variant.

The provider deviates from OIDC in a few ways this package handles:

  - It has no working userinfo endpoint. The identity of a user is obtained
    by running a refresh grant against the token endpoint and verifying the
    returned id_token against the provider's JWKS, so discovery records the
    token endpoint under the "userinfo_endpoint" name.
  - The user's name is only posted (form_post) once, when the user first
    authorizes the relying party. CaptureProfile stores it in a single use
    oidc.ProfileSlot for the next normalization.
  - The client secret is an ES256 signed JWT with an expiry, see
    oidc/clientsecret and the reminder package.

Example:

	p, err := apple.New(apple.WithLogger(logger))
	endpoints, err := p.Discover(ctx, iss, store)

	// in the authorization callback
	err = apple.CaptureProfile(req.PostForm, slot)

	c, err := provider.NewClient(p, iss, endpoints, refreshToken, slot)
	info, err := c.UserInfo(ctx)
	if err != nil {
		http.Error(w, oidc.PublicErrorMessage(err), http.StatusUnauthorized)
	}
*/
package apple
