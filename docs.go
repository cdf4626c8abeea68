// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// idp provides the provider core of signing users in with Apple: verifying
// identity tokens obtained through refresh grants, mapping the provider's
// discovery metadata onto generic issuer endpoints, and reminding site
// administrators before the provider's signed client secret expires.
//
// Packages:
//
//   - jwt: decoding and verification of compact signed tokens, JWKS fetching
//   - oidc: refresh grant exchange, identity normalization, TestProvider
//   - oidc/clientsecret: generating and inspecting signed client secrets
//   - issuer: the generic issuer model and discovery mapping
//   - apple: the Apple issuer variant
//   - provider: variant selection and login sessions
//   - reminder: the client secret expiry reminder job
package idp
