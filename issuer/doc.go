// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

/*
Package issuer is the generic model of a configured identity provider: the
Issuer record, the named Endpoints derived from its discovery document and
the store boundaries used to persist them.

Providers that follow OIDC discovery use GenericMapper. Providers that
deviate supply their own Variant, which overrides a subset of the mapping
and delegates the rest to GenericMapper.

Example:

	info, err := issuer.FetchDiscovery(ctx, iss.BaseURL, issuer.WithHTTPClient(client))
	for _, e := range issuer.GenericMapper(iss, info, nil) {
		_ = store.CreateEndpoint(ctx, e)
	}
*/
package issuer
