// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

/*
Package oidc is the protocol side of signing a user in with a provider that
delivers identity through its token endpoint.

# Primary types provided by the package

* Config: the relying party's credentials and the provider's token endpoint,
plus how to reach it (CA, timeout, or a caller supplied http.Client).

* Exchanger: runs a refresh_token grant and returns the Token, whose
id_token still has to be verified (see the jwt package).

* Token, RefreshToken, IDToken, AccessToken, ClientSecret: values that
redact themselves when printed or marshaled to json.

* UserInfo, Profile, ProfileSlot: the normalized identity handed to account
matching, and the single use carrier of the name a provider only sends on
first authorization. Normalize builds a UserInfo from verified claims.

* TestProvider: a local TLS provider for tests, started with
StartTestProvider.

# The oidc.clientsecret package

The clientsecret package builds and inspects client secrets that are signed
JWTs.
*/
package oidc
