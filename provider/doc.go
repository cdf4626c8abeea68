// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// Package provider selects the issuer.Variant for an issuer's service type
// and runs the sign in side of a login with it.
package provider
