// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package oidc

import (
	"errors"
)

var (
	ErrInvalidParameter   = errors.New("invalid parameter")
	ErrNilParameter       = errors.New("nil parameter")
	ErrInvalidCACert      = errors.New("invalid CA certificate")
	ErrTokenExchange      = errors.New("token exchange failed")
	ErrMissingIDToken     = errors.New("id_token is missing")
	ErrIdentityIncomplete = errors.New("identity is incomplete")
	ErrLoginFailed        = errors.New("login failed")
)

// PublicLoginFailure is the only text about a failed sign-in that should be
// shown to the end user. The wrapped error kinds belong in logs.
const PublicLoginFailure = "authentication failed"

// PublicErrorMessage returns the message to display for a sign-in error, or
// an empty string when err is nil.
func PublicErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	return PublicLoginFailure
}
