// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package clientsecret

import "errors"

var (
	// these may happen due to user error

	ErrMissingTeamID   = errors.New("missing team ID")
	ErrMissingClientID = errors.New("missing client ID")
	ErrMissingKeyID    = errors.New("missing key ID")
	ErrMissingAudience = errors.New("missing audience")
	ErrNilPrivateKey   = errors.New("nil private key")
	ErrUnsupportedKey  = errors.New("private key is not a P-256 key")
	ErrInvalidLifetime = errors.New("invalid lifetime")

	// if these happen, either the user directly instantiated &Secret{}
	// or there's a bug somewhere.

	ErrMissingFuncNow = errors.New("missing now func; please use New()")
	ErrCreatingSigner = errors.New("error creating jwt signer")
)
