// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package issuer

import "errors"

var (
	ErrInvalidParameter   = errors.New("invalid parameter")
	ErrNilParameter       = errors.New("nil parameter")
	ErrNotFound           = errors.New("not found")
	ErrDiscoveryFailed    = errors.New("discovery failed")
	ErrEndpointNotDefined = errors.New("endpoint not defined")
)
