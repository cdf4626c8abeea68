// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package apple

import "errors"

var (
	ErrInvalidProfile = errors.New("invalid profile")
	ErrInvalidClaims  = errors.New("invalid identity claims")
)
