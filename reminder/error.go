// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package reminder

import "errors"

var (
	ErrInvalidParameter = errors.New("invalid parameter")
	ErrNilParameter     = errors.New("nil parameter")
	ErrRunInProgress    = errors.New("run already in progress")
	ErrUnknownRecipient = errors.New("unknown recipient")
)
