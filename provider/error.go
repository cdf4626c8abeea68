// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package provider

import "errors"

var ErrUnsupportedServiceType = errors.New("unsupported service type")
