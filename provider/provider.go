// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package provider

import (
	"fmt"

	"github.com/lernkit/idp/apple"
	"github.com/lernkit/idp/issuer"
)

// ServiceTypes returns the service types New accepts.
func ServiceTypes() []string {
	return []string{apple.ServiceType}
}

// New returns the variant for serviceType.
//
// Supported options: WithLogger, WithHTTPClient, WithProviderCA, WithTimeout,
// WithMaxAttempts, WithKeySetCache
func New(serviceType string, opt ...Option) (issuer.Variant, error) {
	const op = "provider.New"
	opts := getOpts(opt...)
	switch serviceType {
	case apple.ServiceType:
		aOpts := []apple.Option{
			apple.WithLogger(opts.withLogger.Named(apple.ServiceType)),
			apple.WithHTTPClient(opts.withHTTPClient),
			apple.WithProviderCA(opts.withProviderCA),
			apple.WithTimeout(opts.withTimeout),
			apple.WithMaxAttempts(opts.withMaxAttempts),
		}
		if opts.withKeySetTTL > 0 {
			aOpts = append(aOpts, apple.WithKeySetCache(opts.withKeySetTTL))
		}
		v, err := apple.New(aOpts...)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return v, nil
	default:
		return nil, fmt.Errorf("%s: %q: %w", op, serviceType, ErrUnsupportedServiceType)
	}
}

// ForIssuer returns the variant for iss.ServiceType.
func ForIssuer(iss *issuer.Issuer, opt ...Option) (issuer.Variant, error) {
	const op = "provider.ForIssuer"
	if iss == nil {
		return nil, fmt.Errorf("%s: issuer is nil: %w", op, issuer.ErrNilParameter)
	}
	return New(iss.ServiceType, opt...)
}
