// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package http

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"net/http"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-retryablehttp"
)

// DefaultTimeout is the request timeout applied to every outbound call when
// the caller doesn't provide one. Identity fetches happen inline in a login
// so it's kept short.
const DefaultTimeout = 10 * time.Second

// DefaultMaxAttempts caps the number of attempts made by a retry client.
const DefaultMaxAttempts = 3

var ErrInvalidCertificatePem = errors.New("invalid certificate PEM")

// NewClient creates a new http client which will use the optional CA
// certificate PEM if provided, otherwise it will use the installed system CA
// chain. A zero timeout means DefaultTimeout.
func NewClient(caPEM string, timeout time.Duration) (*http.Client, error) {
	tr, err := newTransport(caPEM)
	if err != nil {
		return nil, err
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{
		Transport: tr,
		Timeout:   timeout,
	}, nil
}

// NewRetryClient wraps NewClient with bounded exponential backoff. Each
// attempt is subject to timeout; at most maxAttempts requests are made (zero
// means DefaultMaxAttempts). The logger is optional.
func NewRetryClient(caPEM string, timeout time.Duration, maxAttempts int, logger hclog.Logger) (*http.Client, error) {
	base, err := NewClient(caPEM, timeout)
	if err != nil {
		return nil, err
	}
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	rc := retryablehttp.NewClient()
	rc.HTTPClient = base
	rc.RetryMax = maxAttempts - 1
	rc.RetryWaitMin = 100 * time.Millisecond
	rc.RetryWaitMax = 1 * time.Second
	rc.Logger = logger
	// hand the last response back to the caller instead of a generic
	// "giving up" error so status-code handling stays with the caller.
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	return rc.StandardClient(), nil
}

func newTransport(caPEM string) (*http.Transport, error) {
	tr := cleanhttp.DefaultPooledTransport()

	if caPEM != "" {
		certPool := x509.NewCertPool()
		if ok := certPool.AppendCertsFromPEM([]byte(caPEM)); !ok {
			return nil, ErrInvalidCertificatePem
		}

		tr.TLSClientConfig = &tls.Config{
			RootCAs: certPool,
		}
	}
	return tr, nil
}
