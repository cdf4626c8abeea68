// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package reminder

import (
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/jonboulle/clockwork"
	"golang.org/x/text/language"
)

// DefaultServiceType is the Issuer.ServiceType the job looks at.
const DefaultServiceType = "apple"

// Option defines a common functional options type which can be used in a
// variadic parameter pattern.
type Option func(interface{})

// ApplyOpts takes a pointer to the options struct as a set of default options
// and applies the slice of opts as overrides.
func ApplyOpts(opts interface{}, opt ...Option) {
	for _, o := range opt {
		if o == nil { // ignore any nil Options
			continue
		}
		o(opts)
	}
}

type jobOptions struct {
	withClock           clockwork.Clock
	withLocation        *time.Location
	withDisplayLocation *time.Location
	withServiceType     string
	withLogger          hclog.Logger
	withDefaultLanguage language.Tag
}

func jobDefaults() jobOptions {
	return jobOptions{
		withClock:           clockwork.NewRealClock(),
		withLocation:        time.UTC,
		withDisplayLocation: time.Local,
		withServiceType:     DefaultServiceType,
		withLogger:          hclog.NewNullLogger(),
		withDefaultLanguage: language.English,
	}
}

func getJobOpts(opt ...Option) jobOptions {
	opts := jobDefaults()
	ApplyOpts(&opts, opt...)
	return opts
}

// WithClock provides the clock used for "now".
func WithClock(c clockwork.Clock) Option {
	return func(o interface{}) {
		if o, ok := o.(*jobOptions); ok && c != nil {
			o.withClock = c
		}
	}
}

// WithLocation sets the timezone in which calendar dates are compared. The
// default is UTC.
func WithLocation(loc *time.Location) Option {
	return func(o interface{}) {
		if o, ok := o.(*jobOptions); ok && loc != nil {
			o.withLocation = loc
		}
	}
}

// WithDisplayLocation sets the timezone used to show the expiry to
// recipients without a timezone of their own. The default is the system's.
func WithDisplayLocation(loc *time.Location) Option {
	return func(o interface{}) {
		if o, ok := o.(*jobOptions); ok && loc != nil {
			o.withDisplayLocation = loc
		}
	}
}

// WithServiceType overrides the issuer service type the job checks.
func WithServiceType(serviceType string) Option {
	return func(o interface{}) {
		if o, ok := o.(*jobOptions); ok && serviceType != "" {
			o.withServiceType = serviceType
		}
	}
}

// WithLogger provides an optional logger.
func WithLogger(l hclog.Logger) Option {
	return func(o interface{}) {
		if o, ok := o.(*jobOptions); ok && l != nil {
			o.withLogger = l
		}
	}
}

// WithDefaultLanguage sets the language of messages for recipients without
// one, English by default.
func WithDefaultLanguage(tag language.Tag) Option {
	return func(o interface{}) {
		if o, ok := o.(*jobOptions); ok {
			o.withDefaultLanguage = matchLanguage(tag.String(), language.English)
		}
	}
}
