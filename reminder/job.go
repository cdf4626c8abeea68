// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package reminder

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"
	"github.com/jonboulle/clockwork"
	"github.com/lernkit/idp/issuer"
	"github.com/lernkit/idp/sdk/id"
)

// IssuerLister lists every configured issuer, enabled or not.
type IssuerLister interface {
	ListIssuers(ctx context.Context) ([]*issuer.Issuer, error)
}

// AdminRegistry resolves the site administrators.
type AdminRegistry interface {
	// SiteAdminIDs returns the ids of the site administrators.
	SiteAdminIDs(ctx context.Context) ([]int64, error)

	// LookupUser returns the administrator with the given id.
	LookupUser(ctx context.Context, id int64) (*Recipient, error)
}

// Dispatcher delivers a message, typically by email.
type Dispatcher interface {
	Send(ctx context.Context, m Message) error
}

// Job checks Apple issuers for client secrets that are due for renewal and
// notifies the site administrators. Runs don't overlap: a Run started while
// another is in progress returns ErrRunInProgress.
type Job struct {
	issuers    IssuerLister
	admins     AdminRegistry
	dispatcher Dispatcher
	composer   composer

	clock       clockwork.Clock
	loc         *time.Location
	serviceType string
	logger      hclog.Logger

	running atomic.Bool
}

// NewJob creates a Job. siteName prefixes every subject and adminBaseURL is
// the root under which the issuer edit screen lives.
//
// Supported options: WithClock, WithLocation, WithDisplayLocation,
// WithServiceType, WithLogger, WithDefaultLanguage
func NewJob(issuers IssuerLister, admins AdminRegistry, dispatcher Dispatcher, siteName, adminBaseURL string, opt ...Option) (*Job, error) {
	const op = "reminder.NewJob"
	switch {
	case issuers == nil:
		return nil, fmt.Errorf("%s: issuer lister is nil: %w", op, ErrNilParameter)
	case admins == nil:
		return nil, fmt.Errorf("%s: admin registry is nil: %w", op, ErrNilParameter)
	case dispatcher == nil:
		return nil, fmt.Errorf("%s: dispatcher is nil: %w", op, ErrNilParameter)
	case adminBaseURL == "":
		return nil, fmt.Errorf("%s: admin base url is empty: %w", op, ErrInvalidParameter)
	}
	opts := getJobOpts(opt...)
	return &Job{
		issuers:    issuers,
		admins:     admins,
		dispatcher: dispatcher,
		composer: composer{
			siteName:     siteName,
			adminBaseURL: adminBaseURL,
			defaultLang:  opts.withDefaultLanguage,
			defaultLoc:   opts.withDisplayLocation,
		},
		clock:       opts.withClock,
		loc:         opts.withLocation,
		serviceType: opts.withServiceType,
		logger:      opts.withLogger,
	}, nil
}

// Run checks every enabled issuer of the job's service type. A failure with
// one issuer doesn't stop the others; the failures are returned together once
// every issuer has been looked at.
func (j *Job) Run(ctx context.Context) error {
	const op = "Job.Run"
	if !j.running.CompareAndSwap(false, true) {
		j.logger.Warn("skipping run, previous run still in progress", "op", op)
		return fmt.Errorf("%s: %w", op, ErrRunInProgress)
	}
	defer j.running.Store(false)

	runID, err := id.New(id.RunPrefix)
	if err != nil {
		return fmt.Errorf("%s: unable to generate run id: %w", op, err)
	}
	logger := j.logger.With("run_id", runID)

	issuers, err := j.issuers.ListIssuers(ctx)
	if err != nil {
		return fmt.Errorf("%s: unable to list issuers: %w", op, err)
	}

	var result *multierror.Error
	checked := 0
	for _, iss := range issuers {
		if err := ctx.Err(); err != nil {
			result = multierror.Append(result, fmt.Errorf("%s: %w", op, err))
			break
		}
		if iss == nil || !iss.Enabled || iss.ServiceType != j.serviceType {
			continue
		}
		checked++
		if _, err := j.sendExpiryReminder(ctx, logger, iss); err != nil {
			result = multierror.Append(result, err)
		}
	}
	logger.Debug("run complete", "op", op, "issuers_checked", checked)
	return result.ErrorOrNil()
}

// SendExpiryReminder sends the expiry reminder for iss to every site
// administrator if one is due today. It reports whether a reminder was due
// and attempted; how each delivery went is only logged.
func (j *Job) SendExpiryReminder(ctx context.Context, iss *issuer.Issuer) bool {
	sent, _ := j.sendExpiryReminder(ctx, j.logger, iss)
	return sent
}

func (j *Job) sendExpiryReminder(ctx context.Context, logger hclog.Logger, iss *issuer.Issuer) (bool, error) {
	const op = "Job.sendExpiryReminder"
	if iss == nil {
		return false, fmt.Errorf("%s: issuer is nil: %w", op, ErrNilParameter)
	}
	logger = logger.With("issuer_id", iss.ID)

	now := j.clock.Now()
	status := CheckDue(iss, now, j.loc)
	logger.Debug("checked client secret expiry", "op", op, "status", status.String())
	if !status.Actionable() {
		return false, nil
	}
	exp, _ := Expiry(string(iss.ClientSecret))

	adminIDs, err := j.admins.SiteAdminIDs(ctx)
	if err != nil {
		logger.Error("unable to list site administrators", "op", op, "error", err)
		return true, fmt.Errorf("%s: issuer %d: unable to list site administrators: %w", op, iss.ID, err)
	}
	for _, adminID := range adminIDs {
		to, err := j.admins.LookupUser(ctx, adminID)
		if err != nil || to == nil {
			logger.Error("unable to resolve site administrator", "op", op, "recipient", adminID, "error", err)
			continue
		}
		m := j.composer.compose(*to, iss, exp)
		if err := j.dispatcher.Send(ctx, m); err != nil {
			logger.Error("error sending expiry reminder", "op", op, "recipient", to.FullName, "error", err)
			continue
		}
		logger.Info("expiry reminder sent", "op", op, "recipient", to.FullName)
	}
	return true, nil
}
