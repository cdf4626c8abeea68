// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

/*
Package reminder is the scheduled job that warns site administrators before
(and after) the client secret of an Apple issuer expires.

The client secret is a signed token whose "exp" claim is read without
verification; the operator generated it, so it's configuration, not a
credential presented by a user. A reminder is due on the calendar day the
secret expires and again exactly one week after that day.

The host scheduler calls Job.Run on a cron like cadence:

	j, err := reminder.NewJob(store, admins, mailer, "Example LMS", "https://lms.example.com/admin/tool",
		reminder.WithLogger(logger),
	)
	if err := j.Run(ctx); err != nil {
		logger.Error("expiry reminder run failed", "error", err)
	}
*/
package reminder
