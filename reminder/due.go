// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package reminder

import (
	"fmt"
	"time"

	"github.com/lernkit/idp/issuer"
	"github.com/lernkit/idp/oidc/clientsecret"
)

// DueStatus is the outcome of checking a client secret's expiry.
type DueStatus int

const (
	// NotDue means no reminder is sent today.
	NotDue DueStatus = iota

	// DueToday means the secret expires today.
	DueToday

	// OverdueByOneWeek means the secret expired exactly a week ago.
	OverdueByOneWeek

	// NoExpiryKnown means the secret doesn't carry a readable expiry. It's
	// never actionable.
	NoExpiryKnown
)

func (s DueStatus) String() string {
	switch s {
	case NotDue:
		return "not-due"
	case DueToday:
		return "due-today"
	case OverdueByOneWeek:
		return "overdue-by-one-week"
	case NoExpiryKnown:
		return "no-expiry-known"
	default:
		return fmt.Sprintf("due-status(%d)", int(s))
	}
}

// Actionable reports whether a reminder should be sent.
func (s DueStatus) Actionable() bool {
	return s == DueToday || s == OverdueByOneWeek
}

// Expiry returns the "exp" of a client secret. Secrets that aren't a token,
// or carry no numeric exp, report false.
func Expiry(secret string) (time.Time, bool) {
	info, err := clientsecret.Parse(secret)
	if err != nil || !info.HasExpiry() {
		return time.Time{}, false
	}
	return info.Expiry, true
}

// CheckDue compares the calendar date of the issuer's client secret expiry
// with the calendar date of now, and with the date one week before now.
// Both dates are taken in loc; a nil loc means UTC.
func CheckDue(iss *issuer.Issuer, now time.Time, loc *time.Location) DueStatus {
	if iss == nil {
		return NoExpiryKnown
	}
	exp, ok := Expiry(string(iss.ClientSecret))
	if !ok {
		return NoExpiryKnown
	}
	return checkDate(exp, now, loc)
}

type civilDate struct {
	year  int
	month time.Month
	day   int
}

func dateOf(t time.Time, loc *time.Location) civilDate {
	y, m, d := t.In(loc).Date()
	return civilDate{year: y, month: m, day: d}
}

func checkDate(exp, now time.Time, loc *time.Location) DueStatus {
	if loc == nil {
		loc = time.UTC
	}
	expDate := dateOf(exp, loc)
	today := now.In(loc)
	switch expDate {
	case dateOf(today, loc):
		return DueToday
	case dateOf(today.AddDate(0, 0, -7), loc):
		return OverdueByOneWeek
	default:
		return NotDue
	}
}
