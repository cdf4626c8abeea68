// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package reminder

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"testing"
	"time"

	"github.com/lernkit/idp/issuer"
	"github.com/lernkit/idp/oidc"
	"github.com/lernkit/idp/oidc/clientsecret"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testClientSecret returns a client secret that expires at exp.
func testClientSecret(t *testing.T, exp time.Time) oidc.ClientSecret {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	s, err := clientsecret.New("TEAM123456", "com.example.lms", "KEY1234567", key,
		clientsecret.WithLifetime(24*time.Hour),
		clientsecret.WithNow(func() time.Time { return exp.Add(-24 * time.Hour) }),
	)
	require.NoError(t, err)
	raw, err := s.Serialize()
	require.NoError(t, err)
	return oidc.ClientSecret(raw)
}

func TestCheckDue(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 10, 14, 9, 30, 0, 0, time.UTC)
	startOfDay := time.Date(2026, 10, 14, 0, 0, 0, 0, time.UTC)

	t.Run("due-today-at-any-time-of-day", func(t *testing.T) {
		t.Parallel()
		for h := 0; h < 24; h++ {
			exp := startOfDay.Add(time.Duration(h)*time.Hour + 59*time.Second)
			iss := &issuer.Issuer{ClientSecret: testClientSecret(t, exp)}
			assert.Equalf(t, DueToday, CheckDue(iss, now, nil), "exp %s", exp)
		}
	})
	t.Run("overdue-by-one-week-at-any-time-of-day", func(t *testing.T) {
		t.Parallel()
		for h := 0; h < 24; h++ {
			exp := startOfDay.AddDate(0, 0, -7).Add(time.Duration(h) * time.Hour)
			iss := &issuer.Issuer{ClientSecret: testClientSecret(t, exp)}
			assert.Equalf(t, OverdueByOneWeek, CheckDue(iss, now, time.UTC), "exp %s", exp)
		}
	})
	t.Run("not-due", func(t *testing.T) {
		t.Parallel()
		for _, days := range []int{-8, -6, -5, -1, 1, 2, 7, 30, 180} {
			exp := now.AddDate(0, 0, days)
			iss := &issuer.Issuer{ClientSecret: testClientSecret(t, exp)}
			assert.Equalf(t, NotDue, CheckDue(iss, now, nil), "exp %s", exp)
		}
	})
	t.Run("no-expiry-known", func(t *testing.T) {
		t.Parallel()
		secrets := []oidc.ClientSecret{
			"",
			"plain-shared-secret",
			"eyJhbGciOiJFUzI1NiJ9.bm90IGpzb24.sig",
			// {"alg":"ES256"} . {"sub":"x"}
			"eyJhbGciOiJFUzI1NiJ9.eyJzdWIiOiJ4In0.sig",
			// {"alg":"ES256"} . {"exp":"tomorrow"}
			"eyJhbGciOiJFUzI1NiJ9.eyJleHAiOiJ0b21vcnJvdyJ9.sig",
		}
		for _, s := range secrets {
			assert.Equalf(t, NoExpiryKnown, CheckDue(&issuer.Issuer{ClientSecret: s}, now, nil), "secret %q", string(s))
		}
		assert.Equal(t, NoExpiryKnown, CheckDue(nil, now, nil))
	})
	t.Run("dates-compared-in-one-location", func(t *testing.T) {
		t.Parallel()
		assert, require := assert.New(t), require.New(t)
		tokyo, err := time.LoadLocation("Asia/Tokyo")
		require.NoError(err)
		// 2026-10-14 20:00 UTC is already 2026-10-15 in Tokyo
		exp := time.Date(2026, 10, 14, 20, 0, 0, 0, time.UTC)
		iss := &issuer.Issuer{ClientSecret: testClientSecret(t, exp)}
		assert.Equal(DueToday, CheckDue(iss, now, time.UTC))
		assert.Equal(NotDue, CheckDue(iss, now, tokyo))
	})
}

func TestDueStatus_String(t *testing.T) {
	t.Parallel()
	assert := assert.New(t)
	assert.Equal("not-due", NotDue.String())
	assert.Equal("due-today", DueToday.String())
	assert.Equal("overdue-by-one-week", OverdueByOneWeek.String())
	assert.Equal("no-expiry-known", NoExpiryKnown.String())
	assert.Equal("due-status(9)", DueStatus(9).String())
	assert.True(DueToday.Actionable())
	assert.True(OverdueByOneWeek.Actionable())
	assert.False(NotDue.Actionable())
	assert.False(NoExpiryKnown.Actionable())
}
