// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package reminder

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"
	"github.com/jonboulle/clockwork"
	"github.com/lernkit/idp/issuer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memAdmins struct {
	ids   []int64
	users map[int64]*Recipient
	err   error
}

func (a *memAdmins) SiteAdminIDs(context.Context) ([]int64, error) {
	return a.ids, a.err
}

func (a *memAdmins) LookupUser(_ context.Context, id int64) (*Recipient, error) {
	u, ok := a.users[id]
	if !ok {
		return nil, fmt.Errorf("user %d: %w", id, ErrUnknownRecipient)
	}
	return u, nil
}

func testAdmins() *memAdmins {
	return &memAdmins{
		ids: []int64{2, 3},
		users: map[int64]*Recipient{
			2: {ID: 2, FullName: "Ada Admin", Email: "ada@example.com"},
			3: {ID: 3, FullName: "Bernd Admin", Email: "bernd@example.com", Lang: "de"},
		},
	}
}

type recordingDispatcher struct {
	mu      sync.Mutex
	sent    []Message
	failTo  map[int64]bool
	block   chan struct{}
	entered chan struct{}
}

func (d *recordingDispatcher) Send(_ context.Context, m Message) error {
	if d.entered != nil {
		d.entered <- struct{}{}
	}
	if d.block != nil {
		<-d.block
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.failTo[m.To.ID] {
		return errors.New("mailbox unavailable")
	}
	d.sent = append(d.sent, m)
	return nil
}

func (d *recordingDispatcher) messages() []Message {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Message(nil), d.sent...)
}

var testNow = time.Date(2026, 10, 14, 9, 30, 0, 0, time.UTC)

func testJob(t *testing.T, store IssuerLister, admins AdminRegistry, d Dispatcher, opt ...Option) *Job {
	t.Helper()
	opts := append([]Option{
		WithClock(clockwork.NewFakeClockAt(testNow)),
		WithDisplayLocation(time.UTC),
		WithLogger(hclog.NewNullLogger()),
	}, opt...)
	j, err := NewJob(store, admins, d, "Example LMS", "https://lms.example.com/admin/tool", opts...)
	require.NoError(t, err)
	return j
}

func testAppleIssuer(t *testing.T, id int64, exp time.Time) *issuer.Issuer {
	t.Helper()
	return &issuer.Issuer{
		ID:           id,
		Name:         fmt.Sprintf("Apple %d", id),
		Enabled:      true,
		ServiceType:  DefaultServiceType,
		ClientID:     "com.example.lms",
		ClientSecret: testClientSecret(t, exp),
	}
}

func TestJob_SendExpiryReminder(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	tests := []struct {
		name         string
		exp          time.Time
		admins       *memAdmins
		failTo       map[int64]bool
		want         bool
		wantMessages int
	}{
		{
			name:         "overdue-by-one-week",
			exp:          testNow.AddDate(0, 0, -7),
			admins:       testAdmins(),
			want:         true,
			wantMessages: 2,
		},
		{
			name:         "due-today",
			exp:          testNow.Add(10 * time.Hour),
			admins:       testAdmins(),
			want:         true,
			wantMessages: 2,
		},
		{
			name:   "expires-next-week",
			exp:    testNow.AddDate(0, 0, 7),
			admins: testAdmins(),
			want:   false,
		},
		{
			name:         "one-recipient-fails",
			exp:          testNow,
			admins:       testAdmins(),
			failTo:       map[int64]bool{2: true},
			want:         true,
			wantMessages: 1,
		},
		{
			name: "one-recipient-unknown",
			exp:  testNow,
			admins: func() *memAdmins {
				a := testAdmins()
				a.ids = []int64{9, 2, 3}
				return a
			}(),
			want:         true,
			wantMessages: 2,
		},
		{
			name: "admin-registry-unavailable",
			exp:  testNow,
			admins: func() *memAdmins {
				a := testAdmins()
				a.err = errors.New("registry down")
				return a
			}(),
			want: true,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert := assert.New(t)
			d := &recordingDispatcher{failTo: tt.failTo}
			j := testJob(t, issuer.NewMemStore(), tt.admins, d)

			iss := testAppleIssuer(t, 7, tt.exp)
			assert.Equal(tt.want, j.SendExpiryReminder(ctx, iss))

			msgs := d.messages()
			assert.Len(msgs, tt.wantMessages)
			for _, m := range msgs {
				assert.Contains(m.Subject, "Example LMS: ")
				assert.Contains(m.Body, "https://lms.example.com/admin/tool/oauth2/issuers.php?id=7&action=edit")
				assert.Contains(m.Body, m.To.FullName)
				assert.Contains(m.Body, "Apple 7")
			}
		})
	}
	t.Run("nil-issuer", func(t *testing.T) {
		j := testJob(t, issuer.NewMemStore(), testAdmins(), &recordingDispatcher{})
		assert.False(t, j.SendExpiryReminder(ctx, nil))
	})
}

func TestJob_Run(t *testing.T) {
	t.Parallel()
	assert, require := assert.New(t), require.New(t)
	ctx := context.Background()

	store := issuer.NewMemStore()
	due := testAppleIssuer(t, 1, testNow)
	overdue := testAppleIssuer(t, 2, testNow.AddDate(0, 0, -7))
	notDue := testAppleIssuer(t, 3, testNow.AddDate(0, 0, 30))
	disabled := testAppleIssuer(t, 4, testNow)
	disabled.Enabled = false
	otherType := testAppleIssuer(t, 5, testNow)
	otherType.ServiceType = "google"
	noExpiry := testAppleIssuer(t, 6, testNow)
	noExpiry.ClientSecret = "plain-shared-secret"
	for _, iss := range []*issuer.Issuer{due, overdue, notDue, disabled, otherType, noExpiry} {
		require.NoError(store.AddIssuer(iss))
	}

	d := &recordingDispatcher{}
	j := testJob(t, store, testAdmins(), d)
	require.NoError(j.Run(ctx))

	msgs := d.messages()
	require.Len(msgs, 4)
	perIssuer := map[string]int{}
	for _, m := range msgs {
		for _, name := range []string{due.Name, overdue.Name} {
			if strings.Contains(m.Body, name) {
				perIssuer[name]++
			}
		}
	}
	assert.Equal(map[string]int{due.Name: 2, overdue.Name: 2}, perIssuer)
}

type failingLister struct{}

func (failingLister) ListIssuers(context.Context) ([]*issuer.Issuer, error) {
	return nil, errors.New("database is gone")
}

func TestJob_Run_Errors(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("issuer-list-unavailable", func(t *testing.T) {
		t.Parallel()
		j := testJob(t, failingLister{}, testAdmins(), &recordingDispatcher{})
		assert.ErrorContains(t, j.Run(ctx), "unable to list issuers")
	})

	t.Run("failures-are-collected", func(t *testing.T) {
		t.Parallel()
		assert, require := assert.New(t), require.New(t)
		store := issuer.NewMemStore()
		require.NoError(store.AddIssuer(testAppleIssuer(t, 1, testNow)))
		require.NoError(store.AddIssuer(testAppleIssuer(t, 2, testNow.AddDate(0, 0, -7))))
		require.NoError(store.AddIssuer(testAppleIssuer(t, 3, testNow.AddDate(0, 0, 1))))

		admins := testAdmins()
		admins.err = errors.New("registry down")
		j := testJob(t, store, admins, &recordingDispatcher{})

		err := j.Run(ctx)
		require.Error(err)
		var merr *multierror.Error
		require.True(errors.As(err, &merr))
		assert.Len(merr.Errors, 2)
		assert.Contains(err.Error(), "issuer 1")
		assert.Contains(err.Error(), "issuer 2")
	})

	t.Run("cancelled", func(t *testing.T) {
		t.Parallel()
		require := require.New(t)
		store := issuer.NewMemStore()
		require.NoError(store.AddIssuer(testAppleIssuer(t, 1, testNow)))
		d := &recordingDispatcher{}
		j := testJob(t, store, testAdmins(), d)

		cctx, cancel := context.WithCancel(ctx)
		cancel()
		err := j.Run(cctx)
		require.Error(err)
		assert.True(t, errors.Is(err, context.Canceled))
		assert.Empty(t, d.messages())
	})
}

func TestJob_Run_InProgress(t *testing.T) {
	t.Parallel()
	assert, require := assert.New(t), require.New(t)
	ctx := context.Background()

	store := issuer.NewMemStore()
	require.NoError(store.AddIssuer(testAppleIssuer(t, 1, testNow)))
	d := &recordingDispatcher{
		block:   make(chan struct{}),
		entered: make(chan struct{}, 2),
	}
	j := testJob(t, store, testAdmins(), d)

	done := make(chan error, 1)
	go func() { done <- j.Run(ctx) }()
	<-d.entered

	err := j.Run(ctx)
	assert.Truef(errors.Is(err, ErrRunInProgress), "wanted \"%s\" but got \"%s\"", ErrRunInProgress, err)

	close(d.block)
	require.NoError(<-done)
	assert.Len(d.messages(), 2)

	// the lock is released once the run completes
	d2 := &recordingDispatcher{}
	j.dispatcher = d2
	require.NoError(j.Run(ctx))
	assert.Len(d2.messages(), 2)
}

func TestNewJob(t *testing.T) {
	t.Parallel()
	store := issuer.NewMemStore()
	admins := testAdmins()
	d := &recordingDispatcher{}

	tests := []struct {
		name      string
		issuers   IssuerLister
		admins    AdminRegistry
		d         Dispatcher
		baseURL   string
		wantIsErr error
	}{
		{name: "valid", issuers: store, admins: admins, d: d, baseURL: "https://lms.example.com/admin/tool"},
		{name: "nil-issuers", admins: admins, d: d, baseURL: "https://lms.example.com", wantIsErr: ErrNilParameter},
		{name: "nil-admins", issuers: store, d: d, baseURL: "https://lms.example.com", wantIsErr: ErrNilParameter},
		{name: "nil-dispatcher", issuers: store, admins: admins, baseURL: "https://lms.example.com", wantIsErr: ErrNilParameter},
		{name: "no-base-url", issuers: store, admins: admins, d: d, wantIsErr: ErrInvalidParameter},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert, require := assert.New(t), require.New(t)
			j, err := NewJob(tt.issuers, tt.admins, tt.d, "Example LMS", tt.baseURL)
			if tt.wantIsErr != nil {
				require.Error(err)
				assert.Nil(j)
				assert.Truef(errors.Is(err, tt.wantIsErr), "wanted \"%s\" but got \"%s\"", tt.wantIsErr, err)
				return
			}
			require.NoError(err)
			assert.NotNil(j)
		})
	}
}
