// Package storetest is the behaviour every store driver must share. Driver
// tests call Run with a constructor for a fresh, migrated store.
package storetest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/fitra/internal/auth/domain"
	"github.com/aussiebroadwan/fitra/internal/auth/store"
	"github.com/aussiebroadwan/fitra/pkg/idx"
	"github.com/stretchr/testify/require"
)

// Run executes the conformance suite. open must return an empty store with
// migrations applied; Run closes it.
func Run(t *testing.T, open func(t *testing.T) store.Store) {
	t.Helper()

	tests := []struct {
		name string
		fn   func(t *testing.T, s store.Store)
	}{
		{"CreateAndGetUser", testCreateAndGetUser},
		{"DuplicateEmail", testDuplicateEmail},
		{"ConcurrentDuplicateEmail", testConcurrentDuplicateEmail},
		{"UserNotFound", testUserNotFound},
		{"CountUsers", testCountUsers},
		{"RevokedSessions", testRevokedSessions},
		{"DeleteExpiredRevocations", testDeleteExpiredRevocations},
		{"MigrationsIdempotent", testMigrationsIdempotent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := open(t)
			t.Cleanup(func() { _ = s.Close() })
			tt.fn(t, s)
		})
	}
}

func newUser(email string) domain.User {
	return domain.User{
		ID:           idx.New().String(),
		Email:        email,
		Name:         "Test User",
		PasswordHash: "$argon2id$v=19$m=19456,t=2,p=1$c2FsdA$a2V5",
	}
}

func testCreateAndGetUser(t *testing.T, s store.Store) {
	ctx := context.Background()
	u := newUser("a@b.com")

	require.NoError(t, s.Users().CreateUser(ctx, u))

	byEmail, err := s.Users().GetUserByEmail(ctx, "a@b.com")
	require.NoError(t, err)
	require.Equal(t, u.ID, byEmail.ID)
	require.Equal(t, u.Email, byEmail.Email)
	require.Equal(t, u.Name, byEmail.Name)
	require.Equal(t, u.PasswordHash, byEmail.PasswordHash)
	require.False(t, byEmail.CreatedAt.IsZero())

	byID, err := s.Users().GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, byEmail.Email, byID.Email)
}

func testDuplicateEmail(t *testing.T, s store.Store) {
	ctx := context.Background()
	first := newUser("dup@b.com")
	require.NoError(t, s.Users().CreateUser(ctx, first))

	second := newUser("dup@b.com")
	second.Name = "Someone Else"
	err := s.Users().CreateUser(ctx, second)
	require.ErrorIs(t, err, store.ErrAlreadyExists)

	got, err := s.Users().GetUserByEmail(ctx, "dup@b.com")
	require.NoError(t, err)
	require.Equal(t, first.ID, got.ID)
	require.Equal(t, first.Name, got.Name)
}

func testConcurrentDuplicateEmail(t *testing.T, s store.Store) {
	ctx := context.Background()
	const attempts = 8

	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := range attempts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = s.Users().CreateUser(ctx, newUser("race@b.com"))
		}()
	}
	wg.Wait()

	var created int
	for _, err := range errs {
		switch {
		case err == nil:
			created++
		case errors.Is(err, store.ErrAlreadyExists):
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	require.Equal(t, 1, created)

	n, err := s.Users().CountUsers(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)
}

func testUserNotFound(t *testing.T, s store.Store) {
	ctx := context.Background()

	_, err := s.Users().GetUserByEmail(ctx, "nobody@b.com")
	require.ErrorIs(t, err, store.ErrNotFound)

	_, err = s.Users().GetUserByID(ctx, idx.New().String())
	require.ErrorIs(t, err, store.ErrNotFound)
}

func testCountUsers(t *testing.T, s store.Store) {
	ctx := context.Background()

	n, err := s.Users().CountUsers(ctx)
	require.NoError(t, err)
	require.Zero(t, n)

	require.NoError(t, s.Users().CreateUser(ctx, newUser("one@b.com")))
	require.NoError(t, s.Users().CreateUser(ctx, newUser("two@b.com")))

	n, err = s.Users().CountUsers(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 2, n)
}

func testRevokedSessions(t *testing.T, s store.Store) {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	jti := idx.New().String()
	revoked, err := s.RevokedSessions().IsSessionRevoked(ctx, jti)
	require.NoError(t, err)
	require.False(t, revoked)

	rs := domain.RevokedSession{JTI: jti, ExpiresAt: now.Add(time.Hour), RevokedAt: now}
	require.NoError(t, s.RevokedSessions().RevokeSession(ctx, rs))
	require.NoError(t, s.RevokedSessions().RevokeSession(ctx, rs), "revoking twice is idempotent")

	revoked, err = s.RevokedSessions().IsSessionRevoked(ctx, jti)
	require.NoError(t, err)
	require.True(t, revoked)
}

func testDeleteExpiredRevocations(t *testing.T, s store.Store) {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	expired := domain.RevokedSession{JTI: idx.New().String(), ExpiresAt: now.Add(-time.Minute), RevokedAt: now.Add(-time.Hour)}
	live := domain.RevokedSession{JTI: idx.New().String(), ExpiresAt: now.Add(time.Hour), RevokedAt: now}
	require.NoError(t, s.RevokedSessions().RevokeSession(ctx, expired))
	require.NoError(t, s.RevokedSessions().RevokeSession(ctx, live))

	n, err := s.RevokedSessions().DeleteExpiredRevocations(ctx, now)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	revoked, err := s.RevokedSessions().IsSessionRevoked(ctx, expired.JTI)
	require.NoError(t, err)
	require.False(t, revoked)

	revoked, err = s.RevokedSessions().IsSessionRevoked(ctx, live.JTI)
	require.NoError(t, err)
	require.True(t, revoked)
}

func testMigrationsIdempotent(t *testing.T, s store.Store) {
	ctx := context.Background()
	require.NoError(t, s.ApplyMigrations(ctx))
	require.NoError(t, s.Ping(ctx))
}
