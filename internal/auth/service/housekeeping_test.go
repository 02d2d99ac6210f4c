package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/aussiebroadwan/fitra/internal/auth/domain"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		// database/sql keeps a connection opener goroutine per pool until Close.
		goleak.IgnoreTopFunction("database/sql.(*DB).connectionOpener"),
	)
}

func TestHousekeepingDeletesExpiredRevocations(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	now := time.Now().UTC()

	expired := domain.RevokedSession{JTI: "expired", ExpiresAt: now.Add(-time.Hour), RevokedAt: now.Add(-2 * time.Hour)}
	live := domain.RevokedSession{JTI: "live", ExpiresAt: now.Add(time.Hour), RevokedAt: now}
	require.NoError(t, env.store.RevokedSessions().RevokeSession(ctx, expired))
	require.NoError(t, env.store.RevokedSessions().RevokeSession(ctx, live))

	hk := NewHousekeepingService(env.store, slog.New(slog.NewTextHandler(io.Discard, nil)), time.Hour)
	hk.Start()

	require.Eventually(t, func() bool {
		revoked, err := env.store.RevokedSessions().IsSessionRevoked(ctx, "expired")
		return err == nil && !revoked
	}, 5*time.Second, 10*time.Millisecond)

	hk.Stop()

	revoked, err := env.store.RevokedSessions().IsSessionRevoked(ctx, "live")
	require.NoError(t, err)
	require.True(t, revoked)
}

func TestHousekeepingSurvivesStoreErrors(t *testing.T) {
	hk := NewHousekeepingService(brokenStore{}, slog.New(slog.NewTextHandler(io.Discard, nil)), 5*time.Millisecond)
	hk.Start()
	time.Sleep(20 * time.Millisecond)
	hk.Stop()
}

func TestHousekeepingDefaultInterval(t *testing.T) {
	hk := NewHousekeepingService(brokenStore{}, slog.New(slog.NewTextHandler(io.Discard, nil)), 0)
	require.Equal(t, time.Hour, hk.Interval)
}
