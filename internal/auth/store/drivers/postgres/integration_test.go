package postgres_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/aussiebroadwan/fitra/internal/auth/store"
	"github.com/aussiebroadwan/fitra/internal/auth/store/drivers/postgres"
	"github.com/aussiebroadwan/fitra/internal/auth/store/storetest"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestPostgresConformance runs the shared store suite against a real
// PostgreSQL. Set FITRA_INTEGRATION=1 with Docker available to enable it.
func TestPostgresConformance(t *testing.T) {
	if testing.Short() || os.Getenv("FITRA_INTEGRATION") == "" {
		t.Skip("set FITRA_INTEGRATION=1 to run against a postgres container")
	}

	ctx := context.Background()
	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("fitra_test"),
		tcpostgres.WithUsername("fitra"),
		tcpostgres.WithPassword("fitra"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	url, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	storetest.Run(t, func(t *testing.T) store.Store {
		s, err := postgres.NewStore(ctx, url)
		require.NoError(t, err)
		require.NoError(t, s.ApplyMigrations(ctx))
		truncate(t, url)
		return s
	})
}

// truncate empties the tables between suite cases, which share a database.
func truncate(t *testing.T, url string) {
	t.Helper()
	conn, err := pgx.Connect(context.Background(), url)
	require.NoError(t, err)
	defer func() { _ = conn.Close(context.Background()) }()

	_, err = conn.Exec(context.Background(), `TRUNCATE users, revoked_sessions`)
	require.NoError(t, err)
}
