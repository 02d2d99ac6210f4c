package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aussiebroadwan/fitra/internal/auth/store/drivers/postgres/migrations"

	"github.com/golang-migrate/migrate/v4"
	// Register the pgx/v5 database driver for golang-migrate.
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

// ApplyMigrations applies the embedded migrations through golang-migrate.
// golang-migrate opens its own connection from the URL.
func (s *Store) ApplyMigrations(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	source, err := iofs.New(migrations.Migrations, ".")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, migrateURL(s.url))
	if err != nil {
		_ = source.Close()
		return fmt.Errorf("initialize migrator: %w", err)
	}
	defer func() { _, _ = m.Close() }()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// migrateURL converts postgres:// or postgresql:// to the pgx5:// scheme the
// golang-migrate pgx/v5 driver registers under.
func migrateURL(url string) string {
	if rest, found := strings.CutPrefix(url, "postgres://"); found {
		return "pgx5://" + rest
	}
	if rest, found := strings.CutPrefix(url, "postgresql://"); found {
		return "pgx5://" + rest
	}
	return url
}
