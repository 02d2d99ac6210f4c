package main

import (
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/aussiebroadwan/fitra/internal/auth/app"
	"github.com/aussiebroadwan/fitra/pkg/slogx"
)

// NewMigrateCmd creates the migrate subcommand.
func NewMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and exit",
		Long: `Apply the schema (sqlite, postgres) or create the collection
indexes (mongo) for the configured database, then exit.`,
		RunE: runMigrate,
	}

	cmd.Flags().String("database-driver", app.DriverSQLite, "database driver (sqlite, postgres, mongo)")
	cmd.Flags().String("database-url", "", "postgres or mongo connection URL")

	return cmd
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd.Flags())
	if err != nil {
		return err
	}

	logger := slogx.New(slogx.Config{
		Service: "fitra-auth",
		Version: app.BuildVersion,
		Env:     cfg.Env,
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
	})

	if err := app.Migrate(cmd.Context(), cfg, logger); err != nil {
		return oops.Code("MIGRATION_FAILED").With("driver", cfg.Database.Driver).Wrap(err)
	}

	cmd.Println("Migrations completed successfully")
	return nil
}
