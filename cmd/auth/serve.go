package main

import (
	"github.com/spf13/cobra"

	"github.com/aussiebroadwan/fitra/internal/auth/app"
)

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		Long: `Run the HTTP server. Migrations are applied on start, and the
process shuts down gracefully on SIGINT or SIGTERM.`,
		RunE: runServe,
	}

	cmd.Flags().Int("port", 8080, "HTTP listen port")
	cmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
	cmd.Flags().String("database-driver", app.DriverSQLite, "database driver (sqlite, postgres, mongo)")
	cmd.Flags().String("database-url", "", "postgres or mongo connection URL")

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd.Flags())
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	application, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}

	return application.Run(ctx)
}
