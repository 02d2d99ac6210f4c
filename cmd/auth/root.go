package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/aussiebroadwan/fitra/internal/auth/app"
)

// Global flags available to all subcommands.
var (
	configFile string
	envFile    string
)

// NewRootCmd creates the root command. Without a subcommand it serves.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fitra-auth",
		Short: "Fitra authentication service",
		Long: `Fitra authentication service: account signup, credential
verification and cookie sessions over HTTP.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "YAML config file path")
	cmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded into the environment if present")

	serve := NewServeCmd()
	cmd.Flags().AddFlagSet(serve.Flags())
	cmd.RunE = serve.RunE

	cmd.AddCommand(serve)
	cmd.AddCommand(NewMigrateCmd())

	return cmd
}

// loadConfig layers the config sources with flags from cmd applied last.
func loadConfig(flags *pflag.FlagSet) (app.Config, error) {
	cfg, err := app.LoadConfig(app.LoadOptions{
		ConfigFile: configFile,
		EnvFile:    envFile,
		Flags:      flags,
	})
	if err != nil {
		return app.Config{}, err
	}
	return cfg, cfg.Validate()
}
