package main

import (
	"log/slog"

	"blog_api/internal/platform/config"
	"blog_api/internal/platform/logging"

	"github.com/spf13/cobra"
)

const serviceName = "blog-server"

var configFile string

// NewRootCmd creates the root command. Running it without a subcommand serves the API.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          serviceName,
		Short:        "Multi-user blog REST API",
		SilenceUsage: true,
		RunE:         runServe,
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&configFile, "config", "", "YAML config file path")
	flags.String("api-port", "8080", "HTTP listen port")
	flags.String("store", config.StorePostgres, "storage backend: postgres or memory")
	flags.String("log-format", "json", "log format: json or text")
	flags.Bool("auto-migrate", true, "apply pending migrations on startup")
	flags.Bool("allow-self-assigned-role", false, "let anonymous registrations request the admin role")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewPromoteCmd())
	return cmd
}

// setup loads configuration from the command's flags and builds the logger.
func setup(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(configFile, cmd.Flags())
	if err != nil {
		return nil, nil, err
	}
	logger := logging.Setup(serviceName, version, cfg.LogFormat, nil)
	slog.SetDefault(logger)
	return cfg, logger, nil
}
