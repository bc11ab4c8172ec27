package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/koopa0/concierge/db"
	"github.com/koopa0/concierge/internal/config"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	Long: `Applies the embedded schema migrations to the configured PostgreSQL
database. Serve runs migrations automatically at startup; this command
exists for running them separately, e.g. in a deploy pipeline.`,
	RunE: func(*cobra.Command, []string) error {
		return runMigrate()
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := initLogger()
	logger.Info("running migrations", "database", cfg.PostgresDBName, "host", cfg.PostgresHost)

	if err := db.Migrate(cfg.PostgresURL()); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	logger.Info("migrations complete")
	return nil
}
