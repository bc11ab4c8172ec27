// Package cmd contains the concierge command-line interface.
package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/koopa0/concierge/internal/log"
)

var rootCmd = &cobra.Command{
	Use:   "concierge",
	Short: "Concierge - technical-support turn orchestration service",
	Long: `Concierge orchestrates one support turn per request: it resolves the
active product scope, searches the knowledge base, and decides between
answering, asking for scope, or handing off to a human agent.

Run "concierge serve" to start the HTTP API.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// initLogger builds the process logger. DEBUG in the environment (any
// value) lowers the level to debug.
func initLogger() log.Logger {
	level := slog.LevelInfo
	if os.Getenv("DEBUG") != "" {
		level = slog.LevelDebug
	}
	return log.New(log.Config{Level: level})
}
