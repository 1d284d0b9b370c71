// Command fintrack-cli runs one-off maintenance tasks against the configured
// workbook: locking rates, printing a monthly summary and exporting CSV.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"fintrack/internal/cli"
	"fintrack/internal/log"
)

var (
	debug  bool
	logger *log.Logger
)

var rootCmd = &cobra.Command{
	Use:   "fintrack-cli",
	Short: "Maintenance commands for the fintrack workbook",
	Long: `fintrack-cli works directly on the workbook the server uses.

Example:
  fintrack-cli seed
  fintrack-cli rate 2026-02-14
  fintrack-cli rate --list
  fintrack-cli report --month 2026-02 --view bdt
  fintrack-cli export --month 2026-02 -o feb.csv`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cli.LoadEnvFile()
		level := os.Getenv("LOG_LEVEL")
		if debug {
			level = "debug"
		}
		// stdout carries command output
		logger = log.New(log.Config{
			Level:     log.ParseLevel(level),
			Component: log.ComponentCLI,
			Output:    os.Stderr,
		})
		log.SetDefault(logger)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.AddCommand(seedCmd, rateCmd, reportCmd, exportCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// withApp opens the configured backend for the duration of fn.
func withApp(ctx context.Context, fn func(*cli.App) error) error {
	cfg := cli.LoadAndValidateConfig(logger)
	app, err := cli.NewApp(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("open workbook: %w", err)
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Error("Backend close error", log.FieldError, err)
		}
	}()
	return fn(app)
}
