package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"relaychain-sim/internal/logging"
)

var (
	logLevel  string
	logFormat string
	// logOutput is swapped for io.Discard while the TUI owns the terminal.
	logOutput io.Writer = os.Stderr
)

var rootCmd = &cobra.Command{
	Use:   "relaychain-sim",
	Short: "Relay chain simulation toolkit",
	Long:  "relaychain-sim simulates a video drone keeping its link to a ground operator through a chain of relay drones.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setupLogger(cmd)
	},
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func setupLogger(cmd *cobra.Command) error {
	log, err := logging.New(logging.Config{Level: logLevel, Format: logFormat, Output: logOutput})
	if err != nil {
		return err
	}
	slog.SetDefault(log)
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(logging.NewContext(ctx, log))
	return nil
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.SilenceUsage = true
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", envOr("LOG_LEVEL", "info"), "Log level: debug, info, warn or error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", envOr("LOG_FORMAT", "text"), "Log format: text or json")
	rootCmd.AddCommand(simulateCmd)
	rootCmd.AddCommand(replayCmd)
	rootCmd.AddCommand(gridCmd)
	rootCmd.AddCommand(dashboardCmd)
}
