package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"relaychain-sim/internal/logging"
	"relaychain-sim/internal/sim"
)

var (
	replayInput      string
	replaySpeed      float64
	replayPrintOnly  bool
	replayOutput     string
	replaySQLitePath string
)

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Replay a status log file",
	Long:  "replay feeds status rows from a JSONL log back into GreptimeDB, SQLite or STDOUT.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if replayInput == "" {
			return fmt.Errorf("input file required")
		}
		mode, err := sim.ResolveOutput(replayOutput, sim.StdoutIsTerminal())
		if err != nil {
			return err
		}
		if mode == sim.OutputTUI {
			return fmt.Errorf("replay does not support the tui output")
		}
		out, err := newWriters(writerOptions{
			printOnly:  replayPrintOnly,
			output:     mode,
			sqlitePath: replaySQLitePath,
		})
		if err != nil {
			return err
		}
		defer out.cleanup()
		logging.FromContext(cmd.Context()).Info("replaying log", "input", replayInput, "speed", replaySpeed)
		return sim.ReplayLogFile(replayInput, out.writer, replaySpeed)
	},
}

func init() {
	replayCmd.Flags().StringVar(&replayInput, "input", "", "Path to status log file")
	replayCmd.Flags().Float64Var(&replaySpeed, "speed", 1.0, "Playback speed multiplier; 0 writes everything at once")
	replayCmd.Flags().BoolVar(&replayPrintOnly, "print-only", false, "Print to STDOUT even when GREPTIMEDB_ENDPOINT is set")
	replayCmd.Flags().StringVar(&replayOutput, "output", sim.OutputAuto, "STDOUT format: auto, json or color")
	replayCmd.Flags().StringVar(&replaySQLitePath, "sqlite", "", "Path to a SQLite database receiving the replayed rows")
	replayCmd.MarkFlagRequired("input")
}
