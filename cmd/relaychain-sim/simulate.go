package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"relaychain-sim/internal/admin"
	"relaychain-sim/internal/config"
	"relaychain-sim/internal/logging"
	"relaychain-sim/internal/sim"
)

var (
	simConfigPath string
	simSchemaPath string
	simScenario   string
	simOutput     string
	simPrintOnly  bool
	simLogFile    string
	simSQLitePath string
	simAdminAddr  string
	simSeed       int64
	simTicks      int
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run the relay chain simulator",
	Long:  "simulate flies the video drone along its plan, deploys relays when the policy asks for one and reports link quality.",
	PreRunE: func(cmd *cobra.Command, args []string) error {
		mode, err := sim.ResolveOutput(simOutput, sim.StdoutIsTerminal())
		if err != nil {
			return err
		}
		simOutput = mode
		if mode == sim.OutputTUI {
			logOutput = io.Discard
			return setupLogger(cmd)
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadSimConfig(cmd)
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runSimulation(ctx, cfg)
	},
}

func loadSimConfig(cmd *cobra.Command) (*config.SimulationConfig, error) {
	cfg, err := config.Load(simConfigPath, simSchemaPath)
	if err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("seed") {
		cfg.Simulation.Seed = simSeed
	}
	if cmd.Flags().Changed("ticks") {
		cfg.Simulation.Ticks = simTicks
	}
	if simScenario != "" {
		cfg.Scenario = simScenario
	}
	return cfg, cfg.Validate()
}

func runID() string {
	if id := os.Getenv("RUN_ID"); id != "" {
		return id
	}
	return uuid.NewString()
}

func runSimulation(ctx context.Context, cfg *config.SimulationConfig) error {
	log := logging.FromContext(ctx)

	env, err := sim.NewEnvironment(cfg, nil)
	if err != nil {
		return err
	}

	var metrics *sim.MetricsWriter
	if simAdminAddr != "" {
		if metrics, err = sim.NewMetricsWriter(prometheus.NewRegistry()); err != nil {
			return err
		}
	}

	out, err := newWriters(writerOptions{
		cfg:        cfg,
		printOnly:  simPrintOnly,
		output:     simOutput,
		logFile:    simLogFile,
		sqlitePath: simSQLitePath,
		metrics:    metrics,
		grid:       env.Grid,
	})
	if err != nil {
		return err
	}
	defer out.cleanup()

	id := runID()
	simulator := sim.NewSimulator(id, env.Loop, env.Manager, sim.WritersFor(out.writer), env.Plan, nil)

	if simAdminAddr != "" {
		srv := admin.NewServer(simulator, env.Grid, metrics.Handler())
		go func() {
			if err := srv.Start(ctx, simAdminAddr, nil); err != nil {
				log.Error("admin server failed", "err", err)
				if out.tui != nil {
					out.tui.SetAdminStatus(false)
				}
			}
		}()
		if out.tui != nil {
			out.tui.SetAdminStatus(true)
		}
	}

	sum := simulator.Run(ctx)
	log.Info("run summary",
		"run_id", sum.RunID,
		"ticks", sum.Ticks,
		"relays", sum.Relays,
		"reports", sum.Reports,
		"link_down_ticks", sum.LinkDownTicks,
		"final_sinr_db", sum.FinalSINRDB,
		"final_capacity_bps", sum.FinalCapacityBps,
		"interrupted", sum.Interrupted,
	)

	// the TUI stays up until the user quits
	if out.tui != nil && !sum.Interrupted {
		<-ctx.Done()
	}
	return nil
}

func init() {
	simulateCmd.Flags().StringVar(&simConfigPath, "config", "config/relaysim.yaml", "Path to simulation configuration YAML")
	simulateCmd.Flags().StringVar(&simSchemaPath, "schema", "", "Path to CUE schema file (embedded schema when empty)")
	simulateCmd.Flags().StringVar(&simScenario, "scenario", "", "Built-in scenario name or scenario YAML path")
	simulateCmd.Flags().StringVar(&simOutput, "output", envOr("OUTPUT", sim.OutputAuto), "STDOUT format: auto, json, color or tui")
	simulateCmd.Flags().BoolVar(&simPrintOnly, "print-only", false, "Print to STDOUT even when GREPTIMEDB_ENDPOINT is set")
	simulateCmd.Flags().StringVar(&simLogFile, "log-file", "", "Path to export status/link/deployment logs (JSONL)")
	simulateCmd.Flags().StringVar(&simSQLitePath, "sqlite", os.Getenv("SQLITE_PATH"), "Path to a SQLite database receiving all records")
	simulateCmd.Flags().StringVar(&simAdminAddr, "admin-addr", envOr("ADMIN_ADDR", ":8080"), "Admin HTTP address serving state and /metrics; empty disables")
	simulateCmd.Flags().Int64Var(&simSeed, "seed", 0, "Override the random seed of the config")
	simulateCmd.Flags().IntVar(&simTicks, "ticks", 0, "Override the tick count of the config (0 runs until interrupted)")
}
