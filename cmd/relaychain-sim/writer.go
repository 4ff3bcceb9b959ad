package main

import (
	"os"

	"relaychain-sim/internal/config"
	"relaychain-sim/internal/environment"
	"relaychain-sim/internal/sim"
)

// writerOptions selects the sinks of a run.
type writerOptions struct {
	cfg        *config.SimulationConfig
	printOnly  bool
	output     string // resolved output mode
	logFile    string
	sqlitePath string
	metrics    *sim.MetricsWriter
	grid       *environment.Grid
}

// outputs is the combined writer plus handles the caller still needs.
type outputs struct {
	writer  sim.StatusWriter
	tui     *sim.TUIWriter
	cleanup func()
}

// newWriters sets up the writers based on flags and env vars.
func newWriters(opts writerOptions) (outputs, error) {
	var closers []func() error
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			_ = closers[i]()
		}
	}

	out := outputs{cleanup: cleanup}
	base, tui, err := baseWriter(opts)
	if err != nil {
		return outputs{}, err
	}
	if tui != nil {
		out.tui = tui
		closers = append(closers, tui.Close)
	}

	writers := []sim.StatusWriter{base}
	if opts.logFile != "" {
		fw, err := sim.NewFileWriter(opts.logFile, opts.logFile+".links", opts.logFile+".deployments")
		if err != nil {
			cleanup()
			return outputs{}, err
		}
		closers = append(closers, fw.Close)
		writers = append(writers, fw)
	}
	if opts.sqlitePath != "" {
		sw, err := sim.NewSQLiteWriter(opts.sqlitePath)
		if err != nil {
			cleanup()
			return outputs{}, err
		}
		closers = append(closers, sw.Close)
		writers = append(writers, sw)
	}
	if opts.metrics != nil {
		writers = append(writers, opts.metrics)
	}

	if len(writers) == 1 {
		out.writer = base
	} else {
		out.writer = sim.NewMultiWriter(writers...)
	}
	return out, nil
}

// baseWriter picks GreptimeDB when GREPTIMEDB_ENDPOINT is set, STDOUT otherwise.
func baseWriter(opts writerOptions) (sim.StatusWriter, *sim.TUIWriter, error) {
	endpoint := os.Getenv("GREPTIMEDB_ENDPOINT")
	if opts.printOnly || endpoint == "" {
		if opts.output == sim.OutputTUI {
			tw := sim.NewTUIWriter(opts.cfg)
			if opts.grid != nil {
				tw.SetGrid(opts.grid)
			}
			return tw, tw, nil
		}
		return sim.NewStdoutWriter(opts.cfg, opts.output), nil, nil
	}
	w, err := sim.NewGreptimeDBWriter(endpoint, os.Getenv("GREPTIMEDB_DATABASE"))
	if err != nil {
		return nil, nil, err
	}
	return w, nil, nil
}
