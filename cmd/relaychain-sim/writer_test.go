package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"relaychain-sim/internal/config"
	"relaychain-sim/internal/sim"
	"relaychain-sim/internal/telemetry"
)

func TestNewWritersPrintOnly(t *testing.T) {
	out, err := newWriters(writerOptions{printOnly: true, output: sim.OutputJSON})
	if err != nil {
		t.Fatalf("newWriters returned error: %v", err)
	}
	out.cleanup()
	if _, ok := out.writer.(*sim.JSONStdoutWriter); !ok {
		t.Fatalf("expected *sim.JSONStdoutWriter, got %T", out.writer)
	}
	if out.tui != nil {
		t.Fatalf("expected no TUI")
	}
}

func TestNewWritersGreptimeFallback(t *testing.T) {
	t.Setenv("GREPTIMEDB_ENDPOINT", "")
	out, err := newWriters(writerOptions{output: sim.OutputColor, cfg: config.Default()})
	if err != nil {
		t.Fatalf("newWriters returned error: %v", err)
	}
	out.cleanup()
	if _, ok := out.writer.(*sim.ColorStdoutWriter); !ok {
		t.Fatalf("expected *sim.ColorStdoutWriter, got %T", out.writer)
	}
}

func TestNewWritersGreptime(t *testing.T) {
	t.Setenv("GREPTIMEDB_ENDPOINT", "localhost:4001")
	out, err := newWriters(writerOptions{output: sim.OutputJSON})
	if err != nil {
		t.Fatalf("newWriters returned error: %v", err)
	}
	out.cleanup()
	if _, ok := out.writer.(*sim.GreptimeDBWriter); !ok {
		t.Fatalf("expected *sim.GreptimeDBWriter, got %T", out.writer)
	}
}

func TestNewWritersLogFileAndSQLite(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "run.jsonl")
	dbPath := filepath.Join(dir, "run.db")
	metrics, err := sim.NewMetricsWriter(prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("NewMetricsWriter: %v", err)
	}
	out, err := newWriters(writerOptions{
		printOnly:  true,
		output:     sim.OutputJSON,
		logFile:    logPath,
		sqlitePath: dbPath,
		metrics:    metrics,
	})
	if err != nil {
		t.Fatalf("newWriters returned error: %v", err)
	}
	mw, ok := out.writer.(*sim.MultiWriter)
	if !ok {
		t.Fatalf("expected *sim.MultiWriter, got %T", out.writer)
	}
	ts := time.Now()
	if err := mw.WriteStatus(telemetry.StatusRow{RunID: "r1", Tick: 1, RelayCount: 2, Timestamp: ts}); err != nil {
		t.Fatalf("WriteStatus: %v", err)
	}
	if err := mw.WriteDeployment(telemetry.DeploymentRow{RunID: "r1", RelayID: 2, Timestamp: ts}); err != nil {
		t.Fatalf("WriteDeployment: %v", err)
	}
	out.cleanup()

	for _, p := range []string{logPath, logPath + ".deployments", dbPath} {
		info, err := os.Stat(p)
		if err != nil {
			t.Fatalf("stat %s: %v", p, err)
		}
		if info.Size() == 0 {
			t.Fatalf("expected %s to be non-empty", p)
		}
	}
	if got := testutil.ToFloat64(metrics.RelayCount); got != 2 {
		t.Fatalf("metrics relay_count = %v, want 2", got)
	}
}

func TestNewWritersBadLogPath(t *testing.T) {
	_, err := newWriters(writerOptions{printOnly: true, output: sim.OutputJSON, logFile: filepath.Join(t.TempDir(), "missing", "run.jsonl")})
	if err == nil {
		t.Fatalf("expected error for unwritable log path")
	}
}

func TestRunIDFromEnv(t *testing.T) {
	t.Setenv("RUN_ID", "fixed-run")
	if got := runID(); got != "fixed-run" {
		t.Fatalf("runID = %q", got)
	}
	t.Setenv("RUN_ID", "")
	if a, b := runID(), runID(); a == "" || a == b {
		t.Fatalf("expected fresh uuids, got %q and %q", a, b)
	}
}

func TestRenderGrid(t *testing.T) {
	cfg := config.Default()
	cfg.Interference.Grid.Width = 4
	cfg.Interference.Grid.Height = 3
	cfg.Interference.Grid.Sources = 2
	var buf bytes.Buffer
	if err := renderGrid(&buf, cfg); err != nil {
		t.Fatalf("renderGrid: %v", err)
	}
	out := buf.String()
	if !strings.HasPrefix(out, "4x3 cells of 100 m") {
		t.Fatalf("unexpected header:\n%s", out)
	}
	lines := strings.Split(out, "\n")
	for _, row := range lines[1:4] {
		if len(row) != 4 {
			t.Fatalf("expected 4 cells per row, got %q", row)
		}
	}
	if !strings.HasSuffix(lines[3], "D") && !strings.HasPrefix(lines[3], "D") {
		t.Fatalf("expected the drone in the bottom row, got %q", lines[3])
	}
	if !strings.Contains(out, "SOURCE") || !strings.Contains(out, "dBm") {
		t.Fatalf("expected source table:\n%s", out)
	}
}
