package sim

import (
	"database/sql"
	"math"
	"path/filepath"
	"testing"
	"time"

	"relaychain-sim/internal/telemetry"
)

func countRows(t *testing.T, db *sql.DB, table string) int {
	t.Helper()
	var n int
	if err := db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n); err != nil {
		t.Fatalf("count %s: %v", table, err)
	}
	return n
}

func TestSQLiteWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.db")
	w, err := NewSQLiteWriter(path)
	if err != nil {
		t.Fatalf("NewSQLiteWriter: %v", err)
	}
	defer w.Close()

	ts := time.Unix(100, 0).UTC()
	rows := []telemetry.StatusRow{
		{RunID: "r1", Policy: "distance", Tick: 1, EndToEndPathLossDB: 80.05, EndToEndSINRDB: 21.5, EndToEndCapacityBps: 1e8, Timestamp: ts},
		{RunID: "r1", Policy: "distance", Tick: 2, EndToEndSINRDB: math.Inf(-1), LinkDown: true, Timestamp: ts},
	}
	if err := w.WriteStatuses(rows); err != nil {
		t.Fatalf("WriteStatuses: %v", err)
	}
	links := []telemetry.LinkRow{
		{RunID: "r1", Index: 0, Tick: 2, From: "mobile", To: "operator", DistanceM: 800, SINRDB: math.Inf(-1), FadingDB: math.Inf(-1), Down: true, Timestamp: ts},
	}
	if err := w.WriteLinks(links); err != nil {
		t.Fatalf("WriteLinks: %v", err)
	}
	if err := w.WriteDeployment(telemetry.DeploymentRow{RunID: "r1", RelayID: 1, Tick: 2, X: 400, Y: 400, RelayCount: 1, HopBeforeM: 1131, HopAfterM: 565, Timestamp: ts}); err != nil {
		t.Fatalf("WriteDeployment: %v", err)
	}
	if err := w.WriteLinks(nil); err != nil {
		t.Fatalf("WriteLinks(nil): %v", err)
	}

	db, err := w.DB()
	if err != nil {
		t.Fatalf("DB: %v", err)
	}
	if n := countRows(t, db, "status"); n != 2 {
		t.Fatalf("expected 2 status rows, got %d", n)
	}
	if n := countRows(t, db, "links"); n != 1 {
		t.Fatalf("expected 1 link row, got %d", n)
	}
	if n := countRows(t, db, "deployments"); n != 1 {
		t.Fatalf("expected 1 deployment row, got %d", n)
	}

	var sinr sql.NullFloat64
	if err := db.QueryRow("SELECT end_to_end_sinr_db FROM status WHERE tick = 2").Scan(&sinr); err != nil {
		t.Fatalf("query sinr: %v", err)
	}
	if sinr.Valid {
		t.Fatalf("expected NULL sinr for link down tick, got %v", sinr.Float64)
	}
	var down bool
	if err := db.QueryRow("SELECT link_down FROM status WHERE tick = 2").Scan(&down); err != nil {
		t.Fatalf("query link_down: %v", err)
	}
	if !down {
		t.Fatalf("expected link_down true")
	}
	var pathLoss float64
	if err := db.QueryRow("SELECT end_to_end_path_loss_db FROM status WHERE tick = 1").Scan(&pathLoss); err != nil {
		t.Fatalf("query path loss: %v", err)
	}
	if pathLoss != 80.05 {
		t.Fatalf("path loss = %v, want 80.05", pathLoss)
	}
}

func TestSQLiteWriterClosed(t *testing.T) {
	w, err := NewSQLiteWriter(filepath.Join(t.TempDir(), "run.db"))
	if err != nil {
		t.Fatalf("NewSQLiteWriter: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close before open: %v", err)
	}
	if err := w.WriteStatus(telemetry.StatusRow{RunID: "r1"}); err != nil {
		t.Fatalf("first write opens the database: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := w.WriteStatus(telemetry.StatusRow{RunID: "r1"}); err == nil {
		t.Fatalf("expected error after close")
	}
}

func TestNewSQLiteWriterEmptyPath(t *testing.T) {
	if _, err := NewSQLiteWriter(""); err == nil {
		t.Fatalf("expected error for empty path")
	}
}
