package sim

import (
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"math"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"relaychain-sim/internal/telemetry"
)

var errWriterClosed = errors.New("sqlite writer closed")

//go:embed sqlite_schema.sql
var sqliteSchemaSQL string

// SQLiteWriter stores status, link and deployment records in a SQLite file.
// The database is opened on first write.
type SQLiteWriter struct {
	path string

	mu     sync.Mutex
	db     *sql.DB
	dbOnce sync.Once
	dbErr  error
}

// NewSQLiteWriter returns a writer for the database at path.
func NewSQLiteWriter(path string) (*SQLiteWriter, error) {
	if path == "" {
		return nil, errors.New("sqlite path is empty")
	}
	return &SQLiteWriter{path: path}, nil
}

func (s *SQLiteWriter) getDB() (*sql.DB, error) {
	s.dbOnce.Do(func() {
		db, err := sql.Open("sqlite3", s.path+"?_journal_mode=WAL&_synchronous=NORMAL")
		if err != nil {
			s.dbErr = err
			return
		}
		if _, err = db.Exec(sqliteSchemaSQL); err != nil {
			_ = db.Close()
			s.dbErr = fmt.Errorf("initializing schema: %w", err)
			return
		}
		s.db = db
	})
	return s.db, s.dbErr
}

// level maps infinite or NaN levels to NULL.
func level(v float64) sql.NullFloat64 {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}

const insertStatusSQL = `
INSERT INTO status (run_id, policy, tick, relay_count, mobile_x, mobile_y, max_hop_m,
    end_to_end_path_loss_db, end_to_end_sinr_db, end_to_end_capacity_bps, link_down, no_link, deployed, ts)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// WriteStatus stores a single status row.
func (s *SQLiteWriter) WriteStatus(row telemetry.StatusRow) error {
	return s.WriteStatuses([]telemetry.StatusRow{row})
}

// WriteStatuses stores rows in one transaction.
func (s *SQLiteWriter) WriteStatuses(rows []telemetry.StatusRow) error {
	return s.inTx(insertStatusSQL, len(rows), func(stmt *sql.Stmt, i int) error {
		r := rows[i]
		_, err := stmt.Exec(r.RunID, r.Policy, r.Tick, r.RelayCount, r.MobileX, r.MobileY, r.MaxHopM,
			r.EndToEndPathLossDB, level(r.EndToEndSINRDB), r.EndToEndCapacityBps, r.LinkDown, r.NoLink, r.Deployed, r.Timestamp)
		return err
	})
}

const insertLinkSQL = `
INSERT INTO links (run_id, hop, tick, from_entity, to_entity, distance_m, received_power_dbm,
    fading_db, interference_dbm, noise_dbm, sinr_db, capacity_bps, down, ts)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// WriteLinks stores the hops of one tick.
func (s *SQLiteWriter) WriteLinks(rows []telemetry.LinkRow) error {
	return s.inTx(insertLinkSQL, len(rows), func(stmt *sql.Stmt, i int) error {
		r := rows[i]
		_, err := stmt.Exec(r.RunID, r.Index, r.Tick, r.From, r.To, r.DistanceM, level(r.ReceivedPowerDBm),
			level(r.FadingDB), level(r.InterferenceDBm), level(r.NoiseDBm), level(r.SINRDB),
			r.CapacityBps, r.Down, r.Timestamp)
		return err
	})
}

const insertDeploymentSQL = `
INSERT INTO deployments (run_id, relay_id, tick, x, y, relay_count, hop_before_m, hop_after_m, ts)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

// WriteDeployment stores a relay insertion.
func (s *SQLiteWriter) WriteDeployment(r telemetry.DeploymentRow) error {
	return s.inTx(insertDeploymentSQL, 1, func(stmt *sql.Stmt, _ int) error {
		_, err := stmt.Exec(r.RunID, r.RelayID, r.Tick, r.X, r.Y, r.RelayCount, r.HopBeforeM, r.HopAfterM, r.Timestamp)
		return err
	})
}

func (s *SQLiteWriter) inTx(query string, n int, exec func(*sql.Stmt, int) error) (err error) {
	if n == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	db, err := s.getDB()
	if err != nil {
		return fmt.Errorf("getting connection: %w", err)
	}
	if db == nil {
		return errWriterClosed
	}
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.Prepare(query)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for i := 0; i < n; i++ {
		if err = exec(stmt, i); err != nil {
			return fmt.Errorf("executing statement: %w", err)
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// DB exposes the underlying handle, opening it if needed.
func (s *SQLiteWriter) DB() (*sql.DB, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getDB()
}

// Close closes the database if it was opened.
func (s *SQLiteWriter) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}
