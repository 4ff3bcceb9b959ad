package sim

import (
	"encoding/json"
	"errors"
	"io"
	"os"
	"time"

	"relaychain-sim/internal/telemetry"
)

// ReplayLog replays status rows from r to writer. A speed >0 replays with the
// recorded spacing divided by speed; speed <= 0 writes everything at once,
// in one batch when the writer supports it.
func ReplayLog(r io.Reader, writer StatusWriter, speed float64) error {
	dec := json.NewDecoder(r)
	var batch []telemetry.StatusRow
	var prev time.Time
	for {
		var row telemetry.StatusRow
		if err := dec.Decode(&row); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return err
		}
		if speed <= 0 {
			batch = append(batch, row)
			continue
		}
		if !prev.IsZero() {
			diff := row.Timestamp.Sub(prev)
			if speed != 1 {
				diff = time.Duration(float64(diff) / speed)
			}
			if diff > 0 {
				time.Sleep(diff)
			}
		}
		if err := writer.WriteStatus(row); err != nil {
			return err
		}
		prev = row.Timestamp
	}
	if len(batch) == 0 {
		return nil
	}
	return writeStatuses(writer, batch)
}

// ReplayLogFile opens a file and replays its status rows.
func ReplayLogFile(path string, writer StatusWriter, speed float64) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return ReplayLog(f, writer, speed)
}
