package sim

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"relaychain-sim/internal/telemetry"
)

// JSONStdoutWriter prints every record as one JSON line.
type JSONStdoutWriter struct {
	mu  sync.Mutex
	out io.Writer
}

// NewJSONStdoutWriter creates a JSONStdoutWriter writing to os.Stdout.
func NewJSONStdoutWriter() *JSONStdoutWriter {
	return &JSONStdoutWriter{out: os.Stdout}
}

func (w *JSONStdoutWriter) encode(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	_, err = fmt.Fprintln(w.out, string(data))
	return err
}

// WriteStatus outputs a status row in JSON format.
func (w *JSONStdoutWriter) WriteStatus(row telemetry.StatusRow) error {
	return w.encode(row)
}

// WriteStatuses outputs multiple status rows in JSON format.
func (w *JSONStdoutWriter) WriteStatuses(rows []telemetry.StatusRow) error {
	for _, r := range rows {
		if err := w.WriteStatus(r); err != nil {
			return err
		}
	}
	return nil
}

// WriteLinks outputs one JSON line per hop.
func (w *JSONStdoutWriter) WriteLinks(rows []telemetry.LinkRow) error {
	for _, r := range rows {
		if err := w.encode(r); err != nil {
			return err
		}
	}
	return nil
}

// WriteDeployment outputs a relay deployment in JSON format.
func (w *JSONStdoutWriter) WriteDeployment(row telemetry.DeploymentRow) error {
	return w.encode(row)
}
