package sim

import (
	"errors"

	"relaychain-sim/internal/telemetry"
)

// MultiWriter fans records out to every writer that handles their kind.
type MultiWriter struct {
	statusWriters []StatusWriter
	linkWriters   []LinkWriter
	depWriters    []DeploymentWriter
}

// NewMultiWriter creates a MultiWriter over ws. Link and deployment records
// go to the members implementing LinkWriter and DeploymentWriter.
func NewMultiWriter(ws ...StatusWriter) *MultiWriter {
	mw := &MultiWriter{}
	for _, w := range ws {
		if w == nil {
			continue
		}
		mw.statusWriters = append(mw.statusWriters, w)
		if lw, ok := w.(LinkWriter); ok {
			mw.linkWriters = append(mw.linkWriters, lw)
		}
		if dw, ok := w.(DeploymentWriter); ok {
			mw.depWriters = append(mw.depWriters, dw)
		}
	}
	return mw
}

// WriteStatus sends a status row to all writers. Every writer is tried; the
// errors are joined.
func (mw *MultiWriter) WriteStatus(row telemetry.StatusRow) error {
	var errs []error
	for _, w := range mw.statusWriters {
		if err := w.WriteStatus(row); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// WriteStatuses sends multiple status rows to all writers, using batch if supported.
func (mw *MultiWriter) WriteStatuses(rows []telemetry.StatusRow) error {
	var errs []error
	for _, w := range mw.statusWriters {
		if err := writeStatuses(w, rows); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// WriteLinks sends link rows to all link writers.
func (mw *MultiWriter) WriteLinks(rows []telemetry.LinkRow) error {
	var errs []error
	for _, w := range mw.linkWriters {
		if err := w.WriteLinks(rows); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// WriteDeployment sends a deployment row to all deployment writers.
func (mw *MultiWriter) WriteDeployment(row telemetry.DeploymentRow) error {
	var errs []error
	for _, w := range mw.depWriters {
		if err := w.WriteDeployment(row); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
