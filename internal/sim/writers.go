package sim

import "relaychain-sim/internal/telemetry"

// StatusWriter receives the per-tick chain summary.
type StatusWriter interface {
	WriteStatus(telemetry.StatusRow) error
}

// Optional: status writers may support batch mode
type batchStatusWriter interface {
	WriteStatuses([]telemetry.StatusRow) error
}

// LinkWriter receives the hops of a reported tick.
type LinkWriter interface {
	WriteLinks([]telemetry.LinkRow) error
}

// DeploymentWriter receives relay insertions.
type DeploymentWriter interface {
	WriteDeployment(telemetry.DeploymentRow) error
}

// Writers groups the sinks of a simulator. Nil members are skipped.
type Writers struct {
	Status      StatusWriter
	Links       LinkWriter
	Deployments DeploymentWriter
}

// WritersFor uses w for every record kind it implements.
func WritersFor(w StatusWriter) Writers {
	ws := Writers{Status: w}
	if lw, ok := w.(LinkWriter); ok {
		ws.Links = lw
	}
	if dw, ok := w.(DeploymentWriter); ok {
		ws.Deployments = dw
	}
	return ws
}

func writeStatuses(w StatusWriter, rows []telemetry.StatusRow) error {
	if bw, ok := w.(batchStatusWriter); ok {
		return bw.WriteStatuses(rows)
	}
	for _, r := range rows {
		if err := w.WriteStatus(r); err != nil {
			return err
		}
	}
	return nil
}
