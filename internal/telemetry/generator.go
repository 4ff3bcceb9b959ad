package telemetry

import (
	"time"

	"relaychain-sim/internal/chain"
)

// Generator turns chain evaluations into output rows for one run.
type Generator struct {
	RunID  string
	Policy string
}

// NewGenerator creates a row generator for a run.
func NewGenerator(runID, policy string) *Generator {
	return &Generator{RunID: runID, Policy: policy}
}

// Status summarises metrics for the chain on tick.
func (g *Generator) Status(tick int, c *chain.Chain, m chain.Metrics, deployed bool, ts time.Time) StatusRow {
	head := c.Head().Position
	return StatusRow{
		RunID:               g.RunID,
		Policy:              g.Policy,
		Tick:                tick,
		RelayCount:          c.RelayCount(),
		MobileX:             head.X,
		MobileY:             head.Y,
		MaxHopM:             m.MaxHop(),
		EndToEndPathLossDB:  m.EndToEndPathLossDB,
		EndToEndSINRDB:      m.EndToEndSINRDB,
		EndToEndCapacityBps: m.EndToEndCapacityBps,
		LinkDown:            m.LinkDown,
		NoLink:              m.NoLink,
		Deployed:            deployed,
		Timestamp:           ts,
	}
}

// Links returns one row per evaluated hop, mobile end first.
func (g *Generator) Links(tick int, m chain.Metrics, ts time.Time) []LinkRow {
	rows := make([]LinkRow, 0, len(m.Links))
	for i, l := range m.Links {
		rows = append(rows, LinkRow{
			RunID:            g.RunID,
			Index:            i,
			Tick:             tick,
			From:             l.A.Name(),
			To:               l.B.Name(),
			DistanceM:        l.DistanceM,
			ReceivedPowerDBm: l.ReceivedPowerDBm,
			FadingDB:         l.FadingDB,
			InterferenceDBm:  l.InterferenceDBm,
			NoiseDBm:         l.NoiseDBm,
			SINRDB:           l.SINRDB,
			CapacityBps:      l.CapacityBps,
			Down:             l.Down,
			Timestamp:        ts,
		})
	}
	return rows
}

// Deployment records relay placement. hopBefore is the mobile hop the relay
// split; HopAfterM is the mobile hop once the relay is linked in.
func (g *Generator) Deployment(tick int, c *chain.Chain, relay *chain.Drone, hopBefore float64, ts time.Time) DeploymentRow {
	return DeploymentRow{
		RunID:      g.RunID,
		RelayID:    relay.ID,
		Tick:       tick,
		X:          relay.Position.X,
		Y:          relay.Position.Y,
		RelayCount: c.RelayCount(),
		HopBeforeM: hopBefore,
		HopAfterM:  c.MobileHop(),
		Timestamp:  ts,
	}
}
