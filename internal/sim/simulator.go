// Simulator driving the video drone and its relay chain tick by tick
package sim

import (
	"sync"
	"time"

	"relaychain-sim/internal/chain"
	"relaychain-sim/internal/telemetry"
)

// StepPlan supplies the mobile drone movement for a 1-based tick.
// ok false falls back to the configured constant step.
type StepPlan interface {
	StepAt(tick int) (chain.Position, bool)
}

// Config controls the tick loop.
type Config struct {
	// Ticks is the number of ticks Run executes; 0 runs until cancelled.
	Ticks int
	// ReportEvery emits a status record every n ticks; 0 reports only on changes.
	ReportEvery  int
	TickInterval time.Duration
	Step         chain.Position
}

// Snapshot is the latest evaluated state, safe to hand to other goroutines.
type Snapshot struct {
	Tick     int                 `json:"tick"`
	Status   telemetry.StatusRow `json:"status"`
	Links    []telemetry.LinkRow `json:"links"`
	Entities []chain.Drone       `json:"entities"`
}

// Summary describes a finished run.
type Summary struct {
	RunID            string  `json:"run_id"`
	Ticks            int     `json:"ticks"`
	Relays           int     `json:"relays"`
	Reports          int     `json:"reports"`
	LinkDownTicks    int     `json:"link_down_ticks"`
	FinalSINRDB      float64 `json:"-"`
	FinalCapacityBps float64 `json:"final_capacity_bps"`
	Interrupted      bool    `json:"interrupted"`
}

// Simulator moves the mobile drone, lets the manager deploy relays and
// reports chain metrics to its writers.
type Simulator struct {
	runID   string
	cfg     Config
	manager *chain.Manager
	writers Writers
	plan    StepPlan
	gen     *telemetry.Generator
	now     func() time.Time

	mu            sync.Mutex
	tick          int
	linkDown      bool
	snapshot      Snapshot
	events        []Event
	reports       int
	linkDownTicks int
}

// NewSimulator wires a simulator. plan and now may be nil.
func NewSimulator(runID string, cfg Config, manager *chain.Manager, writers Writers, plan StepPlan, now func() time.Time) *Simulator {
	if now == nil {
		now = time.Now
	}
	s := &Simulator{
		runID:   runID,
		cfg:     cfg,
		manager: manager,
		writers: writers,
		plan:    plan,
		gen:     telemetry.NewGenerator(runID, manager.Policy().String()),
		now:     now,
	}
	metrics := manager.Evaluate()
	ts := now().UTC()
	s.snapshot = s.buildSnapshot(0, metrics, false, ts)
	s.linkDown = metrics.LinkDown
	return s
}

// RunID returns the identifier stamped on every record.
func (s *Simulator) RunID() string { return s.runID }

// Manager exposes the relay chain manager.
func (s *Simulator) Manager() *chain.Manager { return s.manager }

// Config returns the loop settings.
func (s *Simulator) Config() Config { return s.cfg }

// Tick returns the number of completed ticks.
func (s *Simulator) Tick() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tick
}

// Snapshot returns a copy of the latest state.
func (s *Simulator) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.snapshot
	snap.Links = append([]telemetry.LinkRow(nil), s.snapshot.Links...)
	snap.Entities = append([]chain.Drone(nil), s.snapshot.Entities...)
	return snap
}

// Summary reports the run so far.
func (s *Simulator) Summary() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Summary{
		RunID:            s.runID,
		Ticks:            s.tick,
		Relays:           s.snapshot.Status.RelayCount,
		Reports:          s.reports,
		LinkDownTicks:    s.linkDownTicks,
		FinalSINRDB:      s.snapshot.Status.EndToEndSINRDB,
		FinalCapacityBps: s.snapshot.Status.EndToEndCapacityBps,
	}
}

func (s *Simulator) buildSnapshot(tick int, m chain.Metrics, deployed bool, ts time.Time) Snapshot {
	c := s.manager.Chain()
	entities := c.Entities()
	copies := make([]chain.Drone, len(entities))
	for i, d := range entities {
		copies[i] = *d
	}
	return Snapshot{
		Tick:     tick,
		Status:   s.gen.Status(tick, c, m, deployed, ts),
		Links:    s.gen.Links(tick, m, ts),
		Entities: copies,
	}
}
