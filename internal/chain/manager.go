// Relay chain manager deciding when and where to deploy relays
package chain

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"relaychain-sim/internal/propagation"
)

// Metrics is the result of one chain evaluation.
type Metrics struct {
	Links               []Link
	EndToEndSINRDB      float64
	EndToEndCapacityBps float64
	// EndToEndPathLossDB is the free-space path loss summed over all hops.
	EndToEndPathLossDB float64
	// NoLink is set when the chain has fewer than two entities.
	NoLink bool
	// LinkDown is set when any hop has a non-positive linear SINR.
	LinkDown bool
	Err      error
}

// MaxHop returns the longest evaluated hop.
func (m Metrics) MaxHop() float64 {
	var max float64
	for _, l := range m.Links {
		if l.DistanceM > max {
			max = l.DistanceM
		}
	}
	return max
}

// ManagerConfig wires a Manager.
type ManagerConfig struct {
	Channel      propagation.ChannelParameters
	Policy       Policy
	Fading       propagation.Fading
	Interference Interference
	Mobile       Position
	Operator     Position
}

// Manager owns the chain and applies the deployment policy.
type Manager struct {
	mu           sync.Mutex
	chain        *Chain
	channel      propagation.ChannelParameters
	noiseDBm     float64
	policy       Policy
	fading       propagation.Fading
	interference Interference
	nextRelayID  int
}

// NewManager validates cfg and creates the initial mobile → operator chain.
func NewManager(cfg ManagerConfig) (*Manager, error) {
	if err := cfg.Channel.Validate(); err != nil {
		return nil, err
	}
	if cfg.Policy == nil {
		return nil, errors.New("relay policy required")
	}
	fading := cfg.Fading
	if fading == nil {
		fading = propagation.NoFading{}
	}
	interference := cfg.Interference
	if interference == nil {
		interference = FixedInterference(nil)
	}
	return &Manager{
		chain:        NewChain(NewMobile(cfg.Mobile), NewOperator(cfg.Operator)),
		channel:      cfg.Channel,
		noiseDBm:     cfg.Channel.ThermalNoiseDBm(),
		policy:       cfg.Policy,
		fading:       fading,
		interference: interference,
		nextRelayID:  1,
	}, nil
}

// Policy returns the active deployment policy.
func (m *Manager) Policy() Policy { return m.policy }

// Channel returns the channel parameters.
func (m *Manager) Channel() propagation.ChannelParameters { return m.channel }

// Chain returns the managed chain. Callers must not mutate it concurrently with Step.
func (m *Manager) Chain() *Chain { return m.chain }

// MoveMobile shifts the mobile drone by step.
func (m *Manager) MoveMobile(step Position) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.chain.Head().Move(step)
}

// NeedsRelay reports whether the active policy asks for another relay.
func (m *Manager) NeedsRelay() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.policy.NeedsRelay(m.chain, m.channel)
}

// DeployRelay places a relay at the midpoint of the mobile drone and its
// current frontier (the operator or the most recent relay) and links it in
// between them.
func (m *Manager) DeployRelay() *Drone {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.deployLocked()
}

func (m *Manager) deployLocked() *Drone {
	head := m.chain.Head()
	frontier := m.chain.Frontier()
	relay := NewRelay(m.nextRelayID, head.Position.Midpoint(frontier.Position))
	m.nextRelayID++
	m.chain.insertAfterHead(relay)
	return relay
}

// Step applies the policy, deploying at most one relay, and evaluates the chain.
func (m *Manager) Step() (*Drone, Metrics) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var deployed *Drone
	if m.policy.NeedsRelay(m.chain, m.channel) {
		deployed = m.deployLocked()
	}
	return deployed, m.evaluateLocked()
}

// Evaluate computes per-hop and end-to-end metrics without changing the chain.
func (m *Manager) Evaluate() Metrics {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.evaluateLocked()
}

func (m *Manager) evaluateLocked() Metrics {
	return EvaluateChain(m.chain, m.channel, m.fading, m.interference)
}

// EvaluateChain builds one Link per adjacent pair and combines them end to end.
func EvaluateChain(c *Chain, params propagation.ChannelParameters, fading propagation.Fading, interference Interference) Metrics {
	if c == nil || c.LinkCount() == 0 {
		return Metrics{
			NoLink:         true,
			LinkDown:       true,
			EndToEndSINRDB: propagation.LinkDown,
			Err:            propagation.ErrNoLinks,
		}
	}
	if interference == nil {
		interference = FixedInterference(nil)
	}
	noise := params.ThermalNoiseDBm()
	entities := c.entities
	links := make([]Link, 0, len(entities)-1)
	sinrs := make([]float64, 0, len(entities)-1)
	for i := 0; i+1 < len(entities); i++ {
		a, b := entities[i], entities[i+1]
		dist := a.Position.Distance(b.Position)
		interf := propagation.InterferencePower(interference.PowersAt(b.Position))
		total := propagation.CombinedNoiseAndInterference(noise, interf)
		fadingDB := propagation.FadingDB(fading)
		l := Link{
			A:                a,
			B:                b,
			DistanceM:        dist,
			ReceivedPowerDBm: propagation.ReceivedPower(params.TransmitPowerDBm, dist, params.FrequencyHz),
			FadingDB:         fadingDB,
			InterferenceDBm:  interf,
			NoiseDBm:         total,
			SINRDB:           propagation.LinkSINR(dist, params.FrequencyHz, params.TransmitPowerDBm, total, fadingDB),
		}
		lin := propagation.DBToLinear(l.SINRDB)
		if capacity, err := propagation.ShannonCapacity(params.BandwidthHz, lin); err == nil && lin > 0 && !math.IsNaN(l.SINRDB) {
			l.CapacityBps = capacity
		} else {
			l.Down = true
		}
		links = append(links, l)
		sinrs = append(sinrs, l.SINRDB)
	}
	out := Metrics{
		Links:              links,
		EndToEndPathLossDB: propagation.EndToEndPathLoss(c.HopDistances(), params.FrequencyHz),
	}
	e2e, err := propagation.EndToEndSINR(sinrs)
	if err != nil {
		out.LinkDown = true
		out.EndToEndSINRDB = propagation.LinkDown
		out.Err = fmt.Errorf("evaluate chain: %w", err)
		return out
	}
	out.EndToEndSINRDB = e2e
	capacity, err := propagation.ShannonCapacity(params.BandwidthHz, propagation.DBToLinear(e2e))
	if err != nil {
		out.LinkDown = true
		out.Err = fmt.Errorf("evaluate chain: %w", err)
		return out
	}
	out.EndToEndCapacityBps = capacity
	return out
}
