package sim

import (
	"fmt"
	"math/rand"

	"relaychain-sim/internal/chain"
	"relaychain-sim/internal/config"
	"relaychain-sim/internal/environment"
	"relaychain-sim/internal/propagation"
	"relaychain-sim/internal/scenario"
)

// Environment is everything built from a config besides the writers.
type Environment struct {
	Manager *chain.Manager
	// Grid is nil when no interference grid is used.
	Grid *environment.Grid
	Plan StepPlan
	Loop Config
}

// LoopConfig converts the simulation section.
func LoopConfig(cfg *config.SimulationConfig) Config {
	return Config{
		Ticks:        cfg.Simulation.Ticks,
		ReportEvery:  cfg.Simulation.ReportEvery,
		TickInterval: cfg.Simulation.TickInterval,
		Step:         cfg.Simulation.Step,
	}
}

// NewEnvironment builds the manager, interference and flight plan. rnd drives
// grid placement and fading; nil seeds from cfg.Simulation.Seed.
func NewEnvironment(cfg *config.SimulationConfig, rnd *rand.Rand) (*Environment, error) {
	if rnd == nil {
		rnd = rand.New(rand.NewSource(cfg.Simulation.Seed))
	}
	params, err := cfg.ChannelParameters()
	if err != nil {
		return nil, err
	}
	policy, err := cfg.NewPolicy()
	if err != nil {
		return nil, err
	}
	kind, err := propagation.ParseFadingKind(cfg.Fading.Kind)
	if err != nil {
		return nil, err
	}
	fading, err := propagation.NewFading(kind, cfg.Fading.RicianK, rnd)
	if err != nil {
		return nil, err
	}

	env := &Environment{Loop: LoopConfig(cfg)}
	var interference chain.Interference
	switch cfg.Interference.Mode {
	case config.InterferenceFixed:
		if len(cfg.Interference.Powers) > 0 {
			interference = chain.FixedInterference(cfg.Interference.Powers)
			break
		}
		if env.Grid, err = environment.NewGrid(cfg.Interference.Grid, rnd); err != nil {
			return nil, err
		}
		interference = env.Grid.Fixed()
	case config.InterferenceAttenuated:
		if env.Grid, err = environment.NewGrid(cfg.Interference.Grid, rnd); err != nil {
			return nil, err
		}
		interference = env.Grid.Attenuated(params.FrequencyHz)
	}

	env.Manager, err = chain.NewManager(chain.ManagerConfig{
		Channel:      params,
		Policy:       policy,
		Fading:       fading,
		Interference: interference,
		Mobile:       cfg.Simulation.Mobile,
		Operator:     cfg.Simulation.Operator,
	})
	if err != nil {
		return nil, err
	}

	if cfg.Scenario != "" {
		sc, ok := scenario.Lookup(cfg.Scenario)
		if !ok {
			if sc, err = scenario.Load(cfg.Scenario); err != nil {
				return nil, fmt.Errorf("scenario %q is neither built in nor a readable file: %w", cfg.Scenario, err)
			}
		}
		env.Plan = sc
	}
	return env, nil
}
