package scenario

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"relaychain-sim/internal/chain"
)

// Scenario is a flight plan for the mobile drone built from ordered legs.
type Scenario struct {
	Name        string `yaml:"name,omitempty"`
	Description string `yaml:"description,omitempty"`
	Legs        []Leg  `yaml:"legs"`
}

// Leg moves the mobile drone by Step on each of its Ticks.
// Ticks of zero makes the leg open ended; only the last leg may be.
type Leg struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description,omitempty"`
	Ticks       int            `yaml:"ticks"`
	Step        chain.Position `yaml:"step"`
}

// Load reads a YAML scenario definition from disk.
func Load(path string) (*Scenario, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	var s Scenario
	if err := yaml.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("scenario %s: %w", path, err)
	}
	return &s, nil
}

// Validate checks leg durations.
func (s *Scenario) Validate() error {
	for i, l := range s.Legs {
		if l.Ticks < 0 {
			return fmt.Errorf("leg %d (%s): negative ticks", i, l.Name)
		}
		if l.Ticks == 0 && i != len(s.Legs)-1 {
			return fmt.Errorf("leg %d (%s): only the last leg may be open ended", i, l.Name)
		}
	}
	return nil
}

// TotalTicks is the planned length, or 0 when the last leg is open ended.
func (s *Scenario) TotalTicks() int {
	total := 0
	for _, l := range s.Legs {
		if l.Ticks == 0 {
			return 0
		}
		total += l.Ticks
	}
	return total
}

// LegAt returns the leg active on the 1-based tick. Past the end of the
// plan the last leg stays active. ok is false for an empty scenario.
func (s *Scenario) LegAt(tick int) (Leg, bool) {
	if s == nil || len(s.Legs) == 0 {
		return Leg{}, false
	}
	elapsed := 0
	for _, l := range s.Legs {
		if l.Ticks == 0 || tick <= elapsed+l.Ticks {
			return l, true
		}
		elapsed += l.Ticks
	}
	return s.Legs[len(s.Legs)-1], true
}

// StepAt returns the movement step for the 1-based tick.
func (s *Scenario) StepAt(tick int) (chain.Position, bool) {
	l, ok := s.LegAt(tick)
	return l.Step, ok
}
