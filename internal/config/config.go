// YAML config loader with CUE validation integration
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"relaychain-sim/internal/chain"
	"relaychain-sim/internal/environment"
	"relaychain-sim/internal/propagation"
)

const (
	// DefaultTicks matches a 1-based loop of 1..1999.
	DefaultTicks       = 1999
	DefaultReportEvery = 100
)

// ErrInvalidConfig wraps every semantic validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// Interference modes.
const (
	InterferenceNone       = "none"
	InterferenceFixed      = "fixed"
	InterferenceAttenuated = "attenuated"
)

// ChannelConfig holds the radio parameters shared by every link.
type ChannelConfig struct {
	FrequencyHz      float64 `yaml:"frequency_hz"`
	BandwidthHz      float64 `yaml:"bandwidth_hz"`
	TransmitPowerDBm float64 `yaml:"transmit_power_dbm"`
	TemperatureK     float64 `yaml:"temperature_k"`
}

// PolicyConfig selects the relay deployment rule.
type PolicyConfig struct {
	Kind          string  `yaml:"kind"`
	MaxHopM       float64 `yaml:"max_hop_m"`
	Measure       string  `yaml:"measure"`
	MinReceiveDBm float64 `yaml:"min_receive_dbm"`
}

// FadingConfig selects the small-scale fading model.
type FadingConfig struct {
	Kind    string  `yaml:"kind"`
	RicianK float64 `yaml:"rician_k"`
}

// RunConfig controls the tick loop.
type RunConfig struct {
	Ticks        int            `yaml:"ticks"`
	ReportEvery  int            `yaml:"report_every"`
	Step         chain.Position `yaml:"step"`
	TickInterval time.Duration  `yaml:"tick_interval"`
	Seed         int64          `yaml:"seed"`
	Mobile       chain.Position `yaml:"mobile"`
	Operator     chain.Position `yaml:"operator"`
}

// InterferenceConfig describes the external interference sources.
type InterferenceConfig struct {
	Mode   string                 `yaml:"mode"`
	Powers []float64              `yaml:"powers"`
	Grid   environment.GridConfig `yaml:"grid"`
}

// SimulationConfig is the root configuration of a relay chain run.
type SimulationConfig struct {
	Channel      ChannelConfig      `yaml:"channel"`
	Policy       PolicyConfig       `yaml:"policy"`
	Fading       FadingConfig       `yaml:"fading"`
	Simulation   RunConfig          `yaml:"simulation"`
	Interference InterferenceConfig `yaml:"interference"`
	Scenario     string             `yaml:"scenario"`
}

// Default returns the reference configuration.
func Default() *SimulationConfig {
	ch := propagation.DefaultChannelParameters()
	return &SimulationConfig{
		Channel: ChannelConfig{
			FrequencyHz:      ch.FrequencyHz,
			BandwidthHz:      ch.BandwidthHz,
			TransmitPowerDBm: ch.TransmitPowerDBm,
			TemperatureK:     ch.TemperatureK,
		},
		Policy: PolicyConfig{
			Kind:          string(chain.PolicyDistance),
			MaxHopM:       chain.DefaultMaxHopM,
			MinReceiveDBm: chain.DefaultMinReceiveDBm,
		},
		Fading: FadingConfig{Kind: string(propagation.FadingNone)},
		Simulation: RunConfig{
			Ticks:       DefaultTicks,
			ReportEvery: DefaultReportEvery,
			Step:        chain.Position{X: 10, Y: 10},
		},
		Interference: InterferenceConfig{
			Mode: InterferenceNone,
			Grid: environment.DefaultGridConfig(),
		},
	}
}

// Load reads the YAML config, validates it against the CUE schema (the
// embedded one when schemaPath is empty), applies environment overrides and
// validates the result.
func Load(configPath, schemaPath string) (*SimulationConfig, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := ValidateWithCue(configPath, data, schemaPath); err != nil {
		return nil, err
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes YAML strictly on top of Default, so every key present in
// the document wins, zero values included.
func Parse(data []byte) (*SimulationConfig, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// ApplyEnv applies the TICK_INTERVAL override.
func (c *SimulationConfig) ApplyEnv() error {
	if envTick := os.Getenv("TICK_INTERVAL"); envTick != "" {
		d, err := time.ParseDuration(envTick)
		if err != nil {
			return fmt.Errorf("%w: TICK_INTERVAL: %v", ErrInvalidConfig, err)
		}
		c.Simulation.TickInterval = d
	}
	return nil
}

// Validate rejects configs the simulator cannot run.
func (c *SimulationConfig) Validate() error {
	if _, err := c.ChannelParameters(); err != nil {
		return fmt.Errorf("%w: channel: %v", ErrInvalidConfig, err)
	}
	if _, err := c.NewPolicy(); err != nil {
		return fmt.Errorf("%w: policy: %v", ErrInvalidConfig, err)
	}
	if _, err := propagation.ParseFadingKind(c.Fading.Kind); err != nil {
		return fmt.Errorf("%w: fading: %v", ErrInvalidConfig, err)
	}
	if c.Fading.RicianK < 0 {
		return fmt.Errorf("%w: fading: rician_k must not be negative", ErrInvalidConfig)
	}
	if c.Simulation.Ticks < 0 || c.Simulation.ReportEvery < 0 {
		return fmt.Errorf("%w: simulation: ticks and report_every must not be negative", ErrInvalidConfig)
	}
	if c.Simulation.TickInterval < 0 {
		return fmt.Errorf("%w: simulation: negative tick_interval", ErrInvalidConfig)
	}
	switch c.Interference.Mode {
	case InterferenceNone, InterferenceFixed, InterferenceAttenuated:
	default:
		return fmt.Errorf("%w: interference: unknown mode %q", ErrInvalidConfig, c.Interference.Mode)
	}
	return nil
}

// ChannelParameters converts the channel section into propagation parameters.
func (c *SimulationConfig) ChannelParameters() (propagation.ChannelParameters, error) {
	p := propagation.DefaultChannelParameters()
	p.FrequencyHz = c.Channel.FrequencyHz
	p.BandwidthHz = c.Channel.BandwidthHz
	p.TransmitPowerDBm = c.Channel.TransmitPowerDBm
	p.TemperatureK = c.Channel.TemperatureK
	return p, p.Validate()
}

// PolicyConfig converts the policy section for chain.NewPolicy.
func (c *SimulationConfig) PolicyConfig() (chain.PolicyConfig, error) {
	kind, err := chain.ParsePolicyKind(c.Policy.Kind)
	if err != nil {
		return chain.PolicyConfig{}, err
	}
	measure, err := chain.ParseDistanceMeasure(c.Policy.Measure)
	if err != nil {
		return chain.PolicyConfig{}, err
	}
	return chain.PolicyConfig{
		Kind:          kind,
		MaxHopM:       c.Policy.MaxHopM,
		Measure:       measure,
		MinReceiveDBm: c.Policy.MinReceiveDBm,
	}, nil
}

// NewPolicy builds the configured deployment policy.
func (c *SimulationConfig) NewPolicy() (chain.Policy, error) {
	pc, err := c.PolicyConfig()
	if err != nil {
		return nil, err
	}
	return chain.NewPolicy(pc)
}
