package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"relaychain-sim/internal/chain"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "relaysim.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}
	return path
}

func TestLoadConfig_Valid(t *testing.T) {
	path := writeConfig(t, `
channel:
  frequency_hz: 5.8e9
policy:
  kind: received_power
  min_receive_dbm: -85
fading:
  kind: rician
  rician_k: 4
simulation:
  ticks: 50
  step: {x: 5, y: 0}
  tick_interval: 10ms
interference:
  mode: fixed
  powers: [-95, -92]
`)
	cfg, err := Load(path, "")
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if cfg.Channel.FrequencyHz != 5.8e9 || cfg.Channel.BandwidthHz != 20e6 {
		t.Fatalf("unexpected channel %+v", cfg.Channel)
	}
	if cfg.Simulation.Ticks != 50 || cfg.Simulation.ReportEvery != DefaultReportEvery {
		t.Fatalf("unexpected run config %+v", cfg.Simulation)
	}
	if cfg.Simulation.TickInterval != 10*time.Millisecond {
		t.Fatalf("tick interval = %v", cfg.Simulation.TickInterval)
	}
	if len(cfg.Interference.Powers) != 2 || cfg.Interference.Mode != InterferenceFixed {
		t.Fatalf("unexpected interference %+v", cfg.Interference)
	}
	p, err := cfg.NewPolicy()
	if err != nil {
		t.Fatalf("NewPolicy: %v", err)
	}
	rp, ok := p.(chain.ReceivedPowerPolicy)
	if !ok || rp.MinReceiveDBm != -85 {
		t.Fatalf("unexpected policy %#v", p)
	}
}

func TestLoadReferenceConfig(t *testing.T) {
	cfg, err := Load("../../config/relaysim.yaml", "../../schemas/relaysim.cue")
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if cfg.Simulation.Ticks != DefaultTicks || cfg.Scenario != "diagonal" {
		t.Fatalf("unexpected reference config %+v", cfg.Simulation)
	}
	if cfg.Policy.Measure != "frontier" {
		t.Fatalf("unexpected measure %q", cfg.Policy.Measure)
	}
}

func TestLoadRejectsSchemaViolations(t *testing.T) {
	for name, body := range map[string]string{
		"negative frequency": "channel:\n  frequency_hz: -1\n",
		"unknown policy":     "policy:\n  kind: nearest\n",
		"unknown fading":     "fading:\n  kind: nakagami\n",
	} {
		if _, err := Load(writeConfig(t, body), ""); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestLoadRejectsUnknownField(t *testing.T) {
	if _, err := Parse([]byte("simulation:\n  tickz: 3\n")); err == nil {
		t.Fatalf("expected strict decode error")
	}
}

func TestDefaults(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Simulation.Step != (chain.Position{X: 10, Y: 10}) {
		t.Fatalf("default step = %v", cfg.Simulation.Step)
	}
	params, err := cfg.ChannelParameters()
	if err != nil || params.FrequencyHz != 2.4e9 {
		t.Fatalf("unexpected params %+v %v", params, err)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := Default()
	cfg.Channel.BandwidthHz = -5
	if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
	cfg = Default()
	cfg.Interference.Mode = "loud"
	if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
	cfg = Default()
	cfg.Policy.MaxHopM = -1
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected policy error")
	}
}

func TestTickIntervalEnvOverride(t *testing.T) {
	t.Setenv("TICK_INTERVAL", "250ms")
	cfg, err := Load(writeConfig(t, "simulation:\n  ticks: 3\n"), "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Simulation.TickInterval != 250*time.Millisecond {
		t.Fatalf("tick interval = %v", cfg.Simulation.TickInterval)
	}
	t.Setenv("TICK_INTERVAL", "soon")
	if _, err := Load(writeConfig(t, "simulation:\n  ticks: 3\n"), ""); err == nil {
		t.Fatalf("expected env parse error")
	}
}

func TestParseKeepsExplicitZeros(t *testing.T) {
	cfg, err := Parse([]byte(`
channel:
  transmit_power_dbm: 0
policy:
  kind: received_power
  min_receive_dbm: 0
simulation:
  ticks: 0
interference:
  mode: fixed
  grid:
    sources: 0
`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Channel.TransmitPowerDBm != 0 {
		t.Fatalf("transmit power = %v, want 0", cfg.Channel.TransmitPowerDBm)
	}
	if cfg.Simulation.Ticks != 0 {
		t.Fatalf("ticks = %d, want 0", cfg.Simulation.Ticks)
	}
	if cfg.Interference.Grid.Sources != 0 {
		t.Fatalf("grid sources = %d, want 0", cfg.Interference.Grid.Sources)
	}
	if cfg.Policy.MinReceiveDBm != 0 {
		t.Fatalf("min receive = %v, want 0", cfg.Policy.MinReceiveDBm)
	}
	p, err := cfg.NewPolicy()
	if err != nil {
		t.Fatalf("NewPolicy: %v", err)
	}
	if rp, ok := p.(chain.ReceivedPowerPolicy); !ok || rp.MinReceiveDBm != 0 {
		t.Fatalf("policy threshold rewritten: %#v", p)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if cfg.Channel.FrequencyHz != 2.4e9 || cfg.Simulation.ReportEvery != DefaultReportEvery {
		t.Fatalf("absent keys lost their defaults: %+v", cfg)
	}
}

func TestParseEmptyDocumentUsesDefaults(t *testing.T) {
	cfg, err := Parse(nil)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Simulation.Ticks != DefaultTicks || cfg.Interference.Grid.Sources != 5 {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
}
