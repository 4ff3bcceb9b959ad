package environment

import (
	"errors"
	"math/rand"
	"strings"
	"testing"

	"relaychain-sim/internal/chain"
	"relaychain-sim/internal/propagation"
)

func TestNewGridPlacesUniqueSources(t *testing.T) {
	cfg := DefaultGridConfig()
	cfg.Sources = 40
	g, err := NewGrid(cfg, rand.New(rand.NewSource(7)))
	if err != nil {
		t.Fatalf("NewGrid: %v", err)
	}
	if len(g.Sources) != 40 {
		t.Fatalf("expected 40 sources, got %d", len(g.Sources))
	}
	seen := map[Cell]bool{}
	for _, s := range g.Sources {
		if seen[s.Cell] {
			t.Fatalf("duplicate cell %v", s.Cell)
		}
		seen[s.Cell] = true
		if s.PowerDBm < cfg.MinPowerDBm || s.PowerDBm > cfg.MaxPowerDBm {
			t.Fatalf("power %v outside range", s.PowerDBm)
		}
		if c, ok := g.CellOf(s.Position); !ok || c != s.Cell {
			t.Fatalf("source position %v not inside cell %v", s.Position, s.Cell)
		}
	}
}

func TestNewGridFillsEveryCell(t *testing.T) {
	cfg := GridConfig{Width: 3, Height: 2, CellSizeM: 10, Sources: 6}
	g, err := NewGrid(cfg, rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("NewGrid: %v", err)
	}
	if len(g.Sources) != 6 {
		t.Fatalf("expected full grid")
	}
	cfg.Sources = 7
	if _, err := NewGrid(cfg, nil); !errors.Is(err, ErrGridFull) {
		t.Fatalf("expected ErrGridFull, got %v", err)
	}
}

func TestNewGridRejectsBadConfig(t *testing.T) {
	bad := []GridConfig{
		{Width: 0, Height: 10, CellSizeM: 1},
		{Width: 10, Height: 10, CellSizeM: 0},
		{Width: 10, Height: 10, CellSizeM: 1, Sources: -1},
		{Width: 10, Height: 10, CellSizeM: 1, MinPowerDBm: -50, MaxPowerDBm: -60},
	}
	for i, cfg := range bad {
		if _, err := NewGrid(cfg, nil); err == nil {
			t.Fatalf("case %d: expected error", i)
		}
	}
}

func TestNewGridDeterministic(t *testing.T) {
	a, _ := NewGrid(DefaultGridConfig(), rand.New(rand.NewSource(3)))
	b, _ := NewGrid(DefaultGridConfig(), rand.New(rand.NewSource(3)))
	for i := range a.Sources {
		if a.Sources[i] != b.Sources[i] {
			t.Fatalf("source %d differs: %+v vs %+v", i, a.Sources[i], b.Sources[i])
		}
	}
}

func TestPowersAtAttenuates(t *testing.T) {
	cfg := GridConfig{Width: 10, Height: 10, CellSizeM: 100}
	g, err := NewGridWithSources(cfg, []Source{{Cell: Cell{X: 0, Y: 0}, PowerDBm: -20}})
	if err != nil {
		t.Fatalf("NewGridWithSources: %v", err)
	}
	at := g.PowersAt(chain.Position{X: 50, Y: 50}, propagation.DefaultFrequencyHz)
	if at[0] != -20 {
		t.Fatalf("power at the source = %v, want -20", at[0])
	}
	near := g.PowersAt(chain.Position{X: 150, Y: 50}, propagation.DefaultFrequencyHz)[0]
	far := g.PowersAt(chain.Position{X: 950, Y: 50}, propagation.DefaultFrequencyHz)[0]
	if !(far < near && near < -20) {
		t.Fatalf("expected attenuation with distance: near %v far %v", near, far)
	}
	if got := g.Fixed().PowersAt(chain.Position{X: 950}); got[0] != -20 {
		t.Fatalf("fixed interference should ignore distance, got %v", got)
	}
	if got := g.Attenuated(propagation.DefaultFrequencyHz).PowersAt(chain.Position{X: 950, Y: 50}); got[0] != far {
		t.Fatalf("attenuated interference = %v, want %v", got[0], far)
	}
}

func TestNewGridWithSourcesRejectsCollisions(t *testing.T) {
	cfg := GridConfig{Width: 2, Height: 2, CellSizeM: 1}
	if _, err := NewGridWithSources(cfg, []Source{{Cell: Cell{1, 1}}, {Cell: Cell{1, 1}}}); err == nil {
		t.Fatalf("expected shared cell error")
	}
	if _, err := NewGridWithSources(cfg, []Source{{Cell: Cell{2, 0}}}); err == nil {
		t.Fatalf("expected out of bounds error")
	}
}

func TestRender(t *testing.T) {
	cfg := GridConfig{Width: 3, Height: 2, CellSizeM: 10}
	g, _ := NewGridWithSources(cfg, []Source{{Cell: Cell{X: 2, Y: 1}, PowerDBm: -90}})
	c := chain.NewChain(chain.NewMobile(chain.Position{X: 15, Y: 5}), chain.NewOperator(chain.Position{}))
	got := g.Render(append(ChainMarks(c), Mark{Position: chain.Position{X: 500}, Symbol: '?'}))
	want := "..x\nOD.\n"
	if got != want {
		t.Fatalf("render = %q, want %q", got, want)
	}
	if strings.ContainsRune(got, '?') {
		t.Fatalf("out of grid mark rendered")
	}
}
