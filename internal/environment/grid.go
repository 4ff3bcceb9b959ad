package environment

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"

	"relaychain-sim/internal/chain"
	"relaychain-sim/internal/propagation"
)

// ErrGridFull is returned when more sources are requested than there are cells.
var ErrGridFull = errors.New("not enough empty cells for interference sources")

const (
	DefaultWidth       = 10
	DefaultHeight      = 10
	DefaultCellSizeM   = 100
	DefaultSources     = 5
	DefaultMinPowerDBm = -100
	DefaultMaxPowerDBm = -90
)

// GridConfig describes the interference grid.
type GridConfig struct {
	Width       int            `yaml:"width" json:"width"`
	Height      int            `yaml:"height" json:"height"`
	CellSizeM   float64        `yaml:"cell_size_m" json:"cell_size_m"`
	Sources     int            `yaml:"sources" json:"sources"`
	MinPowerDBm float64        `yaml:"min_power_dbm" json:"min_power_dbm"`
	MaxPowerDBm float64        `yaml:"max_power_dbm" json:"max_power_dbm"`
	Origin      chain.Position `yaml:"origin" json:"origin"`
}

// DefaultGridConfig returns a 10x10 grid of 100 m cells with five sources.
func DefaultGridConfig() GridConfig {
	return GridConfig{
		Width:       DefaultWidth,
		Height:      DefaultHeight,
		CellSizeM:   DefaultCellSizeM,
		Sources:     DefaultSources,
		MinPowerDBm: DefaultMinPowerDBm,
		MaxPowerDBm: DefaultMaxPowerDBm,
	}
}

// Cell addresses one grid square.
type Cell struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Source is an interference emitter occupying one cell.
type Source struct {
	ID       int            `json:"id"`
	Cell     Cell           `json:"cell"`
	Position chain.Position `json:"position"`
	PowerDBm float64        `json:"power_dbm"`
}

// Grid holds the interference sources placed over the flight area.
type Grid struct {
	Width     int
	Height    int
	CellSizeM float64
	Origin    chain.Position
	Sources   []Source

	occupied map[Cell]int
}

// NewGrid places cfg.Sources emitters on distinct random cells.
func NewGrid(cfg GridConfig, rnd *rand.Rand) (*Grid, error) {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("grid dimensions must be positive, got %dx%d", cfg.Width, cfg.Height)
	}
	if !(cfg.CellSizeM > 0) {
		return nil, fmt.Errorf("grid cell size must be positive, got %g", cfg.CellSizeM)
	}
	if cfg.Sources < 0 {
		return nil, fmt.Errorf("source count must not be negative, got %d", cfg.Sources)
	}
	if cfg.Sources > cfg.Width*cfg.Height {
		return nil, fmt.Errorf("%w: %d sources on %d cells", ErrGridFull, cfg.Sources, cfg.Width*cfg.Height)
	}
	if cfg.MaxPowerDBm < cfg.MinPowerDBm {
		return nil, fmt.Errorf("max source power %g below min %g", cfg.MaxPowerDBm, cfg.MinPowerDBm)
	}
	if rnd == nil {
		rnd = rand.New(rand.NewSource(1))
	}
	g := &Grid{
		Width:     cfg.Width,
		Height:    cfg.Height,
		CellSizeM: cfg.CellSizeM,
		Origin:    cfg.Origin,
		occupied:  make(map[Cell]int, cfg.Sources),
	}
	for i := 0; i < cfg.Sources; i++ {
		var c Cell
		for {
			c = Cell{X: rnd.Intn(cfg.Width), Y: rnd.Intn(cfg.Height)}
			if _, taken := g.occupied[c]; !taken {
				break
			}
		}
		power := cfg.MinPowerDBm + rnd.Float64()*(cfg.MaxPowerDBm-cfg.MinPowerDBm)
		g.add(Source{ID: i + 1, Cell: c, Position: g.CellCenter(c), PowerDBm: power})
	}
	return g, nil
}

// NewGridWithSources builds a grid from explicitly placed sources.
func NewGridWithSources(cfg GridConfig, sources []Source) (*Grid, error) {
	if cfg.Width <= 0 || cfg.Height <= 0 || !(cfg.CellSizeM > 0) {
		return nil, fmt.Errorf("invalid grid %dx%d cell %g", cfg.Width, cfg.Height, cfg.CellSizeM)
	}
	g := &Grid{Width: cfg.Width, Height: cfg.Height, CellSizeM: cfg.CellSizeM, Origin: cfg.Origin, occupied: map[Cell]int{}}
	for i, s := range sources {
		if !g.inBounds(s.Cell) {
			return nil, fmt.Errorf("source %d outside grid at %v", i, s.Cell)
		}
		if _, taken := g.occupied[s.Cell]; taken {
			return nil, fmt.Errorf("source %d shares cell %v", i, s.Cell)
		}
		if s.ID == 0 {
			s.ID = i + 1
		}
		s.Position = g.CellCenter(s.Cell)
		g.add(s)
	}
	return g, nil
}

func (g *Grid) add(s Source) {
	g.occupied[s.Cell] = len(g.Sources)
	g.Sources = append(g.Sources, s)
}

func (g *Grid) inBounds(c Cell) bool {
	return c.X >= 0 && c.Y >= 0 && c.X < g.Width && c.Y < g.Height
}

// CellCenter returns the world position at the center of c.
func (g *Grid) CellCenter(c Cell) chain.Position {
	return chain.Position{
		X: g.Origin.X + (float64(c.X)+0.5)*g.CellSizeM,
		Y: g.Origin.Y + (float64(c.Y)+0.5)*g.CellSizeM,
	}
}

// CellOf maps a world position to its cell. ok is false outside the grid.
func (g *Grid) CellOf(pos chain.Position) (Cell, bool) {
	dx := (pos.X - g.Origin.X) / g.CellSizeM
	dy := (pos.Y - g.Origin.Y) / g.CellSizeM
	if dx < 0 || dy < 0 {
		return Cell{}, false
	}
	c := Cell{X: int(dx), Y: int(dy)}
	return c, g.inBounds(c)
}

// Powers lists every source power, ignoring geometry.
func (g *Grid) Powers() []float64 {
	out := make([]float64, len(g.Sources))
	for i, s := range g.Sources {
		out[i] = s.PowerDBm
	}
	return out
}

// PowersAt lists the source powers after free-space loss to pos.
func (g *Grid) PowersAt(pos chain.Position, frequencyHz float64) []float64 {
	out := make([]float64, len(g.Sources))
	for i, s := range g.Sources {
		out[i] = s.PowerDBm - propagation.FreeSpacePathLoss(pos.Distance(s.Position), frequencyHz)
	}
	return out
}

// Fixed returns the source powers as distance-independent interference.
func (g *Grid) Fixed() chain.FixedInterference {
	return chain.FixedInterference(g.Powers())
}

// Attenuated returns interference that falls off with distance from each source.
func (g *Grid) Attenuated(frequencyHz float64) chain.Interference {
	return chain.InterferenceFunc(func(pos chain.Position) []float64 {
		return g.PowersAt(pos, frequencyHz)
	})
}

// Mark is a symbol drawn at a world position when rendering.
type Mark struct {
	Position chain.Position
	Symbol   rune
}

// ChainMarks turns the chain entities into render marks.
func ChainMarks(c *chain.Chain) []Mark {
	entities := c.Entities()
	drones := make([]chain.Drone, len(entities))
	for i, d := range entities {
		drones[i] = *d
	}
	return EntityMarks(drones)
}

// EntityMarks marks the mobile drone 'D', relays 'R' and the operator 'O'.
func EntityMarks(entities []chain.Drone) []Mark {
	marks := make([]Mark, 0, len(entities))
	for _, d := range entities {
		sym := 'R'
		switch d.Role {
		case chain.RoleMobile:
			sym = 'D'
		case chain.RoleOperator:
			sym = 'O'
		}
		marks = append(marks, Mark{Position: d.Position, Symbol: sym})
	}
	return marks
}

// Render draws the grid with the highest row first. Empty cells are '.',
// sources 'x'; marks outside the grid are skipped.
func (g *Grid) Render(marks []Mark) string {
	rows := make([][]rune, g.Height)
	for y := range rows {
		rows[y] = []rune(strings.Repeat(".", g.Width))
	}
	for _, s := range g.Sources {
		rows[s.Cell.Y][s.Cell.X] = 'x'
	}
	for _, m := range marks {
		if c, ok := g.CellOf(m.Position); ok {
			rows[c.Y][c.X] = m.Symbol
		}
	}
	var b strings.Builder
	for y := g.Height - 1; y >= 0; y-- {
		b.WriteString(string(rows[y]))
		b.WriteByte('\n')
	}
	return b.String()
}
