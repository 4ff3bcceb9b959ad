// Drone, operator and link model of a relay chain
package chain

import (
	"fmt"
	"math"
)

// Position is a 2D point in meters.
type Position struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Distance returns the euclidean distance to o.
func (p Position) Distance(o Position) float64 {
	return math.Hypot(p.X-o.X, p.Y-o.Y)
}

// Midpoint returns the point halfway between p and o.
func (p Position) Midpoint(o Position) Position {
	return Position{X: (p.X + o.X) / 2, Y: (p.Y + o.Y) / 2}
}

// Add returns p shifted by step.
func (p Position) Add(step Position) Position {
	return Position{X: p.X + step.X, Y: p.Y + step.Y}
}

func (p Position) String() string {
	return fmt.Sprintf("(%.1f, %.1f)", p.X, p.Y)
}

// Role identifies the part an entity plays in the chain.
type Role string

const (
	RoleMobile   Role = "mobile"
	RoleRelay    Role = "relay"
	RoleOperator Role = "operator"
)

// Reserved ids. Relays are numbered from 1 in deployment order.
const (
	MobileID   = 0
	OperatorID = -1
)

// Drone is one entity of the chain: the mobile video drone, a relay or the operator.
type Drone struct {
	ID       int      `json:"id"`
	Role     Role     `json:"role"`
	Position Position `json:"position"`
	Battery  float64  `json:"battery"`
}

// NewMobile returns the video drone at pos with a full battery.
func NewMobile(pos Position) *Drone {
	return &Drone{ID: MobileID, Role: RoleMobile, Position: pos, Battery: 100}
}

// NewOperator returns the stationary ground operator at pos.
func NewOperator(pos Position) *Drone {
	return &Drone{ID: OperatorID, Role: RoleOperator, Position: pos, Battery: 100}
}

// NewRelay returns relay id at pos with a full battery.
func NewRelay(id int, pos Position) *Drone {
	return &Drone{ID: id, Role: RoleRelay, Position: pos, Battery: 100}
}

// Move shifts the drone by step. The operator never moves.
func (d *Drone) Move(step Position) {
	if d.Role == RoleOperator {
		return
	}
	d.Position = d.Position.Add(step)
}

// SetBattery stores level clamped to [0,100].
func (d *Drone) SetBattery(level float64) {
	d.Battery = math.Max(0, math.Min(100, level))
}

// Name returns a short human label such as "mobile", "relay-2" or "operator".
func (d *Drone) Name() string {
	if d.Role == RoleRelay {
		return fmt.Sprintf("relay-%d", d.ID)
	}
	return string(d.Role)
}

// Link is the latest evaluation of one hop between adjacent entities. A is the
// entity closer to the mobile drone and B the receiver closer to the operator.
type Link struct {
	A                *Drone
	B                *Drone
	DistanceM        float64
	ReceivedPowerDBm float64
	FadingDB         float64
	InterferenceDBm  float64
	NoiseDBm         float64
	SINRDB           float64
	CapacityBps      float64
	Down             bool
}
