package chain

import (
	"errors"
	"fmt"
)

// ErrInvalidChain reports a chain with a bad head, tail or duplicate entity.
var ErrInvalidChain = errors.New("invalid relay chain")

// Chain is the ordered sequence mobile drone → relays → operator.
type Chain struct {
	entities []*Drone
}

// NewChain returns the two-entity chain linking mobile directly to operator.
func NewChain(mobile, operator *Drone) *Chain {
	return &Chain{entities: []*Drone{mobile, operator}}
}

// Head returns the mobile drone.
func (c *Chain) Head() *Drone { return c.entities[0] }

// Tail returns the operator.
func (c *Chain) Tail() *Drone { return c.entities[len(c.entities)-1] }

// Len returns the number of entities in the chain.
func (c *Chain) Len() int { return len(c.entities) }

// LinkCount returns the number of hops.
func (c *Chain) LinkCount() int {
	if len(c.entities) < 2 {
		return 0
	}
	return len(c.entities) - 1
}

// Entities returns a copy of the ordered entity list.
func (c *Chain) Entities() []*Drone {
	out := make([]*Drone, len(c.entities))
	copy(out, c.entities)
	return out
}

// Relays returns deployed relays in deployment order.
func (c *Chain) Relays() []*Drone {
	if len(c.entities) <= 2 {
		return nil
	}
	// relays sit between head and tail in reverse deployment order
	out := make([]*Drone, 0, len(c.entities)-2)
	for i := len(c.entities) - 2; i >= 1; i-- {
		out = append(out, c.entities[i])
	}
	return out
}

// RelayCount returns the number of deployed relays.
func (c *Chain) RelayCount() int {
	if len(c.entities) <= 2 {
		return 0
	}
	return len(c.entities) - 2
}

// LastInserted returns the most recently deployed relay, or the mobile drone
// when no relay has been deployed yet.
func (c *Chain) LastInserted() *Drone {
	if c.RelayCount() == 0 {
		return c.Head()
	}
	return c.entities[1]
}

// Frontier returns the entity the mobile drone currently links to: the most
// recent relay, or the operator when there is none.
func (c *Chain) Frontier() *Drone {
	return c.entities[1]
}

// MobileHop returns the length of the mobile drone's hop, the only one a
// deployment splits. 0 for a chain without links.
func (c *Chain) MobileHop() float64 {
	if c.LinkCount() == 0 {
		return 0
	}
	return c.Head().Position.Distance(c.Frontier().Position)
}

// HopDistances returns the length of every hop from head to tail.
func (c *Chain) HopDistances() []float64 {
	if c.LinkCount() == 0 {
		return nil
	}
	out := make([]float64, 0, c.LinkCount())
	for i := 0; i+1 < len(c.entities); i++ {
		out = append(out, c.entities[i].Position.Distance(c.entities[i+1].Position))
	}
	return out
}

// MaxHop returns the longest hop distance, or 0 for a chain without links.
func (c *Chain) MaxHop() float64 {
	var max float64
	for _, d := range c.HopDistances() {
		if d > max {
			max = d
		}
	}
	return max
}

// insertAfterHead splits the mobile drone's hop so the chain reads
// mobile → d → previous frontier → ... → operator.
func (c *Chain) insertAfterHead(d *Drone) {
	c.entities = append(c.entities, nil)
	copy(c.entities[2:], c.entities[1:])
	c.entities[1] = d
}

// Validate checks head and tail roles and that no entity repeats.
func (c *Chain) Validate() error {
	if len(c.entities) == 0 {
		return fmt.Errorf("%w: empty", ErrInvalidChain)
	}
	if c.Head().Role != RoleMobile {
		return fmt.Errorf("%w: head is %s, want mobile", ErrInvalidChain, c.Head().Role)
	}
	if len(c.entities) > 1 && c.Tail().Role != RoleOperator {
		return fmt.Errorf("%w: tail is %s, want operator", ErrInvalidChain, c.Tail().Role)
	}
	seen := make(map[*Drone]struct{}, len(c.entities))
	ids := make(map[int]struct{}, len(c.entities))
	for i, d := range c.entities {
		if d == nil {
			return fmt.Errorf("%w: nil entity at %d", ErrInvalidChain, i)
		}
		if _, dup := seen[d]; dup {
			return fmt.Errorf("%w: entity %s appears twice", ErrInvalidChain, d.Name())
		}
		if _, dup := ids[d.ID]; dup {
			return fmt.Errorf("%w: duplicate id %d", ErrInvalidChain, d.ID)
		}
		seen[d] = struct{}{}
		ids[d.ID] = struct{}{}
		if i > 0 && i < len(c.entities)-1 && d.Role != RoleRelay {
			return fmt.Errorf("%w: interior entity %d is %s", ErrInvalidChain, i, d.Role)
		}
	}
	return nil
}
