package scenario

import "relaychain-sim/internal/chain"

// BuiltIn returns the predefined flight plans.
func BuiltIn() map[string]Scenario {
	return map[string]Scenario{
		"diagonal": {
			Name:        "Diagonal",
			Description: "Fly away from the operator along the diagonal at a constant pace.",
			Legs: []Leg{
				{Name: "outbound", Step: chain.Position{X: 10, Y: 10}},
			},
		},
		"eastbound": {
			Name:        "Eastbound",
			Description: "Climb out east from the operator, hover to film, then continue.",
			Legs: []Leg{
				{Name: "transit", Ticks: 500, Step: chain.Position{X: 15}},
				{Name: "filming", Description: "Hold position over the target.", Ticks: 200},
				{Name: "extend", Step: chain.Position{X: 10}},
			},
		},
		"dogleg": {
			Name:        "Dogleg",
			Description: "Head north, then turn east around an obstacle.",
			Legs: []Leg{
				{Name: "north", Ticks: 600, Step: chain.Position{Y: 12}},
				{Name: "turn", Ticks: 100, Step: chain.Position{X: 8, Y: 8}},
				{Name: "east", Step: chain.Position{X: 12}},
			},
		},
	}
}

// Lookup returns the built-in scenario with the given key.
func Lookup(name string) (*Scenario, bool) {
	s, ok := BuiltIn()[name]
	if !ok {
		return nil, false
	}
	return &s, true
}
