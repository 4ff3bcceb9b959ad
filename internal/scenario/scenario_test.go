package scenario

import (
	"testing"

	"relaychain-sim/internal/chain"
)

func TestLoadScenario(t *testing.T) {
	sc, err := Load("testdata/simple.yaml")
	if err != nil {
		t.Fatalf("load scenario: %v", err)
	}
	if sc.Name != "example" {
		t.Fatalf("unexpected name %s", sc.Name)
	}
	if sc.Description != "basic test scenario" {
		t.Fatalf("unexpected description %s", sc.Description)
	}
	if len(sc.Legs) != 2 {
		t.Fatalf("expected 2 legs, got %d", len(sc.Legs))
	}
	if sc.Legs[1].Step != (chain.Position{X: -5, Y: 5}) {
		t.Fatalf("unexpected step %v", sc.Legs[1].Step)
	}
	if sc.TotalTicks() != 5 {
		t.Fatalf("expected 5 ticks, got %d", sc.TotalTicks())
	}
}

func TestLoadRejectsOpenLegInTheMiddle(t *testing.T) {
	if _, err := Load("testdata/bad.yaml"); err == nil {
		t.Fatalf("expected validation error")
	}
	if _, err := Load("testdata/missing.yaml"); err == nil {
		t.Fatalf("expected read error")
	}
}

func TestStepAt(t *testing.T) {
	sc, err := Load("testdata/simple.yaml")
	if err != nil {
		t.Fatalf("load scenario: %v", err)
	}
	cases := map[int]chain.Position{
		1: {X: 10},
		3: {X: 10},
		4: {X: -5, Y: 5},
		5: {X: -5, Y: 5},
		9: {X: -5, Y: 5},
	}
	for tick, want := range cases {
		got, ok := sc.StepAt(tick)
		if !ok || got != want {
			t.Fatalf("tick %d: got %v, want %v", tick, got, want)
		}
	}
	var empty *Scenario
	if _, ok := empty.StepAt(1); ok {
		t.Fatalf("nil scenario should have no step")
	}
}

func TestBuiltInArcs(t *testing.T) {
	arcs := BuiltIn()
	for _, name := range []string{"diagonal", "eastbound", "dogleg"} {
		sc, ok := arcs[name]
		if !ok {
			t.Fatalf("missing arc %s", name)
		}
		if err := sc.Validate(); err != nil {
			t.Fatalf("arc %s invalid: %v", name, err)
		}
		if sc.Description == "" {
			t.Fatalf("arc %s has no description", name)
		}
	}
	diag, _ := Lookup("diagonal")
	if step, _ := diag.StepAt(1999); step != (chain.Position{X: 10, Y: 10}) {
		t.Fatalf("diagonal step = %v", step)
	}
	east, _ := Lookup("eastbound")
	if step, _ := east.StepAt(600); step != (chain.Position{}) {
		t.Fatalf("eastbound should hover at tick 600, got %v", step)
	}
	if _, ok := Lookup("nope"); ok {
		t.Fatalf("unexpected arc")
	}
}
