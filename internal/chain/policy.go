package chain

import (
	"fmt"
	"math"
	"strings"

	"relaychain-sim/internal/propagation"
)

// Reference policy thresholds.
const (
	DefaultMaxHopM       = 1000.0
	DefaultMinReceiveDBm = -80.0
)

// PolicyKind names a deployment trigger.
type PolicyKind string

const (
	PolicyDistance      PolicyKind = "distance"
	PolicyReceivedPower PolicyKind = "received_power"
)

// DistanceMeasure selects which span the distance policy compares to its threshold.
type DistanceMeasure string

const (
	// MeasureOperator compares the last inserted entity (the mobile drone
	// before any deployment) against the operator.
	MeasureOperator DistanceMeasure = "operator"
	// MeasureFrontier compares the mobile drone against the entity it
	// currently links to.
	MeasureFrontier DistanceMeasure = "frontier"
)

// Policy decides whether the chain needs another relay.
type Policy interface {
	Kind() PolicyKind
	NeedsRelay(c *Chain, params propagation.ChannelParameters) bool
	String() string
}

// DistancePolicy fires when the measured span exceeds MaxHopM.
type DistancePolicy struct {
	MaxHopM float64
	Measure DistanceMeasure
}

func (DistancePolicy) Kind() PolicyKind { return PolicyDistance }

// Span returns the distance the policy compares to its threshold.
func (p DistancePolicy) Span(c *Chain) float64 {
	if c.LinkCount() == 0 {
		return 0
	}
	if p.Measure == MeasureFrontier {
		return c.MobileHop()
	}
	return c.LastInserted().Position.Distance(c.Tail().Position)
}

func (p DistancePolicy) NeedsRelay(c *Chain, _ propagation.ChannelParameters) bool {
	return p.Span(c) > p.MaxHopM
}

func (p DistancePolicy) String() string {
	measure := p.Measure
	if measure == "" {
		measure = MeasureOperator
	}
	return fmt.Sprintf("distance(max_hop=%.0fm, measure=%s)", p.MaxHopM, measure)
}

// ReceivedPowerPolicy fires when the free-space received power of the
// weakest hop a deployment can still shrink drops below MinReceiveDBm. A relay
// only ever splits the mobile drone's hop, so older hops are left out: they
// cannot improve and would keep the trigger firing forever. Fading is ignored
// so the trigger is deterministic.
type ReceivedPowerPolicy struct {
	MinReceiveDBm float64
}

func (ReceivedPowerPolicy) Kind() PolicyKind { return PolicyReceivedPower }

// WeakestHopDBm returns the lowest received power over all hops, +Inf without links.
func (p ReceivedPowerPolicy) WeakestHopDBm(c *Chain, params propagation.ChannelParameters) float64 {
	weakest := math.Inf(1)
	for _, d := range c.HopDistances() {
		if rx := params.ReceivedPower(d); rx < weakest {
			weakest = rx
		}
	}
	return weakest
}

// FrontierHopDBm returns the received power across the mobile drone's hop,
// the one the next deployment splits. +Inf without links.
func (p ReceivedPowerPolicy) FrontierHopDBm(c *Chain, params propagation.ChannelParameters) float64 {
	if c.LinkCount() == 0 {
		return math.Inf(1)
	}
	return params.ReceivedPower(c.MobileHop())
}

func (p ReceivedPowerPolicy) NeedsRelay(c *Chain, params propagation.ChannelParameters) bool {
	return p.FrontierHopDBm(c, params) < p.MinReceiveDBm
}

func (p ReceivedPowerPolicy) String() string {
	return fmt.Sprintf("received_power(min=%.1fdBm)", p.MinReceiveDBm)
}

// PolicyConfig carries the thresholds of both policy variants.
type PolicyConfig struct {
	Kind          PolicyKind
	MaxHopM       float64
	Measure       DistanceMeasure
	MinReceiveDBm float64
}

// ParsePolicyKind maps a config string to a PolicyKind. Empty means distance.
func ParsePolicyKind(s string) (PolicyKind, error) {
	switch PolicyKind(strings.ToLower(strings.TrimSpace(s))) {
	case "", PolicyDistance:
		return PolicyDistance, nil
	case PolicyReceivedPower, "received-power", "power":
		return PolicyReceivedPower, nil
	}
	return "", fmt.Errorf("unknown relay policy %q", s)
}

// ParseDistanceMeasure maps a config string to a DistanceMeasure. Empty means operator.
func ParseDistanceMeasure(s string) (DistanceMeasure, error) {
	switch DistanceMeasure(strings.ToLower(strings.TrimSpace(s))) {
	case "", MeasureOperator:
		return MeasureOperator, nil
	case MeasureFrontier:
		return MeasureFrontier, nil
	}
	return "", fmt.Errorf("unknown distance measure %q", s)
}

// DefaultPolicyConfig returns the reference distance policy with both
// thresholds at their reference values.
func DefaultPolicyConfig() PolicyConfig {
	return PolicyConfig{
		Kind:          PolicyDistance,
		MaxHopM:       DefaultMaxHopM,
		Measure:       MeasureOperator,
		MinReceiveDBm: DefaultMinReceiveDBm,
	}
}

// NewPolicy builds the configured policy. Thresholds are taken as given; start
// from DefaultPolicyConfig for the reference values.
func NewPolicy(cfg PolicyConfig) (Policy, error) {
	switch cfg.Kind {
	case PolicyDistance, "":
		if !(cfg.MaxHopM > 0) {
			return nil, fmt.Errorf("max hop distance must be positive, got %g", cfg.MaxHopM)
		}
		measure := cfg.Measure
		if measure == "" {
			measure = MeasureOperator
		}
		if measure != MeasureOperator && measure != MeasureFrontier {
			return nil, fmt.Errorf("unknown distance measure %q", measure)
		}
		return DistancePolicy{MaxHopM: cfg.MaxHopM, Measure: measure}, nil
	case PolicyReceivedPower:
		if math.IsNaN(cfg.MinReceiveDBm) || math.IsInf(cfg.MinReceiveDBm, 0) {
			return nil, fmt.Errorf("minimum receive power must be finite, got %g", cfg.MinReceiveDBm)
		}
		return ReceivedPowerPolicy{MinReceiveDBm: cfg.MinReceiveDBm}, nil
	}
	return nil, fmt.Errorf("unknown relay policy %q", cfg.Kind)
}
