package propagation

import (
	"fmt"
	"math"
	"math/rand"
	"strings"
	"sync"
)

// Fading produces positive multiplicative factors applied to received signal power.
type Fading interface {
	Factor() float64
}

// FadingDB converts a fading factor to dB. A non-positive factor is a complete
// fade and maps to -Inf, which takes the hop down.
func FadingDB(f Fading) float64 {
	if f == nil {
		return 0
	}
	v := f.Factor()
	if !(v > 0) {
		return math.Inf(-1)
	}
	return LinearToDB(v)
}

// FadingKind selects the fading generator used for every hop.
type FadingKind string

const (
	FadingNone     FadingKind = "none"
	FadingRayleigh FadingKind = "rayleigh"
	FadingRician   FadingKind = "rician"
)

// ParseFadingKind maps a config string to a FadingKind. Empty means none.
func ParseFadingKind(s string) (FadingKind, error) {
	switch FadingKind(strings.ToLower(strings.TrimSpace(s))) {
	case "", FadingNone:
		return FadingNone, nil
	case FadingRayleigh:
		return FadingRayleigh, nil
	case FadingRician:
		return FadingRician, nil
	}
	return "", fmt.Errorf("unknown fading kind %q", s)
}

// NewFading builds the generator for kind. ricianK is only used for FadingRician.
func NewFading(kind FadingKind, ricianK float64, rnd *rand.Rand) (Fading, error) {
	switch kind {
	case FadingNone, "":
		return NoFading{}, nil
	case FadingRayleigh:
		return NewRayleigh(rnd), nil
	case FadingRician:
		if !(ricianK >= 0) {
			return nil, fmt.Errorf("rician K must be non-negative, got %g", ricianK)
		}
		return NewRicianApprox(ricianK, rnd), nil
	}
	return nil, fmt.Errorf("unknown fading kind %q", kind)
}

// rayleighSample draws from a Rayleigh distribution with the given scale by
// inverting its CDF.
func rayleighSample(rnd *rand.Rand, scale float64) float64 {
	u := rnd.Float64()
	return scale * math.Sqrt(-2*math.Log(1-u))
}

// Rayleigh draws scale-1 Rayleigh factors (no dominant line of sight).
type Rayleigh struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewRayleigh returns a Rayleigh generator. A nil rnd gets a fixed seed.
func NewRayleigh(rnd *rand.Rand) *Rayleigh {
	if rnd == nil {
		rnd = rand.New(rand.NewSource(1))
	}
	return &Rayleigh{rnd: rnd}
}

func (r *Rayleigh) Factor() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return rayleighSample(r.rnd, 1)
}

// RicianApprox approximates a Rician envelope as the sum of two independent
// Rayleigh draws with scales sqrt(K) and sqrt(1/(2(K+1))). It is not the
// textbook Rician density.
type RicianApprox struct {
	K   float64
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewRicianApprox returns the approximation for factor K. A nil rnd gets a fixed seed.
func NewRicianApprox(k float64, rnd *rand.Rand) *RicianApprox {
	if rnd == nil {
		rnd = rand.New(rand.NewSource(1))
	}
	return &RicianApprox{K: k, rnd: rnd}
}

func (r *RicianApprox) Factor() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	los := rayleighSample(r.rnd, math.Sqrt(r.K))
	scatter := rayleighSample(r.rnd, math.Sqrt(1/(2*(r.K+1))))
	return los + scatter
}

// NoFading always returns a unit factor.
type NoFading struct{}

func (NoFading) Factor() float64 { return 1 }

// Fixed returns the same factor on every draw.
type Fixed float64

func (f Fixed) Factor() float64 { return float64(f) }

// Sequence replays pre-drawn factors in order and wraps around at the end.
type Sequence struct {
	mu      sync.Mutex
	factors []float64
	next    int
}

// NewSequence returns a Sequence over factors. An empty list behaves like NoFading.
func NewSequence(factors ...float64) *Sequence {
	cp := make([]float64, len(factors))
	copy(cp, factors)
	return &Sequence{factors: cp}
}

func (s *Sequence) Factor() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.factors) == 0 {
		return 1
	}
	v := s.factors[s.next%len(s.factors)]
	s.next++
	return v
}

// Reset rewinds the sequence to its first factor.
func (s *Sequence) Reset() {
	s.mu.Lock()
	s.next = 0
	s.mu.Unlock()
}
