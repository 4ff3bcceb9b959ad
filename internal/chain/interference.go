package chain

// Interference supplies the interfering source powers (dBm) seen by a receiver at pos.
type Interference interface {
	PowersAt(pos Position) []float64
}

// FixedInterference applies the same source powers to every receiver,
// regardless of where the sources are.
type FixedInterference []float64

func (f FixedInterference) PowersAt(Position) []float64 {
	return f
}

// InterferenceFunc adapts a function to Interference.
type InterferenceFunc func(pos Position) []float64

func (f InterferenceFunc) PowersAt(pos Position) []float64 {
	return f(pos)
}
