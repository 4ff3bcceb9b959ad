// Free-space propagation, noise and SINR math for multi-hop links
package propagation

import (
	"errors"
	"math"
)

// fsplConstantDB folds the speed of light and the 4π term of the Friis equation
// for distance in meters and frequency in Hz.
const fsplConstantDB = 147.55

var (
	// NoInterference is the dBm value of an empty interference source list.
	NoInterference = math.Inf(-1)
	// LinkDown is the end-to-end SINR reported for a chain that cannot carry traffic.
	LinkDown = math.Inf(-1)
)

var (
	ErrNoLinks      = errors.New("chain has no links")
	ErrLinkDown     = errors.New("link down: non-positive linear SINR on a hop")
	ErrNegativeSINR = errors.New("linear SINR must not be negative")
)

// DBToLinear converts a dB (or dBm) value to its linear ratio (or milliwatts).
func DBToLinear(db float64) float64 {
	return math.Pow(10, db/10)
}

// LinearToDB converts a linear ratio to dB. Zero maps to -Inf.
func LinearToDB(v float64) float64 {
	return 10 * math.Log10(v)
}

// FreeSpacePathLoss returns the loss in dB over distance meters at frequency Hz.
// The formula is singular at zero distance, which is reported as zero loss.
func FreeSpacePathLoss(distance, frequency float64) float64 {
	if distance <= 0 {
		return 0
	}
	return 20*math.Log10(distance) + 20*math.Log10(frequency) - fsplConstantDB
}

// ReceivedPower returns the power in dBm after free-space loss.
func ReceivedPower(transmitPowerDBm, distance, frequency float64) float64 {
	if distance <= 0 {
		return transmitPowerDBm
	}
	return transmitPowerDBm - FreeSpacePathLoss(distance, frequency)
}

// ThermalNoisePower returns kTB in dBm.
func ThermalNoisePower(boltzmann, temperatureK, bandwidthHz float64) float64 {
	return 10 * math.Log10(boltzmann*temperatureK*bandwidthHz*1000)
}

// InterferencePower sums source powers in the linear domain and returns dBm.
func InterferencePower(sources []float64) float64 {
	if len(sources) == 0 {
		return NoInterference
	}
	var sum float64
	for _, p := range sources {
		sum += DBToLinear(p)
	}
	return LinearToDB(sum)
}

// CombinePowers adds two dBm powers in the linear domain.
func CombinePowers(a, b float64) float64 {
	return LinearToDB(DBToLinear(a) + DBToLinear(b))
}

// CombinedNoiseAndInterference returns the total impairment power in dBm.
func CombinedNoiseAndInterference(noiseDBm, interferenceDBm float64) float64 {
	return CombinePowers(noiseDBm, interferenceDBm)
}

// EndToEndPathLoss sums the free-space path loss of every hop in dB.
// Zero-length hops add nothing.
func EndToEndPathLoss(hopDistances []float64, frequency float64) float64 {
	var total float64
	for _, d := range hopDistances {
		total += FreeSpacePathLoss(d, frequency)
	}
	return total
}

// LinkSINR returns the SINR in dB of a single hop.
func LinkSINR(distance, frequency, transmitPowerDBm, totalNoiseDBm, fadingDB float64) float64 {
	return ReceivedPower(transmitPowerDBm, distance, frequency) + fadingDB - totalNoiseDBm
}

// EndToEndSINR combines per-hop SINRs by the harmonic rule 1/Σ(1/s_i) in the
// linear domain, so the weakest hop dominates the chain.
func EndToEndSINR(linkSINRsDB []float64) (float64, error) {
	if len(linkSINRsDB) == 0 {
		return LinkDown, ErrNoLinks
	}
	var inv float64
	for _, s := range linkSINRsDB {
		lin := DBToLinear(s)
		if math.IsNaN(lin) || lin <= 0 {
			return LinkDown, ErrLinkDown
		}
		inv += 1 / lin
	}
	return LinearToDB(1 / inv), nil
}

// ShannonCapacity returns bandwidth·log2(1+sinr) in bits per second.
// A zero SINR yields the bandwidth itself as the capacity floor.
func ShannonCapacity(bandwidthHz, sinrLinear float64) (float64, error) {
	if sinrLinear < 0 || math.IsNaN(sinrLinear) {
		return 0, ErrNegativeSINR
	}
	if sinrLinear == 0 {
		return bandwidthHz, nil
	}
	return bandwidthHz * math.Log2(1+sinrLinear), nil
}
