// Channel parameters shared by every link in a relay chain
package propagation

import (
	"errors"
	"fmt"
	"math"
)

// Reference channel constants.
const (
	DefaultFrequencyHz      = 2.4e9
	DefaultBandwidthHz      = 20e6
	DefaultTransmitPowerDBm = 30.0
	BoltzmannConstant       = 1.380649e-23
	ReferenceTemperatureK   = 290.0
)

// ErrInvalidParameters is returned when channel parameters cannot describe a physical link.
var ErrInvalidParameters = errors.New("invalid channel parameters")

// ChannelParameters holds the read-only radio configuration of a simulation.
type ChannelParameters struct {
	FrequencyHz       float64 `json:"frequency_hz" yaml:"frequency_hz"`
	BandwidthHz       float64 `json:"bandwidth_hz" yaml:"bandwidth_hz"`
	TransmitPowerDBm  float64 `json:"transmit_power_dbm" yaml:"transmit_power_dbm"`
	BoltzmannConstant float64 `json:"boltzmann_constant" yaml:"boltzmann_constant"`
	TemperatureK      float64 `json:"temperature_k" yaml:"temperature_k"`
}

// DefaultChannelParameters returns the 2.4 GHz / 20 MHz / 30 dBm reference channel at 290 K.
func DefaultChannelParameters() ChannelParameters {
	return ChannelParameters{
		FrequencyHz:       DefaultFrequencyHz,
		BandwidthHz:       DefaultBandwidthHz,
		TransmitPowerDBm:  DefaultTransmitPowerDBm,
		BoltzmannConstant: BoltzmannConstant,
		TemperatureK:      ReferenceTemperatureK,
	}
}

// NewChannelParameters builds and validates a parameter set using the reference noise constants.
func NewChannelParameters(frequencyHz, bandwidthHz, transmitPowerDBm float64) (ChannelParameters, error) {
	p := ChannelParameters{
		FrequencyHz:       frequencyHz,
		BandwidthHz:       bandwidthHz,
		TransmitPowerDBm:  transmitPowerDBm,
		BoltzmannConstant: BoltzmannConstant,
		TemperatureK:      ReferenceTemperatureK,
	}
	if err := p.Validate(); err != nil {
		return ChannelParameters{}, err
	}
	return p, nil
}

// Validate rejects parameters the propagation formulas are undefined for.
func (p ChannelParameters) Validate() error {
	switch {
	case !(p.FrequencyHz > 0) || math.IsInf(p.FrequencyHz, 0):
		return fmt.Errorf("%w: frequency must be positive, got %g Hz", ErrInvalidParameters, p.FrequencyHz)
	case !(p.BandwidthHz > 0) || math.IsInf(p.BandwidthHz, 0):
		return fmt.Errorf("%w: bandwidth must be positive, got %g Hz", ErrInvalidParameters, p.BandwidthHz)
	case math.IsNaN(p.TransmitPowerDBm) || math.IsInf(p.TransmitPowerDBm, 0):
		return fmt.Errorf("%w: transmit power must be finite, got %g dBm", ErrInvalidParameters, p.TransmitPowerDBm)
	case !(p.BoltzmannConstant > 0):
		return fmt.Errorf("%w: boltzmann constant must be positive, got %g", ErrInvalidParameters, p.BoltzmannConstant)
	case !(p.TemperatureK > 0):
		return fmt.Errorf("%w: temperature must be positive, got %g K", ErrInvalidParameters, p.TemperatureK)
	}
	return nil
}

// ThermalNoiseDBm returns the thermal noise floor of the channel bandwidth.
func (p ChannelParameters) ThermalNoiseDBm() float64 {
	return ThermalNoisePower(p.BoltzmannConstant, p.TemperatureK, p.BandwidthHz)
}

// PathLoss returns the free-space loss over distance at the channel frequency.
func (p ChannelParameters) PathLoss(distance float64) float64 {
	return FreeSpacePathLoss(distance, p.FrequencyHz)
}

// ReceivedPower returns the power received at distance from a transmitter using this channel.
func (p ChannelParameters) ReceivedPower(distance float64) float64 {
	return ReceivedPower(p.TransmitPowerDBm, distance, p.FrequencyHz)
}
