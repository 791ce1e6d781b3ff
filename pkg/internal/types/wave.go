package types

import (
	"fmt"
	"math"
)

// WaveType selects the wave model used by the synthesizer.
type WaveType string

const (
	Regular          WaveType = "Regular"
	Bretschneider    WaveType = "Bretschneider"
	JONSWAP          WaveType = "JONSWAP"
	PiersonMoskowitz WaveType = "Pierson-Moskowitz"
)

// Supported period range in seconds.
const (
	MinPeriod = 0.5
	MaxPeriod = 5.0
)

// RegularParams describes a single-frequency wave.
type RegularParams struct {
	Height float64 // m
	Period float64 // s
}

// BretschneiderParams describes a two-parameter random sea.
type BretschneiderParams struct {
	SigHeight  float64
	SigPeriod  float64
	ScaleRatio float64
}

// JONSWAPParams describes a fetch-limited random sea with a peak enhancement factor.
type JONSWAPParams struct {
	SigHeight  float64
	SigPeriod  float64
	ScaleRatio float64
	Gamma      float64
	SigmaA     float64 // peak width below the spectral peak
	SigmaB     float64 // peak width above the spectral peak
}

// PiersonMoskowitzParams describes a fully developed sea for a given wind speed.
type PiersonMoskowitzParams struct {
	WindSpeed  float64 // m/s
	ScaleRatio float64
}

// WaveSpec is a tagged union over the supported wave models. Only the
// parameter block matching Type is read.
type WaveSpec struct {
	Type             WaveType
	Regular          RegularParams
	Bretschneider    BretschneiderParams
	JONSWAP          JONSWAPParams
	PiersonMoskowitz PiersonMoskowitzParams
}

// NewRegularSpec returns a regular wave specification.
func NewRegularSpec(height, period float64) WaveSpec {
	return WaveSpec{Type: Regular, Regular: RegularParams{Height: height, Period: period}}
}

// NewBretschneiderSpec returns a Bretschneider specification.
func NewBretschneiderSpec(sigHeight, sigPeriod, scaleRatio float64) WaveSpec {
	return WaveSpec{Type: Bretschneider, Bretschneider: BretschneiderParams{
		SigHeight: sigHeight, SigPeriod: sigPeriod, ScaleRatio: scaleRatio,
	}}
}

// NewJONSWAPSpec returns a JONSWAP specification.
func NewJONSWAPSpec(p JONSWAPParams) WaveSpec {
	return WaveSpec{Type: JONSWAP, JONSWAP: p}
}

// NewPiersonMoskowitzSpec returns a Pierson-Moskowitz specification.
func NewPiersonMoskowitzSpec(windSpeed, scaleRatio float64) WaveSpec {
	return WaveSpec{Type: PiersonMoskowitz, PiersonMoskowitz: PiersonMoskowitzParams{
		WindSpeed: windSpeed, ScaleRatio: scaleRatio,
	}}
}

// DefaultSpec returns the operator defaults for a wave type.
func DefaultSpec(t WaveType) (WaveSpec, error) {
	switch t {
	case Regular:
		return NewRegularSpec(0.1, 1.0), nil
	case Bretschneider:
		return NewBretschneiderSpec(0.1, 1.0, 1.0), nil
	case JONSWAP:
		return NewJONSWAPSpec(JONSWAPParams{
			SigHeight: 0.1, SigPeriod: 1.0, ScaleRatio: 1.0,
			Gamma: 3.3, SigmaA: 0.07, SigmaB: 0.09,
		}), nil
	case PiersonMoskowitz:
		return NewPiersonMoskowitzSpec(2.0, 1.0), nil
	}
	return WaveSpec{}, fmt.Errorf("%w: unknown wave type %q", ErrConfiguration, t)
}

// IsRandom reports whether the spec describes a spectral (random) sea.
func (s WaveSpec) IsRandom() bool {
	return s.Type != Regular
}

// Validate checks parameters against their physical ranges.
func (s WaveSpec) Validate() error {
	switch s.Type {
	case Regular:
		if err := checkPositive("height", s.Regular.Height); err != nil {
			return err
		}
		return checkPeriod("period", s.Regular.Period)
	case Bretschneider:
		p := s.Bretschneider
		if err := checkPositive("significant height", p.SigHeight); err != nil {
			return err
		}
		if err := checkPeriod("significant period", p.SigPeriod); err != nil {
			return err
		}
		return checkPositive("scale ratio", p.ScaleRatio)
	case JONSWAP:
		p := s.JONSWAP
		if err := checkPositive("significant height", p.SigHeight); err != nil {
			return err
		}
		if err := checkPeriod("significant period", p.SigPeriod); err != nil {
			return err
		}
		for _, f := range []struct {
			name string
			v    float64
		}{{"scale ratio", p.ScaleRatio}, {"gamma", p.Gamma}, {"sigma A", p.SigmaA}, {"sigma B", p.SigmaB}} {
			if err := checkPositive(f.name, f.v); err != nil {
				return err
			}
		}
		return nil
	case PiersonMoskowitz:
		p := s.PiersonMoskowitz
		if err := checkPositive("wind speed", p.WindSpeed); err != nil {
			return err
		}
		return checkPositive("scale ratio", p.ScaleRatio)
	}
	return fmt.Errorf("%w: unknown wave type %q", ErrConfiguration, s.Type)
}

func checkPositive(name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return fmt.Errorf("%w: %s must be > 0, got %g", ErrConfiguration, name, v)
	}
	return nil
}

func checkPeriod(name string, v float64) error {
	if math.IsNaN(v) || v < MinPeriod || v > MaxPeriod {
		return fmt.Errorf("%w: %s must be within [%g, %g] s, got %g", ErrConfiguration, name, MinPeriod, MaxPeriod, v)
	}
	return nil
}

// SampledSignal is an ordered sequence of samples at a fixed rate. The same
// type carries elevation (m), stroke (m) and drive (V) series.
type SampledSignal struct {
	Samples    []float64
	SampleRate float64
}

// Len returns the number of samples.
func (s SampledSignal) Len() int { return len(s.Samples) }

// Duration returns the playback length in seconds.
func (s SampledSignal) Duration() float64 {
	if s.SampleRate <= 0 {
		return 0
	}
	return float64(len(s.Samples)) / s.SampleRate
}

// Spectrum is a one-sided spectral density on a frequency grid (Hz).
type Spectrum struct {
	Freq    []float64
	Density []float64
}
