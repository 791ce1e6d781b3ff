// Package safety bounds requested wave heights so the wavemaker is never
// commanded past its stroke, steepness or depth limits.
package safety

import (
	"fmt"
	"math"

	"github.com/joeydtaylor/makewaves/pkg/internal/dispersion"
	"github.com/joeydtaylor/makewaves/pkg/internal/types"
	"gonum.org/v1/gonum/floats"
)

// Solver evaluates the safety envelope for (height, period) pairs.
type Solver struct {
	params Params
	memo   *dispersion.Memo
}

// NewSolver returns a solver. A nil memo gets a private cache.
func NewSolver(p Params, memo *dispersion.Memo) *Solver {
	if memo == nil {
		memo = dispersion.NewMemo()
	}
	return &Solver{params: p, memo: memo}
}

// Params returns the solver's limits.
func (s *Solver) Params() Params { return s.params }

// Bounds are the three independent height limits for one period.
type Bounds struct {
	Stroke    float64 // height reachable at max half-stroke
	Steepness float64 // height at max H/L
	Depth     float64 // height at max H/d
}

// Min returns the tightest of the three bounds.
func (b Bounds) Min() float64 {
	return floats.Min([]float64{b.Stroke, b.Steepness, b.Depth})
}

func (s *Solver) kh(period float64) (k, kh float64) {
	k = s.memo.Wavenumber(2*math.Pi/period, s.params.Depth, s.params.Precision)
	return k, k * s.params.Depth
}

// HeightToStrokeAmp converts a wave height into the paddle stroke amplitude.
func (s *Solver) HeightToStrokeAmp(height, period float64) float64 {
	_, kh := s.kh(period)
	stroke := height / dispersion.PaddleTransfer(kh)
	return s.params.FlapHeight / s.params.Depth * stroke / 2
}

// StrokeAmpToHeight is the inverse of HeightToStrokeAmp.
func (s *Solver) StrokeAmpToHeight(strokeAmp, period float64) float64 {
	_, kh := s.kh(period)
	stroke := 2 * strokeAmp * s.params.Depth / s.params.FlapHeight
	return stroke * dispersion.PaddleTransfer(kh)
}

// Bounds computes the stroke, steepness and depth limited heights at period.
func (s *Solver) Bounds(period float64) Bounds {
	k, _ := s.kh(period)
	steep := math.Inf(1)
	if k > 0 {
		steep = s.params.MaxSteepness * 2 * math.Pi / k
	}
	return Bounds{
		Stroke:    s.StrokeAmpToHeight(s.params.MaxHalfStroke, period),
		Steepness: steep,
		Depth:     s.params.MaxHeightDepthRatio * s.params.Depth,
	}
}

// SafeHeight returns height unchanged when its stroke fits inside the
// envelope, otherwise the tightest bound. It never increases height.
func (s *Solver) SafeHeight(height, period float64) float64 {
	requested := s.HeightToStrokeAmp(height, period)
	b := s.Bounds(period)

	strokeLimit := floats.Min([]float64{
		s.params.MaxHalfStroke,
		s.HeightToStrokeAmp(b.Steepness, period),
		s.HeightToStrokeAmp(b.Depth, period),
	})
	if requested > strokeLimit {
		return math.Min(height, b.Min())
	}
	return height
}

// CheckStroke rejects a synthesized stroke series whose peak exceeds the
// max half-stroke.
func (s *Solver) CheckStroke(stroke []float64) error {
	if len(stroke) == 0 {
		return nil
	}
	peak := math.Max(math.Abs(floats.Max(stroke)), math.Abs(floats.Min(stroke)))
	if peak > s.params.MaxHalfStroke {
		return fmt.Errorf("%w: peak stroke %.4f m exceeds max half-stroke %.4f m",
			types.ErrConfiguration, peak, s.params.MaxHalfStroke)
	}
	return nil
}

// WavelengthRange returns the wavelengths of the shortest and longest
// periods offered in height/wavelength input mode.
func (s *Solver) WavelengthRange(minPeriod, maxPeriod float64) (minL, maxL float64) {
	minL = dispersion.Wavelength(minPeriod, s.params.Depth, s.params.Precision)
	maxL = dispersion.Wavelength(maxPeriod, s.params.Depth, s.params.Precision)
	return minL, maxL
}

// PeriodForWavelength converts a wavelength to a period at the tank depth.
func (s *Solver) PeriodForWavelength(wavelength float64) float64 {
	return dispersion.PeriodForWavelength(wavelength, s.params.Depth, s.params.Precision)
}
