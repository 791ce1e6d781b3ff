package synth

import (
	"fmt"
	"math"

	"github.com/joeydtaylor/makewaves/pkg/internal/dispersion"
	"github.com/joeydtaylor/makewaves/pkg/internal/types"
)

// DensityFunc is a one-sided spectral density in m²/Hz.
type DensityFunc func(f float64) float64

// Bretschneider returns the two-parameter spectrum for significant height
// hs (m) and significant period ts (s).
func Bretschneider(hs, ts float64) DensityFunc {
	f0 := 1 / ts
	return func(f float64) float64 {
		if f <= 0 {
			return 0
		}
		r := f / f0
		return 5.0 / 16.0 * hs * hs / f0 / math.Pow(r, 5) * math.Exp(-5.0/4.0*math.Pow(r, -4))
	}
}

// JONSWAP returns the peak-enhanced spectrum. sigmaA applies at and below
// the peak frequency, sigmaB above it.
func JONSWAP(hs, ts, gamma, sigmaA, sigmaB float64) DensityFunc {
	alpha := 0.0624 / (0.230 + 0.0336*gamma - 0.185/(1.9+gamma))
	fp := 1 / ts
	return func(f float64) float64 {
		if f <= 0 {
			return 0
		}
		sigma := sigmaB
		if f <= fp {
			sigma = sigmaA
		}
		d := f*ts - 1
		peak := math.Pow(gamma, math.Exp(-d*d/(2*sigma*sigma)))
		return alpha * hs * hs * math.Pow(ts, -4) * math.Pow(f, -5) * math.Exp(-1.25*math.Pow(ts*f, -4)) * peak
	}
}

// PiersonMoskowitz returns the fully developed sea spectrum for wind speed u (m/s).
func PiersonMoskowitz(u float64) DensityFunc {
	g := dispersion.Gravity
	b := 0.74 * math.Pow(g/(2*math.Pi*u), 4)
	return func(f float64) float64 {
		if f <= 0 {
			return 0
		}
		return 8.1e-3 * g * g / (math.Pow(2*math.Pi, 4) * math.Pow(f, 5)) * math.Exp(-b/math.Pow(f, 4))
	}
}

// FroudeScale maps a full-scale spectrum onto a model of scale ratio lambda.
func FroudeScale(s DensityFunc, lambda float64) DensityFunc {
	if lambda == 1 {
		return s
	}
	root := math.Sqrt(lambda)
	k := math.Pow(lambda, -2.5)
	return func(f float64) float64 { return k * s(f/root) }
}

// Nominal is the representative height and period of a sea state at model scale.
type Nominal struct {
	Height float64
	Period float64
}

// TargetSpectrum returns the model-scale density and nominal values for a
// random wave spec.
func TargetSpectrum(spec types.WaveSpec) (DensityFunc, Nominal, error) {
	var (
		full   DensityFunc
		nom    Nominal
		lambda float64
	)
	switch spec.Type {
	case types.Bretschneider:
		p := spec.Bretschneider
		full, nom, lambda = Bretschneider(p.SigHeight, p.SigPeriod), Nominal{p.SigHeight, p.SigPeriod}, p.ScaleRatio
	case types.JONSWAP:
		p := spec.JONSWAP
		full = JONSWAP(p.SigHeight, p.SigPeriod, p.Gamma, p.SigmaA, p.SigmaB)
		nom, lambda = Nominal{p.SigHeight, p.SigPeriod}, p.ScaleRatio
	case types.PiersonMoskowitz:
		p := spec.PiersonMoskowitz
		g := dispersion.Gravity
		full = PiersonMoskowitz(p.WindSpeed)
		nom = Nominal{
			Height: 0.21 * p.WindSpeed * p.WindSpeed / g,
			Period: 2 * math.Pi * p.WindSpeed / (0.877 * g),
		}
		lambda = p.ScaleRatio
	default:
		return nil, Nominal{}, fmt.Errorf("%w: %q has no spectrum", types.ErrConfiguration, spec.Type)
	}
	nom.Height /= lambda
	nom.Period /= math.Sqrt(lambda)
	return FroudeScale(full, lambda), nom, nil
}
