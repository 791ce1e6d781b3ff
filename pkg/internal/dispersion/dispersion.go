// Package dispersion inverts the linear water-wave dispersion relation
// ω² = g·k·tanh(k·h) by scanning a uniform grid of the unknown.
//
// The grid search is deliberate: it is robust across the whole tank range
// and its resolution is explicit. Results are accurate to the grid step
// 10^-precision and the solvers never fail.
package dispersion

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Gravity is the gravitational acceleration in m/s².
const Gravity = 9.81

// Search domains.
const (
	MaxWavenumber = 30.0 // rad/m
	MaxFrequency  = 10.0 // rad/s
)

const maxPrecision = 6

// SolveWavenumber returns the wavenumber k ∈ [0, 30) that best satisfies the
// dispersion relation for the radian frequency omega at depth.
func SolveWavenumber(omega, depth float64, precision int) float64 {
	w2 := omega * omega
	return scan(MaxWavenumber, precision, func(k float64) float64 {
		return w2 - Gravity*k*math.Tanh(k*depth)
	})
}

// SolveFrequency returns the radian frequency ω ∈ [0, 10) for wavenumber k at depth.
func SolveFrequency(k, depth float64, precision int) float64 {
	rhs := Gravity * k * math.Tanh(k*depth)
	return scan(MaxFrequency, precision, func(w float64) float64 {
		return w*w - rhs
	})
}

// Wavelength returns 2π/k for a wave of the given period, or +Inf when the
// solve lands on k = 0.
func Wavelength(period, depth float64, precision int) float64 {
	k := SolveWavenumber(2*math.Pi/period, depth, precision)
	if k == 0 {
		return math.Inf(1)
	}
	return 2 * math.Pi / k
}

// PeriodForWavelength returns the period of a wave with the given wavelength.
func PeriodForWavelength(wavelength, depth float64, precision int) float64 {
	w := SolveFrequency(2*math.Pi/wavelength, depth, precision)
	if w == 0 {
		return math.Inf(1)
	}
	return 2 * math.Pi / w
}

// Step returns the grid spacing for a precision.
func Step(precision int) float64 {
	return math.Pow(10, -float64(clampPrecision(precision)))
}

func clampPrecision(p int) int {
	if p < 0 {
		return 0
	}
	if p > maxPrecision {
		return maxPrecision
	}
	return p
}

// scan evaluates |residual| on [0, upper) and returns the first minimizing grid point.
func scan(upper float64, precision int, residual func(float64) float64) float64 {
	step := Step(precision)
	n := int(math.Round(upper / step))
	if n < 1 {
		n = 1
	}
	res := make([]float64, n)
	for i := range res {
		res[i] = math.Abs(residual(float64(i) * step))
	}
	return float64(floats.MinIdx(res)) * step
}
