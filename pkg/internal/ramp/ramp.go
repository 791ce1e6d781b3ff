// Package ramp tapers the first or last half of a chunk so the actuator
// starts and stops smoothly.
package ramp

import "github.com/mjibson/go-dsp/window"

// Direction selects which half of a chunk is tapered.
type Direction int

const (
	Up   Direction = iota // fade in over the first half
	Down                  // fade out over the second half
)

func (d Direction) String() string {
	if d == Down {
		return "down"
	}
	return "up"
}

// Apply returns a copy of signal multiplied by a Hann ramp. Up rises over
// the first half and Down falls over the second; the other half is
// untouched.
func Apply(signal []float64, dir Direction) []float64 {
	out := append([]float64(nil), signal...)
	n := len(out)
	if n < 2 {
		if n == 1 {
			out[0] = 0
		}
		return out
	}

	w := window.Hann(n)
	half := n / 2
	if dir == Up {
		for i := 0; i < half; i++ {
			out[i] *= w[i]
		}
		return out
	}
	for i := half; i < n; i++ {
		out[i] *= w[i]
	}
	return out
}

// Silence returns a zero chunk of length n.
func Silence(n int) []float64 { return make([]float64, n) }
