package synth

import (
	"fmt"

	"github.com/joeydtaylor/makewaves/pkg/internal/safety"
	"github.com/joeydtaylor/makewaves/pkg/internal/types"
)

// Config holds the sampling layout and actuator calibration.
type Config struct {
	SampleRate float64 // random waves, Hz
	ChunkSize  int     // samples per device write
	ChunkCount int     // unique chunks in a random loop buffer
	StrokeCal  float64 // V per m of stroke
	FlapHeight float64 // m
	Depth      float64 // m
	BandLow    float64 // Hz, lowest bin given a stroke transfer
	BandHigh   float64 // Hz, highest bin given a stroke transfer
	Precision  int     // dispersion precision for stroke conversion
	TaperTime  float64 // s, loop taper at each end of a random buffer
	WelchNFFT  int     // segment length of the diagnostic spectrum
}

// DefaultConfig returns the tank calibration: two minutes of unique random
// waves at 256 Hz in 256-sample chunks.
func DefaultConfig() Config {
	p := safety.DefaultParams()
	return Config{
		SampleRate: 256,
		ChunkSize:  256,
		ChunkCount: 120,
		StrokeCal:  15.7130,
		FlapHeight: p.FlapHeight,
		Depth:      p.Depth,
		BandLow:    0.25,
		BandHigh:   8,
		Precision:  p.Precision,
		TaperTime:  1,
		WelchNFFT:  2048,
	}
}

// Validate rejects layouts the synthesizer cannot produce.
func (c Config) Validate() error {
	switch {
	case c.SampleRate <= 0:
		return fmt.Errorf("%w: sample rate must be > 0", types.ErrConfiguration)
	case c.ChunkSize < 2:
		return fmt.Errorf("%w: chunk size must be >= 2", types.ErrConfiguration)
	case c.ChunkCount < 1:
		return fmt.Errorf("%w: chunk count must be >= 1", types.ErrConfiguration)
	case (c.ChunkSize*c.ChunkCount)%2 != 0:
		return fmt.Errorf("%w: random buffer length must be even", types.ErrConfiguration)
	case c.StrokeCal <= 0 || c.FlapHeight <= 0 || c.Depth <= 0:
		return fmt.Errorf("%w: calibration values must be > 0", types.ErrConfiguration)
	case c.BandHigh <= c.BandLow:
		return fmt.Errorf("%w: transfer band [%g, %g] is empty", types.ErrConfiguration, c.BandLow, c.BandHigh)
	case c.TaperTime < 0 || 2*c.TaperTime*c.SampleRate > float64(c.ChunkSize*c.ChunkCount):
		return fmt.Errorf("%w: taper of %g s does not fit the buffer", types.ErrConfiguration, c.TaperTime)
	}
	return nil
}

// RandomLength is the number of samples in a random-wave loop buffer.
func (c Config) RandomLength() int { return c.ChunkSize * c.ChunkCount }
