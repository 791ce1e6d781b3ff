package synth

import (
	"time"

	"github.com/joeydtaylor/makewaves/pkg/internal/types"
)

// Synthesis is everything generated for one run. Elevation, Stroke and
// Drive share a length and sample rate. It is read-only once returned.
type Synthesis struct {
	Spec          types.WaveSpec
	Elevation     types.SampledSignal // m
	Stroke        types.SampledSignal // m
	Drive         types.SampledSignal // V
	Spectrum      types.Spectrum      // Welch PSD of Elevation
	Target        types.Spectrum      // random waves only
	NominalHeight float64
	NominalPeriod float64
	PeakStroke    float64
	ChunkSize     int
	Clamp         *types.ClampInfo // regular waves checked against a limit table
}

// SampleRate is the device clock for this run.
func (s *Synthesis) SampleRate() float64 { return s.Drive.SampleRate }

// ChunkCount is the number of distinct chunks in the loop buffer. Regular
// waves have exactly one.
func (s *Synthesis) ChunkCount() int {
	if s.ChunkSize <= 0 {
		return 0
	}
	return s.Drive.Len() / s.ChunkSize
}

// IterationPeriod is the playback time of one chunk.
func (s *Synthesis) IterationPeriod() time.Duration {
	if s.SampleRate() <= 0 {
		return 0
	}
	return time.Duration(float64(s.ChunkSize) / s.SampleRate() * float64(time.Second))
}

// DriveChunk returns the drive samples written on iteration i.
func (s *Synthesis) DriveChunk(i int64) []float64 { return s.chunk(s.Drive.Samples, i) }

// ElevationChunk returns the elevation matching DriveChunk(i).
func (s *Synthesis) ElevationChunk(i int64) []float64 { return s.chunk(s.Elevation.Samples, i) }

func (s *Synthesis) chunk(samples []float64, i int64) []float64 {
	n := s.ChunkCount()
	if n == 0 {
		return nil
	}
	j := int(i % int64(n))
	if j < 0 {
		j += n
	}
	return samples[j*s.ChunkSize : (j+1)*s.ChunkSize]
}
