// Package synth turns a wave specification into elevation, actuator stroke
// and drive-voltage series.
package synth

import (
	"fmt"
	"math"
	"math/cmplx"
	"sync"

	"github.com/joeydtaylor/makewaves/pkg/internal/dispersion"
	"github.com/joeydtaylor/makewaves/pkg/internal/safety"
	"github.com/joeydtaylor/makewaves/pkg/internal/types"
	"github.com/mjibson/go-dsp/fft"
	"github.com/mjibson/go-dsp/spectral"
	"github.com/mjibson/go-dsp/window"
	"gonum.org/v1/gonum/floats"
)

// Synthesizer generates runs. It is safe for concurrent use once
// configured.
type Synthesizer struct {
	componentMetadata types.ComponentMetadata
	cfg               Config
	memo              *dispersion.Memo
	phases            PhaseSource
	table             *safety.Table
	guard             *safety.Solver

	loggers     []types.Logger
	loggersLock sync.Mutex
}

// NewSynthesizer builds a synthesizer with DefaultConfig and a wall-clock
// seeded phase source unless options override them.
func NewSynthesizer(options ...types.Option[*Synthesizer]) *Synthesizer {
	s := &Synthesizer{
		componentMetadata: types.ComponentMetadata{Type: "SYNTHESIZER"},
		cfg:               DefaultConfig(),
	}
	for _, opt := range options {
		opt(s)
	}
	if s.memo == nil {
		s.memo = dispersion.NewMemo()
	}
	if s.phases == nil {
		s.phases = NewClockPhases()
	}
	return s
}

// Config returns the active configuration.
func (s *Synthesizer) Config() Config { return s.cfg }

// Generate synthesizes a run for spec.
func (s *Synthesizer) Generate(spec types.WaveSpec) (*Synthesis, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	if err := s.cfg.Validate(); err != nil {
		return nil, err
	}

	var (
		out *Synthesis
		err error
	)
	if spec.IsRandom() {
		out, err = s.random(spec)
	} else {
		out, err = s.regular(spec)
	}
	if err != nil {
		s.logKV(types.ErrorLevel, "Synthesis failed",
			"event", "Generate",
			"result", "FAILURE",
			"wave_type", spec.Type,
			"error", err,
		)
		return nil, err
	}

	s.logKV(types.DebugLevel, "Synthesis complete",
		"event", "Generate",
		"result", "SUCCESS",
		"wave_type", spec.Type,
		"samples", out.Drive.Len(),
		"sample_rate", out.SampleRate(),
		"peak_stroke", out.PeakStroke,
	)
	return out, nil
}

// RegularFromWavelength builds a regular spec from height and wavelength.
func (s *Synthesizer) RegularFromWavelength(height, wavelength float64) (types.WaveSpec, error) {
	if !(wavelength > 0) {
		return types.WaveSpec{}, fmt.Errorf("%w: wavelength must be > 0, got %g", types.ErrConfiguration, wavelength)
	}
	period := dispersion.PeriodForWavelength(wavelength, s.cfg.Depth, s.cfg.Precision)
	spec := types.NewRegularSpec(height, period)
	return spec, spec.Validate()
}

func (s *Synthesizer) regular(spec types.WaveSpec) (*Synthesis, error) {
	height, period := spec.Regular.Height, spec.Regular.Period

	var clamp *types.ClampInfo
	if s.table != nil {
		c := s.table.Clamp(height, period)
		clamp = &c
		if c.Clamped {
			s.logKV(types.InfoLevel, "Height reduced to safety limit",
				"event", "SafetyClamp",
				"result", "CLAMPED",
				"requested", c.Requested,
				"applied", c.Applied,
				"period", period,
			)
			height = c.Applied
		}
	}

	n := s.cfg.ChunkSize
	sr := float64(n) / period
	elev := make([]float64, n)
	for i := range elev {
		elev[i] = height / 2 * math.Sin(2*math.Pi*float64(i)/float64(n))
	}

	stroke := make([]float64, n)
	floats.ScaleTo(stroke, s.strokeGain(1/period), elev)

	out := s.assemble(spec, elev, stroke, sr)
	out.NominalHeight, out.NominalPeriod = height, period
	out.Clamp = clamp
	return out, nil
}

func (s *Synthesizer) random(spec types.WaveSpec) (*Synthesis, error) {
	density, nom, err := TargetSpectrum(spec)
	if err != nil {
		return nil, err
	}

	n := s.cfg.RandomLength()
	sr := s.cfg.SampleRate
	df := sr / float64(n)

	target := types.Spectrum{Freq: make([]float64, 0, n/2), Density: make([]float64, 0, n/2)}
	bins := make([]complex128, n)
	for k := 1; k < n/2; k++ {
		f := float64(k) * df
		d := density(f)
		target.Freq = append(target.Freq, f)
		target.Density = append(target.Density, d)

		mag := math.Sqrt(d * sr * float64(n) / 2)
		bins[k] = cmplx.Rect(mag, s.phases.Phase())
		bins[n-k] = cmplx.Conj(bins[k])
	}
	elev := realParts(fft.IFFT(bins))
	taperEnds(elev, int(s.cfg.TaperTime*sr))

	stroke := s.perBinStroke(elev, df)
	if s.guard != nil {
		if err := s.guard.CheckStroke(stroke); err != nil {
			return nil, err
		}
	}

	out := s.assemble(spec, elev, stroke, sr)
	out.Target = target
	out.NominalHeight, out.NominalPeriod = nom.Height, nom.Period
	return out, nil
}

// strokeGain converts elevation at frequency f to paddle stroke.
func (s *Synthesizer) strokeGain(f float64) float64 {
	k := s.memo.Wavenumber(2*math.Pi*f, s.cfg.Depth, s.cfg.Precision)
	return s.cfg.FlapHeight / s.cfg.Depth / dispersion.PaddleTransfer(k*s.cfg.Depth)
}

// perBinStroke applies strokeGain to every bin inside the transfer band and
// zeroes the rest. Positive and negative bins get the same real gain so the
// result stays real.
func (s *Synthesizer) perBinStroke(elev []float64, df float64) []float64 {
	n := len(elev)
	bins := fft.FFTReal(elev)
	for k := 0; k <= n/2; k++ {
		f := float64(k) * df
		gain := 0.0
		if f >= s.cfg.BandLow && f <= s.cfg.BandHigh {
			gain = s.strokeGain(f)
		}
		bins[k] *= complex(gain, 0)
		if k > 0 && n-k != k {
			bins[n-k] *= complex(gain, 0)
		}
	}
	return realParts(fft.IFFT(bins))
}

func (s *Synthesizer) assemble(spec types.WaveSpec, elev, stroke []float64, sr float64) *Synthesis {
	drive := make([]float64, len(stroke))
	floats.ScaleTo(drive, s.cfg.StrokeCal, stroke)

	chunk := s.cfg.ChunkSize
	return &Synthesis{
		Spec:       spec,
		Elevation:  types.SampledSignal{Samples: elev, SampleRate: sr},
		Stroke:     types.SampledSignal{Samples: stroke, SampleRate: sr},
		Drive:      types.SampledSignal{Samples: drive, SampleRate: sr},
		Spectrum:   s.welch(elev, sr),
		PeakStroke: peakAbs(stroke),
		ChunkSize:  chunk,
	}
}

func (s *Synthesizer) welch(x []float64, sr float64) types.Spectrum {
	nfft := s.cfg.WelchNFFT
	if nfft > len(x) {
		nfft = len(x)
	}
	nfft -= nfft % 2
	if nfft < 2 {
		return types.Spectrum{}
	}
	pxx, freqs := spectral.Pwelch(x, sr, &spectral.PwelchOptions{
		NFFT:     nfft,
		Noverlap: nfft / 2,
		Window:   window.Hann,
	})
	return types.Spectrum{Freq: freqs, Density: pxx}
}

// taperEnds fades the first and last m samples with half-Hann windows.
func taperEnds(x []float64, m int) {
	if m <= 0 || 2*m > len(x) {
		return
	}
	w := window.Hann(2 * m)
	n := len(x)
	for i := 0; i < m; i++ {
		x[i] *= w[i]
		x[n-m+i] *= w[m+i]
	}
}

func realParts(c []complex128) []float64 {
	out := make([]float64, len(c))
	for i, v := range c {
		out[i] = real(v)
	}
	return out
}

func peakAbs(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	return math.Max(math.Abs(floats.Max(x)), math.Abs(floats.Min(x)))
}
