package synth_test

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/joeydtaylor/makewaves/pkg/internal/safety"
	"github.com/joeydtaylor/makewaves/pkg/internal/synth"
	"github.com/joeydtaylor/makewaves/pkg/internal/types"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

func TestRegular_OneCycleWithExtrema(t *testing.T) {
	s := synth.NewSynthesizer()
	out, err := s.Generate(types.NewRegularSpec(0.1, 1.0))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	elev := out.Elevation.Samples
	if len(elev) != 256 {
		t.Fatalf("expected 256 samples, got %d", len(elev))
	}
	if out.SampleRate() != 256 {
		t.Fatalf("expected sr 256, got %v", out.SampleRate())
	}
	if math.Abs(floats.Max(elev)-0.05) > 1e-12 || math.Abs(floats.Min(elev)+0.05) > 1e-12 {
		t.Fatalf("extrema %v / %v, want ±0.05", floats.Max(elev), floats.Min(elev))
	}
	if elev[0] != 0 {
		t.Fatalf("cycle should start at zero, got %v", elev[0])
	}
	if out.ChunkCount() != 1 || out.IterationPeriod() != time.Second {
		t.Fatalf("unexpected layout: %d chunks, %v", out.ChunkCount(), out.IterationPeriod())
	}
}

func TestRegular_SampleRateFollowsPeriod(t *testing.T) {
	out, err := synth.NewSynthesizer().Generate(types.NewRegularSpec(0.05, 2.0))
	if err != nil {
		t.Fatal(err)
	}
	if out.SampleRate() != 128 {
		t.Fatalf("expected 128 Hz, got %v", out.SampleRate())
	}
	if !(out.PeakStroke > 0) {
		t.Fatalf("expected positive peak stroke, got %v", out.PeakStroke)
	}
}

func TestRegular_PeakDriveMatchesStroke(t *testing.T) {
	params := safety.DefaultParams()
	solver := safety.NewSolver(params, nil)
	s := synth.NewSynthesizer()

	out, err := s.Generate(types.NewRegularSpec(0.1, 1.0))
	if err != nil {
		t.Fatal(err)
	}
	amp := solver.HeightToStrokeAmp(0.1, 1.0)
	if math.Abs(out.PeakStroke-amp) > 1e-6*amp {
		t.Fatalf("peak stroke %v, want %v", out.PeakStroke, amp)
	}
	wantVolts := s.Config().StrokeCal * amp
	if got := floats.Max(out.Drive.Samples); math.Abs(got-wantVolts) > 1e-6*wantVolts {
		t.Fatalf("peak drive %v V, want %v V", got, wantVolts)
	}
}

func TestRegular_ClampedByTable(t *testing.T) {
	grid := safety.DefaultGrid()
	grid.Step = 0.05
	table, err := safety.BuildTable(context.Background(), safety.NewSolver(safety.DefaultParams(), nil), grid)
	if err != nil {
		t.Fatal(err)
	}

	s := synth.NewSynthesizer(synth.WithSafetyTable(table))
	out, err := s.Generate(types.NewRegularSpec(50, 2.0))
	if err != nil {
		t.Fatal(err)
	}
	if out.Clamp == nil || !out.Clamp.Clamped {
		t.Fatalf("expected clamp info, got %+v", out.Clamp)
	}
	if out.NominalHeight != table.MaxHeight(2.0) {
		t.Fatalf("height %v, want table limit %v", out.NominalHeight, table.MaxHeight(2.0))
	}
	if math.Abs(floats.Max(out.Elevation.Samples)-out.NominalHeight/2) > 1e-12 {
		t.Fatal("elevation not generated at the clamped height")
	}

	small, err := s.Generate(types.NewRegularSpec(0.1, 1.0))
	if err != nil {
		t.Fatal(err)
	}
	if small.Clamp == nil || small.Clamp.Clamped || small.NominalHeight != 0.1 {
		t.Fatalf("small wave should pass unclamped, got %+v", small.Clamp)
	}
}

func TestRandom_SignificantHeight(t *testing.T) {
	s := synth.NewSynthesizer(synth.WithSeed(1))
	out, err := s.Generate(types.NewBretschneiderSpec(0.1, 1.0, 1.0))
	if err != nil {
		t.Fatal(err)
	}
	if out.Elevation.Len() != 256*120 || out.ChunkCount() != 120 {
		t.Fatalf("unexpected layout: %d samples, %d chunks", out.Elevation.Len(), out.ChunkCount())
	}
	hs := 4 * stat.StdDev(out.Elevation.Samples, nil)
	if math.Abs(hs-0.1) > 0.015 {
		t.Fatalf("Hs estimate %v, want ≈ 0.1", hs)
	}
	if out.NominalHeight != 0.1 || out.NominalPeriod != 1.0 {
		t.Fatalf("nominal %v / %v", out.NominalHeight, out.NominalPeriod)
	}
	if len(out.Target.Freq) == 0 || len(out.Spectrum.Freq) == 0 {
		t.Fatal("expected target and diagnostic spectra")
	}
}

func TestRandom_LoopEndsTapered(t *testing.T) {
	out, err := synth.NewSynthesizer(synth.WithSeed(3)).Generate(types.NewBretschneiderSpec(0.1, 1.0, 1.0))
	if err != nil {
		t.Fatal(err)
	}
	e := out.Elevation.Samples
	if e[0] != 0 || e[len(e)-1] != 0 {
		t.Fatalf("loop ends not tapered: %v, %v", e[0], e[len(e)-1])
	}
}

func TestRandom_SeedIsReproducible(t *testing.T) {
	spec := types.NewJONSWAPSpec(types.JONSWAPParams{
		SigHeight: 0.1, SigPeriod: 1.5, ScaleRatio: 1, Gamma: 3.3, SigmaA: 0.07, SigmaB: 0.09,
	})
	a, err := synth.NewSynthesizer(synth.WithSeed(42)).Generate(spec)
	if err != nil {
		t.Fatal(err)
	}
	b, err := synth.NewSynthesizer(synth.WithSeed(42)).Generate(spec)
	if err != nil {
		t.Fatal(err)
	}
	c, err := synth.NewSynthesizer(synth.WithSeed(43)).Generate(spec)
	if err != nil {
		t.Fatal(err)
	}
	if !floats.Equal(a.Drive.Samples, b.Drive.Samples) {
		t.Fatal("same seed produced different drive signals")
	}
	if floats.Equal(a.Drive.Samples, c.Drive.Samples) {
		t.Fatal("different seeds produced identical drive signals")
	}
}

func TestRandom_ScaleRatio(t *testing.T) {
	s := synth.NewSynthesizer(synth.WithSeed(5))
	out, err := s.Generate(types.NewBretschneiderSpec(0.2, 1.0, 4.0))
	if err != nil {
		t.Fatal(err)
	}
	if out.NominalHeight != 0.05 || out.NominalPeriod != 0.5 {
		t.Fatalf("nominal %v / %v, want 0.05 / 0.5", out.NominalHeight, out.NominalPeriod)
	}
	hs := 4 * stat.StdDev(out.Elevation.Samples, nil)
	if math.Abs(hs-0.05) > 0.0075 {
		t.Fatalf("model Hs %v, want ≈ 0.05", hs)
	}
}

func TestPiersonMoskowitz_Nominal(t *testing.T) {
	out, err := synth.NewSynthesizer(synth.WithSeed(9)).Generate(types.NewPiersonMoskowitzSpec(2.0, 1.0))
	if err != nil {
		t.Fatal(err)
	}
	wantH := 0.21 * 4 / 9.81
	wantT := 2 * math.Pi * 2 / (0.877 * 9.81)
	if math.Abs(out.NominalHeight-wantH) > 1e-12 || math.Abs(out.NominalPeriod-wantT) > 1e-12 {
		t.Fatalf("nominal %v / %v, want %v / %v", out.NominalHeight, out.NominalPeriod, wantH, wantT)
	}
}

func TestJONSWAP_PeakNearSignificantFrequency(t *testing.T) {
	d := synth.JONSWAP(0.1, 1.0, 3.3, 0.07, 0.09)
	best, bestF := 0.0, 0.0
	for f := 0.2; f < 3; f += 0.001 {
		if v := d(f); v > best {
			best, bestF = v, f
		}
	}
	if math.Abs(bestF-1.0) > 0.05 {
		t.Fatalf("peak at %v Hz, want ≈ 1 Hz", bestF)
	}
}

func TestSpectra_ZeroAtOrBelowZero(t *testing.T) {
	for name, d := range map[string]synth.DensityFunc{
		"bretschneider": synth.Bretschneider(0.1, 1),
		"jonswap":       synth.JONSWAP(0.1, 1, 3.3, 0.07, 0.09),
		"pm":            synth.PiersonMoskowitz(2),
	} {
		if d(0) != 0 || d(-1) != 0 {
			t.Fatalf("%s: expected zero density at f <= 0", name)
		}
	}
}

func TestStrokeGuardRejectsOversizedSea(t *testing.T) {
	solver := safety.NewSolver(safety.DefaultParams(), nil)
	s := synth.NewSynthesizer(synth.WithSeed(11), synth.WithStrokeGuard(solver))
	_, err := s.Generate(types.NewBretschneiderSpec(1.0, 2.0, 1.0))
	if !errors.Is(err, types.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
	if _, err := s.Generate(types.NewBretschneiderSpec(0.05, 1.0, 1.0)); err != nil {
		t.Fatalf("small sea rejected: %v", err)
	}
}

func TestGenerate_RejectsInvalidSpec(t *testing.T) {
	s := synth.NewSynthesizer()
	for _, spec := range []types.WaveSpec{
		types.NewRegularSpec(0.1, 0.2),
		types.NewRegularSpec(-1, 1),
		types.NewBretschneiderSpec(0.1, 1, 0),
		{Type: "Tsunami"},
	} {
		if _, err := s.Generate(spec); !errors.Is(err, types.ErrConfiguration) {
			t.Fatalf("%+v: expected ErrConfiguration, got %v", spec, err)
		}
	}
}

func TestChunksWrap(t *testing.T) {
	out, err := synth.NewSynthesizer(synth.WithSeed(2)).Generate(types.NewBretschneiderSpec(0.1, 1, 1))
	if err != nil {
		t.Fatal(err)
	}
	if !floats.Equal(out.DriveChunk(0), out.DriveChunk(120)) {
		t.Fatal("chunk 120 should wrap to chunk 0")
	}
	if floats.Equal(out.DriveChunk(0), out.DriveChunk(1)) {
		t.Fatal("distinct chunks should differ")
	}
	if len(out.ElevationChunk(7)) != 256 {
		t.Fatal("bad chunk length")
	}
}

func TestRegularFromWavelength(t *testing.T) {
	s := synth.NewSynthesizer()
	spec, err := s.RegularFromWavelength(0.1, 1.56)
	if err != nil {
		t.Fatal(err)
	}
	// Deep water L = gT²/2π gives T ≈ 1 s for L ≈ 1.56 m.
	if math.Abs(spec.Regular.Period-1.0) > 0.03 {
		t.Fatalf("period %v, want ≈ 1", spec.Regular.Period)
	}
	if _, err := s.RegularFromWavelength(0.1, 0); !errors.Is(err, types.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	if err := synth.DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	c := synth.DefaultConfig()
	c.ChunkSize = 1
	if err := c.Validate(); !errors.Is(err, types.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
	c = synth.DefaultConfig()
	c.TaperTime = 100
	if err := c.Validate(); !errors.Is(err, types.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}
