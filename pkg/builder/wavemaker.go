package builder

import (
	"context"
	"time"

	"github.com/joeydtaylor/makewaves/pkg/internal/adapter/kafkaevents"
	"github.com/joeydtaylor/makewaves/pkg/internal/dispersion"
	"github.com/joeydtaylor/makewaves/pkg/internal/limitstore"
	"github.com/joeydtaylor/makewaves/pkg/internal/meter"
	"github.com/joeydtaylor/makewaves/pkg/internal/presentation"
	"github.com/joeydtaylor/makewaves/pkg/internal/safety"
	"github.com/joeydtaylor/makewaves/pkg/internal/scheduler"
	"github.com/joeydtaylor/makewaves/pkg/internal/settings"
	"github.com/joeydtaylor/makewaves/pkg/internal/simdevice"
	"github.com/joeydtaylor/makewaves/pkg/internal/synth"
	"github.com/joeydtaylor/makewaves/pkg/internal/types"
)

type (
	WaveSpec         = types.WaveSpec
	WaveType         = types.WaveType
	JONSWAPParams    = types.JONSWAPParams
	StreamState      = types.StreamState
	StreamSnapshot   = types.StreamSnapshot
	RunEvent         = types.RunEvent
	EventSink        = types.EventSink
	ClampInfo        = types.ClampInfo
	VoltageRange     = types.VoltageRange
	AnalogOutput     = types.AnalogOutputDevice
	AnalogOutputTask = types.AnalogOutputTask

	SynthConfig  = synth.Config
	Synthesizer  = synth.Synthesizer
	Synthesis    = synth.Synthesis
	Scheduler    = scheduler.Scheduler
	SafetyParams = safety.Params
	SafetySolver = safety.Solver
	LimitTable   = safety.Table
	TableGrid    = safety.TableGrid
	LimitStore   = limitstore.Store
	Meter        = meter.Meter
	Settings     = settings.Settings
)

const (
	Regular          = types.Regular
	Bretschneider    = types.Bretschneider
	JONSWAP          = types.JONSWAP
	PiersonMoskowitz = types.PiersonMoskowitz

	StateIdle        = types.StateIdle
	StateRampingUp   = types.StateRampingUp
	StateStreaming   = types.StateStreaming
	StateRampingDown = types.StateRampingDown
	StateDraining    = types.StateDraining
	StateStopped     = types.StateStopped
)

var (
	ErrConfiguration = types.ErrConfiguration
	ErrDevice        = types.ErrDevice
	ErrNotRunning    = types.ErrNotRunning
)

// Wave specifications.

func NewRegularSpec(height, period float64) WaveSpec { return types.NewRegularSpec(height, period) }

func NewBretschneiderSpec(hs, ts, scaleRatio float64) WaveSpec {
	return types.NewBretschneiderSpec(hs, ts, scaleRatio)
}

func NewJONSWAPSpec(p JONSWAPParams) WaveSpec { return types.NewJONSWAPSpec(p) }

func NewPiersonMoskowitzSpec(windSpeed, scaleRatio float64) WaveSpec {
	return types.NewPiersonMoskowitzSpec(windSpeed, scaleRatio)
}

// DefaultSpec returns the operator defaults for t.
func DefaultSpec(t WaveType) (WaveSpec, error) { return types.DefaultSpec(t) }

// Dispersion.

func Wavelength(period, depth float64, precision int) float64 {
	return dispersion.Wavelength(period, depth, precision)
}

func PeriodForWavelength(wavelength, depth float64, precision int) float64 {
	return dispersion.PeriodForWavelength(wavelength, depth, precision)
}

// Safety envelope.

func DefaultSafetyParams() SafetyParams { return safety.DefaultParams() }

func DefaultTableGrid() TableGrid { return safety.DefaultGrid() }

func NewSafetySolver(p SafetyParams) *SafetySolver { return safety.NewSolver(p, dispersion.NewMemo()) }

func BuildLimitTable(ctx context.Context, s *SafetySolver, g TableGrid) (*LimitTable, error) {
	return safety.BuildTable(ctx, s, g)
}

func NewFileLimitStore(path string) *limitstore.FileStore { return limitstore.NewFileStore(path) }

func NewS3LimitStore(api limitstore.S3API, bucket, key string) *limitstore.S3Store {
	return limitstore.NewS3Store(api, bucket, key)
}

// LoadOrBuildLimitTable reads the cached table from store, rebuilding and
// saving it when missing or stale.
func LoadOrBuildLimitTable(ctx context.Context, store LimitStore, s *SafetySolver, g TableGrid, loggers ...types.Logger) (*LimitTable, error) {
	return limitstore.LoadOrBuild(ctx, store, s, g, loggers...)
}

// Synthesizer.

func DefaultSynthConfig() SynthConfig { return synth.DefaultConfig() }

func NewSynthesizer(options ...types.Option[*Synthesizer]) *Synthesizer {
	return synth.NewSynthesizer(options...)
}

func SynthesizerWithConfig(c SynthConfig) types.Option[*Synthesizer] { return synth.WithConfig(c) }

func SynthesizerWithSeed(seed int64) types.Option[*Synthesizer] { return synth.WithSeed(seed) }

func SynthesizerWithSafetyTable(t *LimitTable) types.Option[*Synthesizer] {
	return synth.WithSafetyTable(t)
}

func SynthesizerWithStrokeGuard(s *SafetySolver) types.Option[*Synthesizer] {
	return synth.WithStrokeGuard(s)
}

func SynthesizerWithLogger(l ...types.Logger) types.Option[*Synthesizer] {
	return synth.WithLogger(l...)
}

func SynthesizerWithComponentMetadata(name, id string) types.Option[*Synthesizer] {
	return synth.WithComponentMetadata(name, id)
}

// Scheduler.

func NewScheduler(device AnalogOutput, options ...types.Option[*Scheduler]) *Scheduler {
	return scheduler.NewScheduler(device, options...)
}

func SchedulerWithChannel(ch string) types.Option[*Scheduler] { return scheduler.WithChannel(ch) }

func SchedulerWithVoltageRange(vr VoltageRange) types.Option[*Scheduler] {
	return scheduler.WithVoltageRange(vr)
}

func SchedulerWithMargin(d time.Duration) types.Option[*Scheduler] { return scheduler.WithMargin(d) }

func SchedulerWithTolerance(d time.Duration) types.Option[*Scheduler] {
	return scheduler.WithTolerance(d)
}

func SchedulerWithBufferChunks(n int) types.Option[*Scheduler] { return scheduler.WithBufferChunks(n) }

func SchedulerWithMeter(m *Meter) types.Option[*Scheduler] { return scheduler.WithMeter(m) }

func SchedulerWithEventSink(sink ...EventSink) types.Option[*Scheduler] {
	return scheduler.WithEventSink(sink...)
}

func SchedulerWithLogger(l ...types.Logger) types.Option[*Scheduler] {
	return scheduler.WithLogger(l...)
}

func SchedulerWithComponentMetadata(name, id string) types.Option[*Scheduler] {
	return scheduler.WithComponentMetadata(name, id)
}

// Meter.

func NewMeter(options ...types.Option[*Meter]) *Meter { return meter.NewMeter(options...) }

func MeterWithLogger(l ...types.Logger) types.Option[*Meter] { return meter.WithLogger(l...) }

// Run events and presentation.

func NewKafkaWriter(brokers []string, topic string) kafkaevents.MessageWriter {
	return kafkaevents.NewKafkaWriter(brokers, topic)
}

func NewKafkaEventPublisher(w kafkaevents.MessageWriter, options ...types.Option[*kafkaevents.Publisher]) *kafkaevents.Publisher {
	return kafkaevents.NewPublisher(w, options...)
}

func KafkaEventPublisherWithLogger(l ...types.Logger) types.Option[*kafkaevents.Publisher] {
	return kafkaevents.WithLogger(l...)
}

func NewSnapshotBroadcaster(src types.SnapshotSource, options ...types.Option[*presentation.Broadcaster]) *presentation.Broadcaster {
	return presentation.NewBroadcaster(src, options...)
}

func SnapshotBroadcasterWithInterval(d time.Duration) types.Option[*presentation.Broadcaster] {
	return presentation.WithInterval(d)
}

func SnapshotBroadcasterWithLogger(l ...types.Logger) types.Option[*presentation.Broadcaster] {
	return presentation.WithLogger(l...)
}

// Settings and devices.

func NewSettingsStore(path string) *settings.Store { return settings.NewStore(path) }

func DefaultSettingsPath(dir string) string { return settings.DefaultPath(dir) }

// NewSimulatedDevice returns an in-process analog output device that drains
// its buffer in real time.
func NewSimulatedDevice(channels ...string) *simdevice.Device {
	if len(channels) == 0 {
		return simdevice.New()
	}
	return simdevice.New(simdevice.WithChannels(channels...))
}
