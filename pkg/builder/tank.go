package builder

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/joeydtaylor/makewaves/pkg/internal/adapter/kafkaevents"
	"github.com/joeydtaylor/makewaves/pkg/internal/dispersion"
	"github.com/joeydtaylor/makewaves/pkg/internal/limitstore"
	"github.com/joeydtaylor/makewaves/pkg/internal/presentation"
	"github.com/joeydtaylor/makewaves/pkg/internal/safety"
	"github.com/joeydtaylor/makewaves/pkg/internal/scheduler"
	"github.com/joeydtaylor/makewaves/pkg/internal/settings"
	"github.com/joeydtaylor/makewaves/pkg/internal/synth"
	"github.com/joeydtaylor/makewaves/pkg/internal/types"
)

// Tank is a wired wavemaker: limit table, synthesizer, scheduler and the
// optional event and snapshot outputs, all sharing one logger.
type Tank struct {
	Config      Config
	Logger      types.Logger
	Solver      *SafetySolver
	Table       *LimitTable
	Synth       *Synthesizer
	Scheduler   *Scheduler
	Settings    *settings.Store
	Events      *kafkaevents.Publisher
	Broadcaster *presentation.Broadcaster

	host string
}

// TankOption overrides a dependency NewTank would otherwise build from
// Config.
type TankOption func(*tankDeps)

type tankDeps struct {
	store       limitstore.Store
	eventWriter kafkaevents.MessageWriter
}

// TankWithLimitStore replaces the file or S3 limit store.
func TankWithLimitStore(s LimitStore) TankOption {
	return func(d *tankDeps) { d.store = s }
}

// TankWithEventWriter publishes run events through w regardless of
// Config.KafkaBrokers.
func TankWithEventWriter(w kafkaevents.MessageWriter) TankOption {
	return func(d *tankDeps) { d.eventWriter = w }
}

// NewTank loads or builds the limit table and wires every component for
// device. The returned tank is idle; call Make to start waves.
func NewTank(ctx context.Context, cfg Config, device AnalogOutput, logger types.Logger, options ...TankOption) (*Tank, error) {
	if device == nil {
		return nil, fmt.Errorf("%w: no analog output device", types.ErrConfiguration)
	}
	if err := cfg.Synth.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = NewLogger(LoggerWithLevel(cfg.LogLevel))
	}
	var deps tankDeps
	for _, opt := range options {
		opt(&deps)
	}

	t := &Tank{Config: cfg, Logger: logger}
	t.host, _ = os.Hostname()

	memo := dispersion.NewMemo()
	t.Solver = safety.NewSolver(cfg.Safety, memo)

	store := deps.store
	if store == nil {
		var err error
		if store, err = t.limitStore(ctx); err != nil {
			return nil, err
		}
	}
	table, err := limitstore.LoadOrBuild(ctx, store, t.Solver, cfg.Grid, logger)
	if err != nil {
		return nil, err
	}
	t.Table = table

	synthOpts := []types.Option[*Synthesizer]{
		synth.WithConfig(cfg.Synth),
		synth.WithMemo(memo),
		synth.WithSafetyTable(table),
		synth.WithStrokeGuard(t.Solver),
		synth.WithLogger(logger),
	}
	if cfg.Seed != 0 {
		synthOpts = append(synthOpts, synth.WithSeed(cfg.Seed))
	}
	t.Synth = synth.NewSynthesizer(synthOpts...)

	t.Settings = settings.NewStore(cfg.SettingsPath)
	channel := cfg.Channel
	if channel == "" {
		saved, err := t.Settings.Load()
		if err != nil {
			logger.Warn("Settings not readable, using first channel",
				"component", types.ComponentMetadata{Type: "TANK"},
				"event", "SettingsLoad",
				"result", "FAILURE",
				"error", err,
			)
		}
		channel = saved.Channel
	}

	schedOpts := []types.Option[*Scheduler]{
		scheduler.WithChannel(channel),
		scheduler.WithMargin(cfg.Margin),
		scheduler.WithTolerance(cfg.Tolerance),
		scheduler.WithBufferChunks(cfg.BufferChunks),
		scheduler.WithLogger(logger),
	}
	writer := deps.eventWriter
	if writer == nil && len(cfg.KafkaBrokers) > 0 {
		writer = kafkaevents.NewKafkaWriter(cfg.KafkaBrokers, cfg.KafkaTopic)
	}
	if writer != nil {
		t.Events = kafkaevents.NewPublisher(writer,
			kafkaevents.WithTopic(cfg.KafkaTopic),
			kafkaevents.WithLogger(logger),
		)
		t.Events.Start(ctx)
		schedOpts = append(schedOpts, scheduler.WithEventSink(t.Events))
	}
	t.Scheduler = scheduler.NewScheduler(device, schedOpts...)

	t.Broadcaster = presentation.NewBroadcaster(t.Scheduler,
		presentation.WithInterval(cfg.SnapshotInterval),
		presentation.WithLogger(logger),
	)
	return t, nil
}

func (t *Tank) limitStore(ctx context.Context) (limitstore.Store, error) {
	if t.Config.S3Bucket == "" {
		return limitstore.NewFileStore(t.Config.LimitTablePath), nil
	}
	cli, err := NewS3ClientDefault(ctx, t.Config.S3Region, t.Config.S3Endpoint, t.Config.S3PathStyle)
	if err != nil {
		return nil, fmt.Errorf("s3 client: %w", err)
	}
	return limitstore.NewS3Store(cli, t.Config.S3Bucket, t.Config.S3Key), nil
}

// Make synthesizes spec and starts streaming it. The resolved channel is
// remembered in the settings store.
func (t *Tank) Make(ctx context.Context, spec WaveSpec) (*Synthesis, error) {
	syn, err := t.Synth.Generate(spec)
	if err != nil {
		return nil, err
	}
	if err := t.Scheduler.Start(ctx, syn); err != nil {
		return nil, err
	}
	channel := t.Scheduler.Channel()
	if err := t.Settings.Update(func(s *settings.Settings) {
		s.Channel = channel
		s.HostName = t.host
	}); err != nil {
		t.Logger.Warn("Settings not saved",
			"component", types.ComponentMetadata{Type: "TANK"},
			"event", "SettingsSave",
			"result", "FAILURE",
			"error", err,
		)
	}
	return syn, nil
}

// Stop ramps the running waves down and waits for the device to drain.
func (t *Tank) Stop(ctx context.Context) error {
	return t.Scheduler.Stop(ctx)
}

// Serve runs the snapshot server until ctx is done. It is a no-op returning
// nil when Config.SnapshotAddr is empty.
func (t *Tank) Serve(ctx context.Context) error {
	if t.Config.SnapshotAddr == "" {
		return nil
	}
	return t.Broadcaster.Serve(ctx, t.Config.SnapshotAddr)
}

// Close stops a running scheduler and flushes pending run events.
func (t *Tank) Close(ctx context.Context) error {
	var errs []error
	if t.Scheduler.IsStarted() {
		if err := t.Scheduler.Stop(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if t.Events != nil {
		if err := t.Events.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	_ = t.Logger.Flush()
	return errors.Join(errs...)
}
