package scheduler

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/joeydtaylor/makewaves/pkg/internal/meter"
	"github.com/joeydtaylor/makewaves/pkg/internal/ramp"
	"github.com/joeydtaylor/makewaves/pkg/internal/synth"
	"github.com/joeydtaylor/makewaves/pkg/internal/types"
	"github.com/joeydtaylor/makewaves/pkg/internal/utils"
)

// Start opens the channel, writes the ramped-up first chunk, starts the
// device and hands it to the worker. Cancelling ctx later has the same
// effect as Stop: the run ramps down and drains.
func (s *Scheduler) Start(ctx context.Context, syn *synth.Synthesis) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if syn == nil || syn.ChunkCount() == 0 || syn.SampleRate() <= 0 {
		return fmt.Errorf("%w: nothing to stream", types.ErrConfiguration)
	}
	if !atomic.CompareAndSwapInt32(&s.started, 0, 1) {
		return fmt.Errorf("scheduler already started")
	}

	channel, err := s.resolveChannel(ctx)
	if err != nil {
		atomic.StoreInt32(&s.started, 0)
		s.logKV(types.ErrorLevel, "Start rejected",
			"event", "Start",
			"result", "FAILURE",
			"error", err,
		)
		return err
	}

	s.resetRun(syn, channel)
	s.setState(types.StateRampingUp)

	task, err := s.device.Open(ctx, channel, s.vrange)
	if err != nil {
		err = &types.DeviceError{Op: "open", Channel: channel, Err: err}
		s.fail(nil, err)
		return err
	}

	chunk := syn.ChunkSize
	if err := task.ConfigureClock(syn.SampleRate(), s.bufferChunks*chunk); err != nil {
		err = &types.DeviceError{Op: "configure", Channel: channel, Err: err}
		s.fail(task, err)
		return err
	}
	if err := s.write(task, channel, ramp.Apply(syn.DriveChunk(0), ramp.Up), 0, true); err != nil {
		s.fail(task, err)
		return err
	}
	if err := task.Start(); err != nil {
		err = &types.DeviceError{Op: "start", Channel: channel, Err: err}
		s.fail(task, err)
		return err
	}

	t0 := time.Now()
	s.mu.Lock()
	s.startedAt = t0
	runID := s.runID
	s.mu.Unlock()

	if c := syn.Clamp; c != nil && c.Clamped {
		s.meter.IncrementCount(meter.MetricSafetyClamps)
		s.emit(types.EventSafetyClamp, map[string]any{
			"requested": c.Requested,
			"applied":   c.Applied,
			"period":    c.Period,
		})
	}

	s.logKV(types.InfoLevel, "Streaming started",
		"event", "Start",
		"result", "SUCCESS",
		"run_id", runID,
		"channel", channel,
		"wave_type", syn.Spec.Type,
		"sample_rate", syn.SampleRate(),
		"chunk", chunk,
		"chunks", syn.ChunkCount(),
	)

	go s.run(ctx, task, channel, syn, t0)
	return nil
}

// Stop clears the enabled flag and waits until the worker has ramped down
// and released the device, or ctx expires. It returns the run's error, if
// any.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	runID := s.runID
	s.mu.Unlock()
	if runID == "" {
		return types.ErrNotRunning
	}

	if atomic.SwapInt32(&s.enabled, 0) == 1 {
		s.logKV(types.InfoLevel, "Stop requested",
			"event", "Stop",
			"result", "PENDING",
			"run_id", runID,
			"iteration", atomic.LoadInt64(&s.iterations),
		)
	}

	ticker := time.NewTicker(s.stopPoll)
	defer ticker.Stop()
	for !s.finished() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return s.Err()
}

// Wait blocks until the current run ends or ctx expires.
func (s *Scheduler) Wait(ctx context.Context) error {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()
	if done == nil {
		return types.ErrNotRunning
	}
	select {
	case <-done:
		return s.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scheduler) finished() bool {
	return atomic.LoadInt32(&s.rampedDown) == 1 && atomic.LoadInt32(&s.cleared) == 1
}

func (s *Scheduler) resolveChannel(ctx context.Context) (string, error) {
	s.mu.Lock()
	want := s.channel
	s.mu.Unlock()

	channels, err := s.device.EnumerateChannels(ctx)
	if err != nil {
		return "", &types.DeviceError{Op: "enumerate", Channel: want, Err: err}
	}
	if want == "" {
		if len(channels) == 0 {
			return "", fmt.Errorf("%w: no analog output channels", types.ErrConfiguration)
		}
		return channels[0], nil
	}
	if !utils.Contains(channels, want) {
		return "", fmt.Errorf("%w: unknown output channel %q", types.ErrConfiguration, want)
	}
	return want, nil
}

func (s *Scheduler) resetRun(syn *synth.Synthesis, channel string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.synthesis = syn
	s.activeChannel = channel
	s.runID = utils.NewRunID()
	s.startedAt = time.Time{}
	s.err = nil
	s.done = make(chan struct{})
	atomic.StoreInt32(&s.enabled, 1)
	atomic.StoreInt32(&s.rampedDown, 0)
	atomic.StoreInt32(&s.cleared, 0)
	atomic.StoreInt64(&s.iterations, 0)
	atomic.StoreInt64(&s.chunkIndex, 0)
	atomic.StoreInt64(&s.violations, 0)
	atomic.StoreInt32(&s.state, int32(types.StateIdle))
	s.meter.ResetMetrics()
}

func (s *Scheduler) streaming(ctx context.Context) bool {
	return atomic.LoadInt32(&s.enabled) == 1 && ctx.Err() == nil
}

// run is the worker. Write n is due at t0 + n·p - margin.
func (s *Scheduler) run(ctx context.Context, task types.AnalogOutputTask, channel string, syn *synth.Synthesis, t0 time.Time) {
	p := syn.IterationPeriod()
	margin := s.margin
	if margin > p/2 {
		margin = p / 2
	}
	deadline := func(n int64) time.Time {
		return t0.Add(time.Duration(n)*p - margin)
	}

	for n := int64(1); ; n++ {
		s.sleepUntil(deadline(n), n)

		if !s.streaming(ctx) {
			s.rampDown(task, channel, syn, n, deadline)
			return
		}
		if err := s.write(task, channel, syn.DriveChunk(n), n, true); err != nil {
			s.fail(task, err)
			return
		}
		if n == 1 {
			s.setState(types.StateStreaming)
		}
	}
}

// rampDown writes chunk n faded out, one chunk of silence, waits for the
// device to play everything and releases it.
func (s *Scheduler) rampDown(task types.AnalogOutputTask, channel string, syn *synth.Synthesis, n int64, deadline func(int64) time.Time) {
	s.setState(types.StateRampingDown)
	if err := s.write(task, channel, ramp.Apply(syn.DriveChunk(n), ramp.Down), n, true); err != nil {
		s.fail(task, err)
		return
	}

	s.sleepUntil(deadline(n+1), n+1)
	s.setState(types.StateDraining)
	if err := s.write(task, channel, ramp.Silence(syn.ChunkSize), n+1, false); err != nil {
		s.fail(task, err)
		return
	}
	atomic.StoreInt32(&s.rampedDown, 1)

	capacity := s.bufferChunks * syn.ChunkSize
	if err := s.waitForSpace(task, channel, capacity, syn.IterationPeriod()*time.Duration(s.bufferChunks+s.stallPeriods)); err != nil {
		s.fail(task, err)
		return
	}
	if err := task.Stop(); err != nil {
		s.fail(task, &types.DeviceError{Op: "stop", Channel: channel, Err: err})
		return
	}
	if err := task.Close(); err != nil {
		s.fail(nil, &types.DeviceError{Op: "close", Channel: channel, Err: err})
		return
	}
	s.finish(nil)
}

// sleepUntil waits for deadline. A deadline already missed by more than the
// tolerance is a timing violation.
func (s *Scheduler) sleepUntil(deadline time.Time, n int64) {
	d := time.Until(deadline)
	if d > 0 {
		timer := time.NewTimer(d)
		<-timer.C
		return
	}
	late := -d
	s.meter.SetMetricPeak(meter.MetricLatenessMicros, uint64(late.Microseconds()))
	if late > s.tolerance {
		s.timingViolation(n, late)
	}
}

func (s *Scheduler) waitForSpace(task types.AnalogOutputTask, channel string, need int, stall time.Duration) error {
	giveUp := time.Now().Add(stall)
	for {
		space, err := task.AvailableWriteSpace()
		if err != nil {
			return &types.DeviceError{Op: "space", Channel: channel, Err: err}
		}
		if space >= need {
			return nil
		}
		if time.Now().After(giveUp) {
			return &types.DeviceError{Op: "space", Channel: channel, Err: fmt.Errorf("buffer has %d of %d samples free after %v", space, need, stall)}
		}
		s.meter.IncrementCount(meter.MetricSpacePolls)
		time.Sleep(s.pollInterval)
	}
}

// write waits for room for one chunk and queues samples. Data chunks count
// as iterations; silence does not.
func (s *Scheduler) write(task types.AnalogOutputTask, channel string, samples []float64, n int64, data bool) error {
	s.mu.Lock()
	p := s.synthesis.IterationPeriod()
	s.mu.Unlock()

	if err := s.waitForSpace(task, channel, len(samples), p*time.Duration(s.stallPeriods)); err != nil {
		return err
	}
	written, err := task.WriteChunk(samples)
	if err != nil {
		return &types.DeviceError{Op: "write", Channel: channel, Err: err}
	}
	if written != len(samples) {
		return &types.DeviceError{Op: "write", Channel: channel, Err: fmt.Errorf("short write: %d of %d samples", written, len(samples))}
	}

	s.meter.IncrementCount(meter.MetricChunksWritten)
	s.meter.AddCount(meter.MetricSamplesWritten, uint64(written))
	if data {
		atomic.AddInt64(&s.iterations, 1)
		atomic.StoreInt64(&s.chunkIndex, n)
	}
	s.logKV(types.DebugLevel, "Chunk written",
		"event", "Write",
		"result", "SUCCESS",
		"iteration", n,
		"samples", written,
		"data", data,
	)
	return nil
}

// fail aborts the run after a device error. The task, if any, is stopped
// and closed on a best-effort basis.
func (s *Scheduler) fail(task types.AnalogOutputTask, err error) {
	if task != nil {
		_ = task.Stop()
		_ = task.Close()
	}
	s.meter.IncrementCount(meter.MetricDeviceErrors)
	s.logKV(types.ErrorLevel, "Streaming aborted",
		"event", "DeviceError",
		"result", "FAILURE",
		"iteration", atomic.LoadInt64(&s.iterations),
		"error", err,
	)
	s.emit(types.EventDeviceError, map[string]any{"error": err.Error()})
	s.finish(err)
}

// finish records the outcome and publishes the completion flags. started is
// released under the same lock that resetRun takes, so a new Start cannot
// interleave with the flag updates.
func (s *Scheduler) finish(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
	s.setState(types.StateStopped)
	s.meter.LogSummary()

	s.mu.Lock()
	atomic.StoreInt32(&s.enabled, 0)
	atomic.StoreInt32(&s.rampedDown, 1)
	atomic.StoreInt32(&s.started, 0)
	atomic.StoreInt32(&s.cleared, 1)
	close(s.done)
	s.mu.Unlock()
}
