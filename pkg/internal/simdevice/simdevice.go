// Package simdevice is an in-process analog output device whose buffer
// drains at the configured sample rate in wall-clock time. It records every
// write so streaming behaviour can be checked without hardware.
package simdevice

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/joeydtaylor/makewaves/pkg/internal/types"
)

// Operation names accepted by FailOn.
const (
	OpEnumerate = "enumerate"
	OpOpen      = "open"
	OpConfigure = "configure"
	OpWrite     = "write"
	OpSpace     = "space"
	OpStart     = "start"
	OpStop      = "stop"
	OpClose     = "close"
)

var (
	// ErrOverflow is returned when a write does not fit the buffer.
	ErrOverflow = errors.New("simdevice: buffer overflow")
	// ErrClosed is returned for calls on a closed task.
	ErrClosed = errors.New("simdevice: task closed")
)

type failure struct {
	op    string
	nth   int
	err   error
	calls int
}

// Device is a simulated multi-channel analog output device.
type Device struct {
	mu       sync.Mutex
	channels []string
	failures []*failure
	tasks    []*Task
}

// New returns a device exposing channels ao0 and ao1 unless WithChannels
// overrides them.
func New(options ...types.Option[*Device]) *Device {
	d := &Device{channels: []string{"Dev1/ao0", "Dev1/ao1"}}
	for _, opt := range options {
		opt(d)
	}
	return d
}

// WithChannels sets the channel names reported by EnumerateChannels.
func WithChannels(ch ...string) types.Option[*Device] {
	return func(d *Device) { d.channels = append([]string(nil), ch...) }
}

// FailOn makes the nth call (1-based, counted across tasks) of op return err.
func FailOn(op string, nth int, err error) types.Option[*Device] {
	return func(d *Device) { d.failures = append(d.failures, &failure{op: op, nth: nth, err: err}) }
}

func (d *Device) inject(op string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, f := range d.failures {
		if f.op != op {
			continue
		}
		f.calls++
		if f.calls == f.nth {
			return f.err
		}
	}
	return nil
}

// EnumerateChannels implements types.AnalogOutputDevice.
func (d *Device) EnumerateChannels(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := d.inject(OpEnumerate); err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.channels...), nil
}

// Open implements types.AnalogOutputDevice.
func (d *Device) Open(ctx context.Context, channel string, vr types.VoltageRange) (types.AnalogOutputTask, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := d.inject(OpOpen); err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	known := false
	for _, c := range d.channels {
		known = known || c == channel
	}
	if !known {
		return nil, fmt.Errorf("simdevice: unknown channel %q", channel)
	}
	t := &Task{dev: d, channel: channel, vr: vr}
	d.tasks = append(d.tasks, t)
	return t, nil
}

// Tasks returns every task opened so far.
func (d *Device) Tasks() []*Task {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]*Task(nil), d.tasks...)
}

// LastTask returns the most recently opened task or nil.
func (d *Device) LastTask() *Task {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.tasks) == 0 {
		return nil
	}
	return d.tasks[len(d.tasks)-1]
}

// Write is one recorded WriteChunk call.
type Write struct {
	At      time.Time
	Samples []float64
}

// Task is a simulated output task. It is safe for concurrent use.
type Task struct {
	dev     *Device
	channel string
	vr      types.VoltageRange

	mu         sync.Mutex
	sampleRate float64
	capacity   int
	queued     float64
	updated    time.Time
	startedAt  time.Time
	started    bool
	stopped    bool
	closed     bool
	underruns  int
	writes     []Write
}

// drainLocked advances the playback position to now.
func (t *Task) drainLocked(now time.Time) {
	if !t.started || t.stopped {
		t.updated = now
		return
	}
	played := now.Sub(t.updated).Seconds() * t.sampleRate
	t.queued -= played
	if t.queued < 0 {
		t.queued = 0
	}
	t.updated = now
}

// ConfigureClock implements types.AnalogOutputTask.
func (t *Task) ConfigureClock(sampleRate float64, bufferSize int) error {
	if err := t.dev.inject(OpConfigure); err != nil {
		return err
	}
	if sampleRate <= 0 || bufferSize <= 0 {
		return fmt.Errorf("simdevice: invalid clock %g Hz / %d samples", sampleRate, bufferSize)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return ErrClosed
	}
	t.sampleRate, t.capacity = sampleRate, bufferSize
	return nil
}

// WriteChunk implements types.AnalogOutputTask.
func (t *Task) WriteChunk(samples []float64) (int, error) {
	if err := t.dev.inject(OpWrite); err != nil {
		return 0, err
	}
	now := time.Now()
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return 0, ErrClosed
	}
	for _, v := range samples {
		if v < t.vr.Min || v > t.vr.Max {
			return 0, fmt.Errorf("simdevice: sample %g outside [%g, %g] V", v, t.vr.Min, t.vr.Max)
		}
	}
	t.drainLocked(now)
	if t.started && !t.stopped && t.queued == 0 {
		t.underruns++
	}
	if t.queued+float64(len(samples)) > float64(t.capacity)+1e-9 {
		return 0, ErrOverflow
	}
	t.queued += float64(len(samples))
	t.writes = append(t.writes, Write{At: now, Samples: append([]float64(nil), samples...)})
	return len(samples), nil
}

// AvailableWriteSpace implements types.AnalogOutputTask.
func (t *Task) AvailableWriteSpace() (int, error) {
	if err := t.dev.inject(OpSpace); err != nil {
		return 0, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return 0, ErrClosed
	}
	t.drainLocked(time.Now())
	return t.capacity - int(t.queued+0.999999), nil
}

// Start implements types.AnalogOutputTask.
func (t *Task) Start() error {
	if err := t.dev.inject(OpStart); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return ErrClosed
	}
	now := time.Now()
	t.started, t.startedAt, t.updated = true, now, now
	return nil
}

// Stop implements types.AnalogOutputTask.
func (t *Task) Stop() error {
	if err := t.dev.inject(OpStop); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.drainLocked(time.Now())
	t.stopped = true
	return nil
}

// Close implements types.AnalogOutputTask.
func (t *Task) Close() error {
	if err := t.dev.inject(OpClose); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	return nil
}

// Channel returns the opened channel name.
func (t *Task) Channel() string { return t.channel }

// Range returns the voltage range the task was opened with.
func (t *Task) Range() types.VoltageRange { return t.vr }

// Clock returns the configured sample rate and buffer size.
func (t *Task) Clock() (float64, int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sampleRate, t.capacity
}

// Writes returns a copy of all recorded writes.
func (t *Task) Writes() []Write {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Write(nil), t.writes...)
}

// StartedAt returns when Start was called.
func (t *Task) StartedAt() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.startedAt
}

// State reports the lifecycle flags.
func (t *Task) State() (started, stopped, closed bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.started, t.stopped, t.closed
}

// Underruns counts writes that found the buffer already empty while playing.
func (t *Task) Underruns() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.underruns
}

// Queued returns the samples still waiting to play.
func (t *Task) Queued() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.drainLocked(time.Now())
	return int(t.queued + 0.999999)
}
