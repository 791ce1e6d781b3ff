// Package scheduler streams a synthesized drive signal to an analog output
// device: ramp up, loop the buffer on wall-clock deadlines, then ramp down,
// write silence and wait for the device buffer to drain.
package scheduler

import (
	"sync"
	"time"

	"github.com/joeydtaylor/makewaves/pkg/internal/meter"
	"github.com/joeydtaylor/makewaves/pkg/internal/synth"
	"github.com/joeydtaylor/makewaves/pkg/internal/types"
)

// Defaults for the refill loop.
const (
	DefaultMargin       = 200 * time.Millisecond
	DefaultTolerance    = 50 * time.Millisecond
	DefaultPollInterval = 10 * time.Millisecond
	DefaultStopPoll     = 20 * time.Millisecond
	DefaultBufferChunks = 2
	DefaultStallPeriods = 10
)

// Scheduler owns one output channel. A single worker goroutine talks to the
// device; Stop and Snapshot only touch atomics and the state mutex.
type Scheduler struct {
	componentMetadata types.ComponentMetadata
	device            types.AnalogOutputDevice
	channel           string
	vrange            types.VoltageRange
	margin            time.Duration
	tolerance         time.Duration
	pollInterval      time.Duration
	stopPoll          time.Duration
	bufferChunks      int
	stallPeriods      int
	meter             *meter.Meter
	sinks             []types.EventSink

	loggers     []types.Logger
	loggersLock sync.Mutex

	// Lifecycle flags, accessed atomically.
	started    int32
	enabled    int32
	rampedDown int32
	cleared    int32
	state      int32
	iterations int64
	chunkIndex int64
	violations int64

	mu            sync.Mutex
	synthesis     *synth.Synthesis
	activeChannel string
	runID         string
	startedAt     time.Time
	err           error
	done          chan struct{}
}

// NewScheduler returns an idle scheduler for device.
func NewScheduler(device types.AnalogOutputDevice, options ...types.Option[*Scheduler]) *Scheduler {
	s := &Scheduler{
		componentMetadata: types.ComponentMetadata{Type: "SCHEDULER"},
		device:            device,
		vrange:            types.DefaultVoltageRange,
		margin:            DefaultMargin,
		tolerance:         DefaultTolerance,
		pollInterval:      DefaultPollInterval,
		stopPoll:          DefaultStopPoll,
		bufferChunks:      DefaultBufferChunks,
		stallPeriods:      DefaultStallPeriods,
	}
	for _, opt := range options {
		opt(s)
	}
	if s.meter == nil {
		s.meter = meter.NewMeter(meter.WithComponentMetadata(s.componentMetadata.Name, s.componentMetadata.ID))
	}
	return s
}
