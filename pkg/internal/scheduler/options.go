package scheduler

import (
	"time"

	"github.com/joeydtaylor/makewaves/pkg/internal/meter"
	"github.com/joeydtaylor/makewaves/pkg/internal/types"
)

// WithChannel selects the output channel. Empty means the first channel the
// device enumerates.
func WithChannel(ch string) types.Option[*Scheduler] {
	return func(s *Scheduler) { s.SetChannel(ch) }
}

// WithVoltageRange sets the output range passed to Open.
func WithVoltageRange(vr types.VoltageRange) types.Option[*Scheduler] {
	return func(s *Scheduler) { s.vrange = vr }
}

// WithMargin sets how far ahead of the playback position each write is due.
func WithMargin(d time.Duration) types.Option[*Scheduler] {
	return func(s *Scheduler) { s.margin = d }
}

// WithTolerance sets how late a write may start before it counts as a
// timing violation.
func WithTolerance(d time.Duration) types.Option[*Scheduler] {
	return func(s *Scheduler) { s.tolerance = d }
}

// WithPollInterval sets the retry interval when the device buffer is full.
func WithPollInterval(d time.Duration) types.Option[*Scheduler] {
	return func(s *Scheduler) { s.pollInterval = d }
}

// WithStopPoll sets how often Stop checks the completion flags.
func WithStopPoll(d time.Duration) types.Option[*Scheduler] {
	return func(s *Scheduler) { s.stopPoll = d }
}

// WithBufferChunks sets the device buffer size in chunks.
func WithBufferChunks(n int) types.Option[*Scheduler] {
	return func(s *Scheduler) { s.bufferChunks = n }
}

// WithStallPeriods sets how many iteration periods the worker waits for
// buffer space before failing the run.
func WithStallPeriods(n int) types.Option[*Scheduler] {
	return func(s *Scheduler) { s.stallPeriods = n }
}

// WithMeter shares a meter.
func WithMeter(m *meter.Meter) types.Option[*Scheduler] {
	return func(s *Scheduler) { s.meter = m }
}

// WithEventSink registers run event sinks.
func WithEventSink(sink ...types.EventSink) types.Option[*Scheduler] {
	return func(s *Scheduler) { s.sinks = append(s.sinks, sink...) }
}

// WithLogger registers loggers.
func WithLogger(l ...types.Logger) types.Option[*Scheduler] {
	return func(s *Scheduler) { s.ConnectLogger(l...) }
}

// WithComponentMetadata sets the name and id used in logs and events.
func WithComponentMetadata(name, id string) types.Option[*Scheduler] {
	return func(s *Scheduler) {
		s.componentMetadata.Name = name
		s.componentMetadata.ID = id
	}
}
