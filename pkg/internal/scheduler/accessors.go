package scheduler

import (
	"sync/atomic"

	"github.com/joeydtaylor/makewaves/pkg/internal/meter"
	"github.com/joeydtaylor/makewaves/pkg/internal/types"
)

// GetComponentMetadata returns the scheduler metadata.
func (s *Scheduler) GetComponentMetadata() types.ComponentMetadata {
	return s.componentMetadata
}

// IsStarted reports whether a run is in progress.
func (s *Scheduler) IsStarted() bool {
	return atomic.LoadInt32(&s.started) == 1
}

// State returns the current stream state.
func (s *Scheduler) State() types.StreamState {
	return types.StreamState(atomic.LoadInt32(&s.state))
}

// Iterations returns the number of data chunks written in this run.
func (s *Scheduler) Iterations() int64 { return atomic.LoadInt64(&s.iterations) }

// TimingViolations returns the late-refill count for this run.
func (s *Scheduler) TimingViolations() int64 { return atomic.LoadInt64(&s.violations) }

// Channel returns the output channel of the current or last run.
func (s *Scheduler) Channel() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeChannel
}

// Meter returns the run meter.
func (s *Scheduler) Meter() *meter.Meter { return s.meter }

// Err returns the error that ended the last run, if any.
func (s *Scheduler) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Snapshot implements types.SnapshotSource.
func (s *Scheduler) Snapshot() types.StreamSnapshot {
	st := s.State()
	snap := types.StreamSnapshot{
		State:            st.String(),
		Making:           st != types.StateIdle && st != types.StateStopped,
		Iterations:       atomic.LoadInt64(&s.iterations),
		ChunkIndex:       atomic.LoadInt64(&s.chunkIndex),
		TimingViolations: atomic.LoadInt64(&s.violations),
		RampedDown:       atomic.LoadInt32(&s.rampedDown) == 1,
		Cleared:          atomic.LoadInt32(&s.cleared) == 1,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	snap.RunID = s.runID
	snap.Channel = s.activeChannel
	snap.StartedAt = s.startedAt
	if s.err != nil {
		snap.Error = s.err.Error()
	}
	if syn := s.synthesis; syn != nil {
		snap.WaveType = syn.Spec.Type
		snap.SampleRate = syn.SampleRate()
		snap.Chunk = append([]float64(nil), syn.ElevationChunk(snap.ChunkIndex)...)
		snap.Spectrum = syn.Spectrum
		if syn.Clamp != nil {
			c := *syn.Clamp
			snap.Clamp = &c
		}
	}
	return snap
}
