package synth

import (
	"github.com/joeydtaylor/makewaves/pkg/internal/dispersion"
	"github.com/joeydtaylor/makewaves/pkg/internal/safety"
	"github.com/joeydtaylor/makewaves/pkg/internal/types"
)

// WithConfig replaces the sampling layout and calibration.
func WithConfig(c Config) types.Option[*Synthesizer] {
	return func(s *Synthesizer) { s.cfg = c }
}

// WithPhaseSource injects the random phase source.
func WithPhaseSource(p PhaseSource) types.Option[*Synthesizer] {
	return func(s *Synthesizer) { s.phases = p }
}

// WithSeed makes random phases reproducible.
func WithSeed(seed int64) types.Option[*Synthesizer] {
	return func(s *Synthesizer) { s.phases = NewSeededPhases(seed) }
}

// WithMemo shares a dispersion cache with other components.
func WithMemo(m *dispersion.Memo) types.Option[*Synthesizer] {
	return func(s *Synthesizer) { s.memo = m }
}

// WithSafetyTable clamps regular wave heights against a limit table.
func WithSafetyTable(t *safety.Table) types.Option[*Synthesizer] {
	return func(s *Synthesizer) { s.table = t }
}

// WithStrokeGuard rejects random waves whose peak stroke exceeds the
// solver's max half-stroke.
func WithStrokeGuard(solver *safety.Solver) types.Option[*Synthesizer] {
	return func(s *Synthesizer) { s.guard = solver }
}

// WithLogger registers loggers.
func WithLogger(l ...types.Logger) types.Option[*Synthesizer] {
	return func(s *Synthesizer) { s.ConnectLogger(l...) }
}

// WithComponentMetadata sets the name and id used in logs.
func WithComponentMetadata(name, id string) types.Option[*Synthesizer] {
	return func(s *Synthesizer) {
		s.componentMetadata.Name = name
		s.componentMetadata.ID = id
	}
}
