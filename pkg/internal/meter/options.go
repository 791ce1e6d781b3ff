package meter

import "github.com/joeydtaylor/makewaves/pkg/internal/types"

// WithHostSampler replaces the gopsutil host sampler.
func WithHostSampler(s HostSampler) types.Option[*Meter] {
	return func(m *Meter) { m.sampler = s }
}

// WithLogger registers loggers.
func WithLogger(l ...types.Logger) types.Option[*Meter] {
	return func(m *Meter) { m.ConnectLogger(l...) }
}

// WithComponentMetadata sets the component metadata for the Meter.
func WithComponentMetadata(name string, id string) types.Option[*Meter] {
	return func(m *Meter) {
		m.componentMetadata.Name = name
		m.componentMetadata.ID = id
	}
}
