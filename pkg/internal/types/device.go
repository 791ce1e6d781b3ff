package types

import "context"

// VoltageRange bounds the analog output of a channel.
type VoltageRange struct {
	Min float64
	Max float64
}

// DefaultVoltageRange is the ±10 V range used for the wavemaker drive.
var DefaultVoltageRange = VoltageRange{Min: -10, Max: 10}

// AnalogOutputDevice is the driver boundary: it lists physical output
// channels and opens tasks on them.
type AnalogOutputDevice interface {
	EnumerateChannels(ctx context.Context) ([]string, error)
	Open(ctx context.Context, channel string, vr VoltageRange) (AnalogOutputTask, error)
}

// AnalogOutputTask is an open output channel with its own playback buffer.
// All methods are synchronous and are only called from the scheduler's worker.
type AnalogOutputTask interface {
	// ConfigureClock sets the sample clock and the size of the playback buffer in samples.
	ConfigureClock(sampleRate float64, bufferSize int) error
	// WriteChunk queues samples for playback and reports how many were accepted.
	WriteChunk(samples []float64) (int, error)
	// AvailableWriteSpace reports free space in the playback buffer in samples.
	AvailableWriteSpace() (int, error)
	Start() error
	Stop() error
	Close() error
}
