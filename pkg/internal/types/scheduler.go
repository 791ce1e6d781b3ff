package types

import (
	"context"
	"time"
)

// StreamState is a state of the streaming state machine.
type StreamState int32

const (
	StateIdle StreamState = iota
	StateRampingUp
	StateStreaming
	StateRampingDown
	StateDraining
	StateStopped
)

func (s StreamState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRampingUp:
		return "ramping_up"
	case StateStreaming:
		return "streaming"
	case StateRampingDown:
		return "ramping_down"
	case StateDraining:
		return "draining"
	case StateStopped:
		return "stopped"
	}
	return "unknown"
}

// ClampInfo reports whether the safety envelope reduced a requested height.
type ClampInfo struct {
	Requested float64 `json:"requested"`
	Applied   float64 `json:"applied"`
	Period    float64 `json:"period"`
	Clamped   bool    `json:"clamped"`
}

// StreamSnapshot is a read-only copy of scheduler state for presentation.
type StreamSnapshot struct {
	RunID            string     `json:"run_id"`
	Channel          string     `json:"channel"`
	WaveType         WaveType   `json:"wave_type"`
	State            string     `json:"state"`
	Making           bool       `json:"making"`
	Iterations       int64      `json:"iterations"`
	ChunkIndex       int64      `json:"chunk_index"`
	TimingViolations int64      `json:"timing_violations"`
	SampleRate       float64    `json:"sample_rate"`
	Chunk            []float64  `json:"chunk"`
	Spectrum         Spectrum   `json:"spectrum"`
	Clamp            *ClampInfo `json:"clamp,omitempty"`
	StartedAt        time.Time  `json:"started_at"`
	Error            string     `json:"error,omitempty"`
	RampedDown       bool       `json:"ramped_down"`
	Cleared          bool       `json:"cleared"`
}

// SnapshotSource is anything that can be polled for a StreamSnapshot.
type SnapshotSource interface {
	Snapshot() StreamSnapshot
}

// RunEvent is emitted on state changes and notable conditions of a run.
type RunEvent struct {
	RunID     string            `json:"run_id"`
	Component ComponentMetadata `json:"component"`
	Event     string            `json:"event"`
	State     string            `json:"state"`
	Iteration int64             `json:"iteration"`
	Detail    map[string]any    `json:"detail,omitempty"`
	Time      time.Time         `json:"time"`
}

// Run event names.
const (
	EventStateChange     = "state_change"
	EventTimingViolation = "timing_violation"
	EventSafetyClamp     = "safety_clamp"
	EventDeviceError     = "device_error"
)

// EventSink receives run events. Publish must not block the caller for long;
// sinks backed by remote systems buffer internally.
type EventSink interface {
	Publish(ctx context.Context, ev RunEvent) error
}
