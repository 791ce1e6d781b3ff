package kafkaevents

import (
	"time"

	"github.com/joeydtaylor/makewaves/pkg/internal/types"
)

// WithBufferSize sets the queue length between Publish and the writer.
func WithBufferSize(n int) types.Option[*Publisher] {
	return func(p *Publisher) {
		if n > 0 {
			p.bufferSize = n
		}
	}
}

// WithBatch sets the flush thresholds.
func WithBatch(maxRecords int, maxAge time.Duration) types.Option[*Publisher] {
	return func(p *Publisher) {
		if maxRecords > 0 {
			p.maxBatch = maxRecords
		}
		if maxAge > 0 {
			p.maxAge = maxAge
		}
	}
}

// WithWriteTimeout bounds each WriteMessages call.
func WithWriteTimeout(d time.Duration) types.Option[*Publisher] {
	return func(p *Publisher) { p.writeTimeout = d }
}

// WithTopic overrides the topic name used in logs.
func WithTopic(topic string) types.Option[*Publisher] {
	return func(p *Publisher) { p.topic = topic }
}

// WithLogger registers loggers.
func WithLogger(l ...types.Logger) types.Option[*Publisher] {
	return func(p *Publisher) { p.ConnectLogger(l...) }
}
