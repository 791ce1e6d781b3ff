package presentation

import (
	"time"

	"github.com/joeydtaylor/makewaves/pkg/internal/types"
)

// WithInterval sets the snapshot poll period.
func WithInterval(d time.Duration) types.Option[*Broadcaster] {
	return func(b *Broadcaster) {
		if d > 0 {
			b.interval = d
		}
	}
}

// WithEndpoint sets the path Serve mounts the handler on.
func WithEndpoint(path string) types.Option[*Broadcaster] {
	return func(b *Broadcaster) { b.endpoint = path }
}

// WithSendBuffer sets the per-client queue length.
func WithSendBuffer(n int) types.Option[*Broadcaster] {
	return func(b *Broadcaster) {
		if n > 0 {
			b.sendBuffer = n
		}
	}
}

// WithWriteTimeout bounds each frame write.
func WithWriteTimeout(d time.Duration) types.Option[*Broadcaster] {
	return func(b *Broadcaster) { b.writeTimeout = d }
}

// WithMaxConnections caps concurrent viewers. Zero means unlimited.
func WithMaxConnections(n int) types.Option[*Broadcaster] {
	return func(b *Broadcaster) { b.maxConnections = n }
}

// WithOriginPatterns allows cross-origin browser clients.
func WithOriginPatterns(patterns ...string) types.Option[*Broadcaster] {
	return func(b *Broadcaster) { b.originPatterns = append(b.originPatterns, patterns...) }
}

// WithLogger registers loggers.
func WithLogger(l ...types.Logger) types.Option[*Broadcaster] {
	return func(b *Broadcaster) { b.ConnectLogger(l...) }
}

// WithComponentMetadata sets the name and id used in logs.
func WithComponentMetadata(name, id string) types.Option[*Broadcaster] {
	return func(b *Broadcaster) {
		b.componentMetadata.Name = name
		b.componentMetadata.ID = id
	}
}
