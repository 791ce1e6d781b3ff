// Package meter counts streaming events for one run and samples host load
// when playback falls behind.
package meter

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/joeydtaylor/makewaves/pkg/internal/types"
)

// Meter holds named counters and peaks. Counter updates are lock-free once
// a name has been seen.
type Meter struct {
	componentMetadata types.ComponentMetadata

	mu        sync.Mutex
	counts    map[string]*uint64
	peaks     map[string]*uint64
	startTime time.Time
	lastLoad  HostLoad
	sampler   HostSampler

	loggers   []types.Logger
	loggersMu sync.Mutex
}

// NewMeter returns a meter that samples the host with gopsutil unless
// WithHostSampler overrides it.
func NewMeter(options ...types.Option[*Meter]) *Meter {
	m := &Meter{
		componentMetadata: types.ComponentMetadata{Type: "METER"},
		counts:            make(map[string]*uint64),
		peaks:             make(map[string]*uint64),
		startTime:         time.Now(),
		sampler:           SampleHost,
	}
	for _, name := range defaultMetricNames {
		m.counter(name)
	}
	for _, opt := range options {
		opt(m)
	}
	return m
}

func (m *Meter) counter(name string) *uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.counts[name]
	if !ok {
		c = new(uint64)
		m.counts[name] = c
	}
	return c
}

func (m *Meter) peak(name string) *uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.peaks[name]
	if !ok {
		p = new(uint64)
		m.peaks[name] = p
	}
	return p
}

// IncrementCount adds one to a counter.
func (m *Meter) IncrementCount(name string) { atomic.AddUint64(m.counter(name), 1) }

// AddCount adds n to a counter.
func (m *Meter) AddCount(name string, n uint64) { atomic.AddUint64(m.counter(name), n) }

// GetMetricCount returns a counter value.
func (m *Meter) GetMetricCount(name string) uint64 { return atomic.LoadUint64(m.counter(name)) }

// SetMetricPeak records v if it exceeds the current peak.
func (m *Meter) SetMetricPeak(name string, v uint64) {
	p := m.peak(name)
	for {
		cur := atomic.LoadUint64(p)
		if v <= cur || atomic.CompareAndSwapUint64(p, cur, v) {
			return
		}
	}
}

// GetMetricPeak returns the largest value recorded for name.
func (m *Meter) GetMetricPeak(name string) uint64 { return atomic.LoadUint64(m.peak(name)) }

// ResetMetrics zeroes all counters and peaks and restarts the clock.
func (m *Meter) ResetMetrics() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.counts {
		atomic.StoreUint64(c, 0)
	}
	for _, p := range m.peaks {
		atomic.StoreUint64(p, 0)
	}
	m.startTime = time.Now()
	m.lastLoad = HostLoad{}
}

// Counts returns a copy of every counter.
func (m *Meter) Counts() map[string]uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]uint64, len(m.counts))
	for name, c := range m.counts {
		out[name] = atomic.LoadUint64(c)
	}
	return out
}

// GetMetricNames returns the registered counter names, sorted.
func (m *Meter) GetMetricNames() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, 0, len(m.counts))
	for name := range m.counts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ElapsedTime is the time since creation or the last reset.
func (m *Meter) ElapsedTime() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return time.Since(m.startTime)
}

// GetComponentMetadata returns the meter's metadata.
func (m *Meter) GetComponentMetadata() types.ComponentMetadata { return m.componentMetadata }
