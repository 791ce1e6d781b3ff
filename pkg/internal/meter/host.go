package meter

import (
	"runtime"
	"time"

	"github.com/joeydtaylor/makewaves/pkg/internal/types"
	"github.com/shirou/gopsutil/cpu"
	"github.com/shirou/gopsutil/mem"
)

// HostLoad is a point-in-time view of machine load.
type HostLoad struct {
	CPUPercent float64
	RAMPercent float64
	Goroutines int
	SampledAt  time.Time
}

// HostSampler reads host load.
type HostSampler func() (HostLoad, error)

// SampleHost reads CPU usage since the previous call and current memory use.
func SampleHost() (HostLoad, error) {
	load := HostLoad{Goroutines: runtime.NumGoroutine(), SampledAt: time.Now()}
	pct, err := cpu.Percent(0, false)
	if err != nil {
		return load, err
	}
	if len(pct) > 0 {
		load.CPUPercent = pct[0]
	}
	vm, err := mem.VirtualMemory()
	if err != nil {
		return load, err
	}
	load.RAMPercent = vm.UsedPercent
	return load, nil
}

// SampleHostLoad samples the host, records peak CPU and RAM percentages and
// logs the result at warn level.
func (m *Meter) SampleHostLoad() (HostLoad, error) {
	m.mu.Lock()
	sampler := m.sampler
	m.mu.Unlock()

	load, err := sampler()
	if err != nil {
		m.logKV(types.WarnLevel, "Host load sample failed", "event", "SampleHost", "result", "FAILURE", "error", err)
		return load, err
	}
	m.SetMetricPeak(MetricCPUPercent, uint64(load.CPUPercent))
	m.SetMetricPeak(MetricRAMPercent, uint64(load.RAMPercent))

	m.mu.Lock()
	m.lastLoad = load
	m.mu.Unlock()

	m.logKV(types.WarnLevel, "Host load while behind schedule",
		"event", "SampleHost",
		"result", "SUCCESS",
		"cpu_percent", load.CPUPercent,
		"ram_percent", load.RAMPercent,
		"goroutines", load.Goroutines,
	)
	return load, nil
}

// LastHostLoad returns the most recent successful sample.
func (m *Meter) LastHostLoad() HostLoad {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastLoad
}
