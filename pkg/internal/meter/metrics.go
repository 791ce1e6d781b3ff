package meter

// Streaming metric names.
const (
	MetricChunksWritten    = "chunks_written"
	MetricSamplesWritten   = "samples_written"
	MetricSpacePolls       = "space_polls"
	MetricTimingViolations = "timing_violations"
	MetricDeviceErrors     = "device_errors"
	MetricSafetyClamps     = "safety_clamps"
	MetricLatenessMicros   = "lateness_us"
	MetricCPUPercent       = "host_cpu_percent"
	MetricRAMPercent       = "host_ram_percent"
)

var defaultMetricNames = []string{
	MetricChunksWritten,
	MetricSamplesWritten,
	MetricSpacePolls,
	MetricTimingViolations,
	MetricDeviceErrors,
	MetricSafetyClamps,
}
