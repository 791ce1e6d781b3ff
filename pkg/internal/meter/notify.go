package meter

import "github.com/joeydtaylor/makewaves/pkg/internal/types"

// ConnectLogger attaches loggers to the meter.
func (m *Meter) ConnectLogger(loggers ...types.Logger) {
	if len(loggers) == 0 {
		return
	}
	m.loggersMu.Lock()
	m.loggers = append(m.loggers, loggers...)
	m.loggersMu.Unlock()
}

// NotifyLoggers emits a log event to all configured loggers.
func (m *Meter) NotifyLoggers(level types.LogLevel, msg string, keysAndValues ...interface{}) {
	for _, logger := range m.snapshotLoggers() {
		if logger == nil || logger.GetLevel() > level {
			continue
		}
		switch level {
		case types.DebugLevel:
			logger.Debug(msg, keysAndValues...)
		case types.InfoLevel:
			logger.Info(msg, keysAndValues...)
		case types.WarnLevel:
			logger.Warn(msg, keysAndValues...)
		case types.ErrorLevel:
			logger.Error(msg, keysAndValues...)
		case types.DPanicLevel:
			logger.DPanic(msg, keysAndValues...)
		case types.PanicLevel:
			logger.Panic(msg, keysAndValues...)
		case types.FatalLevel:
			logger.Fatal(msg, keysAndValues...)
		}
	}
}

// LogSummary writes every counter and peak at info level.
func (m *Meter) LogSummary() {
	kv := []interface{}{"event", "Summary", "elapsed", m.ElapsedTime()}
	for _, name := range m.GetMetricNames() {
		kv = append(kv, name, m.GetMetricCount(name))
	}
	kv = append(kv,
		"peak_"+MetricLatenessMicros, m.GetMetricPeak(MetricLatenessMicros),
		"peak_"+MetricCPUPercent, m.GetMetricPeak(MetricCPUPercent),
	)
	m.logKV(types.InfoLevel, "Run metrics", kv...)
}

func (m *Meter) logKV(level types.LogLevel, msg string, keysAndValues ...interface{}) {
	fields := make([]interface{}, 0, len(keysAndValues)+2)
	fields = append(fields, "component", m.componentMetadata)
	fields = append(fields, keysAndValues...)
	m.NotifyLoggers(level, msg, fields...)
}

func (m *Meter) snapshotLoggers() []types.Logger {
	m.loggersMu.Lock()
	defer m.loggersMu.Unlock()
	if len(m.loggers) == 0 {
		return nil
	}
	loggers := make([]types.Logger, len(m.loggers))
	copy(loggers, m.loggers)
	return loggers
}
