package presentation

import "github.com/joeydtaylor/makewaves/pkg/internal/types"

// ConnectLogger attaches loggers.
func (b *Broadcaster) ConnectLogger(l ...types.Logger) {
	b.loggersLock.Lock()
	defer b.loggersLock.Unlock()
	b.loggers = append(b.loggers, l...)
}

// NotifyLoggers emits a log event to all configured loggers.
func (b *Broadcaster) NotifyLoggers(level types.LogLevel, msg string, keysAndValues ...interface{}) {
	b.loggersLock.Lock()
	loggers := append([]types.Logger(nil), b.loggers...)
	b.loggersLock.Unlock()

	for _, logger := range loggers {
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
		}
	}
}

func (b *Broadcaster) logKV(level types.LogLevel, msg string, keysAndValues ...interface{}) {
	fields := make([]interface{}, 0, len(keysAndValues)+2)
	fields = append(fields, "component", b.componentMetadata)
	fields = append(fields, keysAndValues...)
	b.NotifyLoggers(level, msg, fields...)
}
