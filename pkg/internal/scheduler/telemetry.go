package scheduler

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/joeydtaylor/makewaves/pkg/internal/meter"
	"github.com/joeydtaylor/makewaves/pkg/internal/types"
)

// ConnectLogger attaches loggers.
func (s *Scheduler) ConnectLogger(l ...types.Logger) {
	s.loggersLock.Lock()
	defer s.loggersLock.Unlock()
	s.loggers = append(s.loggers, l...)
}

// NotifyLoggers emits a log event to all configured loggers.
func (s *Scheduler) NotifyLoggers(level types.LogLevel, msg string, keysAndValues ...interface{}) {
	for _, logger := range s.snapshotLoggers() {
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

func (s *Scheduler) snapshotLoggers() []types.Logger {
	s.loggersLock.Lock()
	defer s.loggersLock.Unlock()
	return append([]types.Logger(nil), s.loggers...)
}

func (s *Scheduler) logKV(level types.LogLevel, msg string, keysAndValues ...interface{}) {
	fields := make([]interface{}, 0, len(keysAndValues)+4)
	fields = append(fields, "component", s.componentMetadata, "state", s.State())
	fields = append(fields, keysAndValues...)
	s.NotifyLoggers(level, msg, fields...)
}

// setState records a transition and publishes it.
func (s *Scheduler) setState(st types.StreamState) {
	prev := types.StreamState(atomic.SwapInt32(&s.state, int32(st)))
	if prev == st {
		return
	}
	s.logKV(types.InfoLevel, "State change",
		"event", "StateChange",
		"result", "SUCCESS",
		"from", prev,
		"iteration", atomic.LoadInt64(&s.iterations),
	)
	s.emit(types.EventStateChange, map[string]any{"from": prev.String()})
}

func (s *Scheduler) timingViolation(n int64, late time.Duration) {
	count := atomic.AddInt64(&s.violations, 1)
	s.meter.IncrementCount(meter.MetricTimingViolations)
	s.logKV(types.WarnLevel, "Refill started late",
		"event", "TimingViolation",
		"result", "LATE",
		"iteration", n,
		"lateness", late,
		"violations", count,
	)
	s.emit(types.EventTimingViolation, map[string]any{
		"lateness_ms": float64(late) / float64(time.Millisecond),
		"count":       count,
	})
	go func() { _, _ = s.meter.SampleHostLoad() }()
}

// emit hands a run event to every sink. Sinks are expected to buffer.
func (s *Scheduler) emit(event string, detail map[string]any) {
	if len(s.sinks) == 0 {
		return
	}
	s.mu.Lock()
	runID := s.runID
	s.mu.Unlock()

	ev := types.RunEvent{
		RunID:     runID,
		Component: s.componentMetadata,
		Event:     event,
		State:     s.State().String(),
		Iteration: atomic.LoadInt64(&s.iterations),
		Detail:    detail,
		Time:      time.Now(),
	}
	for _, sink := range s.sinks {
		if err := sink.Publish(context.Background(), ev); err != nil {
			s.NotifyLoggers(types.WarnLevel, "Run event dropped",
				"component", s.componentMetadata,
				"event", "Publish",
				"result", "FAILURE",
				"run_event", event,
				"error", err,
			)
		}
	}
}
