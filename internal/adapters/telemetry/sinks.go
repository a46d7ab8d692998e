package telemetry

import (
	"fmt"

	"go.trai.ch/rebuild/internal/core/domain"
	"go.trai.ch/rebuild/internal/core/ports"
)

// LoggerSink mirrors lifecycle events onto the logger, for linear output in
// CI environments and log capture.
type LoggerSink struct {
	logger ports.Logger
}

// NewLoggerSink creates a LoggerSink.
func NewLoggerSink(logger ports.Logger) *LoggerSink {
	return &LoggerSink{logger: logger}
}

// Publish logs one lifecycle event.
func (s *LoggerSink) Publish(event domain.LifecycleEvent) {
	msg := fmt.Sprintf("%s %s", event.Kind, event.Candidate.Name.String())
	if event.Detail != "" {
		msg += " (" + event.Detail + ")"
	}
	if event.Kind == domain.EventFailed {
		s.logger.Warn(msg)
		return
	}
	s.logger.Info(msg)
}

// Fanout delivers each event to every attached sink in order.
type Fanout struct {
	sinks []ports.EventSink
}

// NewFanout creates a Fanout over the given sinks.
func NewFanout(sinks ...ports.EventSink) *Fanout {
	return &Fanout{sinks: sinks}
}

// Publish delivers the event to all sinks.
func (f *Fanout) Publish(event domain.LifecycleEvent) {
	for _, sink := range f.sinks {
		sink.Publish(event)
	}
}
