package ports

import "go.trai.ch/rebuild/internal/core/domain"

// EventSink consumes lifecycle events emitted by the scheduler. Sinks are
// attached before dispatch begins so no early event is missed, and must be
// safe for concurrent publication from multiple build workers.
//
//go:generate mockgen -source=events.go -destination=mocks/mock_events.go -package=mocks
type EventSink interface {
	// Publish delivers one event. Implementations must not retain or mutate
	// the event beyond the call.
	Publish(event domain.LifecycleEvent)
}
