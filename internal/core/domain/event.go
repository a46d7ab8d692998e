package domain

// EventKind tags a lifecycle notification emitted by the scheduler as it
// progresses through a run.
type EventKind string

const (
	// EventFound is emitted when a candidate passes filtering and enters
	// processing.
	EventFound EventKind = "found"
	// EventSkip is emitted when the candidate's ABI cache record already
	// matches the target and no build is attempted.
	EventSkip EventKind = "skip"
	// EventStart is emitted when the candidate's build is dispatched.
	EventStart EventKind = "start"
	// EventDone is emitted when the candidate's build succeeds.
	EventDone EventKind = "done"
	// EventFailed is emitted when the candidate's build fails.
	EventFailed EventKind = "failed"
)

// LifecycleEvent is an observability notification. Events are produced
// exclusively by the scheduler and never mutated after emission. For any one
// candidate the order is strict: found, then either skip or
// start followed by done or failed. Events from different candidates may
// interleave arbitrarily.
type LifecycleEvent struct {
	Kind      EventKind
	Candidate ModuleCandidate

	// Detail carries human-readable context: the skip reason, the failure
	// message, or the target identity tag.
	Detail string
}

// IsTerminal reports whether the event kind ends a candidate's lifecycle.
func (k EventKind) IsTerminal() bool {
	switch k {
	case EventSkip, EventDone, EventFailed:
		return true
	default:
		return false
	}
}
