// Package telemetry renders scheduler lifecycle events.
package telemetry

import (
	"fmt"
	"sync"

	"github.com/opencontainers/go-digest"
	"github.com/vito/progrock"
	"go.trai.ch/rebuild/internal/core/domain"
	"go.trai.ch/rebuild/internal/core/ports"
)

var _ ports.EventSink = (*Recorder)(nil)

// Recorder implements ports.EventSink on a progrock tape: one vertex per
// module candidate, keyed by its physical path so duplicated logical names
// stay distinct.
type Recorder struct {
	w   progrock.Writer
	rec *progrock.Recorder

	mu       sync.Mutex
	vertices map[string]*progrock.VertexRecorder
}

// New creates a Recorder with a default tape.
func New() *Recorder {
	return NewRecorder(progrock.NewTape())
}

// NewRecorder creates a Recorder on the given writer.
func NewRecorder(w progrock.Writer) *Recorder {
	return &Recorder{
		w:        w,
		rec:      progrock.NewRecorder(w),
		vertices: make(map[string]*progrock.VertexRecorder),
	}
}

// Publish renders one lifecycle event onto the tape.
func (r *Recorder) Publish(event domain.LifecycleEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	path := event.Candidate.Path.String()
	v, ok := r.vertices[path]
	if !ok {
		d := digest.FromString(path)
		v = r.rec.Vertex(d, event.Candidate.Name.String())
		r.vertices[path] = v
	}

	switch event.Kind {
	case domain.EventFound:
		_, _ = fmt.Fprintf(v.Stdout(), "found at %s\n", path)
	case domain.EventSkip:
		v.Cached()
		v.Done(nil)
	case domain.EventStart:
		_, _ = fmt.Fprintf(v.Stdout(), "building %s\n", event.Detail)
	case domain.EventDone:
		v.Done(nil)
	case domain.EventFailed:
		v.Done(fmt.Errorf("%s", event.Detail))
	}
}

// Close flushes and closes the recording session.
func (r *Recorder) Close() error {
	if c, ok := r.w.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}
