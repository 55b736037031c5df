package security

import (
	"context"
	"sync"

	"site-guardian/attribution"
)

// Recorder buffers tracker-match events between snapshot cycles. The
// buffer is a bounded in-memory ring: when full, the oldest events are
// dropped, which is acceptable because counts are a sample, not an
// audit log.
type Recorder struct {
	mu     sync.Mutex
	events []attribution.MatchEvent
	max    int
}

// NewRecorder creates a recorder keeping at most max events.
func NewRecorder(max int) *Recorder {
	if max <= 0 {
		max = 10000
	}
	return &Recorder{max: max}
}

// Record appends one match event, evicting the oldest when full.
func (r *Recorder) Record(ev attribution.MatchEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	if len(r.events) > r.max {
		r.events = append(r.events[:0], r.events[len(r.events)-r.max:]...)
	}
}

// MatchesSince returns buffered events at or after sinceMillis. It is the
// orchestrator's pull source for tracker-match events.
func (r *Recorder) MatchesSince(_ context.Context, sinceMillis int64) ([]attribution.MatchEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []attribution.MatchEvent
	for _, ev := range r.events {
		if ev.At >= sinceMillis {
			out = append(out, ev)
		}
	}
	return out, nil
}

// Len returns the number of buffered events.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}
