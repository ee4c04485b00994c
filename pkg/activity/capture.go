package activity

import (
	"context"
	"sync"
)

// CaptureHook records events in memory. Tests and the examples use it to
// inspect what a fit run reported.
type CaptureHook struct {
	Events []Event
	Err    error
	mu     sync.Mutex
}

// Notify records the event and returns Err.
func (h *CaptureHook) Notify(_ context.Context, event Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Events = append(h.Events, NormalizeEvent(event))
	return h.Err
}

// Verbs lists the recorded verbs in arrival order.
func (h *CaptureHook) Verbs() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	verbs := make([]string, len(h.Events))
	for i, event := range h.Events {
		verbs[i] = event.Verb
	}
	return verbs
}

// ForObject returns the events recorded for one object, e.g. every fit
// attempt on a single entry.
func (h *CaptureHook) ForObject(objectType, objectID string) []Event {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []Event
	for _, event := range h.Events {
		if event.ObjectType == objectType && event.ObjectID == objectID {
			out = append(out, event)
		}
	}
	return out
}

// Reset drops the recorded events.
func (h *CaptureHook) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Events = nil
}
