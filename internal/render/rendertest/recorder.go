// Package rendertest provides a recording render.Capability for tests.
package rendertest

import (
	"context"
	"fmt"
	"sync"

	"github.com/dusk-indust/sigscope/internal/brush"
	"github.com/dusk-indust/sigscope/internal/compose"
	"github.com/dusk-indust/sigscope/internal/render"
)

// Compile-time interface check.
var _ render.Capability = (*Recorder)(nil)

// Op names a recorded capability call.
type Op string

const (
	OpRender  Op = "render"
	OpDispose Op = "dispose"
	OpClear   Op = "clear"
	OpResize  Op = "resize"
)

// Event is one recorded call.
type Event struct {
	Op        Op
	SurfaceID string
	Instance  string
	Spec      compose.Spec
}

// Recorder records every call and keeps the selection reactions of live
// instances so tests can fire them.
type Recorder struct {
	mu        sync.Mutex
	events    []Event
	live      map[string]string // surface -> instance
	specs     map[string]compose.Spec
	reactions map[string]func(brush.Selection) // instance -> reaction
	failures  map[string]error
	renders   chan Event
}

// New creates an empty Recorder.
func New() *Recorder {
	return &Recorder{
		live:      make(map[string]string),
		specs:     make(map[string]compose.Spec),
		reactions: make(map[string]func(brush.Selection)),
		failures:  make(map[string]error),
		renders:   make(chan Event, 256),
	}
}

// FailRender makes the next Render on surfaceID return err.
func (r *Recorder) FailRender(surfaceID string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures[surfaceID] = err
}

// Render implements render.Capability.
func (r *Recorder) Render(ctx context.Context, h *render.Handle, spec compose.Spec) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err, ok := r.failures[h.SurfaceID]; ok {
		delete(r.failures, h.SurfaceID)
		return err
	}
	if prev, ok := r.live[h.SurfaceID]; ok {
		return fmt.Errorf("rendertest: surface %s still holds instance %s", h.SurfaceID, prev)
	}
	r.live[h.SurfaceID] = h.ID
	r.specs[h.SurfaceID] = spec
	ev := Event{Op: OpRender, SurfaceID: h.SurfaceID, Instance: h.ID, Spec: spec}
	r.events = append(r.events, ev)
	select {
	case r.renders <- ev:
	default:
	}
	return nil
}

// Dispose implements render.Capability.
func (r *Recorder) Dispose(h *render.Handle) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.live[h.SurfaceID] == h.ID {
		delete(r.live, h.SurfaceID)
		delete(r.specs, h.SurfaceID)
	}
	delete(r.reactions, h.ID)
	r.events = append(r.events, Event{Op: OpDispose, SurfaceID: h.SurfaceID, Instance: h.ID})
	return nil
}

// OnSelectionEnd implements render.Capability.
func (r *Recorder) OnSelectionEnd(h *render.Handle, fn func(brush.Selection)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reactions[h.ID] = fn
}

// ClearSelection implements render.Capability.
func (r *Recorder) ClearSelection(h *render.Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, Event{Op: OpClear, SurfaceID: h.SurfaceID, Instance: h.ID})
}

// Resize implements render.Capability.
func (r *Recorder) Resize(h *render.Handle) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, Event{Op: OpResize, SurfaceID: h.SurfaceID, Instance: h.ID})
	return nil
}

// Select fires the selection reaction of the instance live on surfaceID.
// It reports false when no reaction is registered.
func (r *Recorder) Select(surfaceID string, sel brush.Selection) bool {
	r.mu.Lock()
	fn, ok := r.reactions[r.live[surfaceID]]
	r.mu.Unlock()
	if !ok {
		return false
	}
	fn(sel)
	return true
}

// Events returns a copy of every recorded call.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Count returns how many calls of op were recorded for surfaceID. An empty
// surfaceID counts every surface.
func (r *Recorder) Count(op Op, surfaceID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.Op == op && (surfaceID == "" || e.SurfaceID == surfaceID) {
			n++
		}
	}
	return n
}

// Live returns the spec currently drawn on surfaceID.
func (r *Recorder) Live(surfaceID string) (compose.Spec, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.specs[surfaceID]
	return s, ok
}

// LiveSurfaces returns the number of surfaces holding an instance.
func (r *Recorder) LiveSurfaces() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.live)
}

// Renders publishes every successful Render.
func (r *Recorder) Renders() <-chan Event {
	return r.renders
}
