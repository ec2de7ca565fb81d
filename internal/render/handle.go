package render

import (
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/dusk-indust/sigscope/internal/brush"
	"github.com/dusk-indust/sigscope/internal/compose"
)

// Handle is one live chart instance bound to a surface. A handle is owned
// by the Dispatcher from creation until its surface is re-rendered or
// disposed.
type Handle struct {
	// ID is unique per instance, so a re-render of the same surface yields
	// a different ID.
	ID        string
	SurfaceID string
	Kind      compose.Kind

	spec     compose.Spec
	brush    *brush.Controller
	disposed atomic.Bool
}

func newHandle(surfaceID string, spec compose.Spec) *Handle {
	return &Handle{
		ID:        uuid.NewString(),
		SurfaceID: surfaceID,
		Kind:      spec.Kind,
		spec:      spec,
	}
}

// Spec returns the spec the handle was rendered from.
func (h *Handle) Spec() compose.Spec { return h.spec }

// Brushable reports whether a brush controller is attached.
func (h *Handle) Brushable() bool { return h.brush != nil }

// Disposed reports whether the handle has been released.
func (h *Handle) Disposed() bool { return h.disposed.Load() }
