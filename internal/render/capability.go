// Package render binds composed chart specs to named surfaces through a
// rendering capability and owns every live chart instance.
package render

import (
	"context"
	"errors"

	"github.com/dusk-indust/sigscope/internal/brush"
	"github.com/dusk-indust/sigscope/internal/compose"
)

// ErrUnsupportedKind is returned by capabilities that cannot draw a spec
// kind.
var ErrUnsupportedKind = errors.New("render: unsupported chart kind")

// Capability draws declarative specs into surfaces. A capability never
// retains a spec past Dispose of its handle.
type Capability interface {
	// Render draws spec for h, replacing nothing: the dispatcher always
	// disposes a surface's previous handle first.
	Render(ctx context.Context, h *Handle, spec compose.Spec) error

	// Dispose releases every resource held for h.
	Dispose(h *Handle) error

	// OnSelectionEnd registers fn to receive finished range selections
	// drawn on h.
	OnSelectionEnd(h *Handle, fn func(brush.Selection))

	// ClearSelection removes any visual selection drawn on h.
	ClearSelection(h *Handle)

	// Resize re-fits h to the current dimensions of its surface.
	Resize(h *Handle) error
}

// boundTarget adapts a capability and one handle to brush.Target.
type boundTarget struct {
	cap Capability
	h   *Handle
}

func (b boundTarget) OnSelectionEnd(fn func(brush.Selection)) { b.cap.OnSelectionEnd(b.h, fn) }
func (b boundTarget) ClearSelection()                         { b.cap.ClearSelection(b.h) }
