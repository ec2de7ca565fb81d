package render

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/dusk-indust/sigscope/internal/analysis"
	"github.com/dusk-indust/sigscope/internal/brush"
	"github.com/dusk-indust/sigscope/internal/chartdef"
	"github.com/dusk-indust/sigscope/internal/compose"
)

// chartSurfacePrefix marks surfaces owned by chart definitions, as opposed
// to decomposition panels.
const chartSurfacePrefix = "chart-"

// Dispatcher composes chart specs and binds them to surfaces. It holds at
// most one live handle per surface.
type Dispatcher struct {
	cap     Capability
	logger  *slog.Logger
	onRange brush.EmitFunc

	mu   sync.Mutex
	live map[string]*Handle
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the dispatcher's logger.
func WithLogger(l *slog.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = l
	}
}

// WithRangeSink sets the receiver of brush-derived ranges. Without a sink no
// brush controller is attached.
func WithRangeSink(fn brush.EmitFunc) Option {
	return func(d *Dispatcher) {
		d.onRange = fn
	}
}

// NewDispatcher creates a Dispatcher drawing through c.
func NewDispatcher(c Capability, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		cap:    c,
		logger: slog.Default(),
		live:   make(map[string]*Handle),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// SetRangeSink replaces the brush range receiver. It affects handles
// rendered afterwards.
func (d *Dispatcher) SetRangeSink(fn brush.EmitFunc) {
	d.mu.Lock()
	d.onRange = fn
	d.mu.Unlock()
}

// Compose builds the spec for def: 3D first, then heatmap, then the generic
// line path, which itself chooses between overlay and stitch. The filtered
// view carries the band-stop indicators as its subtitle.
func Compose(def chartdef.Definition, cctx compose.Context) compose.Spec {
	var spec compose.Spec
	switch def.Kind() {
	case chartdef.Kind3D:
		spec = compose.Trajectory3D(def, cctx)
	case chartdef.KindHeatmap:
		spec = compose.Heatmap(def, cctx)
	default:
		spec = compose.Line(def, cctx)
	}
	if def.ID == chartdef.FilteredID {
		spec.Subtitle = compose.FormatKPI(cctx.FilterKPI)
	}
	return spec
}

// Render composes def and draws it into surfaceID. Any existing handle on
// the surface is disposed first; on error the surface is left empty.
func (d *Dispatcher) Render(ctx context.Context, surfaceID string, def chartdef.Definition, cctx compose.Context) (*Handle, error) {
	return d.bind(ctx, surfaceID, Compose(def, cctx))
}

// bind disposes the surface's previous handle, draws spec on a fresh handle
// and attaches a brush controller when the spec allows it.
func (d *Dispatcher) bind(ctx context.Context, surfaceID string, spec compose.Spec) (*Handle, error) {
	_ = d.release(surfaceID)

	h := newHandle(surfaceID, spec)
	if err := d.cap.Render(ctx, h, spec); err != nil {
		if derr := d.cap.Dispose(h); derr != nil {
			d.logger.Warn("dispose after failed render", "surface", surfaceID, "err", derr)
		}
		h.disposed.Store(true)
		return nil, fmt.Errorf("render: %s: %w", surfaceID, err)
	}

	d.mu.Lock()
	sink := d.onRange
	d.mu.Unlock()
	if spec.Brush && sink != nil {
		h.brush = brush.Attach(boundTarget{cap: d.cap, h: h}, spec.Domain, sink)
	}

	d.mu.Lock()
	d.live[surfaceID] = h
	d.mu.Unlock()

	d.logger.Debug("surface rendered",
		"surface", surfaceID,
		"instance", h.ID,
		"kind", spec.Kind,
		"series", len(spec.Series),
		"brush", h.brush != nil)
	return h, nil
}

// release removes and disposes the surface's handle, if any. A dispose
// failure is logged; the handle is forgotten either way.
func (d *Dispatcher) release(surfaceID string) error {
	d.mu.Lock()
	h, ok := d.live[surfaceID]
	if ok {
		delete(d.live, surfaceID)
		h.disposed.Store(true)
	}
	d.mu.Unlock()
	if !ok {
		return nil
	}

	if err := d.cap.Dispose(h); err != nil {
		d.logger.Warn("dispose failed", "surface", surfaceID, "instance", h.ID, "err", err)
		return fmt.Errorf("render: dispose %s: %w", surfaceID, err)
	}
	return nil
}

// RenderAll composes every definition concurrently, then binds them in
// definition order to their surfaces. Chart surfaces of definitions no
// longer present are disposed. Unsupported kinds are logged and skipped;
// other failures are joined into the returned error after every definition
// has been attempted.
func (d *Dispatcher) RenderAll(ctx context.Context, defs []chartdef.Definition, cctx compose.Context) ([]*Handle, error) {
	specs := make([]compose.Spec, len(defs))
	g, gctx := errgroup.WithContext(ctx)
	for i, def := range defs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			specs[i] = Compose(def, cctx)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("render: compose: %w", err)
	}

	keep := make(map[string]bool, len(defs))
	for _, def := range defs {
		keep[def.SurfaceID()] = true
	}
	for _, surface := range d.Surfaces() {
		if strings.HasPrefix(surface, chartSurfacePrefix) && !keep[surface] {
			_ = d.release(surface)
		}
	}

	var errs []error
	handles := make([]*Handle, 0, len(defs))
	for i, def := range defs {
		h, err := d.bind(ctx, def.SurfaceID(), specs[i])
		if errors.Is(err, ErrUnsupportedKind) {
			d.logger.Info("chart kind not supported by renderer", "chart", def.ID, "kind", specs[i].Kind)
			continue
		}
		if err != nil {
			errs = append(errs, err)
			continue
		}
		handles = append(handles, h)
	}
	return handles, errors.Join(errs...)
}

// RenderModal draws the decomposition panels of axis. Panels of other axes
// or from an earlier run with more modes are disposed.
func (d *Dispatcher) RenderModal(ctx context.Context, axis analysis.Axis, res analysis.Result) ([]*Handle, error) {
	panels := compose.ModalPanels(axis, res)

	keep := make(map[string]bool, len(panels))
	for _, p := range panels {
		keep[p.SurfaceID] = true
	}
	for _, surface := range d.Surfaces() {
		if strings.HasPrefix(surface, "ewt-") && !keep[surface] {
			_ = d.release(surface)
		}
	}

	var errs []error
	handles := make([]*Handle, 0, len(panels))
	for _, p := range panels {
		h, err := d.bind(ctx, p.SurfaceID, p.Spec)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		handles = append(handles, h)
	}
	return handles, errors.Join(errs...)
}

// Resized re-fits the live handle of surfaceID. Unknown surfaces are
// ignored.
func (d *Dispatcher) Resized(surfaceID string) error {
	h, ok := d.Handle(surfaceID)
	if !ok {
		return nil
	}
	if err := d.cap.Resize(h); err != nil {
		return fmt.Errorf("render: resize %s: %w", surfaceID, err)
	}
	return nil
}

// Dispose releases the handle of surfaceID.
func (d *Dispatcher) Dispose(surfaceID string) error {
	return d.release(surfaceID)
}

// DisposeAll releases every live handle.
func (d *Dispatcher) DisposeAll() error {
	var errs []error
	for _, s := range d.Surfaces() {
		if err := d.release(s); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Handle returns the live handle of surfaceID.
func (d *Dispatcher) Handle(surfaceID string) (*Handle, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	h, ok := d.live[surfaceID]
	return h, ok
}

// Surfaces returns the ids of every surface with a live handle, sorted.
func (d *Dispatcher) Surfaces() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, 0, len(d.live))
	for s := range d.live {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
