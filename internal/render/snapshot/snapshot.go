// Package snapshot draws 2D chart specs as static PNG images with go-chart.
package snapshot

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/dusk-indust/sigscope/internal/brush"
	"github.com/dusk-indust/sigscope/internal/compose"
	"github.com/dusk-indust/sigscope/internal/render"
)

// Compile-time interface check.
var _ render.Capability = (*Capability)(nil)

const (
	defaultWidth  = 1024
	defaultHeight = 400
)

// Capability renders line specs into PNG images. Static images offer no
// range selection, so selection reactions are never fired.
type Capability struct {
	dir    string
	width  int
	height int

	mu     sync.Mutex
	images map[string][]byte
}

// Option configures a Capability.
type Option func(*Capability)

// WithDir writes each image to <dir>/<surface>.png.
func WithDir(dir string) Option {
	return func(c *Capability) {
		c.dir = dir
	}
}

// WithSize sets the image size in pixels.
func WithSize(width, height int) Option {
	return func(c *Capability) {
		if width > 0 && height > 0 {
			c.width, c.height = width, height
		}
	}
}

// New creates a snapshot capability.
func New(opts ...Option) *Capability {
	c := &Capability{
		width:  defaultWidth,
		height: defaultHeight,
		images: make(map[string][]byte),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Draw renders spec to PNG bytes. Empty specs and specs with a single
// domain value yield nil.
func Draw(spec compose.Spec, width, height int) ([]byte, error) {
	if spec.Kind != compose.KindLine && spec.Kind != compose.KindXY {
		return nil, fmt.Errorf("snapshot: %q: %w", spec.Kind, render.ErrUnsupportedKind)
	}

	series, lo, hi := toSeries(spec)
	if len(series) == 0 || lo >= hi {
		return nil, nil
	}
	series = append(series, markerSeries(spec, series, lo, hi)...)

	title := spec.Title
	if spec.Subtitle != "" {
		title += " (" + spec.Subtitle + ")"
	}
	graph := chart.Chart{
		Title:  title,
		Width:  width,
		Height: height,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 20, Right: 20, Bottom: 20},
		},
		XAxis:  chart.XAxis{Name: spec.XName},
		YAxis:  chart.YAxis{Name: spec.YName},
		Series: series,
	}
	if !spec.Compact && len(spec.Series) > 1 {
		graph.Elements = []chart.Renderable{chart.Legend(&graph)}
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("snapshot: %s: %w", spec.Title, err)
	}
	return buf.Bytes(), nil
}

// toSeries converts the spec's series and reports the x extent.
func toSeries(spec compose.Spec) ([]chart.Series, float64, float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	var out []chart.Series
	for _, s := range spec.Series {
		var xs, ys []float64
		if spec.Kind == compose.KindXY {
			for _, p := range s.Points {
				xs = append(xs, p[0])
				ys = append(ys, p[1])
			}
		} else {
			n := min(len(spec.Domain), len(s.Values))
			xs, ys = spec.Domain[:n], s.Values[:n]
		}
		if len(xs) == 0 {
			continue
		}
		for _, x := range xs {
			lo = math.Min(lo, x)
			hi = math.Max(hi, x)
		}
		style := chart.Style{StrokeWidth: 1}
		if s.Color != "" {
			style.StrokeColor = drawing.ColorFromHex(s.Color)
			if s.Area {
				style.FillColor = style.StrokeColor.WithAlpha(64)
			}
		}
		out = append(out, chart.ContinuousSeries{
			Name:    s.Name,
			Style:   style,
			XValues: xs,
			YValues: ys,
		})
	}
	return out, lo, hi
}

// markerSeries draws each in-range marker as a dashed vertical segment
// spanning the data's y extent.
func markerSeries(spec compose.Spec, series []chart.Series, lo, hi float64) []chart.Series {
	ylo, yhi := math.Inf(1), math.Inf(-1)
	for _, s := range series {
		for _, y := range s.(chart.ContinuousSeries).YValues {
			ylo = math.Min(ylo, y)
			yhi = math.Max(yhi, y)
		}
	}

	var out []chart.Series
	for _, m := range spec.Markers {
		if m.X < lo || m.X > hi {
			continue
		}
		style := chart.Style{StrokeWidth: 1, StrokeDashArray: []float64{4, 4}}
		if m.Color != "" {
			style.StrokeColor = drawing.ColorFromHex(m.Color)
		}
		out = append(out, chart.ContinuousSeries{
			Style:   style,
			XValues: []float64{m.X, m.X},
			YValues: []float64{ylo, yhi},
		})
	}
	return out
}

// Render implements render.Capability.
func (c *Capability) Render(ctx context.Context, h *render.Handle, spec compose.Spec) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	png, err := Draw(spec, c.width, c.height)
	if err != nil {
		return err
	}
	if err := c.persist(h.SurfaceID, png); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.images[h.SurfaceID] = png
	return nil
}

func (c *Capability) persist(surfaceID string, png []byte) error {
	if c.dir == "" {
		return nil
	}
	path := filepath.Join(c.dir, surfaceID+".png")
	if png == nil {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("snapshot: remove %s: %w", path, err)
		}
		return nil
	}
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("snapshot: mkdir %s: %w", c.dir, err)
	}
	if err := os.WriteFile(path, png, 0o644); err != nil {
		return fmt.Errorf("snapshot: write %s: %w", path, err)
	}
	return nil
}

// Dispose implements render.Capability.
func (c *Capability) Dispose(h *render.Handle) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.images, h.SurfaceID)
	return nil
}

// OnSelectionEnd implements render.Capability.
func (c *Capability) OnSelectionEnd(*render.Handle, func(brush.Selection)) {}

// ClearSelection implements render.Capability.
func (c *Capability) ClearSelection(*render.Handle) {}

// Resize implements render.Capability. Images have a fixed size.
func (c *Capability) Resize(*render.Handle) error { return nil }

// Image returns the last PNG drawn on surfaceID. A surface whose spec drew
// nothing reports a nil image.
func (c *Capability) Image(surfaceID string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	png, ok := c.images[surfaceID]
	return png, ok
}
