package echarts

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/go-echarts/go-echarts/v2/components"

	"github.com/dusk-indust/sigscope/internal/brush"
	"github.com/dusk-indust/sigscope/internal/compose"
	"github.com/dusk-indust/sigscope/internal/render"
)

// Compile-time interface check.
var _ render.Capability = (*Surfaces)(nil)

// instance is what a surface holds for its live handle.
type instance struct {
	handle   *render.Handle
	spec     compose.Spec
	html     []byte
	reaction func(brush.Selection)
	cleared  bool
}

// Surfaces is a render.Capability that keeps one HTML document per surface
// and optionally mirrors each document to a directory.
type Surfaces struct {
	dir        string
	selectBase string
	logger     *slog.Logger

	mu    sync.Mutex
	live  map[string]*instance
	sizes map[string]Size
}

// SurfaceOption configures Surfaces.
type SurfaceOption func(*Surfaces)

// WithOutputDir writes every rendered document to <dir>/<surface>.html.
func WithOutputDir(dir string) SurfaceOption {
	return func(s *Surfaces) {
		s.dir = dir
	}
}

// WithSelectionEndpoint makes brushable charts post finished selections to
// <base>/<surface>/selection.
func WithSelectionEndpoint(base string) SurfaceOption {
	return func(s *Surfaces) {
		s.selectBase = base
	}
}

// WithSurfaceLogger sets the logger.
func WithSurfaceLogger(l *slog.Logger) SurfaceOption {
	return func(s *Surfaces) {
		s.logger = l
	}
}

// NewSurfaces creates an empty set of surfaces.
func NewSurfaces(opts ...SurfaceOption) *Surfaces {
	s := &Surfaces{
		logger: slog.Default(),
		live:   make(map[string]*instance),
		sizes:  make(map[string]Size),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Surfaces) selectURL(surfaceID string) string {
	if s.selectBase == "" {
		return ""
	}
	return s.selectBase + "/" + surfaceID + "/selection"
}

func (s *Surfaces) draw(surfaceID string, spec compose.Spec, size Size) ([]byte, error) {
	chart, err := Build(surfaceID, spec, size, s.selectURL(surfaceID))
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := chart.Render(&buf); err != nil {
		return nil, fmt.Errorf("echarts: render %s: %w", surfaceID, err)
	}
	return buf.Bytes(), nil
}

func (s *Surfaces) persist(surfaceID string, html []byte) error {
	if s.dir == "" {
		return nil
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("echarts: mkdir %s: %w", s.dir, err)
	}
	path := filepath.Join(s.dir, surfaceID+".html")
	if err := os.WriteFile(path, html, 0o644); err != nil {
		return fmt.Errorf("echarts: write %s: %w", path, err)
	}
	return nil
}

// Render implements render.Capability.
func (s *Surfaces) Render(ctx context.Context, h *render.Handle, spec compose.Spec) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	size := s.sizes[h.SurfaceID]
	s.mu.Unlock()

	html, err := s.draw(h.SurfaceID, spec, size)
	if err != nil {
		return err
	}
	if err := s.persist(h.SurfaceID, html); err != nil {
		return err
	}

	s.mu.Lock()
	s.live[h.SurfaceID] = &instance{handle: h, spec: spec, html: html}
	s.mu.Unlock()
	return nil
}

// Dispose implements render.Capability. The document file is left on disk.
func (s *Surfaces) Dispose(h *render.Handle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if in, ok := s.live[h.SurfaceID]; ok && in.handle == h {
		delete(s.live, h.SurfaceID)
	}
	return nil
}

// OnSelectionEnd implements render.Capability.
func (s *Surfaces) OnSelectionEnd(h *render.Handle, fn func(brush.Selection)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if in, ok := s.live[h.SurfaceID]; ok && in.handle == h {
		in.reaction = fn
	}
}

// ClearSelection implements render.Capability. The browser clears its brush
// when the selection request reports it.
func (s *Surfaces) ClearSelection(h *render.Handle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if in, ok := s.live[h.SurfaceID]; ok && in.handle == h {
		in.cleared = true
	}
}

// Resize implements render.Capability by redrawing the document at the
// surface's current size.
func (s *Surfaces) Resize(h *render.Handle) error {
	s.mu.Lock()
	in, ok := s.live[h.SurfaceID]
	size := s.sizes[h.SurfaceID]
	s.mu.Unlock()
	if !ok || in.handle != h {
		return nil
	}

	html, err := s.draw(h.SurfaceID, in.spec, size)
	if err != nil {
		return err
	}
	if err := s.persist(h.SurfaceID, html); err != nil {
		return err
	}

	s.mu.Lock()
	if cur, ok := s.live[h.SurfaceID]; ok && cur == in {
		in.html = html
	}
	s.mu.Unlock()
	return nil
}

// SetSize records the pixel size of surfaceID for subsequent draws.
func (s *Surfaces) SetSize(surfaceID string, size Size) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sizes[surfaceID] = size
}

// SelectResult reports what a delivered selection did.
type SelectResult struct {
	// Handled is false when the surface has no live brushable chart.
	Handled bool `json:"handled"`
	// Cleared asks the browser to remove its visual selection.
	Cleared bool `json:"cleared"`
}

// Select delivers a finished selection to the live chart of surfaceID.
func (s *Surfaces) Select(surfaceID string, sel brush.Selection) SelectResult {
	s.mu.Lock()
	in, ok := s.live[surfaceID]
	var fn func(brush.Selection)
	if ok {
		fn = in.reaction
		in.cleared = false
	}
	s.mu.Unlock()
	if fn == nil {
		return SelectResult{}
	}

	fn(sel)

	s.mu.Lock()
	defer s.mu.Unlock()
	return SelectResult{Handled: true, Cleared: in.cleared}
}

// HTML returns the current document of surfaceID.
func (s *Surfaces) HTML(surfaceID string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	in, ok := s.live[surfaceID]
	if !ok {
		return nil, false
	}
	return in.html, true
}

// IDs returns the live surface ids, sorted.
func (s *Surfaces) IDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.live))
	for id := range s.live {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// WritePage renders every live surface onto one page, in surface order.
func (s *Surfaces) WritePage(w io.Writer, title string) error {
	type entry struct {
		id   string
		spec compose.Spec
		size Size
	}
	s.mu.Lock()
	entries := make([]entry, 0, len(s.live))
	for id, in := range s.live {
		entries = append(entries, entry{id: id, spec: in.spec, size: s.sizes[id]})
	}
	s.mu.Unlock()
	sort.Slice(entries, func(i, j int) bool { return entries[i].id < entries[j].id })

	page := components.NewPage()
	page.SetPageTitle(title)
	page.SetLayout(components.PageFlexLayout)
	for _, e := range entries {
		chart, err := Build(e.id, e.spec, e.size, s.selectURL(e.id))
		if err != nil {
			s.logger.Warn("skipping surface on page", "surface", e.id, "err", err)
			continue
		}
		page.AddCharts(chart)
	}
	if err := page.Render(w); err != nil {
		return fmt.Errorf("echarts: render page: %w", err)
	}
	return nil
}
