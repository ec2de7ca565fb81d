// Package export writes the composed chart specs of a session as JSON.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/dusk-indust/sigscope/internal/analysis"
	"github.com/dusk-indust/sigscope/internal/chartdef"
	"github.com/dusk-indust/sigscope/internal/compose"
	"github.com/dusk-indust/sigscope/internal/render"
)

// Document is the top-level JSON export structure.
type Document struct {
	ExportedAt  string        `json:"exportedAt"`
	Files       []string      `json:"files"`
	Comparison  bool          `json:"comparison"`
	CompareAxis analysis.Axis `json:"compareAxis,omitempty"`
	Charts      []ChartExport `json:"charts"`

	// FilterKPI holds the band-stop indicators per axis.
	FilterKPI map[analysis.Axis]map[string]any `json:"filterKpi,omitempty"`
}

// ChartExport describes one composed chart.
type ChartExport struct {
	ID        string       `json:"id"`
	SurfaceID string       `json:"surfaceId"`
	Title     string       `json:"title"`
	ToolID    string       `json:"toolId"`
	Status    string       `json:"status"` // "drawn" or "empty"
	Spec      compose.Spec `json:"spec"`
}

// Chart statuses.
const (
	StatusDrawn = "drawn"
	StatusEmpty = "empty"
)

// Build composes every definition against cctx.
func Build(defs []chartdef.Definition, cctx compose.Context, now time.Time) *Document {
	doc := &Document{
		ExportedAt: now.UTC().Format(time.RFC3339),
		Files:      append([]string{}, cctx.Files...),
		Comparison: len(cctx.Files) > 1,
		Charts:     make([]ChartExport, 0, len(defs)),
		FilterKPI:  cctx.FilterKPI,
	}
	if doc.Comparison {
		doc.CompareAxis = cctx.CompareAxis
	}

	for _, def := range defs {
		spec := render.Compose(def, cctx)
		status := StatusDrawn
		if spec.Empty() {
			status = StatusEmpty
		}
		doc.Charts = append(doc.Charts, ChartExport{
			ID:        def.ID,
			SurfaceID: def.SurfaceID(),
			Title:     def.Title,
			ToolID:    def.ToolID,
			Status:    status,
			Spec:      spec,
		})
	}
	return doc
}

// WriteJSON writes doc as indented JSON.
func WriteJSON(w io.Writer, doc *Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("export: encode: %w", err)
	}
	return nil
}
