// Package compose turns analysis results into declarative chart specs. Every
// function here is pure: it reads its inputs and never retains them.
package compose

import "github.com/dusk-indust/sigscope/internal/analysis"

// Kind is the shape of a composed chart.
type Kind string

const (
	// KindLine is a category-domain line chart: Domain holds the shared
	// x values and each series carries only y values.
	KindLine Kind = "line"
	// KindXY is a value-axis line chart whose series carry (x, y) pairs.
	KindXY Kind = "xy"
	// KindHeatmap is a categorical grid.
	KindHeatmap Kind = "heatmap"
	// KindLine3D is a 3D polyline.
	KindLine3D Kind = "line3d"
)

// Spec is a renderer-neutral chart description.
type Spec struct {
	Kind  Kind   `json:"kind"`
	Title string `json:"title,omitempty"`
	XName string `json:"xName,omitempty"`
	YName string `json:"yName,omitempty"`

	// Subtitle carries indicators drawn under the title.
	Subtitle string `json:"subtitle,omitempty"`

	Domain  []float64 `json:"domain,omitempty"`
	Series  []Series  `json:"series"`
	Markers []Marker  `json:"markers,omitempty"`

	Heatmap    *HeatmapData `json:"heatmap,omitempty"`
	Trajectory *Trajectory  `json:"trajectory,omitempty"`

	// Brush enables range selection along the domain.
	Brush bool `json:"brush,omitempty"`
	// Compact hides axes and legend for small multiples.
	Compact bool `json:"compact,omitempty"`
}

// Empty reports whether the spec draws nothing.
func (s Spec) Empty() bool {
	switch s.Kind {
	case KindHeatmap:
		return s.Heatmap == nil || len(s.Heatmap.Cells) == 0
	case KindLine3D:
		return s.Trajectory == nil || len(s.Trajectory.Points) == 0
	}
	return len(s.Series) == 0
}

// Series is one named line.
type Series struct {
	Name   string       `json:"name"`
	Color  string       `json:"color,omitempty"`
	Values []float64    `json:"values,omitempty"`
	Points [][2]float64 `json:"points,omitempty"`
	Smooth bool         `json:"smooth,omitempty"`
	Area   bool         `json:"area,omitempty"`
}

// Marker is a dashed vertical line at a domain value.
type Marker struct {
	X     float64 `json:"x"`
	Color string  `json:"color,omitempty"`
	Label bool    `json:"label,omitempty"`
}

// HeatmapData is the grid of a KindHeatmap spec.
type HeatmapData struct {
	XLabels []float64           `json:"xLabels"`
	YLabels []float64           `json:"yLabels"`
	Cells   []analysis.GridCell `json:"cells"`
	Min     float64             `json:"min"`
	Max     float64             `json:"max"`
}

// Trajectory is the polyline of a KindLine3D spec.
type Trajectory struct {
	Color  string       `json:"color,omitempty"`
	Points [][3]float64 `json:"points"`
}

// Context is the read-only view of orchestrator state a compositor needs.
type Context struct {
	// Files is the selection in order. More than one file means
	// comparison mode.
	Files       []string
	Single      analysis.Result
	Multi       analysis.MultiResult
	CompareAxis analysis.Axis
	FilterMode  bool
	// FilterKPI holds the band-stop indicators per axis of the held
	// filter result.
	FilterKPI map[analysis.Axis]map[string]any

	// StitchMaxPoints is the configured stitch cap used when a definition
	// sets none.
	StitchMaxPoints int
}

// Comparison reports whether more than one file is selected.
func (c Context) Comparison() bool {
	return len(c.Files) > 1
}

// axis returns the comparison axis, defaulting to X.
func (c Context) axis() analysis.Axis {
	if c.CompareAxis.Valid() {
		return c.CompareAxis
	}
	return analysis.AxisX
}
