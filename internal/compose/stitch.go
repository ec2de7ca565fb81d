package compose

import (
	"github.com/dusk-indust/sigscope/internal/analysis"
	"github.com/dusk-indust/sigscope/internal/chartdef"
)

// DefaultStitchMaxPoints caps the stitched point count when neither the
// definition nor the configuration sets one.
const DefaultStitchMaxPoints = 20000

// StitchedSeriesName names the single series of a stitched chart.
const StitchedSeriesName = "stitched view"

const (
	stitchColor = "#ff4d4f"
	markerColor = "#cccccc"
)

// Stitched is the concatenation of several series on one re-based domain.
type Stitched struct {
	X       []float64
	Y       []float64
	Markers []float64
	Stride  int
	Total   int
}

// StitchSeries concatenates parts end to end. Each part's domain is shifted
// by a running offset; after a part the offset advances by the part's last
// domain value plus an estimated step (the first sample spacing, or 1 for a
// single sample) and a marker is recorded at the new offset. Every part is
// decimated by a common stride so that at most maxPoints plus one point per
// part are emitted. Empty parts are skipped.
func StitchSeries(parts []analysis.CoordinateSeries, maxPoints int) Stitched {
	if maxPoints <= 0 {
		maxPoints = DefaultStitchMaxPoints
	}

	total := 0
	for _, p := range parts {
		total += p.Len()
	}
	stride := max(1, (total+maxPoints-1)/maxPoints)

	out := Stitched{Stride: stride, Total: total}
	if total == 0 {
		return out
	}
	out.X = make([]float64, 0, total/stride+len(parts))
	out.Y = make([]float64, 0, total/stride+len(parts))

	offset := 0.0
	for _, p := range parts {
		n := p.Len()
		if n == 0 {
			continue
		}
		for i := 0; i < n; i += stride {
			out.X = append(out.X, p.X[i]+offset)
			out.Y = append(out.Y, p.Y[i])
		}

		step := 1.0
		if n >= 2 {
			step = p.X[1] - p.X[0]
		}
		offset = offset + p.X[n-1] + step
		out.Markers = append(out.Markers, offset)
	}
	return out
}

// Stitch composes the stitched view of the comparison axis across the
// selected files, in selection order.
func Stitch(def chartdef.Definition, ctx Context) Spec {
	maxPoints := def.StitchMaxPoints
	if maxPoints <= 0 {
		maxPoints = ctx.StitchMaxPoints
	}

	axis := ctx.axis()
	var parts []analysis.CoordinateSeries
	for _, file := range ctx.Files {
		res, ok := ctx.Multi.Lookup(file)
		if !ok {
			continue
		}
		s, ok := Extract(res.Find(axis, def.ToolID), def.PayloadKey())
		if !ok || s.Empty() {
			continue
		}
		parts = append(parts, s)
	}

	spec := Spec{Kind: KindLine, Title: def.Title}
	st := StitchSeries(parts, maxPoints)
	if len(st.X) == 0 {
		return spec
	}

	spec.Domain = st.X
	spec.Series = []Series{{
		Name:   StitchedSeriesName,
		Color:  stitchColor,
		Values: st.Y,
		Smooth: true,
	}}
	for _, m := range st.Markers {
		spec.Markers = append(spec.Markers, Marker{X: m, Color: markerColor})
	}
	return spec
}
