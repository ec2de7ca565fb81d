package compose

import (
	"github.com/dusk-indust/sigscope/internal/analysis"
	"github.com/dusk-indust/sigscope/internal/brush"
	"github.com/dusk-indust/sigscope/internal/chartdef"
)

// AxisColors are the fixed per-axis colours of single-file overlays.
var AxisColors = map[analysis.Axis]string{
	analysis.AxisX: "#ff4d4f",
	analysis.AxisY: "#52c41a",
	analysis.AxisZ: "#1890ff",
}

// Palette colours comparison series by selection index.
var Palette = []string{
	"#1890ff", "#fa8c16", "#52c41a", "#eb2f96",
	"#722ed1", "#13c2c2", "#fadb14", "#f5222d",
}

// AxisSeriesName names the overlay series of one axis.
func AxisSeriesName(a analysis.Axis) string {
	return string(a) + " axis"
}

// Line composes the generic 2D chart: a stitched view in comparison mode for
// stitched definitions, an overlay otherwise.
func Line(def chartdef.Definition, ctx Context) Spec {
	if def.Stitched && ctx.Comparison() {
		return Stitch(def, ctx)
	}
	return Overlay(def, ctx)
}

// Overlay draws one series per axis of the single selected file, or one
// series per selected file on the comparison axis. The first contributing
// series supplies the shared domain. Missing, errored or empty records are
// skipped.
func Overlay(def chartdef.Definition, ctx Context) Spec {
	spec := Spec{
		Kind:  KindLine,
		Title: def.Title,
		Brush: brush.Enabled(def, ctx.Comparison(), ctx.FilterMode),
	}

	add := func(s analysis.CoordinateSeries, name, color string, smooth bool) {
		n := s.Len()
		if n == 0 {
			return
		}
		if len(spec.Domain) == 0 {
			spec.Domain = s.X[:n]
		}
		spec.Series = append(spec.Series, Series{
			Name:   name,
			Color:  color,
			Values: s.Y[:n],
			Smooth: smooth,
		})
	}

	if ctx.Comparison() {
		axis := ctx.axis()
		for i, file := range ctx.Files {
			res, ok := ctx.Multi.Lookup(file)
			if !ok {
				continue
			}
			s, ok := Extract(res.Find(axis, def.ToolID), def.PayloadKey())
			if !ok {
				continue
			}
			add(s, analysis.ShortName(file), Palette[i%len(Palette)], true)
		}
		return spec
	}

	for _, axis := range analysis.Axes {
		s, ok := Extract(ctx.Single.Find(axis, def.ToolID), def.PayloadKey())
		if !ok {
			continue
		}
		add(s, AxisSeriesName(axis), AxisColors[axis], false)
	}
	return spec
}
