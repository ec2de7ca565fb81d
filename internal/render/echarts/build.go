// Package echarts draws chart specs as interactive HTML documents with
// go-echarts.
package echarts

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/event"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"

	"github.com/dusk-indust/sigscope/internal/compose"
	"github.com/dusk-indust/sigscope/internal/render"
)

// Size is the pixel size of a surface.
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// DefaultSize is used for surfaces that never reported a size.
var DefaultSize = Size{Width: 900, Height: 360}

// compactSize is used for small-multiple panels.
var compactSize = Size{Width: 900, Height: 160}

func (s Size) px() (string, string) {
	return strconv.Itoa(s.Width) + "px", strconv.Itoa(s.Height) + "px"
}

var heatmapColors = []string{
	"#313695", "#4575b4", "#74add1", "#abd9e9", "#e0f3f8",
	"#ffffbf", "#fee090", "#fdae61", "#f46d43", "#d73027", "#a50026",
}

// chartID turns a surface id into a JS identifier usable by the chart
// template.
func chartID(surfaceID string) string {
	var b strings.Builder
	b.WriteString("s_")
	for _, r := range surfaceID {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

// Chart is a built chart that can be rendered alone or added to a page.
type Chart interface {
	components.Charter
	Render(w io.Writer) error
}

// Build translates spec into a go-echarts chart bound to surfaceID.
// selectURL, when non-empty and the spec allows brushing, receives finished
// range selections as JSON.
func Build(surfaceID string, spec compose.Spec, size Size, selectURL string) (Chart, error) {
	if size.Width <= 0 || size.Height <= 0 {
		size = DefaultSize
		if spec.Compact {
			size = compactSize
		}
	}
	w, h := size.px()
	init := opts.Initialization{
		Width:     w,
		Height:    h,
		ChartID:   chartID(surfaceID),
		PageTitle: spec.Title,
	}
	title := opts.Title{Title: spec.Title, Subtitle: spec.Subtitle}
	if spec.Empty() {
		title.Subtitle = "no data"
	}

	switch spec.Kind {
	case compose.KindLine, compose.KindXY:
		return buildLine(spec, init, title, selectURL), nil
	case compose.KindHeatmap:
		return buildHeatmap(spec, init, title), nil
	case compose.KindLine3D:
		return buildLine3D(spec, init, title), nil
	default:
		return nil, fmt.Errorf("echarts: %q: %w", spec.Kind, render.ErrUnsupportedKind)
	}
}

func buildLine(spec compose.Spec, init opts.Initialization, title opts.Title, selectURL string) *charts.Line {
	line := charts.NewLine()
	global := []charts.GlobalOpts{
		charts.WithInitializationOpts(init),
		charts.WithTitleOpts(title),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithYAxisOpts(opts.YAxis{Name: spec.YName, Type: "value", Scale: opts.Bool(true)}),
		charts.WithAnimation(false),
	}

	xAxis := opts.XAxis{Name: spec.XName, Type: "category"}
	if spec.Kind == compose.KindXY {
		xAxis.Type = "value"
		xAxis.Scale = opts.Bool(true)
	}
	global = append(global, charts.WithXAxisOpts(xAxis))

	if spec.Compact {
		global = append(global,
			charts.WithLegendOpts(opts.Legend{Show: opts.Bool(false)}),
			charts.WithGridOpts(opts.Grid{Left: "40", Right: "10", Top: "30", Bottom: "20", ContainLabel: opts.Bool(true)}),
		)
	} else {
		global = append(global,
			charts.WithLegendOpts(opts.Legend{Show: opts.Bool(len(spec.Series) > 1), Type: "scroll", Top: "bottom"}),
			charts.WithDataZoomOpts(opts.DataZoom{Type: "inside"}),
		)
	}

	if spec.Brush {
		global = append(global,
			charts.WithBrush(opts.Brush{XAxisIndex: "all"}),
			charts.WithToolboxOpts(opts.Toolbox{
				Show: opts.Bool(true),
				Feature: &opts.ToolBoxFeature{
					Brush: &opts.ToolBoxFeatureBrush{Type: []string{"lineX", "clear"}},
				},
			}),
		)
		if selectURL != "" {
			global = append(global, charts.WithEventListeners(event.Listener{
				EventName: "brushEnd",
				Handler:   types.FuncStr(brushEndJS(selectURL)),
			}))
		}
	}
	line.SetGlobalOptions(global...)

	if spec.Kind == compose.KindLine {
		line.SetXAxis(formatDomain(spec.Domain))
	}

	for i, s := range spec.Series {
		seriesOpts := []charts.SeriesOpts{
			charts.WithLineChartOpts(opts.LineChart{
				ShowSymbol: opts.Bool(false),
				Smooth:     opts.Bool(s.Smooth),
			}),
			charts.WithLineStyleOpts(opts.LineStyle{Color: s.Color, Width: 1}),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: s.Color}),
		}
		if s.Area {
			seriesOpts = append(seriesOpts, charts.WithAreaStyleOpts(opts.AreaStyle{Opacity: opts.Float(0.3)}))
		}
		if i == 0 && len(spec.Markers) > 0 {
			seriesOpts = append(seriesOpts, markerOpts(spec)...)
		}
		line.AddSeries(s.Name, seriesData(spec.Kind, s), seriesOpts...)
	}
	return line
}

func seriesData(kind compose.Kind, s compose.Series) []opts.LineData {
	if kind == compose.KindXY {
		data := make([]opts.LineData, len(s.Points))
		for i, p := range s.Points {
			data[i] = opts.LineData{Value: []float64{p[0], p[1]}}
		}
		return data
	}
	data := make([]opts.LineData, len(s.Values))
	for i, v := range s.Values {
		data[i] = opts.LineData{Value: v}
	}
	return data
}

// markerOpts draws the spec's markers as dashed vertical mark lines on the
// first series. On a category domain a marker is placed at the nearest
// domain index; markers past the domain are dropped.
func markerOpts(spec compose.Spec) []charts.SeriesOpts {
	var items []opts.MarkLineNameXAxisItem
	showLabel := false
	for _, m := range spec.Markers {
		var x interface{} = m.X
		if spec.Kind == compose.KindLine {
			i, ok := nearestIndex(spec.Domain, m.X)
			if !ok {
				continue
			}
			x = i
		}
		name := ""
		if m.Label {
			name = strconv.FormatFloat(m.X, 'f', 1, 64)
			showLabel = true
		}
		items = append(items, opts.MarkLineNameXAxisItem{Name: name, XAxis: x})
	}
	if len(items) == 0 {
		return nil
	}

	color := spec.Markers[0].Color
	return []charts.SeriesOpts{
		charts.WithMarkLineNameXAxisItemOpts(items...),
		charts.WithMarkLineStyleOpts(opts.MarkLineStyle{
			Symbol:    []string{"none", "none"},
			Label:     &opts.Label{Show: opts.Bool(showLabel)},
			LineStyle: &opts.LineStyle{Color: color, Type: "dashed", Width: 1},
		}),
	}
}

// nearestIndex returns the index of the domain value closest to x. domain
// must be ascending.
func nearestIndex(domain []float64, x float64) (int, bool) {
	n := len(domain)
	if n == 0 || x < domain[0] || x > domain[n-1] {
		return 0, false
	}
	i := sort.SearchFloat64s(domain, x)
	if i == n {
		return n - 1, true
	}
	if i > 0 && x-domain[i-1] < domain[i]-x {
		return i - 1, true
	}
	return i, true
}

func formatDomain(domain []float64) []string {
	out := make([]string, len(domain))
	for i, v := range domain {
		out[i] = strconv.FormatFloat(v, 'g', 6, 64)
	}
	return out
}

func buildHeatmap(spec compose.Spec, init opts.Initialization, title opts.Title) *charts.HeatMap {
	hm := charts.NewHeatMap()
	hm.SetGlobalOptions(
		charts.WithInitializationOpts(init),
		charts.WithTitleOpts(title),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithAnimation(false),
		charts.WithXAxisOpts(opts.XAxis{Name: spec.XName, Type: "category"}),
	)

	data := spec.Heatmap
	if data == nil {
		data = &compose.HeatmapData{Min: compose.HeatmapMin, Max: compose.HeatmapMax}
	}
	hm.SetGlobalOptions(
		charts.WithYAxisOpts(opts.YAxis{Name: spec.YName, Type: "category", Data: formatDomain(data.YLabels)}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Calculable: opts.Bool(true),
			InRange:    &opts.VisualMapInRange{Color: heatmapColors},
		}),
	)
	hm.SetXAxis(formatDomain(data.XLabels))

	cells := make([]opts.HeatMapData, len(data.Cells))
	for i, c := range data.Cells {
		cells[i] = opts.HeatMapData{Value: [3]interface{}{c.X, c.Y, c.Value}}
	}
	hm.AddSeries(spec.Title, cells)

	// Zero bounds are dropped by the option encoder.
	hm.AddJSFuncStrs(types.FuncStr(fmt.Sprintf(
		"%%MY_ECHARTS%%.setOption({visualMap: [{min: %s, max: %s}]});",
		jsNumber(data.Min), jsNumber(data.Max))))
	return hm
}

func buildLine3D(spec compose.Spec, init opts.Initialization, title opts.Title) *charts.Line3D {
	l3 := charts.NewLine3D()
	l3.SetGlobalOptions(
		charts.WithInitializationOpts(init),
		charts.WithTitleOpts(title),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxis3DOpts(opts.XAxis3D{Name: "X", Type: "value"}),
		charts.WithYAxis3DOpts(opts.YAxis3D{Name: "Y", Type: "value"}),
		charts.WithZAxis3DOpts(opts.ZAxis3D{Name: "Z", Type: "value"}),
		charts.WithGrid3DOpts(opts.Grid3D{
			BoxWidth:  100,
			BoxHeight: 100,
			BoxDepth:  100,
			ViewControl: &opts.ViewControl{
				AutoRotate:      opts.Bool(true),
				AutoRotateSpeed: 10,
			},
		}),
	)

	if spec.Trajectory == nil {
		return l3
	}
	data := make([]opts.Chart3DData, len(spec.Trajectory.Points))
	for i, p := range spec.Trajectory.Points {
		data[i] = opts.Chart3DData{Value: []interface{}{p[0], p[1], p[2]}}
	}
	l3.AddSeries("trajectory", data,
		charts.WithLineStyleOpts(opts.LineStyle{Color: spec.Trajectory.Color, Width: 2}),
	)
	return l3
}

func jsNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// brushEndJS posts the first finished area to url and clears the visual
// selection when the server consumed it.
func brushEndJS(url string) string {
	return `function (params) {
	const areas = (params.areas || []).map(function (a) { return a.coordRange; });
	fetch(` + strconv.Quote(url) + `, {
		method: "POST",
		headers: {"Content-Type": "application/json"},
		body: JSON.stringify({areas: areas})
	}).then(function (r) { return r.json(); }).then(function (res) {
		if (res.cleared) {
			%MY_ECHARTS%.dispatchAction({type: "brush", areas: []});
		}
	});
}`
}
