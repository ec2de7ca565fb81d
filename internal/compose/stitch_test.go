package compose

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/sigscope/internal/analysis"
	"github.com/dusk-indust/sigscope/internal/analysis/analysistest"
	"github.com/dusk-indust/sigscope/internal/chartdef"
)

func series(n int, step float64) analysis.CoordinateSeries {
	return analysis.CoordinateSeries{X: analysistest.Ramp(n, 0, step), Y: analysistest.Ramp(n, 1, 1)}
}

func TestStitchSeries_Basic(t *testing.T) {
	st := StitchSeries([]analysis.CoordinateSeries{
		{X: []float64{0, 1, 2}, Y: []float64{10, 11, 12}},
		{X: []float64{0, 1}, Y: []float64{20, 21}},
	}, 100)

	assert.Equal(t, 1, st.Stride)
	assert.Equal(t, 5, st.Total)
	assert.Equal(t, []float64{0, 1, 2, 3, 4}, st.X)
	assert.Equal(t, []float64{10, 11, 12, 20, 21}, st.Y)
	assert.Equal(t, []float64{3, 5}, st.Markers, "markers sit at the offset after each part")
}

func TestStitchSeries_SkipsEmpty(t *testing.T) {
	st := StitchSeries([]analysis.CoordinateSeries{
		{},
		{X: []float64{0, 1}, Y: nil},
		{X: []float64{0, 2}, Y: []float64{1, 1}},
	}, 0)
	assert.Equal(t, []float64{0, 2}, st.X)
	assert.Equal(t, []float64{4}, st.Markers)
}

func TestStitchSeries_NothingToStitch(t *testing.T) {
	st := StitchSeries(nil, 10)
	assert.Empty(t, st.X)
	assert.Empty(t, st.Markers)
	assert.Equal(t, 1, st.Stride)
}

// A single-sample part advances the offset by a constant step of 1. This is
// a known approximation for sparse or non-uniform parts, kept as is.
func TestStitchSeries_StepHeuristic(t *testing.T) {
	st := StitchSeries([]analysis.CoordinateSeries{
		{X: []float64{5}, Y: []float64{1}},
		{X: []float64{0, 0.5}, Y: []float64{2, 3}},
	}, 100)
	assert.Equal(t, []float64{5, 6, 6.5}, st.X)
	assert.Equal(t, []float64{6, 7}, st.Markers)

	// Non-uniform spacing: only the first gap is used as the step.
	st = StitchSeries([]analysis.CoordinateSeries{
		{X: []float64{0, 0.1, 5}, Y: []float64{1, 1, 1}},
		{X: []float64{0}, Y: []float64{2}},
	}, 100)
	assert.Equal(t, []float64{0, 0.1, 5, 5.1}, st.X)
}

func TestStitchSeries_LengthBound(t *testing.T) {
	cases := []struct {
		sizes     []int
		maxPoints int
	}{
		{[]int{10, 10}, 5},
		{[]int{7, 13, 1}, 4},
		{[]int{50000, 30000}, 20000},
		{[]int{3, 3, 3, 3, 3}, 2},
		{[]int{1}, 1},
	}
	for _, c := range cases {
		t.Run(fmt.Sprint(c.sizes, c.maxPoints), func(t *testing.T) {
			var parts []analysis.CoordinateSeries
			for _, n := range c.sizes {
				parts = append(parts, series(n, 0.01))
			}
			st := StitchSeries(parts, c.maxPoints)
			assert.LessOrEqual(t, len(st.X), c.maxPoints+len(c.sizes))
			assert.Equal(t, len(st.X), len(st.Y))
			assert.Len(t, st.Markers, len(c.sizes))
		})
	}
}

func TestStitchSeries_Monotonic(t *testing.T) {
	parts := []analysis.CoordinateSeries{series(100, 0.5), series(1, 1), series(37, 0.01), series(2, 3)}
	st := StitchSeries(parts, 20)
	require.NotEmpty(t, st.X)
	for i := 1; i < len(st.X); i++ {
		assert.GreaterOrEqual(t, st.X[i], st.X[i-1], "index %d", i)
	}
	for i := 1; i < len(st.Markers); i++ {
		assert.Greater(t, st.Markers[i], st.Markers[i-1])
	}
}

func TestStitchSeries_Idempotent(t *testing.T) {
	parts := []analysis.CoordinateSeries{series(40, 0.25), series(9, 1)}
	first := StitchSeries(parts, 10)
	second := StitchSeries(parts, 10)
	assert.Equal(t, first, second)
	assert.Equal(t, series(40, 0.25), parts[0], "inputs are not mutated")
}

func TestStitch_Spec(t *testing.T) {
	def := chartdef.Definition{ID: "stitched_view", Title: "Stitched", ToolID: analysis.ToolStitch, Stitched: true}
	multi := analysis.MultiResult{
		"a.bin": {Result: analysis.Result{analysis.AxisZ: {analysistest.Series(analysis.ToolStitch, "data", []float64{0, 1}, []float64{1, 2})}}},
		"b.bin": {Err: "missing"},
		"c.bin": {Result: analysis.Result{analysis.AxisZ: {analysistest.Series(analysis.ToolStitch, "data", []float64{0, 1}, []float64{3, 4})}}},
	}
	ctx := Context{Files: []string{"a.bin", "b.bin", "c.bin"}, Multi: multi, CompareAxis: analysis.AxisZ}

	spec := Stitch(def, ctx)
	require.Len(t, spec.Series, 1)
	assert.Equal(t, StitchedSeriesName, spec.Series[0].Name)
	assert.Equal(t, []float64{0, 1, 2, 3}, spec.Domain)
	assert.Equal(t, []float64{1, 2, 3, 4}, spec.Series[0].Values)
	require.Len(t, spec.Markers, 2)
	assert.Equal(t, 2.0, spec.Markers[0].X)
	assert.Equal(t, 4.0, spec.Markers[1].X)
}

func TestStitch_CapPrecedence(t *testing.T) {
	parts := analysis.Result{analysis.AxisX: {analysistest.Series(analysis.ToolStitch, "data", analysistest.Ramp(100, 0, 1), analysistest.Ramp(100, 0, 1))}}
	ctx := Context{
		Files:           []string{"a.bin", "b.bin"},
		Multi:           analysis.MultiResult{"a.bin": {Result: parts}, "b.bin": {Result: parts}},
		StitchMaxPoints: 50,
	}
	def := chartdef.Definition{ID: "s", ToolID: analysis.ToolStitch, Stitched: true}

	spec := Stitch(def, ctx)
	assert.Len(t, spec.Domain, 50, "configured cap gives stride 4")

	def.StitchMaxPoints = 200
	spec = Stitch(def, ctx)
	assert.Len(t, spec.Domain, 200, "definition cap wins")
}

func TestStitch_Empty(t *testing.T) {
	def := chartdef.Definition{ID: "s", ToolID: analysis.ToolStitch, Stitched: true}
	spec := Stitch(def, Context{Files: []string{"a", "b"}})
	assert.True(t, spec.Empty())
	assert.Empty(t, spec.Markers)
}
