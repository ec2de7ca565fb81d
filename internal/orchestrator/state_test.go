package orchestrator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/sigscope/internal/analysis"
	"github.com/dusk-indust/sigscope/internal/analysis/analysistest"
	"github.com/dusk-indust/sigscope/internal/brush"
)

func TestBuildTasks(t *testing.T) {
	tools := []ToolState{
		{ID: analysis.ToolTimeDomain, Enabled: true, Params: map[string]any{"window": 1024}},
		{ID: "PSDProcessor", Enabled: false},
		{ID: analysis.ToolSpectrum, Enabled: true},
	}

	tasks := BuildTasks(tools, nil)
	require.Len(t, tasks, 2)
	assert.Equal(t, analysis.ToolTimeDomain, tasks[0].ToolID)
	assert.Equal(t, analysis.ToolSpectrum, tasks[1].ToolID)

	// Task parameters are copies.
	tasks[0].Params["window"] = 1
	assert.Equal(t, 1024, tools[0].Params["window"])

	tasks = BuildTasks(tools, &brush.Range{Min: 45, Max: 55})
	require.Len(t, tasks, 3)
	last := tasks[2]
	assert.Equal(t, analysis.ToolBandStop, last.ToolID)
	assert.Equal(t, map[string]any{"low_freq": 45.0, "high_freq": 55.0, "order": BandStopOrder}, last.Params)
}

func TestBuildTasks_NoTools(t *testing.T) {
	assert.Empty(t, BuildTasks(nil, nil))
}

func TestFilterResult(t *testing.T) {
	res := analysis.Result{
		analysis.AxisX: {analysistest.Series(analysis.ToolBandStop, "data", []float64{0}, []float64{1})},
		analysis.AxisY: {analysistest.Failed(analysis.ToolBandStop, "unstable filter")},
		analysis.AxisZ: {analysistest.Series(analysis.ToolTimeDomain, "data", []float64{0}, []float64{1})},
	}
	got := FilterResult(res)
	require.Len(t, got, 1)
	assert.Contains(t, got, analysis.AxisX)

	assert.Nil(t, FilterResult(analysis.Result{analysis.AxisZ: res[analysis.AxisZ]}))
	assert.Nil(t, FilterResult(nil))
}

func TestDedupe(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, dedupe([]string{"a", "", "b", "a"}))
	assert.Empty(t, dedupe(nil))
}

func TestFilterKPI(t *testing.T) {
	assert.Nil(t, FilterKPI(nil))

	kpi := map[string]any{"rms": 0.5}
	outputs := map[analysis.Axis]analysis.ToolOutput{
		analysis.AxisX: {ToolID: analysis.ToolBandStop, KPI: kpi},
		analysis.AxisY: {ToolID: analysis.ToolBandStop},
	}
	got := FilterKPI(outputs)
	assert.Equal(t, map[analysis.Axis]map[string]any{analysis.AxisX: {"rms": 0.5}}, got)

	got[analysis.AxisX]["rms"] = 1.0
	assert.Equal(t, 0.5, kpi["rms"], "indicators are copied")

	assert.Nil(t, FilterKPI(map[analysis.Axis]analysis.ToolOutput{analysis.AxisZ: {}}))
}
