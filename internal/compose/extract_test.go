package compose

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/sigscope/internal/analysis"
	"github.com/dusk-indust/sigscope/internal/analysis/analysistest"
)

func TestExtract_Totality(t *testing.T) {
	series := analysistest.Series("T", "data", []float64{1, 2}, []float64{3, 4})
	envelope := analysis.ToolOutput{ToolID: "Env", Payloads: map[string]analysis.Payload{
		"time_data": analysis.CoordinateSeries{X: []float64{0}, Y: []float64{1}},
	}}
	grid := analysis.ToolOutput{ToolID: "G", Payloads: map[string]analysis.Payload{
		"data": analysis.Grid2D{},
	}}
	failed := analysistest.Failed("T", "boom")
	failedWithData := series
	failedWithData.Err = "partial"

	outputs := map[string]*analysis.ToolOutput{
		"nil":              nil,
		"zero":             {},
		"series":           &series,
		"envelope":         &envelope,
		"grid":             &grid,
		"failed":           &failed,
		"failed with data": &failedWithData,
	}
	keys := []string{"", "data", "time_data", "freq_data", "missing"}

	for name, out := range outputs {
		for _, key := range keys {
			assert.NotPanics(t, func() {
				_, _ = Extract(out, key)
				_, _ = ExtractGrid(out, key)
				_, _ = ExtractSpectrum(out)
				_, _ = ExtractModes(out)
			}, "%s/%s", name, key)
		}
	}
}

func TestExtract(t *testing.T) {
	series := analysistest.Series("T", "data", []float64{1, 2}, []float64{3, 4})

	s, ok := Extract(&series, "data")
	require.True(t, ok)
	assert.Equal(t, []float64{3, 4}, s.Y)

	s, ok = Extract(&series, "")
	require.True(t, ok, "empty key falls back to data")
	assert.Equal(t, 2, s.Len())

	_, ok = Extract(&series, "freq_data")
	assert.True(t, ok, "missing key falls back to data")

	failed := series
	failed.Err = "boom"
	_, ok = Extract(&failed, "data")
	assert.False(t, ok, "errored output never yields a series")

	_, ok = Extract(nil, "data")
	assert.False(t, ok)

	grid := analysis.ToolOutput{Payloads: map[string]analysis.Payload{"data": analysis.Grid2D{}}}
	_, ok = Extract(&grid, "data")
	assert.False(t, ok, "a grid is not a coordinate series")
	_, ok = ExtractGrid(&grid, "")
	assert.True(t, ok)
}

func TestExtract_PrefersSubKey(t *testing.T) {
	out := analysis.ToolOutput{Payloads: map[string]analysis.Payload{
		"data":      analysis.CoordinateSeries{X: []float64{1}, Y: []float64{1}},
		"time_data": analysis.CoordinateSeries{X: []float64{2}, Y: []float64{2}},
	}}
	s, ok := Extract(&out, "time_data")
	require.True(t, ok)
	assert.Equal(t, []float64{2}, s.X)
}

func TestExtractDecomposition(t *testing.T) {
	out := analysis.ToolOutput{ToolID: analysis.ToolEWT, Payloads: map[string]analysis.Payload{
		"spectrum_data": analysis.SpectrumDescriptor{Freqs: []float64{1}},
		"modes":         analysis.ModeSet{Modes: []analysis.Mode{{Name: "m"}}},
	}}
	spec, ok := ExtractSpectrum(&out)
	require.True(t, ok)
	assert.Equal(t, []float64{1}, spec.Freqs)
	modes, ok := ExtractModes(&out)
	require.True(t, ok)
	assert.Len(t, modes.Modes, 1)

	out.Err = "x"
	_, ok = ExtractSpectrum(&out)
	assert.False(t, ok)
}
