package snapshot

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/sigscope/internal/analysis"
	"github.com/dusk-indust/sigscope/internal/chartdef"
	"github.com/dusk-indust/sigscope/internal/compose"
	"github.com/dusk-indust/sigscope/internal/render"
)

var pngMagic = []byte{0x89, 'P', 'N', 'G'}

func TestDraw_Line(t *testing.T) {
	spec := compose.Spec{
		Kind:   compose.KindLine,
		Title:  "Time Domain",
		Domain: []float64{0, 1, 2, 3},
		Series: []compose.Series{
			{Name: "X axis", Color: "#ff4d4f", Values: []float64{1, 3, 2, 4}},
			{Name: "Y axis", Color: "#52c41a", Values: []float64{0, 1, 0, 1}},
		},
		Markers: []compose.Marker{{X: 1.5, Color: "#cccccc"}, {X: 10}},
	}
	png, err := Draw(spec, 400, 200)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, pngMagic))
}

func TestDraw_XY(t *testing.T) {
	spec := compose.Spec{
		Kind:   compose.KindXY,
		Series: []compose.Series{{Name: "spectrum", Points: [][2]float64{{0, 1}, {5, 3}, {10, 2}}, Area: true, Color: "#722ed1"}},
	}
	png, err := Draw(spec, 400, 200)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, pngMagic))
}

func TestDraw_NothingToDraw(t *testing.T) {
	png, err := Draw(compose.Spec{Kind: compose.KindLine}, 400, 200)
	require.NoError(t, err)
	assert.Nil(t, png)

	single := compose.Spec{Kind: compose.KindLine, Domain: []float64{1}, Series: []compose.Series{{Values: []float64{2}}}}
	png, err = Draw(single, 400, 200)
	require.NoError(t, err)
	assert.Nil(t, png)
}

func TestDraw_Unsupported(t *testing.T) {
	_, err := Draw(compose.Spec{Kind: compose.KindHeatmap}, 400, 200)
	assert.ErrorIs(t, err, render.ErrUnsupportedKind)
	_, err = Draw(compose.Spec{Kind: compose.KindLine3D}, 400, 200)
	assert.ErrorIs(t, err, render.ErrUnsupportedKind)
}

func TestCapability_ThroughDispatcher(t *testing.T) {
	dir := t.TempDir()
	c := New(WithDir(dir), WithSize(320, 160))
	d := render.NewDispatcher(c)

	defs := []chartdef.Definition{
		{ID: "time", Title: "Time Domain", ToolID: analysis.ToolTimeDomain},
		{ID: "stft", Title: "Spectrogram", ToolID: analysis.ToolSTFT, Heatmap: true},
	}
	cctx := compose.Context{
		Files: []string{"a.bin"},
		Single: analysis.Result{analysis.AxisX: {{
			ToolID:   analysis.ToolTimeDomain,
			Payloads: map[string]analysis.Payload{"data": analysis.CoordinateSeries{X: []float64{0, 1, 2}, Y: []float64{1, 0, 2}}},
		}}},
	}

	handles, err := d.RenderAll(context.Background(), defs, cctx)
	require.NoError(t, err)
	require.Len(t, handles, 1, "heatmap is skipped")

	img, ok := c.Image("chart-time")
	require.True(t, ok)
	onDisk, err := os.ReadFile(filepath.Join(dir, "chart-time.png"))
	require.NoError(t, err)
	assert.Equal(t, img, onDisk)

	// A later empty render removes the stale file.
	_, err = d.Render(context.Background(), "chart-time", defs[0], compose.Context{})
	require.NoError(t, err)
	img, ok = c.Image("chart-time")
	assert.True(t, ok)
	assert.Nil(t, img)
	_, err = os.Stat(filepath.Join(dir, "chart-time.png"))
	assert.True(t, os.IsNotExist(err))

	require.NoError(t, d.DisposeAll())
	_, ok = c.Image("chart-time")
	assert.False(t, ok)
}
