//go:build e2e

package e2e

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/sigscope/internal/analysis"
	"github.com/dusk-indust/sigscope/internal/export"
	"github.com/dusk-indust/sigscope/internal/orchestrator"
	"github.com/dusk-indust/sigscope/internal/render"
	"github.com/dusk-indust/sigscope/internal/render/echarts"
	"github.com/dusk-indust/sigscope/internal/render/snapshot"
	"github.com/dusk-indust/sigscope/internal/surfaceserver"
)

type stack struct {
	fake     *fakeAnalysisService
	orch     *orchestrator.Orchestrator
	disp     *render.Dispatcher
	surfaces *echarts.Surfaces
	outDir   string
}

// newStack wires the real HTTP client, orchestrator and HTML surfaces
// against the fake analysis service.
func newStack(t *testing.T) *stack {
	t.Helper()
	fake := &fakeAnalysisService{}
	ts := httptest.NewServer(fake.handler())
	t.Cleanup(ts.Close)

	outDir := t.TempDir()
	surfaces := echarts.NewSurfaces(
		echarts.WithOutputDir(outDir),
		echarts.WithSelectionEndpoint(surfaceserver.SelectionBase),
	)
	disp := render.NewDispatcher(surfaces)
	client := analysis.NewHTTPClient(ts.URL+"/api", analysis.WithTimeout(5*time.Second))

	orch, err := orchestrator.New(client, disp, orchestrator.WithClock(clockwork.NewFakeClock()))
	require.NoError(t, err)
	t.Cleanup(orch.Close)
	require.NoError(t, orch.LoadTools(context.Background()))

	return &stack{fake: fake, orch: orch, disp: disp, surfaces: surfaces, outDir: outDir}
}

func (s *stack) read(t *testing.T, surfaceID string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(s.outDir, surfaceID+".html"))
	require.NoError(t, err)
	return string(data)
}

func TestPipeline_E2E_SingleFile(t *testing.T) {
	s := newStack(t)

	snap := s.orch.Snapshot()
	require.Len(t, snap.Tools, 3, "hidden tools are not offered")

	require.NoError(t, s.orch.SelectFiles([]string{"/data/pump/run1.bin"}))
	s.orch.Wait()

	req := s.fake.last()
	assert.Equal(t, "/api/analyze", req.Path)
	assert.Equal(t, "/data/pump/run1.bin", req.FilePath)
	_, hasEWT := req.task("EWTProcessor")
	assert.False(t, hasEWT)

	snap = s.orch.Snapshot()
	assert.Empty(t, snap.LastError)
	assert.Equal(t, []string{"time", "freq", "stft", "orbit"}, snap.Charts)

	for _, id := range []string{"chart-time", "chart-freq", "chart-stft", "chart-orbit"} {
		assert.FileExists(t, filepath.Join(s.outDir, id+".html"))
	}
	assert.Contains(t, s.read(t, "chart-stft"), "visualMap")
	assert.Contains(t, s.read(t, "chart-orbit"), "echarts-gl")
	assert.NotContains(t, s.read(t, "chart-freq"), "brushEnd", "no brush outside filter mode")
}

func TestPipeline_E2E_BrushFilter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	s := newStack(t)
	srv := surfaceserver.New(s.surfaces, s.disp, surfaceserver.WithIntents(s.orch))
	web := httptest.NewServer(srv.Handler())
	t.Cleanup(web.Close)

	require.NoError(t, s.orch.SelectFiles([]string{"/data/pump/run1.bin"}))
	s.orch.Wait()
	require.NoError(t, s.orch.SetFilterMode(true))
	s.orch.Flush()
	s.orch.Wait()
	assert.Contains(t, s.read(t, "chart-freq"), "/surfaces/chart-freq/selection")

	resp, err := http.Post(web.URL+"/surfaces/chart-freq/selection", "application/json",
		strings.NewReader(`{"areas":[[1.4,2.6]]}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var res echarts.SelectResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
	assert.True(t, res.Handled)
	assert.True(t, res.Cleared)

	s.orch.Flush()
	s.orch.Wait()

	task, ok := s.fake.last().task("BandStopProcessor")
	require.True(t, ok)
	assert.Equal(t, 10.0, task.Params["low_freq"])
	assert.Equal(t, 30.0, task.Params["high_freq"])
	assert.Equal(t, 4.0, task.Params["order"])

	snap := s.orch.Snapshot()
	assert.Equal(t, []analysis.Axis{analysis.AxisX, analysis.AxisY, analysis.AxisZ}, snap.FilterAxes)
	assert.Equal(t, map[string]any{"attenuation_db": 20.0}, snap.FilterKPI[analysis.AxisX])
	assert.Equal(t, map[string]any{"attenuation_db": 60.0}, snap.FilterKPI[analysis.AxisZ])
	page := s.read(t, "chart-filtered_time")
	assert.Contains(t, page, "Band-stop Filtered")
	assert.Contains(t, page, "X: attenuation_db 20 | Y: attenuation_db 40 | Z: attenuation_db 60")
}

func TestPipeline_E2E_ComparisonExport(t *testing.T) {
	s := newStack(t)

	require.NoError(t, s.orch.SelectFiles([]string{"/data/pump/run1.bin", "/data/pump/run2.bin"}))
	s.orch.Wait()

	req := s.fake.last()
	assert.Equal(t, "/api/analyze/multi", req.Path)
	assert.Equal(t, "X", req.TargetAxis)

	defs, cctx := s.orch.RenderInput()
	doc := export.Build(defs, cctx, time.Now())
	assert.True(t, doc.Comparison)
	require.Len(t, doc.Charts, 2, "heatmap and 3d charts are hidden in comparison")
	for _, c := range doc.Charts {
		assert.Equal(t, export.StatusDrawn, c.Status, c.ID)
		assert.Len(t, c.Spec.Series, 2, c.ID)
	}

	requests := s.fake.count()
	require.NoError(t, s.orch.SetCompareAxis(analysis.AxisZ))
	assert.Equal(t, requests, s.fake.count(), "axis change is render-only")
	assert.Contains(t, s.read(t, "chart-time"), "run2.bin")
}

func TestPipeline_E2E_Decomposition(t *testing.T) {
	s := newStack(t)

	require.NoError(t, s.orch.SelectFiles([]string{"/data/pump/run1.bin"}))
	s.orch.Wait()
	require.NoError(t, s.orch.RunDecomposition(2))
	s.orch.Wait()

	task, ok := s.fake.last().task("EWTProcessor")
	require.True(t, ok)
	assert.Equal(t, 2.0, task.Params["num_modes"])

	for _, id := range []string{"ewt-spectrum-X", "ewt-mode-X-0", "ewt-mode-X-1"} {
		assert.FileExists(t, filepath.Join(s.outDir, id+".html"))
	}
	assert.Contains(t, s.read(t, "ewt-mode-X-1"), "Mode 2")
}

func TestPipeline_E2E_Snapshots(t *testing.T) {
	fake := &fakeAnalysisService{}
	ts := httptest.NewServer(fake.handler())
	t.Cleanup(ts.Close)

	outDir := t.TempDir()
	pngs := snapshot.New(snapshot.WithDir(outDir), snapshot.WithSize(640, 240))
	orch, err := orchestrator.New(analysis.NewHTTPClient(ts.URL+"/api"), render.NewDispatcher(pngs))
	require.NoError(t, err)
	t.Cleanup(orch.Close)
	require.NoError(t, orch.LoadTools(context.Background()))

	require.NoError(t, orch.SelectFiles([]string{"/data/pump/run1.bin"}))
	orch.Wait()

	for _, id := range []string{"chart-time", "chart-freq"} {
		assert.FileExists(t, filepath.Join(outDir, id+".png"))
	}
	assert.NoFileExists(t, filepath.Join(outDir, "chart-stft.png"), "heatmaps are not snapshotted")
}
