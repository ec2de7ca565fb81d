package compose

import (
	"fmt"

	"github.com/dusk-indust/sigscope/internal/analysis"
	"github.com/dusk-indust/sigscope/internal/chartdef"
)

// TrajectoryCap bounds the number of 3D points drawn.
const TrajectoryCap = 500

// Heatmap colour scale bounds in dB.
const (
	HeatmapMin = -100.0
	HeatmapMax = 0.0
)

// HeatmapAxis is the single axis a spectrogram is drawn for.
const HeatmapAxis = analysis.AxisX

const (
	trajectoryColor = "#fa8c16"
	modeColor       = "#722ed1"
	boundaryColor   = "#ff0000"
)

// Trajectory3D pairs the value sequences of the definition's tool on X, Y and
// Z into 3D points. It draws nothing unless all three axes are present.
func Trajectory3D(def chartdef.Definition, ctx Context) Spec {
	spec := Spec{Kind: KindLine3D, Title: def.Title, XName: "X", YName: "Y"}

	var values [3][]float64
	for i, axis := range analysis.Axes {
		s, ok := Extract(ctx.Single.Find(axis, def.ToolID), def.PayloadKey())
		if !ok {
			return spec
		}
		values[i] = s.Y
	}

	n := min(len(values[0]), len(values[1]), len(values[2]), TrajectoryCap)
	points := make([][3]float64, n)
	for i := range points {
		points[i] = [3]float64{values[0][i], values[1][i], values[2][i]}
	}
	color := def.Color
	if color == "" {
		color = trajectoryColor
	}
	spec.Trajectory = &Trajectory{Color: color, Points: points}
	return spec
}

// Heatmap draws the definition's grid on the X axis of the single selected
// file. An absent grid draws nothing.
func Heatmap(def chartdef.Definition, ctx Context) Spec {
	spec := Spec{Kind: KindHeatmap, Title: def.Title, XName: "Time", YName: "Freq"}

	grid, ok := ExtractGrid(ctx.Single.Find(HeatmapAxis, def.ToolID), def.PayloadKey())
	if !ok {
		return spec
	}
	spec.Heatmap = &HeatmapData{
		XLabels: grid.XLabels,
		YLabels: grid.YLabels,
		Cells:   grid.Cells,
		Min:     HeatmapMin,
		Max:     HeatmapMax,
	}
	return spec
}

// Panel is one chart of the decomposition view bound to its own surface.
type Panel struct {
	SurfaceID string `json:"surfaceId"`
	Spec      Spec   `json:"spec"`
}

// SpectrumSurfaceID names the surface of the band-split spectrum of axis.
func SpectrumSurfaceID(axis analysis.Axis) string {
	return "ewt-spectrum-" + string(axis)
}

// ModeSurfaceID names the surface of mode i of axis.
func ModeSurfaceID(axis analysis.Axis, i int) string {
	return fmt.Sprintf("ewt-mode-%s-%d", axis, i)
}

// ModalPanels builds the decomposition view of axis: a spectrum panel with
// the band boundaries marked, followed by one panel per mode. An axis without
// decomposition output yields no panels.
func ModalPanels(axis analysis.Axis, res analysis.Result) []Panel {
	out := res.Find(axis, analysis.ToolEWT)
	spectrum, ok := ExtractSpectrum(out)
	if !ok {
		return nil
	}

	specPanel := Spec{
		Kind:  KindXY,
		Title: "Spectrum bands",
		XName: "Hz",
		Series: []Series{{
			Name:   "spectrum",
			Points: zip(spectrum.Freqs, spectrum.Amp),
			Area:   true,
		}},
	}
	for _, b := range spectrum.Boundaries {
		specPanel.Markers = append(specPanel.Markers, Marker{X: b, Color: boundaryColor, Label: true})
	}
	panels := []Panel{{SurfaceID: SpectrumSurfaceID(axis), Spec: specPanel}}

	modes, _ := ExtractModes(out)
	for i, m := range modes.Modes {
		panels = append(panels, Panel{
			SurfaceID: ModeSurfaceID(axis, i),
			Spec: Spec{
				Kind:    KindXY,
				Title:   m.Name,
				Compact: true,
				Series: []Series{{
					Name:   m.Name,
					Color:  modeColor,
					Points: zip(m.X, m.Y),
				}},
			},
		})
	}
	return panels
}

func zip(x, y []float64) [][2]float64 {
	n := min(len(x), len(y))
	out := make([][2]float64, n)
	for i := range out {
		out[i] = [2]float64{x[i], y[i]}
	}
	return out
}
