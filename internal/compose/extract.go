package compose

import "github.com/dusk-indust/sigscope/internal/analysis"

// payload returns the sub-payload named subKey, falling back to the default
// key when subKey is empty or absent.
func payload(out *analysis.ToolOutput, subKey string) analysis.Payload {
	if out == nil || out.Failed() {
		return nil
	}
	if subKey != "" {
		if p := out.Payload(subKey); p != nil {
			return p
		}
	}
	return out.Payload(analysis.DefaultPayloadKey)
}

// Extract returns the coordinate series stored under subKey. It reports
// false for a nil or errored output, a missing payload or a payload of
// another shape.
func Extract(out *analysis.ToolOutput, subKey string) (analysis.CoordinateSeries, bool) {
	switch p := payload(out, subKey).(type) {
	case analysis.CoordinateSeries:
		return p, true
	default:
		return analysis.CoordinateSeries{}, false
	}
}

// ExtractGrid is Extract for heatmap grids.
func ExtractGrid(out *analysis.ToolOutput, subKey string) (analysis.Grid2D, bool) {
	switch p := payload(out, subKey).(type) {
	case analysis.Grid2D:
		return p, true
	default:
		return analysis.Grid2D{}, false
	}
}

// ExtractSpectrum returns the spectrum descriptor of a decomposition output.
func ExtractSpectrum(out *analysis.ToolOutput) (analysis.SpectrumDescriptor, bool) {
	if out == nil || out.Failed() {
		return analysis.SpectrumDescriptor{}, false
	}
	switch p := out.Payload("spectrum_data").(type) {
	case analysis.SpectrumDescriptor:
		return p, true
	default:
		return analysis.SpectrumDescriptor{}, false
	}
}

// ExtractModes returns the decomposed modes of a decomposition output.
func ExtractModes(out *analysis.ToolOutput) (analysis.ModeSet, bool) {
	if out == nil || out.Failed() {
		return analysis.ModeSet{}, false
	}
	switch p := out.Payload("modes").(type) {
	case analysis.ModeSet:
		return p, true
	default:
		return analysis.ModeSet{}, false
	}
}
