package analysistest

import "github.com/dusk-indust/sigscope/internal/analysis"

// Series builds a successful tool output with one coordinate payload.
func Series(toolID, key string, x, y []float64) analysis.ToolOutput {
	return analysis.ToolOutput{
		ToolID:   toolID,
		Payloads: map[string]analysis.Payload{key: analysis.CoordinateSeries{X: x, Y: y}},
	}
}

// Failed builds an errored tool output.
func Failed(toolID, msg string) analysis.ToolOutput {
	return analysis.ToolOutput{ToolID: toolID, Err: msg}
}

// Ramp returns n evenly spaced values starting at start.
func Ramp(n int, start, step float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	return out
}

// Response wraps a Result into a single-file reply.
func Response(r analysis.Result) *analysis.Response {
	return &analysis.Response{Results: r}
}
