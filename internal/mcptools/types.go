package mcptools

import (
	"github.com/dusk-indust/sigscope/internal/orchestrator"
)

// --- MCP tool types for serve-mcp ---
// Every intent tool waits for the request it issues to be applied and
// returns the resulting state.

// SelectFilesInput is the input for the select_files MCP tool.
type SelectFilesInput struct {
	Files []string `json:"files" jsonschema:"file ids to analyze; more than one selects comparison mode, empty clears the selection"`
}

// SetParamInput is the input for the set_param MCP tool.
type SetParamInput struct {
	Tool  string `json:"tool" jsonschema:"tool id, e.g. SpectrumAnalyzer"`
	Name  string `json:"name" jsonschema:"parameter name"`
	Value any    `json:"value" jsonschema:"new parameter value"`
	Apply bool   `json:"apply,omitempty" jsonschema:"issue the request now instead of after the debounce period"`
}

// SetToolEnabledInput is the input for the set_tool_enabled MCP tool.
type SetToolEnabledInput struct {
	Tool    string `json:"tool" jsonschema:"tool id"`
	Enabled bool   `json:"enabled" jsonschema:"whether the tool is requested"`
	Apply   bool   `json:"apply,omitempty" jsonschema:"issue the request now instead of after the debounce period"`
}

// SetFilterModeInput is the input for the set_filter_mode MCP tool.
type SetFilterModeInput struct {
	On   bool     `json:"on" jsonschema:"turn band-stop filter mode on or off"`
	Low  *float64 `json:"low,omitempty" jsonschema:"lower edge of the band to remove, in Hz"`
	High *float64 `json:"high,omitempty" jsonschema:"upper edge of the band to remove, in Hz"`
}

// SetCompareAxisInput is the input for the set_compare_axis MCP tool.
type SetCompareAxisInput struct {
	Axis string `json:"axis" jsonschema:"X, Y or Z"`
}

// RunDecompositionInput is the input for the run_decomposition MCP tool.
type RunDecompositionInput struct {
	Modes int    `json:"modes,omitempty" jsonschema:"number of modes (default 3)"`
	Axis  string `json:"axis,omitempty" jsonschema:"axis whose panels are shown (default X)"`
}

// GetStateInput is the input for the get_state MCP tool.
type GetStateInput struct{}

// StateOutput is the result of every intent tool.
type StateOutput struct {
	State orchestrator.Snapshot `json:"state"`
}

// DecompositionOutput is the result of the run_decomposition MCP tool.
type DecompositionOutput struct {
	Decomposition orchestrator.DecompositionState `json:"decomposition"`
	Panels        []string                        `json:"panels"`
}

// ExportChartsInput is the input for the export_charts MCP tool.
type ExportChartsInput struct{}

// ExportChartsOutput is the result of the export_charts MCP tool.
type ExportChartsOutput struct {
	Charts  []ChartSummary `json:"charts"`
	Summary string         `json:"summary"`
}

// ChartSummary is a brief overview of one composed chart.
type ChartSummary struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Kind   string `json:"kind"`
	Status string `json:"status"`
	Series int    `json:"series"`
}
