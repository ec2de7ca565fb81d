package analysis

import "strings"

// Axis identifies one of the three measurement channels of a recording.
type Axis string

const (
	AxisX Axis = "X"
	AxisY Axis = "Y"
	AxisZ Axis = "Z"
)

// Axes lists the channels in display order.
var Axes = [3]Axis{AxisX, AxisY, AxisZ}

// Valid reports whether a is one of the three fixed axes.
func (a Axis) Valid() bool {
	switch a {
	case AxisX, AxisY, AxisZ:
		return true
	}
	return false
}

// Well-known tool identifiers referenced by the compositors and the
// orchestrator. Other tools are opaque strings supplied by the service.
const (
	ToolTimeDomain = "TimeDomainStats"
	ToolSpectrum   = "SpectrumAnalyzer"
	ToolSTFT       = "STFTProcessor"
	ToolBandStop   = "BandStopProcessor"
	ToolEWT        = "EWTProcessor"
	ToolStitch     = "StitchProcessor"
)

// HiddenTools are never offered as user-toggleable tools. They are only
// requested when the orchestrator synthesizes them.
var HiddenTools = []string{ToolEWT, ToolBandStop}

// IsHidden reports whether toolID is one of HiddenTools.
func IsHidden(toolID string) bool {
	for _, h := range HiddenTools {
		if h == toolID {
			return true
		}
	}
	return false
}

// DefaultPayloadKey is used when a chart definition names no sub-key, or the
// named sub-key is absent from a tool output.
const DefaultPayloadKey = "data"

// Task is one analysis step sent to the service.
type Task struct {
	ToolID string         `json:"id"`
	Params map[string]any `json:"params"`
}

// ToolOutput is the result of one tool on one axis.
type ToolOutput struct {
	ToolID   string
	ToolName string

	// Presentation hints reported by the tool.
	Title  string
	XLabel string
	YLabel string

	// Err is the error marker. Non-empty means the tool failed on this axis
	// and Payloads must be ignored.
	Err string

	// KPI holds scalar indicators reported next to the chart data.
	KPI map[string]any

	// Payloads maps sub-keys ("data", "time_data", "spectrum_data", ...) to
	// their decoded payloads.
	Payloads map[string]Payload
}

// Failed reports whether the output carries an error marker.
func (o *ToolOutput) Failed() bool {
	return o != nil && o.Err != ""
}

// Payload returns the payload stored under key, or nil.
func (o *ToolOutput) Payload(key string) Payload {
	if o == nil || o.Payloads == nil {
		return nil
	}
	return o.Payloads[key]
}

// Result is the per-axis output of one analysis request for one file.
// Once received it is never mutated; a new response replaces it.
type Result map[Axis][]ToolOutput

// Find returns the output of toolID on axis, or nil when the axis or the tool
// is absent.
func (r Result) Find(axis Axis, toolID string) *ToolOutput {
	if r == nil {
		return nil
	}
	outs := r[axis]
	for i := range outs {
		if outs[i].ToolID == toolID {
			return &outs[i]
		}
	}
	return nil
}

// Response is the single-file analysis reply.
type Response struct {
	FileInfo     map[string]any
	SampleRateHz float64
	Results      Result
}

// FileResult is one entry of a multi-file reply: either a Result or an
// error marker for the whole file.
type FileResult struct {
	Result Result
	Err    string
}

// Failed reports whether the whole file failed on the service side.
func (f FileResult) Failed() bool { return f.Err != "" }

// MultiResult maps a file's short name to its result.
type MultiResult map[string]FileResult

// Lookup returns the result recorded for fileID. fileID may be a full path;
// the service keys entries by the last path segment.
func (m MultiResult) Lookup(fileID string) (Result, bool) {
	if m == nil {
		return nil, false
	}
	fr, ok := m[ShortName(fileID)]
	if !ok || fr.Failed() {
		return nil, false
	}
	return fr.Result, true
}

// ShortName returns the last path segment of a file id.
func ShortName(fileID string) string {
	trimmed := strings.TrimRight(fileID, "/")
	if i := strings.LastIndex(trimmed, "/"); i >= 0 {
		return trimmed[i+1:]
	}
	return trimmed
}

// ToolInfo describes a tool offered by the service.
type ToolInfo struct {
	ID          string               `json:"id"`
	Name        string               `json:"name"`
	Description string               `json:"description,omitempty"`
	Params      map[string]ParamSpec `json:"params"`
}

// ParamSpec describes one tool parameter.
type ParamSpec struct {
	Type        string `json:"type"`
	Label       string `json:"label,omitempty"`
	Default     any    `json:"default"`
	Options     []any  `json:"options,omitempty"`
	Description string `json:"description,omitempty"`
}

// Defaults returns a fresh map of parameter defaults.
func (t ToolInfo) Defaults() map[string]any {
	values := make(map[string]any, len(t.Params))
	for name, p := range t.Params {
		values[name] = p.Default
	}
	return values
}
