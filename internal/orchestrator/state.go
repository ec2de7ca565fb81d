package orchestrator

import (
	"maps"
	"slices"

	"github.com/dusk-indust/sigscope/internal/analysis"
	"github.com/dusk-indust/sigscope/internal/brush"
)

// Phase is the request cycle state.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseRequesting Phase = "requesting"
	PhaseApplying   Phase = "applying"
)

// View is the presentation view the user is looking at. Chart surfaces only
// exist while the file view is shown.
type View string

const (
	ViewFiles    View = "files"
	ViewTools    View = "tools"
	ViewSettings View = "settings"
)

// ToolState is one user-toggleable tool with its current parameters.
type ToolState struct {
	ID      string         `json:"id"`
	Name    string         `json:"name"`
	Enabled bool           `json:"enabled"`
	Params  map[string]any `json:"params"`
}

func (t ToolState) clone() ToolState {
	t.Params = maps.Clone(t.Params)
	return t
}

// BandStopOrder is the filter order of synthesized band-stop tasks.
const BandStopOrder = 4

// BuildTasks returns the task list for a request: every enabled tool with
// its parameters, in tool order, followed by a band-stop task over filter
// when one is given.
func BuildTasks(tools []ToolState, filter *brush.Range) []analysis.Task {
	tasks := make([]analysis.Task, 0, len(tools)+1)
	for _, t := range tools {
		if !t.Enabled {
			continue
		}
		tasks = append(tasks, analysis.Task{ToolID: t.ID, Params: maps.Clone(t.Params)})
	}
	if filter != nil {
		tasks = append(tasks, analysis.Task{
			ToolID: analysis.ToolBandStop,
			Params: map[string]any{
				"low_freq":  filter.Min,
				"high_freq": filter.Max,
				"order":     BandStopOrder,
			},
		})
	}
	return tasks
}

// FilterResult collects the band-stop outputs of every axis that produced
// one without error. It returns nil when there are none.
func FilterResult(res analysis.Result) map[analysis.Axis]analysis.ToolOutput {
	var out map[analysis.Axis]analysis.ToolOutput
	for _, axis := range analysis.Axes {
		t := res.Find(axis, analysis.ToolBandStop)
		if t == nil || t.Failed() {
			continue
		}
		if out == nil {
			out = make(map[analysis.Axis]analysis.ToolOutput)
		}
		out[axis] = *t
	}
	return out
}

// FilterKPI collects the indicators each band-stop output reported, keyed by
// axis. It returns nil when no output reported any.
func FilterKPI(outputs map[analysis.Axis]analysis.ToolOutput) map[analysis.Axis]map[string]any {
	var out map[analysis.Axis]map[string]any
	for axis, t := range outputs {
		if len(t.KPI) == 0 {
			continue
		}
		if out == nil {
			out = make(map[analysis.Axis]map[string]any)
		}
		out[axis] = maps.Clone(t.KPI)
	}
	return out
}

// Snapshot is a copy of the orchestrator state.
type Snapshot struct {
	Phase       Phase         `json:"phase"`
	View        View          `json:"view"`
	Files       []string      `json:"files"`
	Tools       []ToolState   `json:"tools"`
	FilterMode  bool          `json:"filterMode"`
	FilterRange *brush.Range  `json:"filterRange,omitempty"`
	CompareAxis analysis.Axis `json:"compareAxis"`
	Token       uint64        `json:"token"`

	// FilterAxes lists the axes with a band-stop result.
	FilterAxes []analysis.Axis `json:"filterAxes,omitempty"`
	// FilterKPI holds the band-stop indicators per axis.
	FilterKPI map[analysis.Axis]map[string]any `json:"filterKpi,omitempty"`
	// Charts lists the ids of the active chart definitions.
	Charts []string `json:"charts"`
	// HasResult reports whether any analysis result is held.
	HasResult bool `json:"hasResult"`

	Decomposition DecompositionState `json:"decomposition"`
	LastError     string             `json:"lastError,omitempty"`
}

// DecompositionState describes the cached decomposition.
type DecompositionState struct {
	File  string        `json:"file,omitempty"`
	Axis  analysis.Axis `json:"axis"`
	Modes int           `json:"modes"`
	Ready bool          `json:"ready"`
}

func cloneTools(tools []ToolState) []ToolState {
	out := make([]ToolState, len(tools))
	for i, t := range tools {
		out[i] = t.clone()
	}
	return out
}

func cloneRange(r *brush.Range) *brush.Range {
	if r == nil {
		return nil
	}
	c := *r
	return &c
}

func sortedAxes(m map[analysis.Axis]analysis.ToolOutput) []analysis.Axis {
	out := make([]analysis.Axis, 0, len(m))
	for a := range m {
		out = append(out, a)
	}
	slices.Sort(out)
	return out
}
