// Package chartdef holds the static chart definitions and decides which of
// them are shown for a given orchestrator state.
package chartdef

import (
	"errors"
	"fmt"

	"github.com/dusk-indust/sigscope/internal/analysis"
	"github.com/dusk-indust/sigscope/internal/config"
)

// ErrInvalid is returned for definitions that break a structural rule.
var ErrInvalid = errors.New("chartdef: invalid definition")

// Kind selects the compositor family used to draw a definition.
type Kind int

const (
	KindLine Kind = iota
	KindHeatmap
	Kind3D
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindHeatmap:
		return "heatmap"
	case Kind3D:
		return "3d"
	default:
		return "line"
	}
}

// Definition is a static chart descriptor.
type Definition struct {
	ID     string
	Title  string
	ToolID string
	SubKey string
	Color  string

	Heatmap    bool
	ThreeD     bool
	Stitched   bool
	AllowBrush bool

	// StitchMaxPoints caps the stitched point count. Zero means the
	// configured default.
	StitchMaxPoints int
}

// Validate enforces that at most one of Heatmap, ThreeD and Stitched is set
// and that brushing is only requested on plain line charts.
func (d Definition) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("%w: empty id", ErrInvalid)
	}
	if d.ToolID == "" {
		return fmt.Errorf("%w: %s: empty tool id", ErrInvalid, d.ID)
	}
	n := 0
	for _, set := range []bool{d.Heatmap, d.ThreeD, d.Stitched} {
		if set {
			n++
		}
	}
	if n > 1 {
		return fmt.Errorf("%w: %s: heatmap, 3d and stitched are mutually exclusive", ErrInvalid, d.ID)
	}
	if d.AllowBrush && (d.Heatmap || d.ThreeD) {
		return fmt.Errorf("%w: %s: brush requires a line chart", ErrInvalid, d.ID)
	}
	if d.StitchMaxPoints < 0 {
		return fmt.Errorf("%w: %s: negative stitch cap", ErrInvalid, d.ID)
	}
	return nil
}

// Kind returns the compositor family.
func (d Definition) Kind() Kind {
	switch {
	case d.ThreeD:
		return Kind3D
	case d.Heatmap:
		return KindHeatmap
	default:
		return KindLine
	}
}

// PayloadKey returns the sub-key, or the default key when none is set.
func (d Definition) PayloadKey() string {
	if d.SubKey == "" {
		return analysis.DefaultPayloadKey
	}
	return d.SubKey
}

// SurfaceID returns the id of the surface the definition renders into.
func (d Definition) SurfaceID() string {
	return "chart-" + d.ID
}

// FilteredID is the definition shown only while a band-stop result exists.
const FilteredID = "filtered_time"

// Defaults returns the built-in definitions in display order.
func Defaults() []Definition {
	return []Definition{
		{ID: "time", Title: "Time Domain", ToolID: analysis.ToolTimeDomain, SubKey: "data", Color: "#1890ff"},
		{ID: "freq", Title: "Frequency Domain", ToolID: analysis.ToolSpectrum, SubKey: "data", Color: "#52c41a", AllowBrush: true},
		{ID: "psd", Title: "Power Spectral Density", ToolID: "PSDProcessor", SubKey: "data", Color: "#722ed1"},
		{ID: "stft", Title: "Spectrogram", ToolID: analysis.ToolSTFT, SubKey: "data", Color: "#13c2c2", Heatmap: true},
		{ID: "env_time", Title: "Envelope Time", ToolID: "EnvelopeProcessor", SubKey: "time_data", Color: "#fa8c16"},
		{ID: "env_freq", Title: "Envelope Spectrum", ToolID: "EnvelopeProcessor", SubKey: "freq_data", Color: "#eb2f96"},
		{ID: FilteredID, Title: "Band-stop Filtered", ToolID: analysis.ToolBandStop, SubKey: "data", Color: "#ff4d4f"},
		{ID: "cepstrum", Title: "Cepstrum", ToolID: "CepstrumProcessor", SubKey: "data", Color: "#8e44ad"},
		{ID: "stitched_view", Title: "Stitched View", ToolID: analysis.ToolStitch, SubKey: "data", Color: "#ff4d4f", Stitched: true},
		{ID: "orbit", Title: "3D Orbit", ToolID: analysis.ToolTimeDomain, SubKey: "data", Color: "#fa8c16", ThreeD: true},
	}
}

// Registry is an ordered, validated set of definitions.
type Registry struct {
	defs []Definition
	byID map[string]int
}

// NewRegistry validates defs and rejects duplicate ids.
func NewRegistry(defs []Definition) (*Registry, error) {
	r := &Registry{byID: make(map[string]int, len(defs))}
	for _, d := range defs {
		if err := d.Validate(); err != nil {
			return nil, err
		}
		if _, dup := r.byID[d.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate id %s", ErrInvalid, d.ID)
		}
		r.byID[d.ID] = len(r.defs)
		r.defs = append(r.defs, d)
	}
	return r, nil
}

// FromConfig builds a registry from the built-in definitions with the
// project's per-chart overrides applied. Disabled charts are dropped.
func FromConfig(cfg config.ProjectConfig) (*Registry, error) {
	defs := Defaults()
	out := make([]Definition, 0, len(defs))
	for _, d := range defs {
		if d.Stitched && d.StitchMaxPoints == 0 {
			d.StitchMaxPoints = cfg.StitchMaxPoints
		}
		o, ok := cfg.Charts[d.ID]
		if ok {
			if o.Disabled {
				continue
			}
			if o.Title != "" {
				d.Title = o.Title
			}
			if o.SubKey != "" {
				d.SubKey = o.SubKey
			}
			if o.StitchMaxPoints > 0 {
				d.StitchMaxPoints = o.StitchMaxPoints
			}
		}
		out = append(out, d)
	}
	return NewRegistry(out)
}

// All returns a copy of the definitions in order.
func (r *Registry) All() []Definition {
	out := make([]Definition, len(r.defs))
	copy(out, r.defs)
	return out
}

// Get returns the definition with the given id.
func (r *Registry) Get(id string) (Definition, bool) {
	i, ok := r.byID[id]
	if !ok {
		return Definition{}, false
	}
	return r.defs[i], true
}

// State is the slice of orchestrator state that decides visibility.
type State struct {
	EnabledTools    map[string]bool
	HasFilterResult bool
	Comparison      bool
}

// Active returns the definitions to show, in registry order: those whose
// tool is enabled, plus the filtered view only while a filter result
// exists. Heatmap and 3D charts are hidden in comparison mode.
func (r *Registry) Active(s State) []Definition {
	var out []Definition
	for _, d := range r.defs {
		if d.ID == FilteredID {
			if s.HasFilterResult {
				out = append(out, d)
			}
			continue
		}
		if !s.EnabledTools[d.ToolID] {
			continue
		}
		if s.Comparison && (d.Heatmap || d.ThreeD) {
			continue
		}
		out = append(out, d)
	}
	return out
}
