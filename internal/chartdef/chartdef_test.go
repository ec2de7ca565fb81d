package chartdef

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/sigscope/internal/analysis"
	"github.com/dusk-indust/sigscope/internal/config"
)

func TestDefaults_Valid(t *testing.T) {
	r, err := NewRegistry(Defaults())
	require.NoError(t, err)
	assert.Len(t, r.All(), len(Defaults()))

	freq, ok := r.Get("freq")
	require.True(t, ok)
	assert.True(t, freq.AllowBrush)
	assert.Equal(t, "chart-freq", freq.SurfaceID())
	assert.Equal(t, KindLine, freq.Kind())

	stft, _ := r.Get("stft")
	assert.Equal(t, KindHeatmap, stft.Kind())
	orbit, _ := r.Get("orbit")
	assert.Equal(t, Kind3D, orbit.Kind())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		def  Definition
		ok   bool
	}{
		{"plain", Definition{ID: "a", ToolID: "T"}, true},
		{"heatmap", Definition{ID: "a", ToolID: "T", Heatmap: true}, true},
		{"heatmap and 3d", Definition{ID: "a", ToolID: "T", Heatmap: true, ThreeD: true}, false},
		{"stitched and 3d", Definition{ID: "a", ToolID: "T", Stitched: true, ThreeD: true}, false},
		{"brush on heatmap", Definition{ID: "a", ToolID: "T", Heatmap: true, AllowBrush: true}, false},
		{"no id", Definition{ToolID: "T"}, false},
		{"no tool", Definition{ID: "a"}, false},
		{"negative cap", Definition{ID: "a", ToolID: "T", StitchMaxPoints: -1}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.def.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.True(t, errors.Is(err, ErrInvalid))
			}
		})
	}
}

func TestNewRegistry_Duplicate(t *testing.T) {
	_, err := NewRegistry([]Definition{{ID: "a", ToolID: "T"}, {ID: "a", ToolID: "U"}})
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestPayloadKey(t *testing.T) {
	assert.Equal(t, "data", Definition{}.PayloadKey())
	assert.Equal(t, "time_data", Definition{SubKey: "time_data"}.PayloadKey())
}

func TestFromConfig(t *testing.T) {
	cfg := config.ProjectConfig{
		StitchMaxPoints: 1000,
		Charts: map[string]config.ChartOverride{
			"freq":     {Title: "Spectrum"},
			"cepstrum": {Disabled: true},
			"env_time": {SubKey: "envelope"},
		},
	}
	r, err := FromConfig(cfg)
	require.NoError(t, err)

	freq, _ := r.Get("freq")
	assert.Equal(t, "Spectrum", freq.Title)
	_, ok := r.Get("cepstrum")
	assert.False(t, ok)
	env, _ := r.Get("env_time")
	assert.Equal(t, "envelope", env.SubKey)
	stitched, _ := r.Get("stitched_view")
	assert.Equal(t, 1000, stitched.StitchMaxPoints)

	cfg.Charts["stitched_view"] = config.ChartOverride{StitchMaxPoints: 50}
	r, err = FromConfig(cfg)
	require.NoError(t, err)
	stitched, _ = r.Get("stitched_view")
	assert.Equal(t, 50, stitched.StitchMaxPoints, "per-chart override wins over the global cap")
}

func ids(defs []Definition) []string {
	out := make([]string, len(defs))
	for i, d := range defs {
		out[i] = d.ID
	}
	return out
}

func TestActive(t *testing.T) {
	r, err := NewRegistry(Defaults())
	require.NoError(t, err)

	enabled := map[string]bool{
		analysis.ToolTimeDomain: true,
		analysis.ToolSpectrum:   true,
		analysis.ToolSTFT:       true,
		"EnvelopeProcessor":     true,
	}

	t.Run("single file", func(t *testing.T) {
		got := r.Active(State{EnabledTools: enabled})
		assert.Equal(t, []string{"time", "freq", "stft", "env_time", "env_freq", "orbit"}, ids(got))
	})

	t.Run("filter result shows filtered view", func(t *testing.T) {
		got := r.Active(State{EnabledTools: enabled, HasFilterResult: true})
		assert.Contains(t, ids(got), FilteredID)
	})

	t.Run("enabled band-stop alone does not show filtered view", func(t *testing.T) {
		got := r.Active(State{EnabledTools: map[string]bool{analysis.ToolBandStop: true}})
		assert.Empty(t, got)
	})

	t.Run("comparison hides heatmap and 3d", func(t *testing.T) {
		got := r.Active(State{EnabledTools: enabled, Comparison: true})
		assert.Equal(t, []string{"time", "freq", "env_time", "env_freq"}, ids(got))
	})
}
