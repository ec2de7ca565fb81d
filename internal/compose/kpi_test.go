package compose

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dusk-indust/sigscope/internal/analysis"
)

func TestFormatKPI(t *testing.T) {
	tests := []struct {
		name string
		kpi  map[analysis.Axis]map[string]any
		want string
	}{
		{name: "nil", kpi: nil, want: ""},
		{
			name: "axis order and sorted keys",
			kpi: map[analysis.Axis]map[string]any{
				analysis.AxisZ: {"rms": 0.2},
				analysis.AxisX: {"rms": 0.3125, "attenuation": 12.5},
			},
			want: "X: attenuation 12.5, rms 0.3125 | Z: rms 0.2",
		},
		{
			name: "empty axis skipped, non-numeric kept",
			kpi: map[analysis.Axis]map[string]any{
				analysis.AxisX: {},
				analysis.AxisY: {"status": "ok", "ratio": 1.0 / 3},
			},
			want: "Y: ratio 0.3333, status ok",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatKPI(tt.kpi))
		})
	}
}
