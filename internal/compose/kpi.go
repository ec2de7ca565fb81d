package compose

import (
	"fmt"
	"slices"
	"strings"

	"github.com/dusk-indust/sigscope/internal/analysis"
)

// FormatKPI renders per-axis indicators as one line, axes in X, Y, Z order
// and keys sorted, e.g. "X: attenuation 12.5, rms 0.31 | Y: rms 0.2".
// Axes without indicators are left out.
func FormatKPI(kpi map[analysis.Axis]map[string]any) string {
	var parts []string
	for _, axis := range analysis.Axes {
		vals := kpi[axis]
		if len(vals) == 0 {
			continue
		}
		keys := make([]string, 0, len(vals))
		for k := range vals {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		items := make([]string, len(keys))
		for i, k := range keys {
			items[i] = k + " " + formatValue(vals[k])
		}
		parts = append(parts, fmt.Sprintf("%s: %s", axis, strings.Join(items, ", ")))
	}
	return strings.Join(parts, " | ")
}

func formatValue(v any) string {
	switch n := v.(type) {
	case float64:
		return fmt.Sprintf("%.4g", n)
	case float32:
		return fmt.Sprintf("%.4g", n)
	default:
		return fmt.Sprint(v)
	}
}
