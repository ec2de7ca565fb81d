package export

import (
	"fmt"
	"strings"

	"github.com/dusk-indust/sigscope/internal/compose"
)

// Summary renders a Markdown table of the exported charts with their series
// and point counts, followed by the band-stop indicators when present.
func Summary(doc *Document) string {
	var b strings.Builder
	b.WriteString("| Chart | Kind | Status | Series | Points |\n")
	b.WriteString("|---|---|---|---|---|\n")
	for _, c := range doc.Charts {
		fmt.Fprintf(&b, "| %s | %s | %s | %d | %d |\n",
			escape(c.Title), c.Spec.Kind, c.Status, len(c.Spec.Series), points(c.Spec))
	}
	if kpi := compose.FormatKPI(doc.FilterKPI); kpi != "" {
		fmt.Fprintf(&b, "\nBand-stop: %s\n", kpi)
	}
	return b.String()
}

func points(s compose.Spec) int {
	switch s.Kind {
	case compose.KindHeatmap:
		if s.Heatmap == nil {
			return 0
		}
		return len(s.Heatmap.Cells)
	case compose.KindLine3D:
		if s.Trajectory == nil {
			return 0
		}
		return len(s.Trajectory.Points)
	}
	n := 0
	for _, series := range s.Series {
		n += max(len(series.Values), len(series.Points))
	}
	return n
}

func escape(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}
