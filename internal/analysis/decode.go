package analysis

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Wire shapes of the analysis service. Only the decoder sees them; the rest
// of the module works with the typed Payload union.

type wireToolResult struct {
	ToolID   string          `json:"tool_id"`
	ToolName string          `json:"tool_name"`
	Error    string          `json:"error"`
	Output   json.RawMessage `json:"output"`
}

type wireSeries struct {
	X []float64 `json:"x"`
	Y []float64 `json:"y"`
}

type wireAxisData struct {
	XAxis []float64 `json:"x_axis"`
	YAxis []float64 `json:"y_axis"`
}

type wireSpectrum struct {
	Freqs      []float64 `json:"freqs"`
	Amp        []float64 `json:"amp"`
	Boundaries []float64 `json:"boundaries"`
}

type wireMode struct {
	Name string    `json:"name"`
	X    []float64 `json:"x"`
	Y    []float64 `json:"y"`
}

type wireResponse struct {
	FileInfo map[string]any               `json:"file_info"`
	FS       float64                      `json:"fs"`
	Results  map[string][]json.RawMessage `json:"results"`
}

// metaKeys are output fields that never carry a payload.
var metaKeys = map[string]bool{
	"type":       true,
	"chart_type": true,
	"title":      true,
	"x_label":    true,
	"y_label":    true,
	"kpi":        true,
	"error":      true,
	"axis_data":  true,
}

// DecodeResponse decodes a single-file analysis reply.
func DecodeResponse(data []byte) (*Response, error) {
	var wire wireResponse
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("analysis: decode response: %w", err)
	}
	result, err := decodeResult(wire.Results)
	if err != nil {
		return nil, err
	}
	return &Response{
		FileInfo:     wire.FileInfo,
		SampleRateHz: wire.FS,
		Results:      result,
	}, nil
}

// DecodeMultiResult decodes a multi-file analysis reply. Each entry is
// either a per-axis result or an object carrying only "error".
func DecodeMultiResult(data []byte) (MultiResult, error) {
	var wire map[string]json.RawMessage
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("analysis: decode multi response: %w", err)
	}

	multi := make(MultiResult, len(wire))
	for name, raw := range wire {
		var entry map[string]json.RawMessage
		if err := json.Unmarshal(raw, &entry); err != nil {
			return nil, fmt.Errorf("analysis: decode multi entry %q: %w", name, err)
		}
		if msg, ok := entry["error"]; ok {
			multi[name] = FileResult{Err: rawString(msg)}
			continue
		}

		perAxis := make(map[string][]json.RawMessage, len(entry))
		for key, v := range entry {
			var items []json.RawMessage
			if err := json.Unmarshal(v, &items); err != nil {
				return nil, fmt.Errorf("analysis: decode multi entry %q axis %s: %w", name, key, err)
			}
			perAxis[key] = items
		}
		result, err := decodeResult(perAxis)
		if err != nil {
			return nil, fmt.Errorf("analysis: decode multi entry %q: %w", name, err)
		}
		multi[name] = FileResult{Result: result}
	}
	return multi, nil
}

func decodeResult(raw map[string][]json.RawMessage) (Result, error) {
	result := make(Result, len(raw))
	for key, items := range raw {
		axis := Axis(strings.ToUpper(key))
		if !axis.Valid() {
			continue
		}
		outs := make([]ToolOutput, 0, len(items))
		for _, item := range items {
			out, err := DecodeToolOutput(item)
			if err != nil {
				return nil, fmt.Errorf("analysis: axis %s: %w", axis, err)
			}
			outs = append(outs, out)
		}
		result[axis] = outs
	}
	return result, nil
}

// DecodeToolOutput decodes one {tool_id, tool_name, output} or
// {tool_id, error} element. A tool whose output object itself carries an
// "error" field is also marked as failed.
func DecodeToolOutput(data []byte) (ToolOutput, error) {
	var wire wireToolResult
	if err := json.Unmarshal(data, &wire); err != nil {
		return ToolOutput{}, fmt.Errorf("decode tool output: %w", err)
	}

	out := ToolOutput{
		ToolID:   wire.ToolID,
		ToolName: wire.ToolName,
		Err:      wire.Error,
	}
	if out.Err != "" || len(wire.Output) == 0 || string(wire.Output) == "null" {
		return out, nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(wire.Output, &fields); err != nil {
		// Non-object outputs carry nothing chartable.
		return out, nil
	}

	if msg, ok := fields["error"]; ok {
		if s := rawString(msg); s != "" {
			out.Err = s
			return out, nil
		}
	}

	out.Title = rawString(fields["title"])
	out.XLabel = rawString(fields["x_label"])
	out.YLabel = rawString(fields["y_label"])
	if kpi, ok := fields["kpi"]; ok {
		// A malformed kpi object leaves KPI nil.
		if err := json.Unmarshal(kpi, &out.KPI); err != nil {
			out.KPI = nil
		}
	}

	var axisData *wireAxisData
	if raw, ok := fields["axis_data"]; ok {
		var ad wireAxisData
		if err := json.Unmarshal(raw, &ad); err == nil {
			axisData = &ad
		}
	}

	out.Payloads = make(map[string]Payload)
	for key, raw := range fields {
		if metaKeys[key] {
			continue
		}
		if p := decodePayload(key, raw, axisData); p != nil {
			out.Payloads[key] = p
		}
	}
	return out, nil
}

// decodePayload classifies raw by shape. Unknown shapes yield nil.
func decodePayload(key string, raw json.RawMessage, axisData *wireAxisData) Payload {
	switch key {
	case "spectrum_data":
		var s wireSpectrum
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil
		}
		return SpectrumDescriptor{Freqs: s.Freqs, Amp: s.Amp, Boundaries: s.Boundaries}
	case "modes":
		var ms []wireMode
		if err := json.Unmarshal(raw, &ms); err != nil {
			return nil
		}
		set := ModeSet{Modes: make([]Mode, 0, len(ms))}
		for _, m := range ms {
			set.Modes = append(set.Modes, Mode(m))
		}
		return set
	}

	trimmed := strings.TrimSpace(string(raw))
	switch {
	case strings.HasPrefix(trimmed, "{"):
		var entry map[string]json.RawMessage
		if err := json.Unmarshal(raw, &entry); err != nil {
			return nil
		}
		if _, hasX := entry["x"]; !hasX {
			return nil
		}
		if _, hasY := entry["y"]; !hasY {
			return nil
		}
		var s wireSeries
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil
		}
		return CoordinateSeries{X: s.X, Y: s.Y}

	case strings.HasPrefix(trimmed, "[") && axisData != nil:
		var triples [][]float64
		if err := json.Unmarshal(raw, &triples); err != nil {
			return nil
		}
		grid := Grid2D{
			XLabels: axisData.XAxis,
			YLabels: axisData.YAxis,
			Cells:   make([]GridCell, 0, len(triples)),
		}
		for _, t := range triples {
			if len(t) < 3 {
				continue
			}
			grid.Cells = append(grid.Cells, GridCell{X: int(t[0]), Y: int(t[1]), Value: t[2]})
		}
		return grid
	}
	return nil
}

// rawString returns raw as a string. Non-string JSON values are returned in
// their literal form.
func rawString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	if string(raw) == "null" {
		return ""
	}
	return string(raw)
}
