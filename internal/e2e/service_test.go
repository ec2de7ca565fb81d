//go:build e2e

package e2e

import (
	"encoding/json"
	"net/http"
	"path"
	"sync"
)

// recordedRequest is one request received by the fake analysis service.
type recordedRequest struct {
	Path       string
	FilePath   string         `json:"file_path"`
	FilePaths  []string       `json:"file_paths"`
	TargetAxis string         `json:"target_axis"`
	Tasks      []recordedTask `json:"tasks"`
}

type recordedTask struct {
	ID     string         `json:"id"`
	Params map[string]any `json:"params"`
}

func (r recordedRequest) task(id string) (recordedTask, bool) {
	for _, t := range r.Tasks {
		if t.ID == id {
			return t, true
		}
	}
	return recordedTask{}, false
}

// fakeAnalysisService speaks the analysis service wire protocol and answers
// every task with deterministic data.
type fakeAnalysisService struct {
	mu       sync.Mutex
	requests []recordedRequest
}

func (f *fakeAnalysisService) last() recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

func (f *fakeAnalysisService) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func (f *fakeAnalysisService) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/tools", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, []map[string]any{
			{"id": "TimeDomainStats", "name": "Waveform", "params": map[string]any{}},
			{"id": "SpectrumAnalyzer", "name": "Spectrum", "params": map[string]any{
				"nfft": map[string]any{"type": "number", "default": 1024},
			}},
			{"id": "STFTProcessor", "name": "STFT", "params": map[string]any{}},
			{"id": "EWTProcessor", "name": "EWT", "params": map[string]any{}},
			{"id": "BandStopProcessor", "name": "Band-stop", "params": map[string]any{}},
		})
	})
	mux.HandleFunc("POST /api/analyze", func(w http.ResponseWriter, r *http.Request) {
		req, ok := f.record(w, r)
		if !ok {
			return
		}
		writeJSON(w, map[string]any{
			"file_info": map[string]any{"name": path.Base(req.FilePath)},
			"fs":        25600,
			"results":   axesReply(req.Tasks, 1),
		})
	})
	mux.HandleFunc("POST /api/analyze/multi", func(w http.ResponseWriter, r *http.Request) {
		req, ok := f.record(w, r)
		if !ok {
			return
		}
		out := make(map[string]any, len(req.FilePaths))
		for i, p := range req.FilePaths {
			out[path.Base(p)] = axesReply(req.Tasks, float64(i+1))
		}
		writeJSON(w, out)
	})
	return mux
}

func (f *fakeAnalysisService) record(w http.ResponseWriter, r *http.Request) (recordedRequest, bool) {
	var req recordedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusUnprocessableEntity)
		writeJSON(w, map[string]any{"detail": err.Error()})
		return req, false
	}
	req.Path = r.URL.Path
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()
	return req, true
}

func axesReply(tasks []recordedTask, gain float64) map[string]any {
	out := make(map[string]any, 3)
	for i, axis := range []string{"X", "Y", "Z"} {
		level := gain * float64(i+1)
		outputs := make([]map[string]any, 0, len(tasks))
		for _, t := range tasks {
			outputs = append(outputs, map[string]any{"tool_id": t.ID, "output": toolOutput(t, level)})
		}
		out[axis] = outputs
	}
	return out
}

func toolOutput(t recordedTask, level float64) map[string]any {
	switch t.ID {
	case "SpectrumAnalyzer":
		return map[string]any{"data": map[string]any{
			"x": []float64{0, 10, 20, 30, 40},
			"y": []float64{level, 2 * level, 3 * level, 2 * level, level},
		}}
	case "BandStopProcessor":
		return map[string]any{
			"kpi": map[string]any{"attenuation_db": 20 * level},
			"data": map[string]any{
				"x": []float64{0, 0.1, 0.2, 0.3},
				"y": []float64{0, level / 2, -level / 2, 0},
			},
		}
	case "STFTProcessor":
		return map[string]any{
			"axis_data": map[string]any{"x_axis": []float64{0, 0.5}, "y_axis": []float64{0, 100}},
			"data":      [][]float64{{0, 0, -10}, {0, 1, -40}, {1, 0, -20}, {1, 1, -60}},
		}
	case "EWTProcessor":
		return map[string]any{
			"spectrum_data": map[string]any{"freqs": []float64{0, 50, 100}, "amp": []float64{1, 3, 1}, "boundaries": []float64{50}},
			"modes": []map[string]any{
				{"name": "Mode 1", "x": []float64{0, 0.1}, "y": []float64{level, 0}},
				{"name": "Mode 2", "x": []float64{0, 0.1}, "y": []float64{0, level}},
			},
		}
	default:
		return map[string]any{"data": map[string]any{
			"x": []float64{0, 0.1, 0.2, 0.3},
			"y": []float64{0, level, -level, 0},
		}}
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
