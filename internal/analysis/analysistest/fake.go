// Package analysistest provides an in-memory analysis.Service for tests.
package analysistest

import (
	"context"
	"slices"
	"sync"

	"github.com/dusk-indust/sigscope/internal/analysis"
)

// Compile-time interface check.
var _ analysis.Service = (*Service)(nil)

// CallKind distinguishes the Service methods.
type CallKind string

const (
	KindAnalyze CallKind = "analyze"
	KindMulti   CallKind = "multi"
	KindTools   CallKind = "tools"
)

// Call records one invocation.
type Call struct {
	Kind    CallKind
	FileIDs []string
	Tasks   []analysis.Task
	Axis    analysis.Axis
}

// HasTool reports whether the call requested toolID.
func (c Call) HasTool(toolID string) bool {
	for _, t := range c.Tasks {
		if t.ToolID == toolID {
			return true
		}
	}
	return false
}

// Task returns the task for toolID, or false.
func (c Call) Task(toolID string) (analysis.Task, bool) {
	for _, t := range c.Tasks {
		if t.ToolID == toolID {
			return t, true
		}
	}
	return analysis.Task{}, false
}

// Service is a scriptable analysis.Service. Unset funcs return empty
// successful replies.
type Service struct {
	AnalyzeFunc func(ctx context.Context, call Call) (*analysis.Response, error)
	MultiFunc   func(ctx context.Context, call Call) (analysis.MultiResult, error)
	Tools       []analysis.ToolInfo

	mu     sync.Mutex
	calls  []Call
	notify chan Call
}

// New returns a Service whose calls are also published on a buffered channel
// readable through Next.
func New() *Service {
	return &Service{notify: make(chan Call, 64)}
}

// Analyze implements analysis.Service.
func (s *Service) Analyze(ctx context.Context, fileID string, tasks []analysis.Task) (*analysis.Response, error) {
	if fileID == "" {
		return nil, analysis.ErrNoSelection
	}
	call := s.record(Call{Kind: KindAnalyze, FileIDs: []string{fileID}, Tasks: cloneTasks(tasks)})
	if s.AnalyzeFunc != nil {
		return s.AnalyzeFunc(ctx, call)
	}
	return &analysis.Response{Results: analysis.Result{}}, nil
}

// AnalyzeMulti implements analysis.Service.
func (s *Service) AnalyzeMulti(ctx context.Context, fileIDs []string, tasks []analysis.Task, axis analysis.Axis) (analysis.MultiResult, error) {
	if len(fileIDs) == 0 {
		return nil, analysis.ErrNoSelection
	}
	call := s.record(Call{Kind: KindMulti, FileIDs: slices.Clone(fileIDs), Tasks: cloneTasks(tasks), Axis: axis})
	if s.MultiFunc != nil {
		return s.MultiFunc(ctx, call)
	}
	return analysis.MultiResult{}, nil
}

// ListTools implements analysis.Service.
func (s *Service) ListTools(ctx context.Context) ([]analysis.ToolInfo, error) {
	s.record(Call{Kind: KindTools})
	return slices.Clone(s.Tools), nil
}

// Calls returns a copy of every recorded call.
func (s *Service) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.calls)
}

// CallCount returns the number of calls of the given kind.
func (s *Service) CallCount(kind CallKind) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.calls {
		if c.Kind == kind {
			n++
		}
	}
	return n
}

// Next returns the channel on which calls are published. It is nil for a
// zero Service.
func (s *Service) Next() <-chan Call {
	return s.notify
}

func (s *Service) record(c Call) Call {
	s.mu.Lock()
	s.calls = append(s.calls, c)
	s.mu.Unlock()
	if s.notify != nil {
		select {
		case s.notify <- c:
		default:
		}
	}
	return c
}

func cloneTasks(tasks []analysis.Task) []analysis.Task {
	out := make([]analysis.Task, len(tasks))
	for i, t := range tasks {
		params := make(map[string]any, len(t.Params))
		for k, v := range t.Params {
			params[k] = v
		}
		out[i] = analysis.Task{ToolID: t.ToolID, Params: params}
	}
	return out
}
