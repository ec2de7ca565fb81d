package mcptools

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/dusk-indust/sigscope/internal/analysis"
	"github.com/dusk-indust/sigscope/internal/brush"
	"github.com/dusk-indust/sigscope/internal/chartdef"
	"github.com/dusk-indust/sigscope/internal/compose"
	"github.com/dusk-indust/sigscope/internal/export"
	"github.com/dusk-indust/sigscope/internal/orchestrator"
)

// Controller is the part of the orchestrator the MCP tools drive.
type Controller interface {
	SelectFiles(files []string) error
	SetParam(toolID, name string, value any) error
	SetToolEnabled(toolID string, enabled bool) error
	SetFilterMode(on bool) error
	SetFilterRange(r *brush.Range) error
	SetCompareAxis(axis analysis.Axis) error
	RunDecomposition(n int) error
	SetDecompositionAxis(ctx context.Context, axis analysis.Axis) error
	Flush()
	Wait()
	Snapshot() orchestrator.Snapshot
	RenderInput() ([]chartdef.Definition, compose.Context)
}

// SurfaceLister reports the live surfaces.
type SurfaceLister interface {
	Surfaces() []string
}

// Service handles MCP tool calls by forwarding them to a Controller.
type Service struct {
	ctl      Controller
	surfaces SurfaceLister
}

// NewService creates a Service. surfaces may be nil.
func NewService(ctl Controller, surfaces SurfaceLister) *Service {
	return &Service{ctl: ctl, surfaces: surfaces}
}

// settle waits for every issued request to be applied, or for ctx.
func (s *Service) settle(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.ctl.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Service) state(ctx context.Context) (*mcp.CallToolResult, StateOutput, error) {
	if err := s.settle(ctx); err != nil {
		return nil, StateOutput{}, err
	}
	return nil, StateOutput{State: s.ctl.Snapshot()}, nil
}

// SelectFiles replaces the selection and waits for the analysis.
func (s *Service) SelectFiles(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SelectFilesInput,
) (*mcp.CallToolResult, StateOutput, error) {
	if err := s.ctl.SelectFiles(input.Files); err != nil {
		return nil, StateOutput{}, fmt.Errorf("select files: %w", err)
	}
	return s.state(ctx)
}

// SetParam sets one tool parameter.
func (s *Service) SetParam(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SetParamInput,
) (*mcp.CallToolResult, StateOutput, error) {
	if input.Tool == "" || input.Name == "" {
		return nil, StateOutput{}, errors.New("tool and name are required")
	}
	if err := s.ctl.SetParam(input.Tool, input.Name, input.Value); err != nil {
		return nil, StateOutput{}, fmt.Errorf("set param: %w", err)
	}
	if input.Apply {
		s.ctl.Flush()
	}
	return s.state(ctx)
}

// SetToolEnabled enables or disables a tool.
func (s *Service) SetToolEnabled(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SetToolEnabledInput,
) (*mcp.CallToolResult, StateOutput, error) {
	if err := s.ctl.SetToolEnabled(input.Tool, input.Enabled); err != nil {
		return nil, StateOutput{}, fmt.Errorf("set tool enabled: %w", err)
	}
	if input.Apply {
		s.ctl.Flush()
	}
	return s.state(ctx)
}

// SetFilterMode turns filter mode on or off, optionally with a band, and
// applies it immediately.
func (s *Service) SetFilterMode(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SetFilterModeInput,
) (*mcp.CallToolResult, StateOutput, error) {
	if (input.Low == nil) != (input.High == nil) {
		return nil, StateOutput{}, errors.New("low and high must be given together")
	}
	if err := s.ctl.SetFilterMode(input.On); err != nil {
		return nil, StateOutput{}, fmt.Errorf("set filter mode: %w", err)
	}
	if input.On && input.Low != nil {
		r := brush.Range{Min: min(*input.Low, *input.High), Max: max(*input.Low, *input.High)}
		if err := s.ctl.SetFilterRange(&r); err != nil {
			return nil, StateOutput{}, fmt.Errorf("set filter range: %w", err)
		}
	}
	s.ctl.Flush()
	return s.state(ctx)
}

// SetCompareAxis changes the comparison axis. No request is issued.
func (s *Service) SetCompareAxis(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SetCompareAxisInput,
) (*mcp.CallToolResult, StateOutput, error) {
	axis := analysis.Axis(strings.ToUpper(input.Axis))
	if err := s.ctl.SetCompareAxis(axis); err != nil {
		return nil, StateOutput{}, fmt.Errorf("set compare axis: %w", err)
	}
	return nil, StateOutput{State: s.ctl.Snapshot()}, nil
}

// RunDecomposition decomposes the single selected file and waits for the
// panels.
func (s *Service) RunDecomposition(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RunDecompositionInput,
) (*mcp.CallToolResult, DecompositionOutput, error) {
	if input.Axis != "" {
		if err := s.ctl.SetDecompositionAxis(ctx, analysis.Axis(strings.ToUpper(input.Axis))); err != nil {
			return nil, DecompositionOutput{}, fmt.Errorf("run decomposition: %w", err)
		}
	}
	if err := s.ctl.RunDecomposition(input.Modes); err != nil {
		return nil, DecompositionOutput{}, fmt.Errorf("run decomposition: %w", err)
	}
	if err := s.settle(ctx); err != nil {
		return nil, DecompositionOutput{}, err
	}

	out := DecompositionOutput{Decomposition: s.ctl.Snapshot().Decomposition, Panels: []string{}}
	if s.surfaces != nil {
		for _, id := range s.surfaces.Surfaces() {
			if strings.HasPrefix(id, "ewt-") {
				out.Panels = append(out.Panels, id)
			}
		}
	}
	return nil, out, nil
}

// GetState returns the current state without waiting.
func (s *Service) GetState(
	_ context.Context,
	_ *mcp.CallToolRequest,
	_ GetStateInput,
) (*mcp.CallToolResult, StateOutput, error) {
	return nil, StateOutput{State: s.ctl.Snapshot()}, nil
}

// ExportCharts composes the active charts and summarizes them.
func (s *Service) ExportCharts(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ ExportChartsInput,
) (*mcp.CallToolResult, ExportChartsOutput, error) {
	if err := s.settle(ctx); err != nil {
		return nil, ExportChartsOutput{}, err
	}
	defs, cctx := s.ctl.RenderInput()
	doc := export.Build(defs, cctx, time.Now())

	out := ExportChartsOutput{Charts: make([]ChartSummary, 0, len(doc.Charts)), Summary: export.Summary(doc)}
	for _, c := range doc.Charts {
		out.Charts = append(out.Charts, ChartSummary{
			ID:     c.ID,
			Title:  c.Title,
			Kind:   string(c.Spec.Kind),
			Status: c.Status,
			Series: len(c.Spec.Series),
		})
	}
	return nil, out, nil
}
