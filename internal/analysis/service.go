package analysis

import (
	"context"
	"errors"
	"fmt"
)

// ErrNoSelection is returned when a request names no file.
var ErrNoSelection = errors.New("analysis: no file selected")

// Service is the boundary to the external analysis service. Implementations
// must be safe for concurrent use.
type Service interface {
	// Analyze runs tasks against every axis of one file.
	Analyze(ctx context.Context, fileID string, tasks []Task) (*Response, error)

	// AnalyzeMulti runs tasks against one axis of several files.
	AnalyzeMulti(ctx context.Context, fileIDs []string, tasks []Task, axis Axis) (MultiResult, error)

	// ListTools returns the tools the service offers.
	ListTools(ctx context.Context) ([]ToolInfo, error)
}

// ServiceError is a non-2xx reply from the analysis service.
type ServiceError struct {
	Op         string
	StatusCode int
	Detail     string
}

// Error implements the error interface.
func (e *ServiceError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("analysis: %s: HTTP %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("analysis: %s: HTTP %d: %s", e.Op, e.StatusCode, e.Detail)
}
