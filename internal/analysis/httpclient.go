package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// Compile-time interface check.
var _ Service = (*HTTPClient)(nil)

// DefaultBaseURL is the address of a locally running analysis service.
const DefaultBaseURL = "http://127.0.0.1:8000/api"

// HTTPClient implements Service over the service's HTTP/JSON API.
type HTTPClient struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

// ClientOption configures an HTTPClient.
type ClientOption func(*HTTPClient)

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		c.http.Timeout = d
	}
}

// WithHTTPClient replaces the underlying *http.Client entirely.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *HTTPClient) {
		c.http = hc
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l *slog.Logger) ClientOption {
	return func(c *HTTPClient) {
		c.logger = l
	}
}

// NewHTTPClient creates a client for the service rooted at baseURL. An empty
// baseURL selects DefaultBaseURL.
func NewHTTPClient(baseURL string, opts ...ClientOption) *HTTPClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type analyzeRequest struct {
	FilePath string `json:"file_path"`
	Tasks    []Task `json:"tasks"`
}

type analyzeMultiRequest struct {
	FilePaths  []string `json:"file_paths"`
	Tasks      []Task   `json:"tasks"`
	TargetAxis Axis     `json:"target_axis"`
}

// Analyze posts to /analyze.
func (c *HTTPClient) Analyze(ctx context.Context, fileID string, tasks []Task) (*Response, error) {
	if fileID == "" {
		return nil, ErrNoSelection
	}
	body, err := c.do(ctx, http.MethodPost, "/analyze", analyzeRequest{FilePath: fileID, Tasks: nonNilTasks(tasks)})
	if err != nil {
		return nil, err
	}
	return DecodeResponse(body)
}

// AnalyzeMulti posts to /analyze/multi.
func (c *HTTPClient) AnalyzeMulti(ctx context.Context, fileIDs []string, tasks []Task, axis Axis) (MultiResult, error) {
	if len(fileIDs) == 0 {
		return nil, ErrNoSelection
	}
	if !axis.Valid() {
		axis = AxisX
	}
	body, err := c.do(ctx, http.MethodPost, "/analyze/multi", analyzeMultiRequest{
		FilePaths:  fileIDs,
		Tasks:      nonNilTasks(tasks),
		TargetAxis: axis,
	})
	if err != nil {
		return nil, err
	}
	return DecodeMultiResult(body)
}

// ListTools fetches /tools.
func (c *HTTPClient) ListTools(ctx context.Context) ([]ToolInfo, error) {
	body, err := c.do(ctx, http.MethodGet, "/tools", nil)
	if err != nil {
		return nil, err
	}
	var tools []ToolInfo
	if err := json.Unmarshal(body, &tools); err != nil {
		return nil, fmt.Errorf("analysis: decode tools: %w", err)
	}
	return tools, nil
}

// do performs one HTTP round trip and returns the body of a 2xx reply.
func (c *HTTPClient) do(ctx context.Context, method, path string, payload any) ([]byte, error) {
	var reader io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("analysis: marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("analysis: create request: %w", err)
	}
	if payload != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	httpReq.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("analysis: %s: %w", path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("analysis: read response: %w", err)
	}
	c.logger.Debug("analysis request",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"elapsed", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &ServiceError{
			Op:         strings.TrimPrefix(path, "/"),
			StatusCode: resp.StatusCode,
			Detail:     errorDetail(respBody),
		}
	}
	return respBody, nil
}

// errorDetail extracts the "detail" field of an error body, falling back to
// the raw body text.
func errorDetail(body []byte) string {
	var envelope struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && len(envelope.Detail) > 0 {
		return rawString(envelope.Detail)
	}
	return strings.TrimSpace(string(body))
}

func nonNilTasks(tasks []Task) []Task {
	if tasks == nil {
		return []Task{}
	}
	return tasks
}
