// Package surfaceserver serves the HTML chart surfaces and receives the
// selections and resizes the browser reports back.
package surfaceserver

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dusk-indust/sigscope/internal/analysis"
	"github.com/dusk-indust/sigscope/internal/brush"
	"github.com/dusk-indust/sigscope/internal/orchestrator"
	"github.com/dusk-indust/sigscope/internal/render"
	"github.com/dusk-indust/sigscope/internal/render/echarts"
)

// SelectionBase is the path prefix brushable pages post selections to.
const SelectionBase = "/surfaces"

// Intents is the part of the orchestrator driven over HTTP.
type Intents interface {
	Snapshot() orchestrator.Snapshot
	SelectFiles(files []string) error
	SetParam(toolID, name string, value any) error
	SetFilterMode(on bool) error
	SetCompareAxis(axis analysis.Axis) error
}

// Server routes surface and intent requests.
type Server struct {
	surfaces *echarts.Surfaces
	disp     *render.Dispatcher
	intents  Intents
	title    string
	logger   *slog.Logger

	engine *gin.Engine
	http   *http.Server
}

// Option configures a Server.
type Option func(*Server)

// WithIntents exposes the orchestrator intents under /api.
func WithIntents(i Intents) Option {
	return func(s *Server) {
		s.intents = i
	}
}

// WithTitle sets the title of the combined page.
func WithTitle(title string) Option {
	return func(s *Server) {
		s.title = title
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// New creates a Server for surfaces drawn through disp.
func New(surfaces *echarts.Surfaces, disp *render.Dispatcher, opts ...Option) *Server {
	s := &Server{
		surfaces: surfaces,
		disp:     disp,
		title:    "sigscope",
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.engine = s.routes()
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.logRequests())

	r.GET("/", s.handlePage)
	r.GET("/surfaces", s.handleList)
	r.GET("/surfaces/:id", s.handleSurface)
	r.POST("/surfaces/:id/selection", s.handleSelection)
	r.POST("/surfaces/:id/resize", s.handleResize)

	if s.intents != nil {
		api := r.Group("/api")
		{
			api.GET("/state", s.handleState)
			api.POST("/files", s.handleFiles)
			api.POST("/params", s.handleParam)
			api.POST("/filter", s.handleFilter)
			api.POST("/axis", s.handleAxis)
		}
	}
	return r
}

func (s *Server) logRequests() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("surface request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"elapsed", time.Since(start))
	}
}

func (s *Server) handlePage(c *gin.Context) {
	var buf bytes.Buffer
	if err := s.surfaces.WritePage(&buf, s.title); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "page render failed", "details": err.Error()})
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

func (s *Server) handleList(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"surfaces": s.surfaces.IDs()})
}

func (s *Server) handleSurface(c *gin.Context) {
	html, ok := s.surfaces.HTML(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown surface"})
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", html)
}

func (s *Server) handleSelection(c *gin.Context) {
	var sel brush.Selection
	if err := c.ShouldBindJSON(&sel); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid selection", "details": err.Error()})
		return
	}
	id := c.Param("id")
	res := s.surfaces.Select(id, sel)
	if !res.Handled {
		s.logger.Debug("selection on surface without brush", "surface", id)
	}
	c.JSON(http.StatusOK, res)
}

// ResizeRequest is the body of a resize report.
type ResizeRequest struct {
	Width  int `json:"width" binding:"required,gt=0"`
	Height int `json:"height" binding:"required,gt=0"`
}

func (s *Server) handleResize(c *gin.Context) {
	var req ResizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid size", "details": err.Error()})
		return
	}
	id := c.Param("id")
	s.surfaces.SetSize(id, echarts.Size{Width: req.Width, Height: req.Height})
	if err := s.disp.Resized(id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "resize failed", "details": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleState(c *gin.Context) {
	c.JSON(http.StatusOK, s.intents.Snapshot())
}

// FilesRequest replaces the selection.
type FilesRequest struct {
	Files []string `json:"files"`
}

func (s *Server) handleFiles(c *gin.Context) {
	var req FilesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}
	s.respond(c, s.intents.SelectFiles(req.Files))
}

// ParamRequest sets one tool parameter.
type ParamRequest struct {
	Tool  string `json:"tool" binding:"required"`
	Name  string `json:"name" binding:"required"`
	Value any    `json:"value"`
}

func (s *Server) handleParam(c *gin.Context) {
	var req ParamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}
	s.respond(c, s.intents.SetParam(req.Tool, req.Name, req.Value))
}

// FilterRequest turns filter mode on or off.
type FilterRequest struct {
	On bool `json:"on"`
}

func (s *Server) handleFilter(c *gin.Context) {
	var req FilterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}
	s.respond(c, s.intents.SetFilterMode(req.On))
}

// AxisRequest selects the comparison axis.
type AxisRequest struct {
	Axis analysis.Axis `json:"axis" binding:"required"`
}

func (s *Server) handleAxis(c *gin.Context) {
	var req AxisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}
	s.respond(c, s.intents.SetCompareAxis(req.Axis))
}

// respond writes the state after an intent, or the intent's error.
func (s *Server) respond(c *gin.Context, err error) {
	switch {
	case err == nil:
		c.JSON(http.StatusAccepted, s.intents.Snapshot())
	case errors.Is(err, orchestrator.ErrUnknownTool), errors.Is(err, orchestrator.ErrInvalidAxis):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, orchestrator.ErrComparisonMode):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, orchestrator.ErrClosed):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// Run serves on addr until ctx is canceled.
func (s *Server) Run(ctx context.Context, addr string) error {
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.http.Shutdown(shutdownCtx)
	}()

	s.logger.Info("surface server listening", "addr", addr)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("surfaceserver: %w", err)
	}
	return nil
}
