// Package orchestrator owns the analysis state and drives the
// request, apply and render cycle.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/dusk-indust/sigscope/internal/analysis"
	"github.com/dusk-indust/sigscope/internal/brush"
	"github.com/dusk-indust/sigscope/internal/chartdef"
	"github.com/dusk-indust/sigscope/internal/compose"
	"github.com/dusk-indust/sigscope/internal/config"
	"github.com/dusk-indust/sigscope/internal/render"
)

// Errors returned by intents that are not allowed in the current state.
var (
	ErrUnknownTool        = errors.New("orchestrator: unknown tool")
	ErrInvalidAxis        = errors.New("orchestrator: invalid axis")
	ErrComparisonMode     = errors.New("orchestrator: not available with several files selected")
	ErrSingleFileRequired = errors.New("orchestrator: exactly one file must be selected")
	ErrClosed             = errors.New("orchestrator: closed")
)

// Orchestrator owns the selection, tool parameters, filter range and the
// last applied results. Every intent is a synchronous call; requests run on
// their own goroutines and are applied only while their token is current.
type Orchestrator struct {
	svc      analysis.Service
	disp     *render.Dispatcher
	registry *chartdef.Registry
	clock    clockwork.Clock
	logger   *slog.Logger
	notes    *Notifier

	debounce  time.Duration
	stitchMax int

	// baseCtx parents every request context and is canceled by Close.
	baseCtx context.Context
	stop    context.CancelFunc
	wg      sync.WaitGroup

	mu          sync.Mutex
	closed      bool
	phase       Phase
	view        View
	files       []string
	tools       []ToolState
	filterMode  bool
	filterRange *brush.Range
	compareAxis analysis.Axis

	single       analysis.Result
	multi        analysis.MultiResult
	filterResult map[analysis.Axis]analysis.ToolOutput
	lastErr      string

	token    uint64
	inflight context.CancelFunc

	timer     clockwork.Timer
	timerSeq  uint64
	debounced bool

	ewt decomposition

	// renderMu serializes render passes. It is acquired while holding mu and
	// mu is released before drawing, so passes run in apply order.
	renderMu sync.Mutex
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithClock sets the clock used for debouncing.
func WithClock(c clockwork.Clock) Option {
	return func(o *Orchestrator) {
		o.clock = c
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = l
	}
}

// WithDebounce sets the quiet period for parameter edits.
func WithDebounce(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.debounce = d
		}
	}
}

// WithRegistry sets the chart definitions.
func WithRegistry(r *chartdef.Registry) Option {
	return func(o *Orchestrator) {
		o.registry = r
	}
}

// WithStitchMaxPoints sets the stitch cap used by definitions that set none.
func WithStitchMaxPoints(n int) Option {
	return func(o *Orchestrator) {
		o.stitchMax = n
	}
}

// WithNotifier sets the notification sink.
func WithNotifier(n *Notifier) Option {
	return func(o *Orchestrator) {
		o.notes = n
	}
}

// WithConfig applies the debounce period and stitch cap of cfg.
func WithConfig(cfg config.ProjectConfig) Option {
	return func(o *Orchestrator) {
		cfg = cfg.Defaults()
		o.debounce = cfg.Debounce
		o.stitchMax = cfg.StitchMaxPoints
	}
}

// New creates an Orchestrator requesting from svc and drawing through disp.
// It installs itself as the dispatcher's brush range sink.
func New(svc analysis.Service, disp *render.Dispatcher, opts ...Option) (*Orchestrator, error) {
	o := &Orchestrator{
		svc:         svc,
		disp:        disp,
		clock:       clockwork.NewRealClock(),
		logger:      slog.Default(),
		debounce:    config.DefaultDebounce,
		stitchMax:   config.DefaultStitchMaxPoints,
		phase:       PhaseIdle,
		view:        ViewFiles,
		compareAxis: analysis.AxisX,
		ewt:         decomposition{axis: analysis.AxisX, modes: DefaultModes},
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.registry == nil {
		r, err := chartdef.NewRegistry(chartdef.Defaults())
		if err != nil {
			return nil, fmt.Errorf("orchestrator: %w", err)
		}
		o.registry = r
	}
	if o.notes == nil {
		o.notes = NewNotifier()
	}
	o.baseCtx, o.stop = context.WithCancel(context.Background())
	disp.SetRangeSink(o.OnBrushRange)
	return o, nil
}

// Notifications returns the notification channel.
func (o *Orchestrator) Notifications() <-chan Notification {
	return o.notes.Subscribe()
}

func (o *Orchestrator) notify(level Level, format string, args ...any) {
	o.notes.Emit(Notification{Level: level, Message: fmt.Sprintf(format, args...), Time: o.clock.Now()})
}

// LoadTools fetches the tool catalogue. Hidden tools are dropped; every
// other tool starts enabled with its default parameters.
func (o *Orchestrator) LoadTools(ctx context.Context) error {
	infos, err := o.svc.ListTools(ctx)
	if err != nil {
		o.notify(LevelError, "loading tools failed: %v", err)
		return fmt.Errorf("orchestrator: load tools: %w", err)
	}

	tools := make([]ToolState, 0, len(infos))
	for _, info := range infos {
		if analysis.IsHidden(info.ID) {
			continue
		}
		name := info.Name
		if name == "" {
			name = info.ID
		}
		tools = append(tools, ToolState{ID: info.ID, Name: name, Enabled: true, Params: info.Defaults()})
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	o.tools = tools
	o.logger.Info("tools loaded", "count", len(tools))
	return nil
}

// SelectFiles replaces the selection and requests immediately.
func (o *Orchestrator) SelectFiles(files []string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return ErrClosed
	}
	o.files = dedupe(files)
	o.selectionChangedLocked()
	return nil
}

// ToggleFile adds file to the selection, or removes it when present.
func (o *Orchestrator) ToggleFile(file string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return ErrClosed
	}
	if i := slices.Index(o.files, file); i >= 0 {
		o.files = slices.Delete(slices.Clone(o.files), i, i+1)
	} else {
		o.files = append(slices.Clone(o.files), file)
	}
	o.selectionChangedLocked()
	return nil
}

// ClearSelection empties the selection.
func (o *Orchestrator) ClearSelection() error {
	return o.SelectFiles(nil)
}

func (o *Orchestrator) selectionChangedLocked() {
	o.dropDecompositionLocked()
	if len(o.files) > 1 && o.filterMode {
		o.filterMode = false
		o.filterRange = nil
		o.notify(LevelInfo, "filter mode turned off for comparison")
	}
	o.requestLocked()
}

// SetToolEnabled enables or disables a tool. The request is debounced.
func (o *Orchestrator) SetToolEnabled(toolID string, enabled bool) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	i := o.toolIndexLocked(toolID)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownTool, toolID)
	}
	if o.tools[i].Enabled == enabled {
		return nil
	}
	o.tools = cloneTools(o.tools)
	o.tools[i].Enabled = enabled
	o.scheduleLocked()
	return nil
}

// SetParam sets one tool parameter. The request is debounced.
func (o *Orchestrator) SetParam(toolID, name string, value any) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	i := o.toolIndexLocked(toolID)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownTool, toolID)
	}
	o.tools = cloneTools(o.tools)
	if o.tools[i].Params == nil {
		o.tools[i].Params = make(map[string]any)
	}
	o.tools[i].Params[name] = value
	o.scheduleLocked()
	return nil
}

func (o *Orchestrator) toolIndexLocked(toolID string) int {
	return slices.IndexFunc(o.tools, func(t ToolState) bool { return t.ID == toolID })
}

// SetFilterMode turns interactive band-stop filtering on or off. Turning it
// off clears the range. Only one selected file may be shown.
func (o *Orchestrator) SetFilterMode(on bool) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if on && len(o.files) > 1 {
		return ErrComparisonMode
	}
	if o.filterMode == on {
		return nil
	}
	o.filterMode = on
	if !on {
		o.filterRange = nil
	}
	o.scheduleLocked()
	return nil
}

// SetFilterRange sets the band-stop range directly, as a brush would. A nil
// range clears it.
func (o *Orchestrator) SetFilterRange(r *brush.Range) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.filterMode {
		return errors.New("orchestrator: filter mode is off")
	}
	o.setRangeLocked(r)
	return nil
}

// OnBrushRange receives brush-derived ranges from rendered charts.
func (o *Orchestrator) OnBrushRange(r *brush.Range) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.filterMode {
		return
	}
	o.setRangeLocked(r)
}

func (o *Orchestrator) setRangeLocked(r *brush.Range) {
	o.filterRange = cloneRange(r)
	if r == nil {
		o.notify(LevelInfo, "filter range cleared")
	} else {
		o.notify(LevelInfo, "filter range %s Hz", r)
	}
	o.scheduleLocked()
}

// SetCompareAxis changes the axis shown in comparison mode. In comparison
// mode the charts are redrawn from the held results.
func (o *Orchestrator) SetCompareAxis(axis analysis.Axis) error {
	if !axis.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidAxis, axis)
	}
	o.mu.Lock()
	if o.compareAxis == axis {
		o.mu.Unlock()
		return nil
	}
	o.compareAxis = axis
	if len(o.files) <= 1 || o.view != ViewFiles {
		o.mu.Unlock()
		return nil
	}
	o.renderLocked(context.Background())
	return nil
}

// SetView switches the presentation view. Leaving the file view releases
// the chart surfaces; coming back redraws them from the held results.
func (o *Orchestrator) SetView(v View) error {
	switch v {
	case ViewFiles, ViewTools, ViewSettings:
	default:
		return fmt.Errorf("orchestrator: unknown view %q", v)
	}
	o.mu.Lock()
	prev := o.view
	o.view = v
	switch {
	case prev == ViewFiles && v != ViewFiles:
		o.mu.Unlock()
		o.releaseCharts()
	case prev != ViewFiles && v == ViewFiles && len(o.files) > 0:
		o.renderLocked(context.Background())
	default:
		o.mu.Unlock()
	}
	return nil
}

func (o *Orchestrator) releaseCharts() {
	o.renderMu.Lock()
	defer o.renderMu.Unlock()
	for _, s := range o.disp.Surfaces() {
		if strings.HasPrefix(s, "chart-") {
			_ = o.disp.Dispose(s)
		}
	}
}

// scheduleLocked (re)starts the debounce timer. When it fires, one request
// carrying the state at that moment is issued.
func (o *Orchestrator) scheduleLocked() {
	if o.closed {
		return
	}
	if o.timer != nil {
		o.timer.Stop()
	}
	o.timerSeq++
	seq := o.timerSeq
	o.debounced = true
	o.timer = o.clock.AfterFunc(o.debounce, func() { o.fire(seq) })
}

func (o *Orchestrator) fire(seq uint64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if seq != o.timerSeq || o.closed {
		return
	}
	o.timer = nil
	o.debounced = false
	o.requestLocked()
}

func (o *Orchestrator) stopTimerLocked() {
	if o.timer != nil {
		o.timer.Stop()
		o.timer = nil
	}
	o.timerSeq++
	o.debounced = false
}

// request is the immutable input of one analysis call.
type request struct {
	token  uint64
	files  []string
	tasks  []analysis.Task
	axis   analysis.Axis
	cancel context.CancelFunc
}

// requestLocked mints a token and issues a request for the current state.
// Any pending debounced request is folded into it and the previous request's
// context is canceled. An empty selection clears the results instead.
func (o *Orchestrator) requestLocked() {
	if o.closed {
		return
	}
	o.stopTimerLocked()
	if o.inflight != nil {
		o.inflight()
		o.inflight = nil
	}
	o.token++

	if len(o.files) == 0 {
		o.single, o.multi, o.filterResult = nil, nil, nil
		o.phase = PhaseIdle
		o.logger.Debug("selection empty, clearing charts", "token", o.token)
		token := o.token
		o.wg.Add(1)
		go func() {
			defer o.wg.Done()
			o.mu.Lock()
			if token != o.token {
				o.mu.Unlock()
				return
			}
			o.renderLocked(o.baseCtx)
		}()
		return
	}

	var filter *brush.Range
	if o.filterMode && len(o.files) == 1 {
		filter = o.filterRange
	}
	ctx, cancel := context.WithCancel(o.baseCtx)
	req := request{
		token:  o.token,
		files:  slices.Clone(o.files),
		tasks:  BuildTasks(o.tools, filter),
		axis:   o.compareAxis,
		cancel: cancel,
	}
	o.inflight = cancel
	o.phase = PhaseRequesting
	o.logger.Debug("request issued", "token", req.token, "files", len(req.files), "tasks", len(req.tasks))

	o.wg.Add(1)
	go o.run(ctx, req)
}

func (o *Orchestrator) run(ctx context.Context, req request) {
	defer o.wg.Done()
	defer req.cancel()

	var (
		resp  *analysis.Response
		multi analysis.MultiResult
		err   error
	)
	if len(req.files) == 1 {
		resp, err = o.svc.Analyze(ctx, req.files[0], req.tasks)
	} else {
		multi, err = o.svc.AnalyzeMulti(ctx, req.files, req.tasks, req.axis)
	}

	o.mu.Lock()
	if req.token != o.token {
		o.mu.Unlock()
		o.logger.Debug("stale response discarded", "token", req.token, "current", o.currentToken())
		return
	}
	o.inflight = nil
	if err != nil {
		o.phase = PhaseIdle
		o.lastErr = err.Error()
		o.mu.Unlock()
		o.logger.Warn("analysis request failed", "token", req.token, "err", err)
		o.notify(LevelError, "analysis failed: %v", err)
		return
	}

	o.phase = PhaseApplying
	o.lastErr = ""
	if resp != nil {
		o.single, o.multi = resp.Results, nil
		if o.filterMode {
			o.filterResult = FilterResult(resp.Results)
		} else {
			o.filterResult = nil
		}
	} else {
		o.single, o.multi, o.filterResult = nil, multi, nil
		for _, f := range req.files {
			if fr, ok := multi[analysis.ShortName(f)]; ok && fr.Failed() {
				o.notify(LevelWarn, "%s: %s", analysis.ShortName(f), fr.Err)
			}
		}
	}
	o.logger.Info("analysis applied", "token", req.token, "files", len(req.files))
	o.renderLocked(ctx)

	o.mu.Lock()
	if o.token == req.token && o.phase == PhaseApplying {
		o.phase = PhaseIdle
	}
	o.mu.Unlock()
}

func (o *Orchestrator) currentToken() uint64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.token
}

// renderJob is the state captured for one render pass.
type renderJob struct {
	defs []chartdef.Definition
	cctx compose.Context
}

func (o *Orchestrator) renderJobLocked() renderJob {
	job := renderJob{
		cctx: compose.Context{
			Files:           slices.Clone(o.files),
			Single:          o.single,
			Multi:           o.multi,
			CompareAxis:     o.compareAxis,
			FilterMode:      o.filterMode,
			FilterKPI:       FilterKPI(o.filterResult),
			StitchMaxPoints: o.stitchMax,
		},
	}
	if len(o.files) == 0 || o.view != ViewFiles {
		return job
	}
	job.defs = o.registry.Active(o.chartStateLocked())
	return job
}

func (o *Orchestrator) chartStateLocked() chartdef.State {
	enabled := make(map[string]bool, len(o.tools))
	for _, t := range o.tools {
		if t.Enabled {
			enabled[t.ID] = true
		}
	}
	return chartdef.State{
		EnabledTools:    enabled,
		HasFilterResult: o.filterResult != nil,
		Comparison:      len(o.files) > 1,
	}
}

// renderLocked captures the state, releases mu and draws it. It must be
// called with mu held and returns with mu released.
func (o *Orchestrator) renderLocked(ctx context.Context) {
	job := o.renderJobLocked()
	o.renderMu.Lock()
	o.mu.Unlock()
	defer o.renderMu.Unlock()
	o.draw(ctx, job)
}

func (o *Orchestrator) draw(ctx context.Context, job renderJob) {
	handles, err := o.disp.RenderAll(ctx, job.defs, job.cctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			o.logger.Debug("render pass canceled")
			return
		}
		o.logger.Warn("render pass incomplete", "err", err)
		o.notify(LevelWarn, "some charts could not be drawn: %v", err)
	}
	o.logger.Debug("render pass done", "charts", len(handles))
}

// Flush issues the pending debounced request now. It does nothing when no
// edit is pending.
func (o *Orchestrator) Flush() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.debounced {
		o.requestLocked()
	}
}

// RenderInput returns the active chart definitions and the compose context
// a render pass would use now.
func (o *Orchestrator) RenderInput() ([]chartdef.Definition, compose.Context) {
	o.mu.Lock()
	defer o.mu.Unlock()
	job := o.renderJobLocked()
	return job.defs, job.cctx
}

// Refresh redraws the charts from the held results without a request.
func (o *Orchestrator) Refresh(ctx context.Context) {
	o.mu.Lock()
	o.renderLocked(ctx)
}

// Snapshot returns a copy of the current state.
func (o *Orchestrator) Snapshot() Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	var charts []string
	if len(o.files) > 0 {
		for _, d := range o.registry.Active(o.chartStateLocked()) {
			charts = append(charts, d.ID)
		}
	}
	return Snapshot{
		Phase:         o.phase,
		View:          o.view,
		Files:         slices.Clone(o.files),
		Tools:         cloneTools(o.tools),
		FilterMode:    o.filterMode,
		FilterRange:   cloneRange(o.filterRange),
		CompareAxis:   o.compareAxis,
		Token:         o.token,
		FilterAxes:    sortedAxes(o.filterResult),
		FilterKPI:     FilterKPI(o.filterResult),
		Charts:        charts,
		HasResult:     o.single != nil || o.multi != nil,
		Decomposition: o.ewt.state(),
		LastError:     o.lastErr,
	}
}

// Results returns the held single-file and comparison results.
func (o *Orchestrator) Results() (analysis.Result, analysis.MultiResult) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.single, o.multi
}

// Pending reports whether a debounced request is waiting.
func (o *Orchestrator) Pending() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.debounced
}

// Wait blocks until every issued request has been applied or discarded.
func (o *Orchestrator) Wait() {
	o.wg.Wait()
}

// Close cancels pending and in-flight work, waits for it to finish and
// closes the notification channel.
func (o *Orchestrator) Close() {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}
	o.closed = true
	o.stopTimerLocked()
	o.mu.Unlock()

	o.stop()
	o.wg.Wait()
	o.notes.Close()
}

func dedupe(files []string) []string {
	out := make([]string, 0, len(files))
	for _, f := range files {
		if f != "" && !slices.Contains(out, f) {
			out = append(out, f)
		}
	}
	return out
}
