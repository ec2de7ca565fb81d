package orchestrator

import (
	"context"
	"fmt"
	"strings"

	"github.com/dusk-indust/sigscope/internal/analysis"
)

// DefaultModes is the mode count of a decomposition that names none.
const DefaultModes = 3

// decomposition is the cached empirical wavelet decomposition of one file.
// It has its own token sequence so it never races the chart requests.
type decomposition struct {
	token uint64
	// target is the file of the latest request; file is the file of the
	// cached result.
	target string
	file   string
	axis   analysis.Axis
	modes  int
	result analysis.Result
	open   bool
	cancel context.CancelFunc
}

func (d decomposition) state() DecompositionState {
	return DecompositionState{
		File:  d.file,
		Axis:  d.axis,
		Modes: d.modes,
		Ready: d.result != nil,
	}
}

// OpenDecomposition shows the decomposition panels of the single selected
// file. Cached panels for that file are redrawn; otherwise a decomposition
// with the current mode count is requested.
func (o *Orchestrator) OpenDecomposition(ctx context.Context) error {
	o.mu.Lock()
	if len(o.files) != 1 {
		o.mu.Unlock()
		return ErrSingleFileRequired
	}
	o.ewt.open = true
	if o.ewt.result != nil && o.ewt.file == o.files[0] {
		o.renderModalLocked(ctx)
		return nil
	}
	defer o.mu.Unlock()
	return o.decomposeLocked(o.ewt.modes)
}

// RunDecomposition requests a decomposition into n modes of the single
// selected file. A non-positive n uses DefaultModes.
func (o *Orchestrator) RunDecomposition(n int) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.files) != 1 {
		return ErrSingleFileRequired
	}
	if n <= 0 {
		n = DefaultModes
	}
	o.ewt.open = true
	return o.decomposeLocked(n)
}

// SetDecompositionAxis selects the axis whose panels are shown and redraws
// them from the cached decomposition.
func (o *Orchestrator) SetDecompositionAxis(ctx context.Context, axis analysis.Axis) error {
	if !axis.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidAxis, axis)
	}
	o.mu.Lock()
	o.ewt.axis = axis
	if !o.ewt.open || o.ewt.result == nil {
		o.mu.Unlock()
		return nil
	}
	o.renderModalLocked(ctx)
	return nil
}

// CloseDecomposition releases the decomposition panels. The cached result
// is kept.
func (o *Orchestrator) CloseDecomposition() {
	o.mu.Lock()
	o.ewt.open = false
	o.mu.Unlock()

	o.renderMu.Lock()
	defer o.renderMu.Unlock()
	o.disposePanels()
}

// disposePanels releases every decomposition surface. renderMu must be held.
func (o *Orchestrator) disposePanels() {
	for _, s := range o.disp.Surfaces() {
		if strings.HasPrefix(s, "ewt-") {
			_ = o.disp.Dispose(s)
		}
	}
}

// dropDecompositionLocked forgets a decomposition whose file is no longer
// the single selected file: the pending request is superseded and canceled,
// the cached result is dropped and shown panels are released.
func (o *Orchestrator) dropDecompositionLocked() {
	if o.ewt.target == "" || (len(o.files) == 1 && o.files[0] == o.ewt.target) {
		return
	}
	o.ewt.token++
	if o.ewt.cancel != nil {
		o.ewt.cancel()
		o.ewt.cancel = nil
	}
	shown := o.ewt.open && o.ewt.result != nil
	o.ewt.target, o.ewt.file, o.ewt.result, o.ewt.open = "", "", nil, false
	o.logger.Debug("decomposition dropped", "token", o.ewt.token)
	if !shown {
		return
	}

	token := o.ewt.token
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		o.mu.Lock()
		if token != o.ewt.token {
			o.mu.Unlock()
			return
		}
		o.renderMu.Lock()
		o.mu.Unlock()
		defer o.renderMu.Unlock()
		o.disposePanels()
	}()
}

func (o *Orchestrator) decomposeLocked(n int) error {
	if o.closed {
		return ErrClosed
	}
	if o.ewt.cancel != nil {
		o.ewt.cancel()
	}
	o.ewt.token++
	o.ewt.modes = n
	token, file := o.ewt.token, o.files[0]
	o.ewt.target = file
	tasks := []analysis.Task{{ToolID: analysis.ToolEWT, Params: map[string]any{"num_modes": n}}}
	ctx, cancel := context.WithCancel(o.baseCtx)
	o.ewt.cancel = cancel

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		defer cancel()
		resp, err := o.svc.Analyze(ctx, file, tasks)

		o.mu.Lock()
		if token != o.ewt.token {
			o.mu.Unlock()
			o.logger.Debug("stale decomposition discarded", "token", token)
			return
		}
		o.ewt.cancel = nil
		if err != nil {
			o.mu.Unlock()
			o.logger.Warn("decomposition failed", "file", file, "err", err)
			o.notify(LevelError, "decomposition failed: %v", err)
			return
		}
		o.ewt.file = file
		o.ewt.result = resp.Results
		if !o.ewt.open {
			o.mu.Unlock()
			return
		}
		o.renderModalLocked(o.baseCtx)
	}()
	return nil
}

// renderModalLocked draws the panels of the selected axis. It must be called
// with mu held and returns with mu released.
func (o *Orchestrator) renderModalLocked(ctx context.Context) {
	axis, res := o.ewt.axis, o.ewt.result
	o.renderMu.Lock()
	o.mu.Unlock()
	defer o.renderMu.Unlock()

	handles, err := o.disp.RenderModal(ctx, axis, res)
	if err != nil {
		o.logger.Warn("decomposition panels incomplete", "err", err)
		o.notify(LevelWarn, "some decomposition panels could not be drawn: %v", err)
	}
	if len(handles) == 0 {
		o.notify(LevelInfo, "no decomposition data for axis %s", axis)
	}
}
