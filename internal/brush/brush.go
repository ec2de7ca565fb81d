// Package brush maps a range drawn on a rendered chart back to domain values.
package brush

import (
	"fmt"
	"math"

	"github.com/dusk-indust/sigscope/internal/chartdef"
)

// Range is a selected domain interval in domain units (Hz or seconds).
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// String formats the range with one decimal.
func (r Range) String() string {
	return fmt.Sprintf("%.1f-%.1f", r.Min, r.Max)
}

// Selection is a finished selection as reported by a surface. Each area is a
// [lo, hi] pair in axis coordinates, which for a category domain are
// fractional indices.
type Selection struct {
	Areas [][2]float64 `json:"areas"`
}

// Target is the part of a rendered chart the controller drives.
type Target interface {
	OnSelectionEnd(fn func(Selection))
	ClearSelection()
}

// EmitFunc receives the resolved range, or nil when the selection was
// cleared.
type EmitFunc func(r *Range)

// Enabled reports whether brushing is offered for def: the definition must
// allow it, a single file must be selected and interactive filter mode must
// be on.
func Enabled(def chartdef.Definition, comparison, filterMode bool) bool {
	return def.AllowBrush && !comparison && filterMode && def.Kind() == chartdef.KindLine
}

// Resolve converts one coordinate range into domain values. The lower bound
// is floored and the upper bound ceiled. It reports false when either index
// falls outside domain.
func Resolve(domain []float64, coord [2]float64) (Range, bool) {
	a, b := coord[0], coord[1]
	if a > b {
		a, b = b, a
	}
	if math.IsNaN(a) || math.IsNaN(b) {
		return Range{}, false
	}
	lo := math.Floor(a)
	hi := math.Ceil(b)
	if lo < 0 || hi >= float64(len(domain)) {
		return Range{}, false
	}
	return Range{Min: domain[int(lo)], Max: domain[int(hi)]}, true
}

// Controller turns selection-end reactions on one surface into emitted
// ranges.
type Controller struct {
	target Target
	emit   EmitFunc
	domain []float64
}

// Attach registers a selection-end reaction on target. domain is the domain
// sequence rendered on the chart and is copied.
func Attach(target Target, domain []float64, emit EmitFunc) *Controller {
	c := &Controller{
		target: target,
		emit:   emit,
		domain: append([]float64(nil), domain...),
	}
	target.OnSelectionEnd(c.Handle)
	return c
}

// Handle processes one finished selection. An empty selection emits nil.
// An out-of-range selection emits nothing and leaves the visual selection
// in place.
func (c *Controller) Handle(sel Selection) {
	if len(sel.Areas) == 0 {
		c.emit(nil)
		return
	}

	r, ok := Resolve(c.domain, sel.Areas[0])
	if !ok {
		return
	}

	c.emit(&r)
	c.target.ClearSelection()
}
