package brush

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/sigscope/internal/chartdef"
)

type fakeTarget struct {
	reaction func(Selection)
	cleared  int
}

func (f *fakeTarget) OnSelectionEnd(fn func(Selection)) { f.reaction = fn }
func (f *fakeTarget) ClearSelection()                   { f.cleared++ }

type recorder struct {
	calls  int
	ranges []*Range
}

func (r *recorder) emit(rg *Range) {
	r.calls++
	r.ranges = append(r.ranges, rg)
}

func TestEnabled(t *testing.T) {
	freq := chartdef.Definition{ID: "freq", ToolID: "SpectrumAnalyzer", AllowBrush: true}
	assert.True(t, Enabled(freq, false, true))
	assert.False(t, Enabled(freq, true, true), "comparison mode")
	assert.False(t, Enabled(freq, false, false), "filter mode off")

	plain := chartdef.Definition{ID: "time", ToolID: "TimeDomainStats"}
	assert.False(t, Enabled(plain, false, true))
}

func TestResolve_RoundTrip(t *testing.T) {
	domain := []float64{0, 12.5, 25, 37.5, 50, 62.5}
	for a := 0; a < len(domain); a++ {
		for b := a; b < len(domain); b++ {
			r, ok := Resolve(domain, [2]float64{float64(a), float64(b)})
			require.True(t, ok)
			assert.Equal(t, Range{Min: domain[a], Max: domain[b]}, r)
		}
	}
}

func TestResolve_FloorCeil(t *testing.T) {
	domain := []float64{10, 20, 30, 40}
	r, ok := Resolve(domain, [2]float64{0.7, 2.2})
	require.True(t, ok)
	assert.Equal(t, Range{Min: 10, Max: 40}, r)

	r, ok = Resolve(domain, [2]float64{2.2, 0.7})
	require.True(t, ok, "reversed drag is normalized")
	assert.Equal(t, Range{Min: 10, Max: 40}, r)
}

func TestResolve_OutOfRange(t *testing.T) {
	domain := []float64{10, 20, 30}
	_, ok := Resolve(domain, [2]float64{0, 3})
	assert.False(t, ok)
	_, ok = Resolve(domain, [2]float64{1, 2.01})
	assert.False(t, ok, "ceil pushes the upper index past the end")
	_, ok = Resolve(domain, [2]float64{-0.5, 1})
	assert.False(t, ok)
	_, ok = Resolve(nil, [2]float64{0, 0})
	assert.False(t, ok)
}

func TestController_Emits(t *testing.T) {
	target := &fakeTarget{}
	rec := &recorder{}
	domain := []float64{0, 5, 10, 15}
	c := Attach(target, domain, rec.emit)
	require.NotNil(t, target.reaction)

	domain[0] = 99 // caller mutation must not leak into the controller

	target.reaction(Selection{Areas: [][2]float64{{0.2, 1.6}}})
	require.Equal(t, 1, rec.calls)
	assert.Equal(t, &Range{Min: 0, Max: 10}, rec.ranges[0])
	assert.Equal(t, 1, target.cleared)

	c.Handle(Selection{})
	require.Equal(t, 2, rec.calls)
	assert.Nil(t, rec.ranges[1])
	assert.Equal(t, 1, target.cleared, "empty selections leave nothing to clear")
}

func TestController_OutOfRangeIsNoop(t *testing.T) {
	target := &fakeTarget{}
	rec := &recorder{}
	Attach(target, []float64{0, 5}, rec.emit)

	target.reaction(Selection{Areas: [][2]float64{{0, 4}}})
	assert.Zero(t, rec.calls)
	assert.Zero(t, target.cleared)
}

func TestRangeString(t *testing.T) {
	assert.Equal(t, "10.0-20.5", Range{Min: 10, Max: 20.5}.String())
}
