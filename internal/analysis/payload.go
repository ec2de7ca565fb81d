package analysis

// Payload is the closed set of sub-payload shapes a tool can return.
// Consumers switch on the concrete type.
type Payload interface {
	payload()
}

// CoordinateSeries is a domain/value pair of sequences (time or frequency on
// X, amplitude on Y). The two sequences may differ in length; consumers use
// the shorter one.
type CoordinateSeries struct {
	X []float64
	Y []float64
}

// Len returns the number of usable (x, y) pairs.
func (c CoordinateSeries) Len() int {
	return min(len(c.X), len(c.Y))
}

// Empty reports whether the series has no usable pairs.
func (c CoordinateSeries) Empty() bool { return c.Len() == 0 }

// GridCell is one heatmap cell addressed by label indices.
type GridCell struct {
	X     int
	Y     int
	Value float64
}

// Grid2D is a spectrogram-style grid with categorical axis labels.
type Grid2D struct {
	XLabels []float64
	YLabels []float64
	Cells   []GridCell
}

// SpectrumDescriptor is a spectrum split into bands by boundary frequencies.
type SpectrumDescriptor struct {
	Freqs      []float64
	Amp        []float64
	Boundaries []float64
}

// Mode is one decomposed component of a signal.
type Mode struct {
	Name string
	X    []float64
	Y    []float64
}

// ModeSet is the ordered list of decomposed components.
type ModeSet struct {
	Modes []Mode
}

func (CoordinateSeries) payload()   {}
func (Grid2D) payload()             {}
func (SpectrumDescriptor) payload() {}
func (ModeSet) payload()            {}
