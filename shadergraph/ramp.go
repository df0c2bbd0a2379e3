package shadergraph

import (
	"sort"

	"github.com/chewxy/math32"
)

// RampStop is a color at a position in [0,1].
type RampStop struct {
	Pos   float32
	Color [4]float32
}

// Ramp is a piecewise color gradient.
type Ramp struct {
	Stops []RampStop
	// Constant selects step interpolation instead of linear.
	Constant bool
}

// NewRamp returns the default black-to-white ramp.
func NewRamp() *Ramp {
	return &Ramp{Stops: []RampStop{
		{Pos: 0, Color: [4]float32{0, 0, 0, 1}},
		{Pos: 1, Color: [4]float32{1, 1, 1, 1}},
	}}
}

// Eval returns the ramp color at t.
func (r *Ramp) Eval(t float32) [4]float32 {
	if len(r.Stops) == 0 {
		return [4]float32{}
	}
	stops := r.sorted()
	if t <= stops[0].Pos {
		return stops[0].Color
	}
	last := stops[len(stops)-1]
	if t >= last.Pos {
		return last.Color
	}
	i := sort.Search(len(stops), func(i int) bool { return stops[i].Pos > t })
	a, b := stops[i-1], stops[i]
	if r.Constant {
		return a.Color
	}
	span := b.Pos - a.Pos
	if span <= 0 {
		return b.Color
	}
	f := math32.Min(math32.Max((t-a.Pos)/span, 0), 1)
	var c [4]float32
	for k := range c {
		c[k] = a.Color[k] + (b.Color[k]-a.Color[k])*f
	}
	return c
}

func (r *Ramp) sorted() []RampStop {
	if sort.SliceIsSorted(r.Stops, func(i, j int) bool { return r.Stops[i].Pos < r.Stops[j].Pos }) {
		return r.Stops
	}
	s := append([]RampStop(nil), r.Stops...)
	sort.SliceStable(s, func(i, j int) bool { return s[i].Pos < s[j].Pos })
	return s
}

// Clone returns a deep copy.
func (r *Ramp) Clone() *Ramp {
	return &Ramp{Stops: append([]RampStop(nil), r.Stops...), Constant: r.Constant}
}
