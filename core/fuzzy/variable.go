package fuzzy

import (
	"math"

	"example.com/fan-control/base/floats"
)

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// A Series is the sampled membership function of one labelled set.
type Series struct {
	Label  string  `json:"label"`
	Color  string  `json:"color,omitempty"`
	Points []Point `json:"data"`
}

// A Variable is a named scalar domain partitioned into labelled fuzzy sets.
// Variables are immutable once constructed.
type Variable struct {
	name     string
	min, max float64
	sets     []Set
	index    map[string]int
}

func NewVariable(name string, lo, hi float64, sets ...Set) (*Variable, error) {
	component := "variable " + name
	if name == "" {
		return nil, configErrorf("variable", "empty name")
	}
	if !(lo < hi) || math.IsInf(lo, 0) || math.IsInf(hi, 0) {
		return nil, configErrorf(component, "domain [%v, %v] is not a finite interval", lo, hi)
	}
	if len(sets) == 0 {
		return nil, configErrorf(component, "no sets")
	}
	v := &Variable{
		name:  name,
		min:   lo,
		max:   hi,
		sets:  make([]Set, 0, len(sets)),
		index: make(map[string]int, len(sets)),
	}
	for _, s := range sets {
		if s.kind == 0 {
			return nil, configErrorf(component, "uninitialized set")
		}
		if _, ok := v.index[s.name]; ok {
			return nil, configErrorf(component, "duplicate label %q", s.name)
		}
		v.index[s.name] = len(v.sets)
		v.sets = append(v.sets, s)
	}
	return v, nil
}

func (v *Variable) Name() string { return v.name }

func (v *Variable) Min() float64 { return v.min }

func (v *Variable) Max() float64 { return v.max }

// Labels returns the set labels in insertion order.
func (v *Variable) Labels() []string {
	ls := make([]string, len(v.sets))
	for i, s := range v.sets {
		ls[i] = s.name
	}
	return ls
}

func (v *Variable) Set(label string) (Set, bool) {
	i, ok := v.index[label]
	if !ok {
		return Set{}, false
	}
	return v.sets[i], true
}

// Fuzzify returns the membership degree of x in every set of v. The value is
// not clamped to the domain of v.
func (v *Variable) Fuzzify(x float64) map[string]float64 {
	ds := make(map[string]float64, len(v.sets))
	for _, s := range v.sets {
		ds[s.name] = s.Degree(x)
	}
	return ds
}

// Sample evaluates every set at n+1 evenly spaced points across the domain,
// endpoints included.
func (v *Variable) Sample(n int) []Series {
	if n < 1 {
		panic("unexpected number of sample points")
	}
	xs := floats.Linspace(v.min, v.max, n)
	ss := make([]Series, len(v.sets))
	for i, s := range v.sets {
		ps := make([]Point, len(xs))
		for j, x := range xs {
			ps[j] = Point{X: x, Y: s.Degree(x)}
		}
		ss[i] = Series{Label: s.name, Points: ps}
	}
	return ss
}
