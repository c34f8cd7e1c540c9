package fuzzy

import (
	"fmt"
	"math"

	"example.com/fan-control/base/floats"
)

// DefaultResolution is the number of intervals each output domain is divided
// into for centroid defuzzification.
const DefaultResolution = 100

type options struct {
	resolution int
}

type Option func(*options)

// WithResolution sets the number of defuzzification intervals.
func WithResolution(n int) Option {
	return func(o *options) { o.resolution = n }
}

// A System is a Mamdani fuzzy inference system. It is assembled once by
// NewSystem and is safe for concurrent use by multiple goroutines as long as
// none of its rules are modified.
type System struct {
	inputs     []*Variable
	outputs    []*Variable
	inputIdx   map[string]*Variable
	outputIdx  map[string]*Variable
	rules      []*Rule
	resolution int
	grids      map[string][]float64
}

type Chart struct {
	Inputs  map[string][]Series `json:"inputs"`
	Outputs map[string][]Series `json:"outputs"`
}

func indexVariables(kind string, vs []*Variable) (map[string]*Variable, error) {
	idx := make(map[string]*Variable, len(vs))
	for _, v := range vs {
		if v == nil {
			return nil, configErrorf("system", "nil %s variable", kind)
		}
		if _, ok := idx[v.name]; ok {
			return nil, configErrorf("system", "duplicate %s variable %q", kind, v.name)
		}
		idx[v.name] = v
	}
	return idx, nil
}

// NewSystem validates the variables and rules and resolves every name a rule
// refers to. Antecedents must refer to input variables and consequents to
// output variables.
func NewSystem(inputs, outputs []*Variable, rules []*Rule, opts ...Option) (*System, error) {
	o := options{resolution: DefaultResolution}
	for _, opt := range opts {
		opt(&o)
	}
	if o.resolution < 1 {
		return nil, configErrorf("system", "resolution must be positive, got %d", o.resolution)
	}
	if len(outputs) == 0 {
		return nil, configErrorf("system", "no output variables")
	}
	inputIdx, err := indexVariables("input", inputs)
	if err != nil {
		return nil, err
	}
	outputIdx, err := indexVariables("output", outputs)
	if err != nil {
		return nil, err
	}
	for i, r := range rules {
		if r == nil {
			return nil, configErrorf("system", "nil rule %d", i)
		}
		component := fmt.Sprintf("rule %d (%s)", i, r)
		for _, t := range r.antecedents {
			v, ok := inputIdx[t.Variable]
			if !ok {
				return nil, configErrorf(component, "unknown input variable %q", t.Variable)
			}
			if _, ok := v.index[t.Label]; !ok {
				return nil, configErrorf(component, "unknown label %q of variable %q", t.Label, t.Variable)
			}
		}
		if len(r.consequents) == 0 {
			return nil, configErrorf(component, "no consequents")
		}
		for _, c := range r.consequents {
			v, ok := outputIdx[c.Variable]
			if !ok {
				return nil, configErrorf(component, "unknown output variable %q", c.Variable)
			}
			if _, ok := v.index[c.Label]; !ok {
				return nil, configErrorf(component, "unknown label %q of variable %q", c.Label, c.Variable)
			}
		}
	}
	s := &System{
		inputs:     append([]*Variable(nil), inputs...),
		outputs:    append([]*Variable(nil), outputs...),
		inputIdx:   inputIdx,
		outputIdx:  outputIdx,
		rules:      append([]*Rule(nil), rules...),
		resolution: o.resolution,
		grids:      make(map[string][]float64, len(outputs)),
	}
	for _, v := range s.outputs {
		s.grids[v.name] = floats.Linspace(v.min, v.max, s.resolution)
	}
	return s, nil
}

func (s *System) Inputs() []*Variable { return append([]*Variable(nil), s.inputs...) }

func (s *System) Outputs() []*Variable { return append([]*Variable(nil), s.outputs...) }

func (s *System) Rules() []*Rule { return append([]*Rule(nil), s.rules...) }

func (s *System) Resolution() int { return s.resolution }

func (s *System) Input(name string) (*Variable, bool) {
	v, ok := s.inputIdx[name]
	return v, ok
}

func (s *System) Output(name string) (*Variable, bool) {
	v, ok := s.outputIdx[name]
	return v, ok
}

// Fuzzify fuzzifies every input that is both known to s and present in
// inputs. Unknown names are ignored.
func (s *System) Fuzzify(inputs map[string]float64) map[string]map[string]float64 {
	fuzzified := make(map[string]map[string]float64, len(s.inputs))
	for _, v := range s.inputs {
		x, ok := inputs[v.name]
		if !ok {
			continue
		}
		fuzzified[v.name] = v.Fuzzify(x)
	}
	return fuzzified
}

// Aggregate fires every rule and combines the results per output set with
// OR (maximum). Every output label is present in the result, with degree 0 if
// no rule concluded it.
func (s *System) Aggregate(fuzzified map[string]map[string]float64) map[string]map[string]float64 {
	activations := make(map[string]map[string]float64, len(s.outputs))
	for _, v := range s.outputs {
		ls := make(map[string]float64, len(v.sets))
		for _, set := range v.sets {
			ls[set.name] = 0
		}
		activations[v.name] = ls
	}
	for _, r := range s.rules {
		for name, fired := range r.Fire(fuzzified) {
			ls, ok := activations[name]
			if !ok {
				continue
			}
			for label, a := range fired {
				if cur, ok := ls[label]; ok {
					ls[label] = math.Max(cur, a)
				}
			}
		}
	}
	return activations
}

// Defuzzify computes the centroid of the clipped and aggregated output sets
// of every output variable. An output without any activation defuzzifies to
// the midpoint of its domain.
func (s *System) Defuzzify(activations map[string]map[string]float64) map[string]float64 {
	res := make(map[string]float64, len(s.outputs))
	for _, v := range s.outputs {
		ls := activations[v.name]
		var num, den float64
		for _, x := range s.grids[v.name] {
			var y float64
			for _, set := range v.sets {
				a := ls[set.name]
				if a > 0 {
					y = math.Max(y, math.Min(a, set.Degree(x)))
				}
			}
			num += x * y
			den += y
		}
		if den > 0 {
			res[v.name] = num / den
		} else {
			res[v.name] = floats.Midpoint(v.min, v.max)
		}
	}
	return res
}

// Evaluate maps crisp inputs to crisp outputs: fuzzification, rule evaluation
// and centroid defuzzification. The result holds a value for every output
// variable.
func (s *System) Evaluate(inputs map[string]float64) map[string]float64 {
	return s.Defuzzify(s.Aggregate(s.Fuzzify(inputs)))
}

// Result returns the value of output name in results, or an error wrapping
// ErrNoResult.
func Result(results map[string]float64, name string) (float64, error) {
	x, ok := results[name]
	if !ok {
		return 0, fmt.Errorf("%w for variable %q", ErrNoResult, name)
	}
	return x, nil
}

// Chart samples every variable of s at n+1 points.
func (s *System) Chart(n int) Chart {
	c := Chart{
		Inputs:  make(map[string][]Series, len(s.inputs)),
		Outputs: make(map[string][]Series, len(s.outputs)),
	}
	for _, v := range s.inputs {
		c.Inputs[v.name] = v.Sample(n)
	}
	for _, v := range s.outputs {
		c.Outputs[v.name] = v.Sample(n)
	}
	return c
}
