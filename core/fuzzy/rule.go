package fuzzy

import (
	"math"
	"strings"

	"example.com/fan-control/base/floats"
)

// A Term is one antecedent condition: Variable IS [NOT] Label.
type Term struct {
	Variable string
	Label    string
	Negated  bool
}

// A Consequent is one conclusion: Variable IS Label.
type Consequent struct {
	Variable string
	Label    string
}

// A Rule is a single Mamdani implication. Its antecedent terms are combined
// with AND (minimum) and the result is scaled by the rule weight.
//
// SetWeight must not be called while a system holding the rule is evaluating.
type Rule struct {
	antecedents []Term
	consequents []Consequent
	weight      float64
}

func clampWeight(w float64) float64 {
	return floats.Clamp(w, 0, 1)
}

// NewRule returns a rule with the weight clamped to [0, 1].
func NewRule(antecedents []Term, consequents []Consequent, weight float64) *Rule {
	r := &Rule{
		antecedents: make([]Term, len(antecedents)),
		consequents: make([]Consequent, len(consequents)),
		weight:      clampWeight(weight),
	}
	copy(r.antecedents, antecedents)
	copy(r.consequents, consequents)
	return r
}

func (r *Rule) Antecedents() []Term {
	ts := make([]Term, len(r.antecedents))
	copy(ts, r.antecedents)
	return ts
}

func (r *Rule) Consequents() []Consequent {
	cs := make([]Consequent, len(r.consequents))
	copy(cs, r.consequents)
	return cs
}

func (r *Rule) Weight() float64 { return r.weight }

// SetWeight sets the rule weight, clamped to [0, 1].
func (r *Rule) SetWeight(w float64) {
	r.weight = clampWeight(w)
}

// Activation returns the weighted firing strength of r. A term whose variable
// or label is missing from fuzzified makes the rule not fire at all; so does
// an empty antecedent.
func (r *Rule) Activation(fuzzified map[string]map[string]float64) float64 {
	if len(r.antecedents) == 0 {
		return 0
	}
	a := math.Inf(1)
	for _, t := range r.antecedents {
		d, ok := fuzzified[t.Variable][t.Label]
		if !ok {
			return 0
		}
		if t.Negated {
			d = 1 - d
		}
		a = math.Min(a, d)
	}
	return a * r.weight
}

// Fire maps every consequent of r to the activation of r.
func (r *Rule) Fire(fuzzified map[string]map[string]float64) map[string]map[string]float64 {
	a := r.Activation(fuzzified)
	res := make(map[string]map[string]float64, len(r.consequents))
	for _, c := range r.consequents {
		ls, ok := res[c.Variable]
		if !ok {
			ls = make(map[string]float64)
			res[c.Variable] = ls
		}
		ls[c.Label] = a
	}
	return res
}

func (r *Rule) String() string {
	var b strings.Builder
	b.WriteString("IF ")
	for i, t := range r.antecedents {
		if i != 0 {
			b.WriteString(" AND ")
		}
		if t.Negated {
			b.WriteString("NOT ")
		}
		b.WriteString(t.Variable)
		b.WriteString(" IS ")
		b.WriteString(t.Label)
	}
	b.WriteString(" THEN ")
	for i, c := range r.consequents {
		if i != 0 {
			b.WriteString(" AND ")
		}
		b.WriteString(c.Variable)
		b.WriteString(" IS ")
		b.WriteString(c.Label)
	}
	return b.String()
}
