package fuzzy

import (
	"math"
	"strings"
)

type Kind int

const (
	Triangular Kind = iota + 1
	Trapezoidal
	Gaussian
	Singleton
)

var kindNames = [...]string{
	Triangular:  "triangular",
	Trapezoidal: "trapezoidal",
	Gaussian:    "gaussian",
	Singleton:   "singleton",
}

func (k Kind) String() string {
	if k < Triangular || k > Singleton {
		return "unknown"
	}
	return kindNames[k]
}

func (k Kind) numParams() int {
	switch k {
	case Triangular:
		return 3
	case Trapezoidal:
		return 4
	case Gaussian:
		return 2
	case Singleton:
		return 1
	default:
		return -1
	}
}

// ParseKind maps a membership function name such as "triangular" to its Kind.
func ParseKind(s string) (Kind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for k := Triangular; k <= Singleton; k++ {
		if kindNames[k] == s {
			return k, nil
		}
	}
	return 0, configErrorf("set kind", "unknown kind %q", s)
}

// A Set is a named membership function. Sets are immutable.
type Set struct {
	name   string
	kind   Kind
	params []float64
}

// NewSet returns a fuzzy set of the given kind. The parameters are
// triangular (a, b, c), trapezoidal (a, b, c, d), gaussian (center, spread)
// and singleton (value).
func NewSet(name string, kind Kind, params ...float64) (Set, error) {
	component := "set " + name
	if name == "" {
		return Set{}, configErrorf("set", "empty name")
	}
	n := kind.numParams()
	if n < 0 {
		return Set{}, configErrorf(component, "unknown kind %d", int(kind))
	}
	if len(params) != n {
		return Set{}, configErrorf(component, "%s set requires %d parameters, got %d",
			kind, n, len(params))
	}
	switch kind {
	case Triangular:
		if !(params[0] <= params[1] && params[1] <= params[2]) {
			return Set{}, configErrorf(component, "triangular parameters %v not ordered", params)
		}
	case Trapezoidal:
		if !(params[0] <= params[1] && params[1] <= params[2] && params[2] <= params[3]) {
			return Set{}, configErrorf(component, "trapezoidal parameters %v not ordered", params)
		}
	case Gaussian:
		if !(params[1] > 0) || math.IsInf(params[1], 0) || math.IsNaN(params[0]) {
			return Set{}, configErrorf(component, "gaussian spread must be positive, got %v", params[1])
		}
	case Singleton:
		if math.IsNaN(params[0]) {
			return Set{}, configErrorf(component, "singleton value is NaN")
		}
	}
	s := Set{
		name:   name,
		kind:   kind,
		params: make([]float64, n),
	}
	copy(s.params, params)
	return s, nil
}

func (s Set) Name() string { return s.name }

func (s Set) Kind() Kind { return s.kind }

func (s Set) Params() []float64 {
	ps := make([]float64, len(s.params))
	copy(ps, s.params)
	return ps
}

// Degree returns the membership degree of x in s, in [0, 1]. NaN is a
// member of no set.
func (s Set) Degree(x float64) float64 {
	if math.IsNaN(x) {
		return 0
	}
	p := s.params
	switch s.kind {
	case Triangular:
		return triangular(x, p[0], p[1], p[2])
	case Trapezoidal:
		return trapezoidal(x, p[0], p[1], p[2], p[3])
	case Gaussian:
		return gaussian(x, p[0], p[1])
	case Singleton:
		return singleton(x, p[0])
	default:
		return 0
	}
}

func triangular(x, a, b, c float64) float64 {
	switch {
	case x < a || x > c:
		return 0
	case x == b:
		// covers the degenerate a == b and b == c shapes
		return 1
	case x < b:
		return (x - a) / (b - a)
	default:
		return (c - x) / (c - b)
	}
}

func trapezoidal(x, a, b, c, d float64) float64 {
	switch {
	case x < a || x > d:
		return 0
	case x >= b && x <= c:
		return 1
	case x < b:
		return (x - a) / (b - a)
	default:
		return (d - x) / (d - c)
	}
}

func gaussian(x, center, spread float64) float64 {
	dx := x - center
	return math.Exp(-(dx * dx) / (2 * spread * spread))
}

// singleton compares exactly; it only ever fires on the configured value.
func singleton(x, v float64) float64 {
	if x == v {
		return 1
	}
	return 0
}
