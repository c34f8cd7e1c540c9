package controller

import (
	"crypto/md5"
	"encoding/hex"

	"example.com/fan-control/core/fuzzy"
)

type setDef struct {
	label  string
	params [3]float64
}

var (
	temperatureSets = []setDef{
		{"low", [3]float64{0, 0, 20}},
		{"medium", [3]float64{15, 25, 30}},
		{"high", [3]float64{25, 40, 40}},
	}
	speedSets = []setDef{
		{"slow", [3]float64{0, 0, 500}},
		{"medium", [3]float64{300, 1000, 1500}},
		{"fast", [3]float64{1200, 3000, 3000}},
	}
	// temperature label -> speed label
	ruleBase = [][2]string{
		{"low", "slow"},
		{"medium", "medium"},
		{"high", "fast"},
	}
)

// Chart colors, keyed by variable and label since both variables have a
// "medium" set.
var palette = map[string]map[string]string{
	VarTemperature: {
		"low":    "#3498db",
		"medium": "#2ecc71",
		"high":   "#e74c3c",
	},
	VarSpeed: {
		"slow":   "#9b59b6",
		"medium": "#1abc9c",
		"fast":   "#d35400",
	},
}

func triangularVariable(name string, lo, hi float64, defs []setDef) (*fuzzy.Variable, error) {
	sets := make([]fuzzy.Set, 0, len(defs))
	for _, s := range defs {
		set, err := fuzzy.NewSet(s.label, fuzzy.Triangular, s.params[:]...)
		if err != nil {
			return nil, err
		}
		sets = append(sets, set)
	}
	return fuzzy.NewVariable(name, lo, hi, sets...)
}

func newFanSystem(opts ...fuzzy.Option) (*fuzzy.System, error) {
	temperature, err := triangularVariable(VarTemperature, TemperatureMin, TemperatureMax, temperatureSets)
	if err != nil {
		return nil, err
	}
	speed, err := triangularVariable(VarSpeed, SpeedMin, SpeedMax, speedSets)
	if err != nil {
		return nil, err
	}
	rules := make([]*fuzzy.Rule, 0, len(ruleBase))
	for _, r := range ruleBase {
		rules = append(rules, fuzzy.NewRule(
			[]fuzzy.Term{{Variable: VarTemperature, Label: r[0]}},
			[]fuzzy.Consequent{{Variable: VarSpeed, Label: r[1]}},
			1.0,
		))
	}
	return fuzzy.NewSystem(
		[]*fuzzy.Variable{temperature},
		[]*fuzzy.Variable{speed},
		rules,
		opts...,
	)
}

// Color returns the chart color of a set. Labels without a fixed color get
// one derived from their name.
func Color(variable, label string) string {
	if c, ok := palette[variable][label]; ok {
		return c
	}
	sum := md5.Sum([]byte(label))
	return "#" + hex.EncodeToString(sum[:3])
}

// Chart samples every variable at n+1 points and colors the series.
func (c *Controller) Chart(n int) fuzzy.Chart {
	ch := c.sys.Chart(n)
	for name, ss := range ch.Inputs {
		for i := range ss {
			ss[i].Color = Color(name, ss[i].Label)
		}
	}
	for name, ss := range ch.Outputs {
		for i := range ss {
			ss[i].Color = Color(name, ss[i].Label)
		}
	}
	return ch
}
