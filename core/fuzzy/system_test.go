package fuzzy_test

import (
	"errors"
	"math"
	"sync"
	"testing"

	"example.com/fan-control/core/fuzzy"
)

func speedVariable(t *testing.T) *fuzzy.Variable {
	t.Helper()
	v, err := fuzzy.NewVariable("speed", 0, 3000,
		mustSet(t, "slow", fuzzy.Triangular, 0, 0, 500),
		mustSet(t, "medium", fuzzy.Triangular, 300, 1000, 1500),
		mustSet(t, "fast", fuzzy.Triangular, 1200, 3000, 3000),
	)
	if err != nil {
		t.Fatalf("NewVariable failed: %v", err)
	}
	return v
}

func fanRules() []*fuzzy.Rule {
	rule := func(in, out string) *fuzzy.Rule {
		return fuzzy.NewRule(
			[]fuzzy.Term{{Variable: "temperature", Label: in}},
			[]fuzzy.Consequent{{Variable: "speed", Label: out}},
			1.0,
		)
	}
	return []*fuzzy.Rule{
		rule("low", "slow"),
		rule("medium", "medium"),
		rule("high", "fast"),
	}
}

func fanSystem(t *testing.T, opts ...fuzzy.Option) *fuzzy.System {
	t.Helper()
	s, err := fuzzy.NewSystem(
		[]*fuzzy.Variable{temperatureVariable(t)},
		[]*fuzzy.Variable{speedVariable(t)},
		fanRules(),
		opts...,
	)
	if err != nil {
		t.Fatalf("NewSystem failed: %v", err)
	}
	return s
}

// centroid integrates the clipped set numerically, independent of the
// discretization used by the system.
func centroid(s fuzzy.Set, clip, lo, hi float64) float64 {
	const n = 300000
	var num, den float64
	dx := (hi - lo) / n
	for i := 0; i < n; i++ {
		x := lo + (float64(i)+0.5)*dx
		y := math.Min(clip, s.Degree(x))
		num += x * y
		den += y
	}
	return num / den
}

func TestNewSystemInvalid(t *testing.T) {
	temp := temperatureVariable(t)
	speed := speedVariable(t)
	tests := []struct {
		name    string
		inputs  []*fuzzy.Variable
		outputs []*fuzzy.Variable
		rules   []*fuzzy.Rule
		opts    []fuzzy.Option
	}{
		{
			name:    "No outputs",
			inputs:  []*fuzzy.Variable{temp},
			outputs: nil,
		},
		{
			name:    "Duplicate input",
			inputs:  []*fuzzy.Variable{temp, temp},
			outputs: []*fuzzy.Variable{speed},
		},
		{
			name:    "Nil output",
			inputs:  []*fuzzy.Variable{temp},
			outputs: []*fuzzy.Variable{nil},
		},
		{
			name:    "Unknown antecedent variable",
			inputs:  []*fuzzy.Variable{temp},
			outputs: []*fuzzy.Variable{speed},
			rules: []*fuzzy.Rule{fuzzy.NewRule(
				[]fuzzy.Term{{Variable: "humidity", Label: "dry"}},
				[]fuzzy.Consequent{{Variable: "speed", Label: "slow"}}, 1)},
		},
		{
			name:    "Unknown antecedent label",
			inputs:  []*fuzzy.Variable{temp},
			outputs: []*fuzzy.Variable{speed},
			rules: []*fuzzy.Rule{fuzzy.NewRule(
				[]fuzzy.Term{{Variable: "temperature", Label: "tepid"}},
				[]fuzzy.Consequent{{Variable: "speed", Label: "slow"}}, 1)},
		},
		{
			name:    "Antecedent on output variable",
			inputs:  []*fuzzy.Variable{temp},
			outputs: []*fuzzy.Variable{speed},
			rules: []*fuzzy.Rule{fuzzy.NewRule(
				[]fuzzy.Term{{Variable: "speed", Label: "slow"}},
				[]fuzzy.Consequent{{Variable: "speed", Label: "slow"}}, 1)},
		},
		{
			name:    "Unknown consequent label",
			inputs:  []*fuzzy.Variable{temp},
			outputs: []*fuzzy.Variable{speed},
			rules: []*fuzzy.Rule{fuzzy.NewRule(
				[]fuzzy.Term{{Variable: "temperature", Label: "low"}},
				[]fuzzy.Consequent{{Variable: "speed", Label: "ludicrous"}}, 1)},
		},
		{
			name:    "No consequents",
			inputs:  []*fuzzy.Variable{temp},
			outputs: []*fuzzy.Variable{speed},
			rules: []*fuzzy.Rule{fuzzy.NewRule(
				[]fuzzy.Term{{Variable: "temperature", Label: "low"}}, nil, 1)},
		},
		{
			name:    "Nil rule",
			inputs:  []*fuzzy.Variable{temp},
			outputs: []*fuzzy.Variable{speed},
			rules:   []*fuzzy.Rule{nil},
		},
		{
			name:    "Zero resolution",
			inputs:  []*fuzzy.Variable{temp},
			outputs: []*fuzzy.Variable{speed},
			opts:    []fuzzy.Option{fuzzy.WithResolution(0)},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := fuzzy.NewSystem(tt.inputs, tt.outputs, tt.rules, tt.opts...)
			var cerr *fuzzy.ConfigurationError
			if !errors.As(err, &cerr) {
				t.Errorf("NewSystem error = %v, want *ConfigurationError", err)
			}
		})
	}
}

func TestAggregate(t *testing.T) {
	s := fanSystem(t)
	got := s.Aggregate(s.Fuzzify(map[string]float64{"temperature": 27.5}))
	act := got["speed"]
	if act["slow"] != 0 || act["medium"] != 0.5 || act["fast"] != 2.5/15 {
		t.Errorf("Aggregate(27.5) = %v", got)
	}

	// a duplicate, weaker rule does not lower the aggregated degree
	rules := append(fanRules(), fuzzy.NewRule(
		[]fuzzy.Term{{Variable: "temperature", Label: "medium"}},
		[]fuzzy.Consequent{{Variable: "speed", Label: "medium"}}, 0.1))
	s2, err := fuzzy.NewSystem(
		[]*fuzzy.Variable{temperatureVariable(t)},
		[]*fuzzy.Variable{speedVariable(t)},
		rules,
	)
	if err != nil {
		t.Fatalf("NewSystem failed: %v", err)
	}
	got2 := s2.Aggregate(s2.Fuzzify(map[string]float64{"temperature": 27.5}))
	if got2["speed"]["medium"] != 0.5 {
		t.Errorf("aggregated medium = %v, want 0.5", got2["speed"]["medium"])
	}
}

func TestEvaluateCentroid(t *testing.T) {
	s := fanSystem(t)
	res := s.Evaluate(map[string]float64{"temperature": 20})
	speed, err := fuzzy.Result(res, "speed")
	if err != nil {
		t.Fatalf("Result failed: %v", err)
	}
	medium, _ := speedVariable(t).Set("medium")
	want := centroid(medium, 0.5, 0, 3000)
	if math.Abs(speed-want) > 1 {
		t.Errorf("Evaluate(20) speed = %v, want %v +/- 1", speed, want)
	}
	if speed < 0 || speed > 3000 {
		t.Errorf("Evaluate(20) speed = %v outside [0, 3000]", speed)
	}

	fine := fanSystem(t, fuzzy.WithResolution(3000))
	if fine.Resolution() != 3000 {
		t.Fatalf("Resolution() = %d, want 3000", fine.Resolution())
	}
	fineSpeed := fine.Evaluate(map[string]float64{"temperature": 20})["speed"]
	if math.Abs(fineSpeed-want) > math.Abs(speed-want) {
		t.Errorf("finer resolution moved away from centroid: %v vs %v (want %v)", fineSpeed, speed, want)
	}
}

func TestEvaluateIdempotent(t *testing.T) {
	s := fanSystem(t)
	for x := 0.0; x <= 40; x += 0.5 {
		in := map[string]float64{"temperature": x}
		a := s.Evaluate(in)["speed"]
		b := s.Evaluate(in)["speed"]
		if math.Float64bits(a) != math.Float64bits(b) {
			t.Fatalf("Evaluate(%v) not reproducible: %v != %v", x, a, b)
		}
	}
}

func TestEvaluateMidpointFallback(t *testing.T) {
	s := fanSystem(t)
	tests := []struct {
		name   string
		inputs map[string]float64
	}{
		{"No inputs", nil},
		{"Unknown input", map[string]float64{"humidity": 50}},
		{"Outside every set", map[string]float64{"temperature": -10}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := s.Evaluate(tt.inputs)
			if got := res["speed"]; got != (0.0+3000.0)/2 {
				t.Errorf("Evaluate(%v) speed = %v, want 1500", tt.inputs, got)
			}
		})
	}

	rules := []*fuzzy.Rule{fuzzy.NewRule(
		[]fuzzy.Term{{Variable: "temperature", Label: "low"}},
		[]fuzzy.Consequent{{Variable: "speed", Label: "slow"}}, 0)}
	zero, err := fuzzy.NewSystem(
		[]*fuzzy.Variable{temperatureVariable(t)},
		[]*fuzzy.Variable{speedVariable(t)},
		rules,
	)
	if err != nil {
		t.Fatalf("NewSystem failed: %v", err)
	}
	if got := zero.Evaluate(map[string]float64{"temperature": 0})["speed"]; got != 1500 {
		t.Errorf("zero-weight rule: speed = %v, want 1500", got)
	}
}

func TestEvaluateMonotonic(t *testing.T) {
	s := fanSystem(t)
	prev := math.Inf(-1)
	for x := 20.0; x <= 30; x += 0.25 {
		speed := s.Evaluate(map[string]float64{"temperature": x})["speed"]
		if speed < prev {
			t.Fatalf("speed decreased at %v: %v < %v", x, speed, prev)
		}
		prev = speed
	}
}

func TestResult(t *testing.T) {
	_, err := fuzzy.Result(map[string]float64{"speed": 1}, "noise")
	if !errors.Is(err, fuzzy.ErrNoResult) {
		t.Errorf("Result error = %v, want ErrNoResult", err)
	}
	if got, err := fuzzy.Result(map[string]float64{"speed": 1}, "speed"); err != nil || got != 1 {
		t.Errorf("Result = %v, %v, want 1, nil", got, err)
	}
}

func TestEvaluateConcurrent(t *testing.T) {
	s := fanSystem(t)
	want := s.Evaluate(map[string]float64{"temperature": 27})["speed"]
	var wg sync.WaitGroup
	errs := make(chan float64, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				got := s.Evaluate(map[string]float64{"temperature": 27})["speed"]
				if got != want {
					errs <- got
					return
				}
			}
		}()
	}
	wg.Wait()
	close(errs)
	for got := range errs {
		t.Errorf("concurrent Evaluate(27) = %v, want %v", got, want)
	}
}

func TestChart(t *testing.T) {
	s := fanSystem(t)
	c := s.Chart(100)
	if len(c.Inputs["temperature"]) != 3 || len(c.Outputs["speed"]) != 3 {
		t.Fatalf("Chart(100) = %d inputs, %d outputs series", len(c.Inputs["temperature"]), len(c.Outputs["speed"]))
	}
	for _, ss := range c.Outputs["speed"] {
		if len(ss.Points) != 101 {
			t.Errorf("series %q has %d points, want 101", ss.Label, len(ss.Points))
		}
	}
}
