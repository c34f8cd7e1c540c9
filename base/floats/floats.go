package floats

import (
	"math"
)

// Clamp limits x to [lo, hi]. NaN is mapped to lo.
func Clamp(x, lo, hi float64) float64 {
	if lo > hi {
		panic("unexpected interval")
	}
	if !(x > lo) {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

func Midpoint(x, y float64) float64 {
	return (x + y) / 2.0
}

// Round rounds half away from zero.
func Round(x float64) float64 {
	return math.Round(x)
}

// Linspace returns n+1 evenly spaced points covering [lo, hi].
func Linspace(lo, hi float64, n int) []float64 {
	if n < 1 {
		panic("unexpected number of intervals")
	}
	xs := make([]float64, n+1)
	step := (hi - lo) / float64(n)
	for i := range xs {
		xs[i] = lo + float64(i)*step
	}
	return xs
}
