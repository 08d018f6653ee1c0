package utils

import (
	"math"
)

func ConstArray(N int, val float64) (v []float64) {
	v = make([]float64, N)
	for i := range v {
		v[i] = val
	}
	return
}

// Sinc is sin(x)/x, continued to 1 at the origin
func Sinc(x float64) float64 {
	if math.Abs(x) < 1.e-8 {
		return 1. - x*x/6.
	}
	return math.Sin(x) / x
}

// Clamp limits x to [lo, hi]
func Clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// Reverse returns a reversed copy of v
func Reverse(v []float64) (r []float64) {
	r = make([]float64, len(v))
	for i := range v {
		r[len(v)-1-i] = v[i]
	}
	return
}
