package mathutil

import "math"

// Clamp01 limits x to [0, 1].
func Clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

// Lerp interpolates between a and b by t.
func Lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// Quantize maps x in [0,1] to the nearest of levels evenly spaced steps and
// returns the step index.
func Quantize(x float64, levels int) int {
	if levels < 2 {
		return 0
	}
	return int(math.Round(Clamp01(x) * float64(levels-1)))
}

// NearlyZero reports whether |x| is below eps.
func NearlyZero(x, eps float64) bool {
	return math.Abs(x) < eps
}
