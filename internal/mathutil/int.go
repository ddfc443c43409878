package mathutil

// IntClamp limits x to [lo, hi]. When lo > hi the result is lo.
func IntClamp(x, lo, hi int) int {
	if x > hi {
		x = hi
	}
	if x < lo {
		x = lo
	}
	return x
}
