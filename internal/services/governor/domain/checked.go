package domain

import "math"

// CheckedAdd returns a+b and false when the sum leaves the int64 range.
func CheckedAdd(a, b int64) (int64, bool) {
	if (b > 0 && a > math.MaxInt64-b) || (b < 0 && a < math.MinInt64-b) {
		return 0, false
	}
	return a + b, true
}

// CheckedSub returns a-b and false when the difference leaves the int64 range.
func CheckedSub(a, b int64) (int64, bool) {
	if (b > 0 && a < math.MinInt64+b) || (b < 0 && a > math.MaxInt64+b) {
		return 0, false
	}
	return a - b, true
}
