package common

import "math"

func Lerp(a, b, t float64) float64 {
	return a + t*(b-a)
}

func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// CosineEase is 1-cos(pi*remaining/duration) clamped to [0,1]. It is 0 when
// nothing remains and saturates at 1 from the half-way point upward.
func CosineEase(remaining, duration float64) float64 {
	if duration <= 0 {
		return 0
	}
	return Clamp(1-math.Cos(math.Pi*remaining/duration), 0, 1)
}

// ApproxEqual reports whether a and b are within eps of each other.
func ApproxEqual(a, b, eps float64) bool {
	return math.Abs(a-b) <= eps
}

func Abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
