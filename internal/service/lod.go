package service

import "math"

// adaptiveBudget converts a zoom factor into a point budget:
//
//	min(base * min(zoom^1.5, capMultiplier), maxAdaptive)
//
// clamped below by base. Monotonically non-decreasing in zoom. Zoom 1.0 is
// the fully zoomed-out overview.
func adaptiveBudget(zoom float64, base, maxAdaptive int, capMultiplier float64) int {
	if zoom < 1.0 {
		zoom = 1.0
	}
	if capMultiplier < 1.0 {
		capMultiplier = 1.0
	}

	mult := math.Min(math.Pow(zoom, 1.5), capMultiplier)
	budget := int(float64(base) * mult)
	if budget < base {
		budget = base
	}
	if maxAdaptive > 0 && budget > maxAdaptive {
		budget = maxAdaptive
	}
	return budget
}

// significantRatioSchedule maps zoom breakpoints to the share of the sample
// budget reserved for significant rows. At high zoom enough points are
// rendered that raw density carries the signal, so the extreme-point bias
// relaxes.
var significantRatioSchedule = []struct {
	zoom  float64
	ratio float64
}{
	{1.0, 0.6},
	{2.0, 0.5},
	{3.0, 0.4},
	{4.0, 0.3},
}

// significantRatioForZoom linearly interpolates the schedule, clamping at
// the endpoints.
func significantRatioForZoom(zoom float64) float64 {
	s := significantRatioSchedule
	if zoom <= s[0].zoom {
		return s[0].ratio
	}
	if zoom >= s[len(s)-1].zoom {
		return s[len(s)-1].ratio
	}
	for i := 1; i < len(s); i++ {
		if zoom <= s[i].zoom {
			t := (zoom - s[i-1].zoom) / (s[i].zoom - s[i-1].zoom)
			return s[i-1].ratio + t*(s[i].ratio-s[i-1].ratio)
		}
	}
	return s[len(s)-1].ratio
}
