package features

// TotalValueHeuristic maps the newest measured total to a fixed probability of LabelA: low
// totals lean small, high totals lean big, the middle stays neutral.
func TotalValueHeuristic(last *float64) float64 {
	if last == nil {
		return Neutral
	}
	v := *last
	switch {
	case v <= 7:
		return 0.40
	case v <= 9:
		return 0.45
	case v <= 12:
		return 0.50
	case v <= 14:
		return 0.55
	default:
		return 0.60
	}
}

// TotalsTrend is the mean first difference over the last n measured values, and false when
// fewer than two are available.
func TotalsTrend(values []float64) (float64, bool) {
	if len(values) < 2 {
		return 0, false
	}
	sum := 0.0
	for i := 1; i < len(values); i++ {
		sum += values[i] - values[i-1]
	}
	return sum / float64(len(values)-1), true
}
