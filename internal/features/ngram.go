package features

import "github.com/yourusername/streak-oracle/internal/models"

// MinPattern is the shortest target pattern NGramFollowRate will look for.
const MinPattern = 3

// NGramCounts returns how many earlier windows of length w match the last w labels of h and
// how many of those matches were followed by LabelA.
func NGramCounts(h []models.Event, w int) (matches, followedByA int) {
	if w < MinPattern || len(h) <= w {
		return 0, 0
	}
	target := h[len(h)-w:]
	// a window starting at j needs its follower h[j+w] to lie before the target's end
	for j := 0; j+w < len(h); j++ {
		if !sameLabels(h[j:j+w], target) {
			continue
		}
		matches++
		if h[j+w].Label == models.LabelA {
			followedByA++
		}
	}
	return matches, followedByA
}

// NGramFollowRate is the fraction of matches of the trailing w-pattern that were followed by
// LabelA. It is Neutral when w < MinPattern or nothing matched.
func NGramFollowRate(h []models.Event, w int) float64 {
	matches, a := NGramCounts(h, w)
	return ratio(a, matches)
}

func sameLabels(a, b []models.Event) bool {
	for i := range a {
		if a[i].Label != b[i].Label {
			return false
		}
	}
	return true
}
