package expert

import (
	"fmt"

	"github.com/yourusername/streak-oracle/internal/features"
	"github.com/yourusername/streak-oracle/internal/models"
)

var (
	deepWindows      = []int{3, 4, 5, 6, 8}
	temporalHorizons = []int{3, 6, 12, 24}
)

const (
	minLag          = 2
	maxLag          = 5
	trendLookback   = 6
	trendScale      = 6.0
	graphicalRecent = 20

	volatilityLookback = 10
	volatilityCentre   = 5.0
	volatilityScale    = 3.0
)

// deepSequence pools n-gram follow counts over several pattern lengths, weighting each
// window's matches by its length.
func deepSequence(c Context) Output {
	var num, den float64
	for _, w := range deepWindows {
		matches, a := features.NGramCounts(c.History, w)
		num += float64(w * a)
		den += float64(w * matches)
	}
	if den == 0 {
		return Output{ProbabilityA: features.Neutral, Rationale: "no pattern matches"}
	}
	return Output{
		ProbabilityA: num / den,
		Rationale:    fmt.Sprintf("pooled %d weighted pattern matches", int(den)),
	}
}

// pairwiseLag averages P(next = A | label k steps back) over lags 2..5.
func pairwiseLag(c Context) Output {
	h := c.History
	n := len(h)
	sum, used := 0.0, 0
	for k := minLag; k <= maxLag; k++ {
		if n < k+1 {
			break
		}
		cond := h[n-k].Label
		seen, a := 0, 0
		for t := k; t < n; t++ {
			if h[t-k].Label != cond {
				continue
			}
			seen++
			if h[t].Label == models.LabelA {
				a++
			}
		}
		if seen == 0 {
			continue
		}
		sum += float64(a) / float64(seen)
		used++
	}
	if used == 0 {
		return Output{ProbabilityA: features.Neutral, Rationale: "no lag observations"}
	}
	return Output{
		ProbabilityA: sum / float64(used),
		Rationale:    fmt.Sprintf("mean over %d lags", used),
	}
}

// temporalFusion mixes label frequencies at several horizons with the short-term totals trend.
func temporalFusion(c Context) Output {
	sum := 0.0
	for _, hz := range temporalHorizons {
		sum += features.RecentFrequency(c.History, hz)
	}
	trendP := features.Neutral
	trend, ok := features.TotalsTrend(features.MeasuredTail(c.History, trendLookback))
	if ok {
		trendP = features.Clamp(features.Neutral+trend/trendScale, 0, 1)
	}
	sum += trendP
	return Output{
		ProbabilityA: sum / float64(len(temporalHorizons)+1),
		Rationale:    fmt.Sprintf("totals trend %+.2f", trend),
	}
}

func graphical(c Context) Output {
	p1 := firstOrder(c)
	p2, seen := secondOrder(c)
	if !seen {
		p2 = p1
	}
	r := features.RecentFrequency(c.History, graphicalRecent)
	return Output{
		ProbabilityA: 0.4*p1 + 0.4*p2 + 0.2*r,
		Rationale:    fmt.Sprintf("P1=%.3f P2=%.3f recent=%.2f", p1, p2, r),
	}
}

// volatility maps the variance of the last ten totals onto P(A): calm stretches lean B,
// erratic ones lean A, always within [0.05, 0.95].
func volatility(c Context) Output {
	totals := features.MeasuredTail(c.History, volatilityLookback)
	if len(totals) < 2 {
		return Output{ProbabilityA: features.Neutral, Rationale: "not enough totals"}
	}
	sd := features.StdDev(totals)
	v := sd * sd
	return Output{
		ProbabilityA: sigmoid((v-volatilityCentre)/volatilityScale)*0.9 + 0.05,
		Rationale:    fmt.Sprintf("variance %.2f over %d totals", v, len(totals)),
	}
}
