package expert

import (
	"fmt"

	"github.com/yourusername/streak-oracle/internal/features"
	"github.com/yourusername/streak-oracle/internal/models"
)

const (
	runBiasMinRun  = 3
	runBiasAfterA  = 0.22
	runBiasAfterB  = 0.78
	ngramWindow    = 6
	markov2Primary = 0.6
)

func markov1(c Context) Output {
	last := c.Last()
	if last == "" {
		return Output{ProbabilityA: features.Neutral, Rationale: "no history"}
	}
	p := c.Markov.P1(last)
	n := c.Markov.Transitions(last, models.LabelA) + c.Markov.Transitions(last, models.LabelB)
	return Output{
		ProbabilityA: p,
		Rationale:    fmt.Sprintf("P(A|%s)=%.3f over %d transitions", last, p, n),
	}
}

// firstOrder returns P1 for the newest label, Neutral on an empty prefix.
func firstOrder(c Context) float64 {
	if c.Last() == "" {
		return features.Neutral
	}
	return c.Markov.P1(c.Last())
}

// secondOrder returns P2 for the last two labels and whether that context was ever observed.
func secondOrder(c Context) (float64, bool) {
	h := c.History
	if len(h) < 2 {
		return features.Neutral, false
	}
	x, y := h[len(h)-2].Label, h[len(h)-1].Label
	if !c.Markov.Seen2(x, y) {
		return features.Neutral, false
	}
	return c.Markov.P2(x, y), true
}

func markov2(c Context) Output {
	p1 := firstOrder(c)
	p2, seen := secondOrder(c)
	if !seen {
		return Output{ProbabilityA: p1, Rationale: fmt.Sprintf("order-2 context unseen, P1=%.3f", p1)}
	}
	p := markov2Primary*p1 + (1-markov2Primary)*p2
	return Output{ProbabilityA: p, Rationale: fmt.Sprintf("P1=%.3f P2=%.3f", p1, p2)}
}

func recencyBlend(c Context) Output {
	r5 := features.RecentFrequency(c.History, 5)
	r10 := features.RecentFrequency(c.History, 10)
	return Output{
		ProbabilityA: 0.6*r5 + 0.4*r10,
		Rationale:    fmt.Sprintf("A share last5=%.2f last10=%.2f", r5, r10),
	}
}

func runBias(c Context) Output {
	run := c.Runs
	if run.Ongoing < runBiasMinRun {
		return Output{ProbabilityA: features.Neutral, Rationale: fmt.Sprintf("run of %d is too short", run.Ongoing)}
	}
	p := runBiasAfterB
	if run.Last == models.LabelA {
		p = runBiasAfterA
	}
	return Output{
		ProbabilityA: p,
		Rationale:    fmt.Sprintf("run of %d x %s, expecting a break", run.Ongoing, run.Last),
	}
}

func ngramFollow(c Context) Output {
	matches, a := features.NGramCounts(c.History, ngramWindow)
	return Output{
		ProbabilityA: features.NGramFollowRate(c.History, ngramWindow),
		Rationale:    fmt.Sprintf("%d-gram matched %d times, %d followed by A", ngramWindow, matches, a),
	}
}

func totalHeuristic(c Context) Output {
	last := models.LastMeasured(c.History)
	if last == nil {
		return Output{ProbabilityA: features.Neutral, Rationale: "no measured total"}
	}
	return Output{
		ProbabilityA: features.TotalValueHeuristic(last),
		Rationale:    fmt.Sprintf("last total %.1f", *last),
	}
}
