package expert

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/streak-oracle/internal/models"
)

func buildEvents(labels string) []models.Event {
	out := make([]models.Event, len(labels))
	for i, c := range labels {
		total := 6.0 + float64(i%4)
		l := models.LabelB
		if c == 'A' {
			l = models.LabelA
			total = 12.0 + float64(i%5)
		}
		out[i] = models.Event{Index: int64(i + 1), Label: l, MeasuredValue: models.Float64Ptr(total)}
	}
	return out
}

func alternating(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = 'A'
		if i%2 == 1 {
			b[i] = 'B'
		}
	}
	return string(b)
}

func TestNamesRoundTrip(t *testing.T) {
	for _, id := range All() {
		parsed, err := ParseID(id.Name())
		require.NoError(t, err)
		assert.Equal(t, id, parsed)
	}
	_, err := ParseID("oracle")
	assert.ErrorIs(t, err, ErrUnknownExpert)
	assert.Len(t, All(), Count)
}

func TestEvaluateEmpty(t *testing.T) {
	outs := EvaluatePrefix(nil)
	for _, o := range outs {
		assert.InDelta(t, 0.5, o.ProbabilityA, 1e-12, o.Name)
		assert.NotEmpty(t, o.Name)
	}
}

func TestAlternatingSequence(t *testing.T) {
	outs := EvaluatePrefix(buildEvents(alternating(39)))
	assert.Equal(t, 0.0, outs[Markov1].ProbabilityA, "A has always been followed by B")
	assert.Equal(t, 0.0, outs[Markov2].ProbabilityA)
	assert.Equal(t, 0.5, outs[RunBias].ProbabilityA)
	assert.Equal(t, 0.0, outs[NGramFollow].ProbabilityA)
	assert.Equal(t, 0.0, outs[DeepSequence].ProbabilityA)
}

func TestRunBiasAfterLongRun(t *testing.T) {
	outs := EvaluatePrefix(buildEvents("AAAAAAAAAA"))
	assert.InDelta(t, 0.22, outs[RunBias].ProbabilityA, 1e-12)
	assert.Equal(t, 1.0, outs[Markov1].ProbabilityA)

	outs = EvaluatePrefix(buildEvents("ABBB"))
	assert.InDelta(t, 0.78, outs[RunBias].ProbabilityA, 1e-12)
}

func TestRecencyBlend(t *testing.T) {
	// last five all A, last ten half A
	outs := EvaluatePrefix(buildEvents("BBBBBAAAAA"))
	assert.InDelta(t, 0.6*1+0.4*0.5, outs[RecencyBlend].ProbabilityA, 1e-12)
}

func TestTotalHeuristicUsesNewestTotal(t *testing.T) {
	h := buildEvents("AB")
	h[1].MeasuredValue = models.Float64Ptr(15)
	outs := EvaluatePrefix(h)
	assert.Equal(t, 0.60, outs[TotalHeuristic].ProbabilityA)

	h[1].MeasuredValue = nil
	outs = EvaluatePrefix(h)
	assert.Equal(t, 0.5, outs[TotalHeuristic].ProbabilityA)
}

func TestPairwiseLagPeriodTwo(t *testing.T) {
	// next is A, and at every lag the conditioning label has always been followed by A
	h := buildEvents(alternating(40))
	out := pairwiseLag(NewContext(h))
	assert.InDelta(t, 1.0, out.ProbabilityA, 1e-12)
}

func TestOutputsAreProbabilities(t *testing.T) {
	patterns := []string{"A", "AB", "AAB", alternating(25), "AAABBBAABBBAAAABBBBBAABAB", "BBBBBBBBBBBBBBBBBBBBBBBBBBBBBB"}
	for _, p := range patterns {
		outs := EvaluatePrefix(buildEvents(p))
		for _, o := range outs {
			assert.GreaterOrEqual(t, o.ProbabilityA, 0.0, "%s on %q", o.Name, p)
			assert.LessOrEqual(t, o.ProbabilityA, 1.0, "%s on %q", o.Name, p)
			assert.NotEmpty(t, o.Rationale)
		}
	}
}

func TestVolatility(t *testing.T) {
	withTotals := func(totals ...float64) []models.Event {
		h := make([]models.Event, len(totals))
		for i, v := range totals {
			h[i] = models.Event{Index: int64(i + 1), Label: models.LabelFromTotal(v), MeasuredValue: models.Float64Ptr(v)}
		}
		return h
	}
	expected := func(variance float64) float64 {
		return 0.9/(1+math.Exp(-(variance-5)/3)) + 0.05
	}

	calm := EvaluatePrefix(withTotals(10, 10, 10, 10, 10, 10))
	assert.InDelta(t, expected(0), calm[Volatility].ProbabilityA, 1e-12)
	assert.Less(t, calm[Volatility].ProbabilityA, 0.5)

	// only the last ten totals count: 5/15 alternation has variance 25
	erratic := EvaluatePrefix(withTotals(10, 10, 10, 5, 15, 5, 15, 5, 15, 5, 15, 5, 15))
	assert.InDelta(t, expected(25), erratic[Volatility].ProbabilityA, 1e-12)
	assert.Greater(t, erratic[Volatility].ProbabilityA, 0.9)

	single := EvaluatePrefix(withTotals(12))
	assert.Equal(t, 0.5, single[Volatility].ProbabilityA)
	assert.Equal(t, 0.5, EvaluatePrefix(bareLabels("ABAB"))[Volatility].ProbabilityA)
}

func bareLabels(labels string) []models.Event {
	h := buildEvents(labels)
	for i := range h {
		h[i].MeasuredValue = nil
	}
	return h
}

func TestEvaluateDeterministic(t *testing.T) {
	h := buildEvents("AABABBBABAABBBABABAAABBBABABBAAABABBBA")
	assert.Equal(t, EvaluatePrefix(h), EvaluatePrefix(h))
}

func TestFitLogistic(t *testing.T) {
	short := FitLogistic(buildEvents("AABBA"))
	assert.False(t, short.Trained())

	fallback := EvaluatePrefix(buildEvents("AABBABBA"))
	assert.Equal(t, 0.5, fallback[Logistic].ProbabilityA)

	h := buildEvents(alternating(60) + "AABBBAABABBBAAB")
	params := FitLogistic(h)
	require.True(t, params.Trained())
	assert.Equal(t, len(h)-5, params.Samples)
	assert.Equal(t, params, FitLogistic(h), "fit is deterministic")

	p := params.Predict(h)
	assert.Greater(t, p, 0.0)
	assert.Less(t, p, 1.0)
}

func TestLogisticFeatures(t *testing.T) {
	h := []models.Event{
		{Index: 1, Label: models.LabelA, MeasuredValue: models.Float64Ptr(15.5)},
		{Index: 2, Label: models.LabelB, MeasuredValue: models.Float64Ptr(5.5)},
	}
	x := LogisticFeatures(h)
	assert.InDelta(t, 0.0, x[0], 1e-12)
	assert.InDelta(t, 1.0, x[1], 1e-12)
	assert.InDelta(t, 0.5, x[2], 1e-12)
	assert.InDelta(t, 0.1, x[3], 1e-12)
	assert.InDelta(t, -1.0, x[4], 1e-12)
	assert.InDelta(t, 1.0, x[5], 1e-12)
	assert.Equal(t, 0.0, x[6])
}
