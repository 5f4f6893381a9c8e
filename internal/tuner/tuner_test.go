package tuner

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/streak-oracle/internal/backtest"
	"github.com/yourusername/streak-oracle/internal/ensemble"
	"github.com/yourusername/streak-oracle/internal/models"
)

const mixed = "AABABBBAABABBBAAABABBABAAABBBABABBBAAABABAABBBABAABBAABBBAB"

func buildEvents(labels string) []models.Event {
	out := make([]models.Event, len(labels))
	for i, c := range labels {
		l := models.LabelB
		total := 5.0 + float64(i%5)
		if c == 'A' {
			l = models.LabelA
			total = 11.0 + float64(i%7)
		}
		out[i] = models.Event{Index: int64(i + 1), Label: l, MeasuredValue: models.Float64Ptr(total)}
	}
	return out
}

func collect(g Grid) []ensemble.Weights {
	var out []ensemble.Weights
	for w := range g.Candidates() {
		out = append(out, w)
	}
	return out
}

func TestCandidatesDefaultFirst(t *testing.T) {
	cands := collect(DefaultGrid())
	require.NotEmpty(t, cands)
	assert.Equal(t, ensemble.Default(), cands[0])
}

func TestCandidatesRespectCapAndSum(t *testing.T) {
	g := DefaultGrid()
	cands := collect(g)
	assert.LessOrEqual(t, len(cands), g.MaxCandidates)
	assert.Greater(t, len(cands), g.MaxCandidates/2)
	for _, w := range cands[1:] {
		assert.GreaterOrEqual(t, w.Sum(), g.MinSum-1e-9)
		assert.LessOrEqual(t, w.Sum(), g.MaxSum+1e-9)
	}
}

func TestCandidatesDeterministic(t *testing.T) {
	assert.Equal(t, collect(DefaultGrid()), collect(DefaultGrid()))
}

func TestCandidatesStopEarly(t *testing.T) {
	n := 0
	for range DefaultGrid().Candidates() {
		n++
		if n == 5 {
			break
		}
	}
	assert.Equal(t, 5, n)
}

func TestSmallGridIsExhaustive(t *testing.T) {
	g := Grid{CoreValues: []float64{0, 0.2}, ExtendedValues: []float64{0}, MinSum: 0.3, MaxSum: 0.6, MaxCandidates: 1000}
	cands := collect(g)
	// default plus every pair (15) and triple (20) of core experts
	assert.Len(t, cands, 1+15+20)
}

func TestScore(t *testing.T) {
	assert.Equal(t, -1.0, Score(nil, ensemble.Default()))
	acc := 0.6
	var w ensemble.Weights
	w[0] = 1.5
	assert.InDelta(t, 0.6-0.5e-4, Score(&acc, w), 1e-12)
}

func TestTuneShortSequenceUsesDefault(t *testing.T) {
	assert.Equal(t, ensemble.Default(), Tune(buildEvents(mixed[:MinEvents-1])))

	report, err := New(DefaultConfig()).TuneReport(context.Background(), nil)
	require.NoError(t, err)
	assert.True(t, report.Defaulted)
}

func TestTuneDeterministicAndIdempotent(t *testing.T) {
	events := buildEvents(mixed)
	first := Tune(events)
	second := Tune(events)
	assert.Equal(t, first, second)

	sequential := New(Config{Workers: 1})
	parallel := New(Config{Workers: 8})
	a, err := sequential.TuneReport(context.Background(), events)
	require.NoError(t, err)
	b, err := parallel.TuneReport(context.Background(), events)
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Equal(t, first, a.Weights)
	assert.Equal(t, len(collect(DefaultGrid())), a.Candidates)
	require.NotNil(t, a.Accuracy)
}

func TestTuneBeatsOrMatchesDefault(t *testing.T) {
	events := buildEvents(mixed)
	report, err := New(DefaultConfig()).TuneReport(context.Background(), events)
	require.NoError(t, err)

	replay := backtest.NewReplay(events, backtest.Config{Window: DefaultWindow, MinHistory: backtest.MinHistory})
	def := Score(replay.Accuracy(ensemble.Default()), ensemble.Default())
	assert.GreaterOrEqual(t, report.Score, def)
}

func TestTuneCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(DefaultConfig()).Tune(ctx, buildEvents(mixed))
	assert.ErrorIs(t, err, context.Canceled)
}
