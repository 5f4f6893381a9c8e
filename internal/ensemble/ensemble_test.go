package ensemble

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/streak-oracle/internal/expert"
	"github.com/yourusername/streak-oracle/internal/models"
)

func constantOutputs(p float64) expert.Outputs {
	var outs expert.Outputs
	for i := range outs {
		outs[i] = expert.Output{Name: expert.ID(i).Name(), ProbabilityA: p}
	}
	return outs
}

func TestDefaultSumsToOne(t *testing.T) {
	assert.InDelta(t, 1.0, Default().Sum(), 1e-9)
}

func TestCombineClamps(t *testing.T) {
	tests := []struct {
		name   string
		p      float64
		alarms int
		want   float64
	}{
		{"all certain A", 1, 0, MaxProbability},
		{"all certain B", 0, 0, MinProbability},
		{"neutral", 0.5, 0, 0.5},
		{"shrunk A", 1, 2, 1*(1-DriftShrink) + 0.5*DriftShrink},
		{"shrunk B", 0, 1, 0.5 * DriftShrink},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Combine(constantOutputs(tt.p), Default(), tt.alarms)
			assert.InDelta(t, tt.want, got, 1e-9)
			assert.GreaterOrEqual(t, got, MinProbability)
			assert.LessOrEqual(t, got, MaxProbability)
		})
	}
}

func TestCombineDegenerateWeights(t *testing.T) {
	outs := constantOutputs(0.5)
	outs[expert.Markov1].ProbabilityA = 1
	got := Combine(outs, Weights{}, 0)
	want := (float64(expert.Count-1)*0.5 + 1) / float64(expert.Count)
	assert.InDelta(t, want, got, 1e-9)
}

func TestCombineIsScaleInvariant(t *testing.T) {
	outs := expert.EvaluatePrefix(seq("AABABBBAABABBBAAAB"))
	w := Default()
	var doubled Weights
	for i, v := range w {
		doubled[i] = 2 * v
	}
	assert.InDelta(t, Combine(outs, w, 0), Combine(outs, doubled, 0), 1e-12)
}

func TestRunBiasDominantWeightsBreakStreak(t *testing.T) {
	outs := expert.EvaluatePrefix(seq("AAAAAAAAAA"))
	var w Weights
	w[expert.RunBias] = 1
	p := Combine(outs, w, 0)
	assert.InDelta(t, 0.22, p, 1e-9)
	assert.Equal(t, models.LabelB, models.LabelFor(p))
}

func TestDefaultWeightsFollowStreak(t *testing.T) {
	outs := expert.EvaluatePrefix(seq("AAAAAAAAAA"))
	p := Combine(outs, Default(), 0)
	assert.Greater(t, p, 0.7)
	assert.Equal(t, models.LabelA, models.LabelFor(p))
}

func TestWeightsJSON(t *testing.T) {
	data, err := json.Marshal(Default())
	require.NoError(t, err)

	var decoded Weights
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, Default(), decoded)

	err = json.Unmarshal([]byte(`{"markov1":0.5,"crystalBall":0.5}`), &decoded)
	assert.ErrorIs(t, err, expert.ErrUnknownExpert)

	_, err = FromMap(map[string]float64{"runBias": -1})
	assert.Error(t, err)
}

func TestBreakdown(t *testing.T) {
	outs := expert.EvaluatePrefix(seq("ABABABABAB"))
	b := NewBreakdown(outs, Default())
	assert.Len(t, b.Probabilities, expert.Count)
	assert.Len(t, b.Weights, expert.Count)
	assert.InDelta(t, 0.20, b.Weights["markov1"], 1e-9)
	assert.Equal(t, outs[expert.Markov1].ProbabilityA, b.Probabilities["markov1"])
	assert.Len(t, Rationales(outs), expert.Count)
}

func seq(labels string) []models.Event {
	out := make([]models.Event, len(labels))
	for i, c := range labels {
		l := models.LabelB
		if c == 'A' {
			l = models.LabelA
		}
		out[i] = models.Event{Index: int64(i), Label: l}
	}
	return out
}
