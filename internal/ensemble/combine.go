package ensemble

import (
	"github.com/yourusername/streak-oracle/internal/expert"
	"github.com/yourusername/streak-oracle/internal/features"
)

const (
	// DriftShrink is how far the blend is pulled toward neutral once drift has been detected.
	DriftShrink = 0.15
	// MinProbability and MaxProbability bound every combined forecast.
	MinProbability = 0.001
	MaxProbability = 0.999
)

// Combine blends expert outputs with normalized weights, shrinks toward 0.5 when alarms > 0 and
// clamps the result to [MinProbability, MaxProbability].
func Combine(outs expert.Outputs, w Weights, alarms int) float64 {
	norm := w.Normalized()
	raw := 0.0
	for i, o := range outs {
		raw += o.ProbabilityA * norm[i]
	}
	if alarms > 0 {
		raw = raw*(1-DriftShrink) + features.Neutral*DriftShrink
	}
	return features.Clamp(raw, MinProbability, MaxProbability)
}

// Breakdown reports each expert's probability and normalized weight by name.
type Breakdown struct {
	Probabilities map[string]float64 `json:"probabilities"`
	Weights       map[string]float64 `json:"weights"`
}

// NewBreakdown builds the diagnostic view of a blend.
func NewBreakdown(outs expert.Outputs, w Weights) Breakdown {
	norm := w.Normalized()
	b := Breakdown{
		Probabilities: make(map[string]float64, len(outs)),
		Weights:       norm.Map(),
	}
	for _, o := range outs {
		b.Probabilities[o.Name] = o.ProbabilityA
	}
	return b
}

// Rationales collects each expert's explanation by name.
func Rationales(outs expert.Outputs) map[string]string {
	out := make(map[string]string, len(outs))
	for _, o := range outs {
		out[o.Name] = o.Rationale
	}
	return out
}
