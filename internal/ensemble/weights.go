// Package ensemble blends expert opinions into a single probability.
package ensemble

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/yourusername/streak-oracle/internal/expert"
)

// Weights is a weight vector indexed by expert.ID.
type Weights [expert.Count]float64

// Default returns the weights used when nothing better is known.
func Default() Weights {
	var w Weights
	w[expert.Markov1] = 0.20
	w[expert.Markov2] = 0.15
	w[expert.RecencyBlend] = 0.15
	w[expert.RunBias] = 0.15
	w[expert.NGramFollow] = 0.10
	w[expert.TotalHeuristic] = 0.05
	w[expert.DeepSequence] = 0.05
	w[expert.PairwiseLag] = 0.04
	w[expert.TemporalFusion] = 0.04
	w[expert.Graphical] = 0.03
	w[expert.Logistic] = 0.02
	w[expert.Volatility] = 0.02
	return w
}

// Uniform gives every expert the same weight.
func Uniform() Weights {
	var w Weights
	for i := range w {
		w[i] = 1 / float64(expert.Count)
	}
	return w
}

// Sum returns the total weight.
func (w Weights) Sum() float64 {
	s := 0.0
	for _, v := range w {
		s += v
	}
	return s
}

// Normalized rescales w to sum to 1. Degenerate vectors (non-positive or non-finite sum) fall
// back to Uniform.
func (w Weights) Normalized() Weights {
	s := w.Sum()
	if s <= 0 || math.IsNaN(s) || math.IsInf(s, 0) {
		return Uniform()
	}
	var out Weights
	for i, v := range w {
		out[i] = v / s
	}
	return out
}

// Get returns the weight of id.
func (w Weights) Get(id expert.ID) float64 {
	return w[id]
}

// Map returns the weights keyed by expert name.
func (w Weights) Map() map[string]float64 {
	out := make(map[string]float64, len(w))
	for i, v := range w {
		out[expert.ID(i).Name()] = v
	}
	return out
}

// FromMap builds a vector from name -> weight pairs. Experts not named get zero; unknown names
// and negative weights are rejected.
func FromMap(m map[string]float64) (Weights, error) {
	var w Weights
	for name, v := range m {
		id, err := expert.ParseID(name)
		if err != nil {
			return Weights{}, err
		}
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return Weights{}, fmt.Errorf("weight for %s must be a finite non-negative number, got %v", name, v)
		}
		w[id] = v
	}
	return w, nil
}

// MarshalJSON encodes the vector as a name -> weight object.
func (w Weights) MarshalJSON() ([]byte, error) {
	return json.Marshal(w.Map())
}

// UnmarshalJSON decodes a name -> weight object.
func (w *Weights) UnmarshalJSON(data []byte) error {
	var m map[string]float64
	if err := json.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("failed to decode weights: %w", err)
	}
	parsed, err := FromMap(m)
	if err != nil {
		return err
	}
	*w = parsed
	return nil
}
