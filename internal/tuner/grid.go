package tuner

import (
	"iter"

	"github.com/yourusername/streak-oracle/internal/ensemble"
	"github.com/yourusername/streak-oracle/internal/expert"
)

// Grid describes the candidate weight vectors searched by the tuner.
type Grid struct {
	CoreValues     []float64
	ExtendedValues []float64
	MinSum         float64
	MaxSum         float64
	MaxCandidates  int
}

// DefaultGrid returns the search space used by the engine.
func DefaultGrid() Grid {
	return Grid{
		CoreValues:     []float64{0, 0.15, 0.3},
		ExtendedValues: []float64{0, 0.1},
		MinSum:         0.7,
		MaxSum:         1.3,
		MaxCandidates:  360,
	}
}

func (g Grid) values(id expert.ID) []float64 {
	if id.Core() {
		return g.CoreValues
	}
	return g.ExtendedValues
}

func (g Grid) accepts(w ensemble.Weights) bool {
	s := w.Sum()
	return s >= g.MinSum-1e-9 && s <= g.MaxSum+1e-9
}

// product walks the cartesian product in odometer order, the last expert varying fastest, and
// yields the vectors whose sum lies within the bounds.
func (g Grid) product(yield func(ensemble.Weights) bool) {
	var digits [expert.Count]int
	for i := range digits {
		if len(g.values(expert.ID(i))) == 0 {
			return
		}
	}
	for {
		var w ensemble.Weights
		for i, d := range digits {
			w[i] = g.values(expert.ID(i))[d]
		}
		if g.accepts(w) && !yield(w) {
			return
		}
		i := expert.Count - 1
		for ; i >= 0; i-- {
			digits[i]++
			if digits[i] < len(g.values(expert.ID(i))) {
				break
			}
			digits[i] = 0
		}
		if i < 0 {
			return
		}
	}
}

// Candidates yields the default vector first, then at most MaxCandidates-1 accepted vectors
// from the product, picked with a fixed stride so they spread over the whole space. The
// sequence is lazy and identical on every call.
func (g Grid) Candidates() iter.Seq[ensemble.Weights] {
	return func(yield func(ensemble.Weights) bool) {
		if !yield(ensemble.Default()) {
			return
		}
		budget := g.MaxCandidates - 1
		if budget <= 0 {
			return
		}

		accepted := 0
		g.product(func(ensemble.Weights) bool {
			accepted++
			return true
		})
		stride := 1
		if accepted > budget {
			stride = (accepted + budget - 1) / budget
		}

		emitted, seen := 0, 0
		g.product(func(w ensemble.Weights) bool {
			take := seen%stride == 0
			seen++
			if !take {
				return true
			}
			emitted++
			return yield(w) && emitted < budget
		})
	}
}
