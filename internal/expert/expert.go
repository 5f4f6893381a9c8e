// Package expert holds the deterministic sub-predictors blended by the ensemble.
//
// Each expert is a pure function of a Context built from a prefix of the event sequence. The
// set is closed: experts are identified by the ID enum and weight vectors are indexed by it.
package expert

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/yourusername/streak-oracle/internal/features"
	"github.com/yourusername/streak-oracle/internal/models"
)

// ID identifies an expert.
type ID int

const (
	Markov1 ID = iota
	Markov2
	RecencyBlend
	RunBias
	NGramFollow
	TotalHeuristic
	DeepSequence
	PairwiseLag
	TemporalFusion
	Graphical
	Logistic
	Volatility

	// Count is the number of experts.
	Count int = iota
)

// ErrUnknownExpert is returned by ParseID for names outside the table.
var ErrUnknownExpert = errors.New("unknown expert")

var names = [Count]string{
	Markov1:        "markov1",
	Markov2:        "markov2",
	RecencyBlend:   "recencyBlend",
	RunBias:        "runBias",
	NGramFollow:    "ngramFollow",
	TotalHeuristic: "totalHeuristic",
	DeepSequence:   "deepSequence",
	PairwiseLag:    "pairwiseLag",
	TemporalFusion: "temporalFusion",
	Graphical:      "graphical",
	Logistic:       "logistic",
	Volatility:     "volatility",
}

// Name returns the stable external name of the expert.
func (id ID) Name() string {
	if id < 0 || int(id) >= Count {
		return fmt.Sprintf("expert(%d)", int(id))
	}
	return names[id]
}

func (id ID) String() string { return id.Name() }

// Core reports whether id is one of the six core experts; the rest are extended.
func (id ID) Core() bool {
	return id >= Markov1 && id <= TotalHeuristic
}

// ParseID resolves an external name, ignoring case.
func ParseID(name string) (ID, error) {
	for i, n := range names {
		if strings.EqualFold(n, name) {
			return ID(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownExpert, name)
}

// All lists every expert in table order.
func All() []ID {
	out := make([]ID, Count)
	for i := range out {
		out[i] = ID(i)
	}
	return out
}

// Output is one expert's opinion on the next event.
type Output struct {
	Name         string  `json:"name"`
	ProbabilityA float64 `json:"probability_a"`
	Rationale    string  `json:"rationale"`
}

// Outputs is indexed by ID.
type Outputs [Count]Output

// Probabilities extracts the probability column.
func (o Outputs) Probabilities() [Count]float64 {
	var p [Count]float64
	for i := range o {
		p[i] = o[i].ProbabilityA
	}
	return p
}

// Context carries the prefix and the features every expert shares. Build it with NewContext;
// it must not outlive the prefix it was built from.
type Context struct {
	History  []models.Event
	Markov   features.MarkovCounts
	Runs     features.RunInfo
	Logistic LogisticParams
}

// NewContext computes shared features for the prefix h, newest event last.
func NewContext(h []models.Event) Context {
	return Context{
		History:  h,
		Markov:   features.Markov(h),
		Runs:     features.Runs(h),
		Logistic: FitLogistic(h),
	}
}

// Last returns the newest label, or "" on an empty prefix.
func (c Context) Last() models.Label {
	if len(c.History) == 0 {
		return ""
	}
	return c.History[len(c.History)-1].Label
}

// Func is the shape every expert implements.
type Func func(Context) Output

var registry = [Count]Func{
	Markov1:        markov1,
	Markov2:        markov2,
	RecencyBlend:   recencyBlend,
	RunBias:        runBias,
	NGramFollow:    ngramFollow,
	TotalHeuristic: totalHeuristic,
	DeepSequence:   deepSequence,
	PairwiseLag:    pairwiseLag,
	TemporalFusion: temporalFusion,
	Graphical:      graphical,
	Logistic:       logistic,
	Volatility:     volatility,
}

// Evaluate runs every expert against ctx.
func Evaluate(ctx Context) Outputs {
	var out Outputs
	for i, fn := range registry {
		o := fn(ctx)
		o.Name = names[i]
		o.ProbabilityA = normalizeProbability(o.ProbabilityA)
		out[i] = o
	}
	return out
}

// EvaluatePrefix is NewContext followed by Evaluate.
func EvaluatePrefix(h []models.Event) Outputs {
	return Evaluate(NewContext(h))
}

// normalizeProbability maps non-finite values to neutral and bounds the rest to [0,1].
func normalizeProbability(p float64) float64 {
	if math.IsNaN(p) || math.IsInf(p, 0) {
		return features.Neutral
	}
	return features.Clamp(p, 0, 1)
}
