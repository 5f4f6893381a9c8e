package backtest

import (
	"github.com/yourusername/streak-oracle/internal/drift"
	"github.com/yourusername/streak-oracle/internal/ensemble"
	"github.com/yourusername/streak-oracle/internal/expert"
	"github.com/yourusername/streak-oracle/internal/models"
)

// Result is the outcome of a walk-forward run.
type Result struct {
	Trials         int                `json:"trials"`
	Accuracy       *float64           `json:"accuracy"`
	Sample         []Trial            `json:"sample"`
	WindowStart    int                `json:"window_start"`
	Metrics        Metrics            `json:"metrics"`
	Curve          AccuracyCurve      `json:"curve,omitempty"`
	ExpertAccuracy map[string]float64 `json:"expert_accuracy,omitempty"`
	Summary        Summary            `json:"summary"`
	Weights        ensemble.Weights   `json:"weights"`
}

// Replay holds the expert outputs of every trial in a window. Expert outputs do not depend on
// the weights, so one Replay can score any number of weight vectors.
type Replay struct {
	cfg         Config
	events      []models.Event
	windowStart int
	first       int
	outputs     []expert.Outputs
	alarms      []int
}

// NewReplay evaluates every expert on each prefix events[0..i] for i from
// windowStart+MinHistory to len(events)-2. events must not be modified while the Replay is in use.
func NewReplay(events []models.Event, cfg Config) *Replay {
	if cfg.MinHistory <= 0 {
		cfg.MinHistory = MinHistory
	}
	if cfg.Drift.Lambda <= 0 {
		cfg.Drift = drift.DefaultParams()
	}
	n := len(events)
	r := &Replay{cfg: cfg, events: events}
	r.windowStart = max(0, n-cfg.Window)
	r.first = r.windowStart + cfg.MinHistory
	if r.first > n-2 {
		return r
	}

	// the detector is causal, so alarms on a prefix are the full-series alarms up to its end
	detected := cfg.Drift.Detect(events)
	r.outputs = make([]expert.Outputs, 0, n-1-r.first)
	r.alarms = make([]int, 0, n-1-r.first)
	for i := r.first; i <= n-2; i++ {
		r.outputs = append(r.outputs, expert.EvaluatePrefix(events[:i+1]))
		r.alarms = append(r.alarms, detected.AlarmsUpTo(i))
	}
	return r
}

// Trials returns the number of trials in the window.
func (r *Replay) Trials() int {
	return len(r.outputs)
}

func (r *Replay) trial(k int, w ensemble.Weights) Trial {
	pos := r.first + k
	p := ensemble.Combine(r.outputs[k], w, r.alarms[k])
	predicted := models.LabelFor(p)
	actual := r.events[pos+1].Label
	return Trial{
		Position:     pos,
		Index:        r.events[pos+1].Index,
		ProbabilityA: p,
		Predicted:    predicted,
		Actual:       actual,
		Correct:      predicted == actual,
		DriftAlarms:  r.alarms[k],
	}
}

// Hits counts correct trials for w without building a full Result.
func (r *Replay) Hits(w ensemble.Weights) (correct, trials int) {
	for k := range r.outputs {
		if r.trial(k, w).Correct {
			correct++
		}
	}
	return correct, len(r.outputs)
}

// Accuracy returns the hit rate for w, or nil when the window holds no trials.
func (r *Replay) Accuracy(w ensemble.Weights) *float64 {
	correct, trials := r.Hits(w)
	if trials == 0 {
		return nil
	}
	acc := float64(correct) / float64(trials)
	return &acc
}

// Score runs the full walk-forward evaluation for w.
func (r *Replay) Score(w ensemble.Weights) Result {
	state := NewState(len(r.outputs))
	for k := range r.outputs {
		state.Record(r.trial(k, w))
	}

	metrics := CalculateMetrics(state)
	res := Result{
		Trials:         len(state.Trials),
		Accuracy:       state.Accuracy(),
		Sample:         sample(state.Trials, r.cfg.SampleSize),
		WindowStart:    r.windowStart,
		Metrics:        metrics,
		Curve:          BuildCurve(state.Trials),
		ExpertAccuracy: r.expertAccuracy(),
		Weights:        w,
	}
	res.Summary = Summarize(res, r.persistenceHits())
	return res
}

// expertAccuracy scores each expert on its own, labelling A iff its probability >= 0.5.
func (r *Replay) expertAccuracy() map[string]float64 {
	if len(r.outputs) == 0 {
		return nil
	}
	var hits [expert.Count]int
	for k, outs := range r.outputs {
		actual := r.events[r.first+k+1].Label
		for i, o := range outs {
			if models.LabelFor(o.ProbabilityA) == actual {
				hits[i]++
			}
		}
	}
	out := make(map[string]float64, expert.Count)
	for i, h := range hits {
		out[expert.ID(i).Name()] = float64(h) / float64(len(r.outputs))
	}
	return out
}

// persistenceHits counts trials where repeating the newest label would have been right.
func (r *Replay) persistenceHits() int {
	hits := 0
	for k := range r.outputs {
		pos := r.first + k
		if r.events[pos].Label == r.events[pos+1].Label {
			hits++
		}
	}
	return hits
}

// sample keeps the newest n trials; n == 0 keeps all of them.
func sample(trials []Trial, n int) []Trial {
	if n <= 0 || len(trials) <= n {
		return append([]Trial{}, trials...)
	}
	return append([]Trial{}, trials[len(trials)-n:]...)
}

// Backtest scores w over the last window events with the default settings.
func Backtest(events []models.Event, w ensemble.Weights, window int) Result {
	cfg := DefaultConfig()
	cfg.Window = window
	return NewReplay(events, cfg).Score(w)
}
