package backtest

import (
	"encoding/json"
	"math"

	"github.com/yourusername/streak-oracle/internal/models"
)

// probability floor used by LogLoss so a confident miss stays finite
const logLossEpsilon = 1e-6

// Metrics summarizes the quality of a walk-forward run.
type Metrics struct {
	Trials           int      `json:"trials"`
	Correct          int      `json:"correct"`
	Accuracy         *float64 `json:"accuracy"`
	BrierScore       float64  `json:"brier_score"`
	LogLoss          float64  `json:"log_loss"`
	LongestCorrect   int      `json:"longest_correct_streak"`
	LongestIncorrect int      `json:"longest_incorrect_streak"`
	PredictedA       int      `json:"predicted_a"`
	ActualA          int      `json:"actual_a"`
	MeanProbability  float64  `json:"mean_probability_a"`
}

// CalculateMetrics derives metrics from a finished run.
func CalculateMetrics(state *State) Metrics {
	if state == nil || len(state.Trials) == 0 {
		return Metrics{}
	}
	m := Metrics{
		Trials:           len(state.Trials),
		Correct:          state.Correct,
		Accuracy:         state.Accuracy(),
		LongestCorrect:   state.LongestCorrect,
		LongestIncorrect: state.LongestIncorrect,
	}
	probs := make([]float64, len(state.Trials))
	outcomes := make([]float64, len(state.Trials))
	for i, tr := range state.Trials {
		probs[i] = tr.ProbabilityA
		outcomes[i] = tr.Actual.Bit()
		if tr.Predicted == models.LabelA {
			m.PredictedA++
		}
		if tr.Actual == models.LabelA {
			m.ActualA++
		}
	}
	m.BrierScore = calculateBrierScore(probs, outcomes)
	m.LogLoss = calculateLogLoss(probs, outcomes)
	m.MeanProbability = average(probs)
	return m
}

// ToJSON exports metrics to JSON
func (m Metrics) ToJSON() string {
	data, _ := json.Marshal(m)
	return string(data)
}

func calculateBrierScore(probs, outcomes []float64) float64 {
	if len(probs) == 0 {
		return 0
	}
	sum := 0.0
	for i, p := range probs {
		d := p - outcomes[i]
		sum += d * d
	}
	return sum / float64(len(probs))
}

func calculateLogLoss(probs, outcomes []float64) float64 {
	if len(probs) == 0 {
		return 0
	}
	sum := 0.0
	for i, p := range probs {
		p = math.Min(1-logLossEpsilon, math.Max(logLossEpsilon, p))
		if outcomes[i] == 1 {
			sum -= math.Log(p)
		} else {
			sum -= math.Log(1 - p)
		}
	}
	return sum / float64(len(probs))
}

func average(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
