package expert

import (
	"fmt"
	"math"

	"github.com/yourusername/streak-oracle/internal/features"
	"github.com/yourusername/streak-oracle/internal/models"
)

const (
	logisticEpochs     = 60
	logisticLR         = 0.06
	logisticDecay      = 0.98
	logisticDecayEvery = 20
	logisticMaxSamples = 200
	logisticMinPrior   = 5
	logisticMinSamples = 10
	logisticLookback   = 10
	totalScale         = 5.0

	// FeatureCount is the width of the logistic feature vector.
	FeatureCount = 8
)

// LogisticParams is the fitted state of the logistic expert. It is produced by FitLogistic and
// carries no hidden state beyond these fields.
type LogisticParams struct {
	Weights [FeatureCount]float64 `json:"weights"`
	Bias    float64               `json:"bias"`
	Samples int                   `json:"samples"`
}

// Trained reports whether enough samples were available for the fit to be used.
func (p LogisticParams) Trained() bool {
	return p.Samples >= logisticMinSamples
}

// Predict returns P(next = A) for the prefix h.
func (p LogisticParams) Predict(h []models.Event) float64 {
	x := LogisticFeatures(h)
	return sigmoid(p.Bias + dot(p.Weights, x))
}

// LogisticFeatures describes the state right after h: centred mean and spread of the last ten
// totals, A share over ten, ongoing run length and the three newest centred totals.
func LogisticFeatures(h []models.Event) [FeatureCount]float64 {
	var x [FeatureCount]float64
	totals := features.MeasuredTail(h, logisticLookback)
	x[0] = (features.Mean(totals, models.BigThreshold) - models.BigThreshold) / totalScale
	x[1] = features.StdDev(totals) / totalScale
	x[2] = features.RecentFrequency(h, logisticLookback)
	x[3] = float64(features.OngoingRun(h)) / logisticLookback
	// newest first, missing totals stay at the centre
	for j := 0; j < 3 && j < len(totals); j++ {
		x[4+j] = (totals[len(totals)-1-j] - models.BigThreshold) / totalScale
	}
	return x
}

// FitLogistic trains on the newest samples of h (at most logisticMaxSamples, each with at
// least logisticMinPrior earlier events) with full-batch gradient descent from zero weights.
func FitLogistic(h []models.Event) LogisticParams {
	start := max(logisticMinPrior, len(h)-logisticMaxSamples)
	if start >= len(h) {
		return LogisticParams{}
	}
	xs := make([][FeatureCount]float64, 0, len(h)-start)
	ys := make([]float64, 0, len(h)-start)
	for t := start; t < len(h); t++ {
		xs = append(xs, LogisticFeatures(h[:t]))
		ys = append(ys, h[t].Label.Bit())
	}

	params := LogisticParams{Samples: len(xs)}
	if !params.Trained() {
		return params
	}

	lr := logisticLR
	n := float64(len(xs))
	for epoch := 0; epoch < logisticEpochs; epoch++ {
		var grad [FeatureCount]float64
		gradBias := 0.0
		for i, x := range xs {
			err := sigmoid(params.Bias+dot(params.Weights, x)) - ys[i]
			for k := range grad {
				grad[k] += err * x[k]
			}
			gradBias += err
		}
		for k := range params.Weights {
			params.Weights[k] -= lr * grad[k] / n
		}
		params.Bias -= lr * gradBias / n
		if (epoch+1)%logisticDecayEvery == 0 {
			lr *= logisticDecay
		}
	}
	return params
}

func logistic(c Context) Output {
	if !c.Logistic.Trained() {
		p := features.RecentFrequency(c.History, logisticLookback)
		return Output{
			ProbabilityA: p,
			Rationale:    fmt.Sprintf("%d samples, using A share over %d", c.Logistic.Samples, logisticLookback),
		}
	}
	return Output{
		ProbabilityA: c.Logistic.Predict(c.History),
		Rationale:    fmt.Sprintf("fitted on %d samples", c.Logistic.Samples),
	}
}

func sigmoid(z float64) float64 {
	if z > 20 {
		return 1
	}
	if z < -20 {
		return 0
	}
	return 1 / (1 + math.Exp(-z))
}

func dot(w, x [FeatureCount]float64) float64 {
	s := 0.0
	for i := range w {
		s += w[i] * x[i]
	}
	return s
}
