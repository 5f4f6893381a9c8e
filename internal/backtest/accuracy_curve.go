package backtest

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// CurvePoint is the running accuracy after one trial.
type CurvePoint struct {
	Trial    int     `json:"trial"`
	Index    int64   `json:"index"`
	Accuracy float64 `json:"accuracy"`
	Correct  bool    `json:"correct"`
}

// AccuracyCurve is the running accuracy over the trials of a walk-forward run.
type AccuracyCurve []CurvePoint

// BuildCurve derives the running accuracy of trials in order.
func BuildCurve(trials []Trial) AccuracyCurve {
	curve := make(AccuracyCurve, 0, len(trials))
	correct := 0
	for i, tr := range trials {
		if tr.Correct {
			correct++
		}
		curve = append(curve, CurvePoint{
			Trial:    i + 1,
			Index:    tr.Index,
			Accuracy: float64(correct) / float64(i+1),
			Correct:  tr.Correct,
		})
	}
	return curve
}

// Final returns the last running accuracy, or 0 for an empty curve.
func (c AccuracyCurve) Final() float64 {
	if len(c) == 0 {
		return 0
	}
	return c[len(c)-1].Accuracy
}

// Trough returns the lowest running accuracy once at least warmup trials have been scored.
func (c AccuracyCurve) Trough(warmup int) float64 {
	low := 1.0
	seen := false
	for _, p := range c {
		if p.Trial < warmup {
			continue
		}
		seen = true
		if p.Accuracy < low {
			low = p.Accuracy
		}
	}
	if !seen {
		return 0
	}
	return low
}

// ToCSV exports the curve to a CSV string
func (c AccuracyCurve) ToCSV() string {
	var buf bytes.Buffer
	buf.WriteString("trial,index,accuracy,correct\n")
	for _, point := range c {
		buf.WriteString(strconv.Itoa(point.Trial))
		buf.WriteString(",")
		buf.WriteString(strconv.FormatInt(point.Index, 10))
		buf.WriteString(",")
		buf.WriteString(formatFloat(point.Accuracy))
		buf.WriteString(",")
		buf.WriteString(strconv.FormatBool(point.Correct))
		buf.WriteString("\n")
	}
	return buf.String()
}

// ToJSON exports the curve to a JSON string
func (c AccuracyCurve) ToJSON() string {
	data, _ := json.Marshal(c)
	return string(data)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}
