// Package drift implements a Page-Hinkley change detector over the 0/1 label series.
package drift

import "github.com/yourusername/streak-oracle/internal/models"

// Params tunes the detector. Alpha is the forgetting factor of the running mean, Delta the
// tolerated drift per step and Lambda the alarm threshold.
type Params struct {
	Alpha  float64 `json:"alpha" mapstructure:"alpha" validate:"gt=0,lt=1"`
	Delta  float64 `json:"delta" mapstructure:"delta" validate:"gte=0"`
	Lambda float64 `json:"lambda" mapstructure:"lambda" validate:"gt=0"`
}

// DefaultParams returns the detector settings used by the engine.
func DefaultParams() Params {
	return Params{Alpha: 0.995, Delta: 0.01, Lambda: 6}
}

// Result lists alarm positions in ascending order.
type Result struct {
	AlarmCount   int   `json:"alarm_count"`
	AlarmIndices []int `json:"alarm_indices"`
}

// Detect runs the detector with DefaultParams.
func Detect(events []models.Event) Result {
	return DefaultParams().Detect(events)
}

// Detect makes one pass over events. The statistic at position i only depends on events[0..i],
// so alarms reported for a prefix are exactly the alarms of the full series up to that point.
func (p Params) Detect(events []models.Event) Result {
	res := Result{AlarmIndices: []int{}}
	mean := 0.5
	sum, minSum := 0.0, 0.0
	for i, e := range events {
		x := e.Label.Bit()
		mean = p.Alpha*mean + (1-p.Alpha)*x
		sum += x - mean - p.Delta
		if sum < minSum {
			minSum = sum
		}
		if sum-minSum > p.Lambda {
			res.AlarmIndices = append(res.AlarmIndices, i)
			sum, minSum = 0, 0
		}
	}
	res.AlarmCount = len(res.AlarmIndices)
	return res
}

// AlarmsUpTo counts alarms raised at positions <= i.
func (r Result) AlarmsUpTo(i int) int {
	n := 0
	for _, idx := range r.AlarmIndices {
		if idx > i {
			break
		}
		n++
	}
	return n
}
