// Package features computes derived statistics over a prefix of the event sequence.
//
// Every function is pure and treats its input as read-only, newest event last.
package features

import (
	"math"

	"github.com/yourusername/streak-oracle/internal/models"
)

// Neutral is returned wherever a statistic has no evidence either way.
const Neutral = 0.5

// RecentFrequency returns the fraction of LabelA in the last n events, or over all of h when
// it is shorter. An empty input yields Neutral.
func RecentFrequency(h []models.Event, n int) float64 {
	tail := Tail(h, n)
	if len(tail) == 0 {
		return Neutral
	}
	count := 0
	for _, e := range tail {
		if e.Label == models.LabelA {
			count++
		}
	}
	return float64(count) / float64(len(tail))
}

// Tail returns the last n events of h (all of h when shorter, none when n <= 0).
func Tail(h []models.Event, n int) []models.Event {
	if n <= 0 {
		return nil
	}
	if len(h) <= n {
		return h
	}
	return h[len(h)-n:]
}

// AlternationRate is the share of consecutive pairs in the last n events whose labels differ.
func AlternationRate(h []models.Event, n int) float64 {
	tail := Tail(h, n)
	if len(tail) < 2 {
		return 0
	}
	changes := 0
	for i := 1; i < len(tail); i++ {
		if tail[i].Label != tail[i-1].Label {
			changes++
		}
	}
	return float64(changes) / float64(len(tail)-1)
}

// MajorityLabel returns the more frequent label over the last n events, LabelA on a tie.
func MajorityLabel(h []models.Event, n int) models.Label {
	return models.LabelFor(RecentFrequency(h, n))
}

// MeasuredTail collects the non-nil measured values among the last n events.
func MeasuredTail(h []models.Event, n int) []float64 {
	tail := Tail(h, n)
	out := make([]float64, 0, len(tail))
	for _, e := range tail {
		if e.MeasuredValue != nil {
			out = append(out, *e.MeasuredValue)
		}
	}
	return out
}

// Mean returns the arithmetic mean, or def for an empty slice.
func Mean(values []float64, def float64) float64 {
	if len(values) == 0 {
		return def
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// StdDev returns the population standard deviation (0 for fewer than two values).
func StdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	m := Mean(values, 0)
	variance := 0.0
	for _, v := range values {
		d := v - m
		variance += d * d
	}
	return math.Sqrt(variance / float64(len(values)))
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
