// Package models holds the domain types shared by the forecasting engine and its collaborators.
package models

import (
	"fmt"
	"strings"
)

// BigThreshold splits totals into the two labels: totals above it resolve to LabelA.
const BigThreshold = 10.5

// Label is the binary outcome of an event.
type Label string

const (
	// LabelA is the "big" outcome.
	LabelA Label = "A"
	// LabelB is the "small" outcome.
	LabelB Label = "B"
)

// Valid reports whether l is one of the two known labels.
func (l Label) Valid() bool {
	return l == LabelA || l == LabelB
}

// Opposite returns the other label.
func (l Label) Opposite() Label {
	if l == LabelA {
		return LabelB
	}
	return LabelA
}

// Bit maps LabelA to 1 and everything else to 0.
func (l Label) Bit() float64 {
	if l == LabelA {
		return 1
	}
	return 0
}

// LabelFor returns LabelA when p >= 0.5 and LabelB otherwise.
func LabelFor(p float64) Label {
	if p >= 0.5 {
		return LabelA
	}
	return LabelB
}

// LabelFromTotal thresholds a numeric total.
func LabelFromTotal(total float64) Label {
	if total > BigThreshold {
		return LabelA
	}
	return LabelB
}

// ParseLabel accepts "A"/"B" as well as the big/small aliases used by upstream feeds.
func ParseLabel(s string) (Label, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "a", "big":
		return LabelA, nil
	case "b", "small":
		return LabelB, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnresolvedLabel, s)
}

// Event is one labelled observation. Events are immutable once built.
type Event struct {
	Index         int64    `json:"index" validate:"gte=0"`
	MeasuredValue *float64 `json:"measured_value,omitempty"`
	Label         Label    `json:"label" validate:"required,oneof=A B"`
	Dice          []int    `json:"dice,omitempty"`
}

// Regime is a qualitative description of recent sequence behaviour.
type Regime string

const (
	RegimeUnknown     Regime = "unknown"
	RegimeStreaky     Regime = "streaky"
	RegimeAlternating Regime = "alternating"
	RegimeChoppy      Regime = "choppy"
	RegimeMixed       Regime = "mixed"
)

// Labels extracts the label series of events.
func Labels(events []Event) []Label {
	out := make([]Label, len(events))
	for i, e := range events {
		out[i] = e.Label
	}
	return out
}

// Bits extracts the 0/1 series of events (LabelA maps to 1).
func Bits(events []Event) []float64 {
	out := make([]float64, len(events))
	for i, e := range events {
		out[i] = e.Label.Bit()
	}
	return out
}

// LastMeasured returns the measured value of the newest event, or nil.
func LastMeasured(events []Event) *float64 {
	if len(events) == 0 {
		return nil
	}
	return events[len(events)-1].MeasuredValue
}

// CloneEvents returns a deep copy so callers can hand the copy to code that must not touch
// the original slice.
func CloneEvents(events []Event) []Event {
	out := make([]Event, len(events))
	for i, e := range events {
		c := e
		if e.MeasuredValue != nil {
			v := *e.MeasuredValue
			c.MeasuredValue = &v
		}
		if e.Dice != nil {
			c.Dice = append([]int(nil), e.Dice...)
		}
		out[i] = c
	}
	return out
}

// Float64Ptr is a small helper for building events in code and tests.
func Float64Ptr(v float64) *float64 {
	return &v
}
