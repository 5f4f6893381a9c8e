package features

import "github.com/yourusername/streak-oracle/internal/models"

// RunInfo describes the run structure of a prefix.
type RunInfo struct {
	Ongoing int          `json:"ongoing"`
	Last    models.Label `json:"last,omitempty"`
	Max     int          `json:"max"`
}

// OngoingRun returns the length of the run ending at the newest event. It only walks the tail.
func OngoingRun(h []models.Event) int {
	if len(h) == 0 {
		return 0
	}
	last := h[len(h)-1].Label
	n := 0
	for i := len(h) - 1; i >= 0 && h[i].Label == last; i-- {
		n++
	}
	return n
}

// Runs reports the ongoing run and makes one forward pass for the longest run seen.
func Runs(h []models.Event) RunInfo {
	if len(h) == 0 {
		return RunInfo{}
	}
	info := RunInfo{Last: h[len(h)-1].Label, Ongoing: OngoingRun(h)}

	current := 0
	for i := range h {
		if i > 0 && h[i].Label == h[i-1].Label {
			current++
		} else {
			current = 1
		}
		if current > info.Max {
			info.Max = current
		}
	}
	return info
}
