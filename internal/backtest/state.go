package backtest

import "github.com/yourusername/streak-oracle/internal/models"

// Trial is one walk-forward step: the forecast made from events[0..Position] for the event
// that followed.
type Trial struct {
	Position     int          `json:"position"`
	Index        int64        `json:"index"`
	ProbabilityA float64      `json:"probability_a"`
	Predicted    models.Label `json:"predicted"`
	Actual       models.Label `json:"actual"`
	Correct      bool         `json:"correct"`
	DriftAlarms  int          `json:"drift_alarms"`
}

// State tracks a walk-forward run while trials are scored.
type State struct {
	Trials           []Trial
	Correct          int
	currentStreak    int
	LongestCorrect   int
	LongestIncorrect int
}

// NewState initializes an empty run.
func NewState(capacity int) *State {
	return &State{Trials: make([]Trial, 0, max(capacity, 0))}
}

// Record appends a scored trial and updates the streak counters.
func (s *State) Record(tr Trial) {
	s.Trials = append(s.Trials, tr)
	if tr.Correct {
		s.Correct++
		if s.currentStreak < 0 {
			s.currentStreak = 0
		}
		s.currentStreak++
		s.LongestCorrect = max(s.LongestCorrect, s.currentStreak)
		return
	}
	if s.currentStreak > 0 {
		s.currentStreak = 0
	}
	s.currentStreak--
	s.LongestIncorrect = max(s.LongestIncorrect, -s.currentStreak)
}

// Accuracy returns Correct/len(Trials), or nil when nothing was scored.
func (s *State) Accuracy() *float64 {
	if len(s.Trials) == 0 {
		return nil
	}
	acc := float64(s.Correct) / float64(len(s.Trials))
	return &acc
}
