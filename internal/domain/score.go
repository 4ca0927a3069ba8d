package domain

import "fmt"

// Score is the running tally for one word game round.
// Correct never exceeds Total.
type Score struct {
	Correct uint32 `json:"correct"`
	Total   uint32 `json:"total"`
}

// Record counts one answered word.
func (s *Score) Record(correct bool) {
	s.Total++
	if correct {
		s.Correct++
	}
}

// Reset zeroes the tally for a new round.
func (s *Score) Reset() {
	s.Correct = 0
	s.Total = 0
}

// Accuracy returns the percentage of correct answers, 0 for an empty round.
func (s Score) Accuracy() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Correct) / float64(s.Total) * 100
}

// Display renders the score the way the UI shows it, e.g. "2 / 3 (67%)".
func (s Score) Display() string {
	return fmt.Sprintf("%d / %d (%.0f%%)", s.Correct, s.Total, s.Accuracy())
}
