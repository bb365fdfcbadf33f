package scoring

import "context"

// DefaultLabels names scores 0..2.
var DefaultLabels = Labels{"Poor", "Average", "Good"}

// Labels names each score by position; a scorer's valid range is
// [0, len(labels)).
type Labels []string

// Of returns the label for score, or "" when it is out of range.
func (l Labels) Of(score int) string {
	if !l.Valid(score) {
		return ""
	}
	return l[score]
}

// Valid reports whether score is in range.
func (l Labels) Valid(score int) bool {
	return score >= 0 && score < len(l)
}

// Max is the highest valid score.
func (l Labels) Max() int { return len(l) - 1 }

// Scorer grades one free-text answer.
type Scorer interface {
	Score(ctx context.Context, answer string) (int, error)
}
