package interview

import "time"

// Status is derived from a session's position in the question list.
type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusFinished   Status = "finished"
)

const (
	VerdictSelected         = "Selected"
	VerdictNeedsImprovement = "Needs Improvement"
)

// Answer is one accepted submission.
type Answer struct {
	Question string    `json:"question"`
	Text     string    `json:"answer"`
	Score    int       `json:"score"`
	Label    string    `json:"label"`
	At       time.Time `json:"at"`
}

// Session is one run through the question list. Sessions reference
// questions by position only.
type Session struct {
	ID           string    `json:"session_id"`
	UserID       string    `json:"user_id,omitempty"`
	CurrentIndex int       `json:"current_index"`
	TotalScore   int       `json:"total_score"`
	Answers      []Answer  `json:"answers"`
	StartedAt    time.Time `json:"started_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Status reports whether the session has answered all n questions.
func (s Session) Status(n int) Status {
	if s.CurrentIndex >= n {
		return StatusFinished
	}
	return StatusInProgress
}

func (s Session) clone() Session {
	out := s
	if s.Answers != nil {
		out.Answers = make([]Answer, len(s.Answers))
		copy(out.Answers, s.Answers)
	}
	return out
}
