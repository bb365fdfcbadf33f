package interview

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
)

// QuestionSource is a fixed, ordered, read-only list of prompts.
type QuestionSource interface {
	Len() int
	At(i int) string
}

// Scorer grades a single free-text answer. Scores must fall in
// [0, len(labels)).
type Scorer interface {
	Score(ctx context.Context, answer string) (int, error)
}

// Options tune a Manager. Zero values pick defaults.
type Options struct {
	// Threshold is the minimum final score for a "Selected" verdict.
	// Nil means one point per question; an explicit 0 passes everyone.
	Threshold *int
	// Labels names each score; its length fixes the score range.
	Labels []string

	Now   func() time.Time
	NewID func() string
}

// Started is returned by StartSession.
type Started struct {
	SessionID string
	Question  string
}

// Result is returned by an accepted SubmitAnswer. NextQuestion,
// AnswerScore and Label are meaningful while Finished is false;
// FinalScore and Verdict once it is true.
type Result struct {
	Finished     bool
	NextQuestion string
	AnswerScore  int
	Label        string
	FinalScore   int
	Verdict      string
}

// Manager sequences questions per session and scores every answer.
type Manager struct {
	questions QuestionSource
	scorer    Scorer
	store     Store
	threshold int
	labels    []string
	now       func() time.Time
	newID     func() string
}

// NewManager validates its collaborators once. An empty question source
// yields ErrConfiguration.
func NewManager(questions QuestionSource, scorer Scorer, store Store, opts Options) (*Manager, error) {
	if questions == nil || questions.Len() == 0 {
		return nil, fmt.Errorf("%w: question source is empty", ErrConfiguration)
	}
	if scorer == nil {
		return nil, fmt.Errorf("%w: no scorer configured", ErrConfiguration)
	}
	if store == nil {
		return nil, fmt.Errorf("%w: no session store configured", ErrConfiguration)
	}
	if len(opts.Labels) == 0 {
		return nil, fmt.Errorf("%w: no score labels configured", ErrConfiguration)
	}
	if opts.Threshold != nil && *opts.Threshold < 0 {
		return nil, fmt.Errorf("%w: threshold %d is negative", ErrConfiguration, *opts.Threshold)
	}

	m := &Manager{
		questions: questions,
		scorer:    scorer,
		store:     store,
		threshold: questions.Len(),
		labels:    append([]string(nil), opts.Labels...),
		now:       opts.Now,
		newID:     opts.NewID,
	}
	if opts.Threshold != nil {
		m.threshold = *opts.Threshold
	}
	if m.now == nil {
		m.now = time.Now
	}
	if m.newID == nil {
		m.newID = uuid.NewString
	}
	return m, nil
}

// Questions returns the number of questions in every session.
func (m *Manager) Questions() int { return m.questions.Len() }

// Threshold returns the score needed for a "Selected" verdict.
func (m *Manager) Threshold() int { return m.threshold }

// MaxScore is the highest final score a session can reach.
func (m *Manager) MaxScore() int { return m.questions.Len() * (len(m.labels) - 1) }

// Label names a score, or returns "" when it is out of range.
func (m *Manager) Label(score int) string {
	if score < 0 || score >= len(m.labels) {
		return ""
	}
	return m.labels[score]
}

// Verdict classifies a final score against the threshold.
func (m *Manager) Verdict(finalScore int) string {
	if finalScore >= m.threshold {
		return VerdictSelected
	}
	return VerdictNeedsImprovement
}

// StartSession allocates a fresh session and returns its first question.
func (m *Manager) StartSession(ctx context.Context, userID string) (Started, error) {
	now := m.now()
	s := Session{
		ID:        m.newID(),
		UserID:    strings.TrimSpace(userID),
		StartedAt: now,
		UpdatedAt: now,
	}
	if err := m.store.Create(ctx, s); err != nil {
		return Started{}, fmt.Errorf("create session: %w", err)
	}

	return Started{SessionID: s.ID, Question: m.questions.At(0)}, nil
}

// SubmitAnswer scores answer for the session's current question and
// advances it. Rejected calls leave the session untouched.
func (m *Manager) SubmitAnswer(ctx context.Context, sessionID, answer string) (Result, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return Result{}, fmt.Errorf("%w: session_id is required", ErrInvalidInput)
	}

	n := m.questions.Len()
	var res Result

	err := m.store.Update(ctx, sessionID, func(s *Session) error {
		if s.Status(n) == StatusFinished {
			return ErrSessionFinished
		}
		if strings.TrimSpace(answer) == "" {
			return fmt.Errorf("%w: answer is required", ErrInvalidInput)
		}

		score, err := m.scorer.Score(ctx, answer)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrScoring, err)
		}
		label := m.Label(score)
		if label == "" {
			return fmt.Errorf("%w: score %d outside [0, %d)", ErrScoring, score, len(m.labels))
		}

		s.Answers = append(s.Answers, Answer{
			Question: m.questions.At(s.CurrentIndex),
			Text:     answer,
			Score:    score,
			Label:    label,
			At:       m.now(),
		})
		s.TotalScore += score
		s.CurrentIndex++
		s.UpdatedAt = m.now()

		if s.CurrentIndex == n {
			res = Result{
				Finished:    true,
				AnswerScore: score,
				Label:       label,
				FinalScore:  s.TotalScore,
				Verdict:     m.Verdict(s.TotalScore),
			}
			return nil
		}

		res = Result{
			NextQuestion: m.questions.At(s.CurrentIndex),
			AnswerScore:  score,
			Label:        label,
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrScoring) {
			log.Printf("[interview] session %s: %v", sessionID, err)
		}
		return Result{}, err
	}

	if res.Finished {
		log.Printf("[interview] session %s finished score=%d verdict=%q", sessionID, res.FinalScore, res.Verdict)
	}
	return res, nil
}

// Session returns a snapshot of a session.
func (m *Manager) Session(ctx context.Context, sessionID string) (Session, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return Session{}, fmt.Errorf("%w: session_id is required", ErrInvalidInput)
	}
	return m.store.Get(ctx, sessionID)
}
