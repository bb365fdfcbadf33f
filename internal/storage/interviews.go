package storage

import (
	"context"
	"fmt"
	"time"
)

type AnswerRecord struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Score    int    `json:"score"`
	Label    string `json:"label"`
}

// InterviewRecord is a finished interview with its transcript.
type InterviewRecord struct {
	SessionID  string         `json:"session_id"`
	UserID     string         `json:"user_id,omitempty"`
	FinalScore int            `json:"final_score"`
	MaxScore   int            `json:"max_score"`
	Verdict    string         `json:"verdict"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
	Answers    []AnswerRecord `json:"answers"`
}

// SaveInterview stores rec and its answers in one transaction. Saving
// the same session again replaces it.
func (d *DB) SaveInterview(ctx context.Context, rec InterviewRecord) error {
	tx, err := d.Pool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM interviews WHERE session_id = ?;`, rec.SessionID); err != nil {
		return fmt.Errorf("replace interview: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM interview_answers WHERE session_id = ?;`, rec.SessionID); err != nil {
		return fmt.Errorf("replace answers: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
INSERT INTO interviews (session_id, user_id, final_score, max_score, verdict, started_at, finished_at)
VALUES (?, ?, ?, ?, ?, ?, ?);`,
		rec.SessionID, rec.UserID, rec.FinalScore, rec.MaxScore, rec.Verdict,
		rec.StartedAt.UTC().Format(time.RFC3339Nano), rec.FinishedAt.UTC().Format(time.RFC3339Nano),
	); err != nil {
		return fmt.Errorf("insert interview: %w", err)
	}

	for i, a := range rec.Answers {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO interview_answers (session_id, position, question, answer, score, label)
VALUES (?, ?, ?, ?, ?, ?);`,
			rec.SessionID, i, a.Question, a.Answer, a.Score, a.Label,
		); err != nil {
			return fmt.Errorf("insert answer %d: %w", i, err)
		}
	}

	return tx.Commit()
}

// ListInterviews returns finished interviews, newest first. An empty
// userID lists everyone's.
func (d *DB) ListInterviews(ctx context.Context, userID string) ([]InterviewRecord, error) {
	query := `
SELECT session_id, user_id, final_score, max_score, verdict, started_at, finished_at
FROM interviews`
	var args []any
	if userID != "" {
		query += ` WHERE user_id = ?`
		args = append(args, userID)
	}
	query += ` ORDER BY finished_at DESC;`

	rows, err := d.Pool.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []InterviewRecord
	index := make(map[string]int)
	for rows.Next() {
		var rec InterviewRecord
		var started, finished string
		if err := rows.Scan(&rec.SessionID, &rec.UserID, &rec.FinalScore, &rec.MaxScore,
			&rec.Verdict, &started, &finished); err != nil {
			return nil, err
		}
		rec.StartedAt, _ = time.Parse(time.RFC3339Nano, started)
		rec.FinishedAt, _ = time.Parse(time.RFC3339Nano, finished)
		index[rec.SessionID] = len(out)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return out, nil
	}

	aq := `
SELECT a.session_id, a.question, a.answer, a.score, a.label
FROM interview_answers a
JOIN interviews i ON i.session_id = a.session_id`
	if userID != "" {
		aq += ` WHERE i.user_id = ?`
	}
	aq += ` ORDER BY a.session_id, a.position;`

	arows, err := d.Pool.QueryContext(ctx, aq, args...)
	if err != nil {
		return nil, err
	}
	defer arows.Close()

	for arows.Next() {
		var id string
		var a AnswerRecord
		if err := arows.Scan(&id, &a.Question, &a.Answer, &a.Score, &a.Label); err != nil {
			return nil, err
		}
		if i, ok := index[id]; ok {
			out[i].Answers = append(out[i].Answers, a)
		}
	}
	return out, arows.Err()
}
