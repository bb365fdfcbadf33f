package models

import (
	"time"

	"github.com/fmuoria/interview-coach/internal/interview"
	"github.com/fmuoria/interview-coach/internal/storage"
)

// StartRequest is the optional body of POST /start-interview
type StartRequest struct {
	UserID string `json:"user_id"`
}

// StartResponse carries the new session id and the first question
type StartResponse struct {
	SessionID string `json:"session_id"`
	Question  string `json:"question"`
}

// SubmitRequest is the body of POST /submit-answer
type SubmitRequest struct {
	SessionID string `json:"session_id"`
	Answer    string `json:"answer"`
}

// ProgressResponse is returned while questions remain
type ProgressResponse struct {
	Finished     bool   `json:"finished"`
	NextQuestion string `json:"next_question"`
	AnswerScore  int    `json:"answer_score"`
	Label        string `json:"label"`
}

// FinalResponse is returned for the last answer of an interview
type FinalResponse struct {
	Finished   bool   `json:"finished"`
	FinalScore int    `json:"final_score"`
	Verdict    string `json:"verdict"`
}

// NewSubmitResponse picks the response shape for r
func NewSubmitResponse(r interview.Result) any {
	if r.Finished {
		return FinalResponse{
			Finished:   true,
			FinalScore: r.FinalScore,
			Verdict:    r.Verdict,
		}
	}
	return ProgressResponse{
		NextQuestion: r.NextQuestion,
		AnswerScore:  r.AnswerScore,
		Label:        r.Label,
	}
}

// SessionResponse is a read-only view of one session
type SessionResponse struct {
	SessionID      string             `json:"session_id"`
	UserID         string             `json:"user_id,omitempty"`
	Status         interview.Status   `json:"status"`
	CurrentIndex   int                `json:"current_index"`
	TotalQuestions int                `json:"total_questions"`
	TotalScore     int                `json:"total_score"`
	Answers        []interview.Answer `json:"answers"`
	StartedAt      time.Time          `json:"started_at"`
	UpdatedAt      time.Time          `json:"updated_at"`
}

// NewSessionResponse builds the view of s in an interview of n questions
func NewSessionResponse(s interview.Session, n int) SessionResponse {
	answers := s.Answers
	if answers == nil {
		answers = []interview.Answer{}
	}
	return SessionResponse{
		SessionID:      s.ID,
		UserID:         s.UserID,
		Status:         s.Status(n),
		CurrentIndex:   s.CurrentIndex,
		TotalQuestions: n,
		TotalScore:     s.TotalScore,
		Answers:        answers,
		StartedAt:      s.StartedAt,
		UpdatedAt:      s.UpdatedAt,
	}
}

// PredictRequest scores a single answer outside any session
type PredictRequest struct {
	Answer string `json:"answer"`
}

type PredictResponse struct {
	Prediction string `json:"prediction"`
	Score      int    `json:"score"`
	Cleaned    string `json:"cleaned"`
}

type ChatRequest struct {
	Message string `json:"message"`
}

type ChatResponse struct {
	Reply string `json:"reply"`
}

// SignupRequest creates an email/password account
type SignupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// GoogleLoginRequest carries an ID token obtained by the frontend. Google
// Identity Services posts it as "credential".
type GoogleLoginRequest struct {
	IDToken    string `json:"id_token"`
	Credential string `json:"credential"`
}

// Token returns whichever of the two token fields is set.
func (r GoogleLoginRequest) Token() string {
	if r.IDToken != "" {
		return r.IDToken
	}
	return r.Credential
}

// AuthResponse is returned by every successful sign-in
type AuthResponse struct {
	User storage.User `json:"user"`
}

// ResultsResponse lists finished interviews
type ResultsResponse struct {
	Interviews []storage.InterviewRecord `json:"interviews"`
	Count      int                       `json:"count"`
	Timestamp  string                    `json:"timestamp"`
}
