package api

import (
	"context"
	"log"
	"net/http"

	"github.com/fmuoria/interview-coach/internal/models"
	"github.com/fmuoria/interview-coach/internal/storage"
)

func (s *Server) handleStartInterview(w http.ResponseWriter, r *http.Request) {
	var req models.StartRequest
	if err := decodeJSON(r, &req, true); err != nil {
		s.respondErr(w, err)
		return
	}

	started, err := s.manager.StartSession(r.Context(), req.UserID)
	if err != nil {
		s.respondErr(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, models.StartResponse{
		SessionID: started.SessionID,
		Question:  started.Question,
	})
}

func (s *Server) handleSubmitAnswer(w http.ResponseWriter, r *http.Request) {
	var req models.SubmitRequest
	if err := decodeJSON(r, &req, false); err != nil {
		s.respondErr(w, err)
		return
	}

	res, err := s.manager.SubmitAnswer(r.Context(), req.SessionID, req.Answer)
	if err != nil {
		s.respondErr(w, err)
		return
	}

	if res.Finished {
		s.saveFinished(r.Context(), req.SessionID)
	}

	s.respondJSON(w, http.StatusOK, models.NewSubmitResponse(res))
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.manager.Session(r.Context(), r.PathValue("id"))
	if err != nil {
		s.respondErr(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, models.NewSessionResponse(sess, s.manager.Questions()))
}

// saveFinished records a finished interview in history. The answer has
// already been accepted, so a storage failure is only logged.
func (s *Server) saveFinished(ctx context.Context, sessionID string) {
	if s.results == nil {
		return
	}

	sess, err := s.manager.Session(ctx, sessionID)
	if err != nil {
		log.Printf("[interview] session %s: cannot load for history: %v", sessionID, err)
		return
	}

	rec := storage.InterviewRecord{
		SessionID:  sess.ID,
		UserID:     sess.UserID,
		FinalScore: sess.TotalScore,
		MaxScore:   s.manager.MaxScore(),
		Verdict:    s.manager.Verdict(sess.TotalScore),
		StartedAt:  sess.StartedAt,
		FinishedAt: sess.UpdatedAt,
	}
	for _, a := range sess.Answers {
		rec.Answers = append(rec.Answers, storage.AnswerRecord{
			Question: a.Question,
			Answer:   a.Text,
			Score:    a.Score,
			Label:    a.Label,
		})
	}

	if err := s.results.SaveInterview(ctx, rec); err != nil {
		log.Printf("[interview] session %s: failed to save history: %v", sessionID, err)
	}
}
