package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/fmuoria/interview-coach/internal/interview"
	"github.com/fmuoria/interview-coach/internal/models"
	"github.com/fmuoria/interview-coach/internal/preprocess"
)

// handlePredict scores one answer without a session
func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	var req models.PredictRequest
	if err := decodeJSON(r, &req, false); err != nil {
		s.respondErr(w, err)
		return
	}
	if strings.TrimSpace(req.Answer) == "" {
		s.respondError(w, http.StatusBadRequest, "No answer provided")
		return
	}

	score, err := s.scorer.Score(r.Context(), req.Answer)
	if err != nil {
		s.respondErr(w, fmt.Errorf("%w: %w", interview.ErrScoring, err))
		return
	}
	label := s.labels.Of(score)
	if label == "" {
		s.respondErr(w, fmt.Errorf("%w: score %d out of range", interview.ErrScoring, score))
		return
	}

	s.respondJSON(w, http.StatusOK, models.PredictResponse{
		Prediction: label,
		Score:      score,
		Cleaned:    preprocess.Clean(req.Answer),
	})
}

func (s *Server) handleChatbot(w http.ResponseWriter, r *http.Request) {
	var req models.ChatRequest
	if err := decodeJSON(r, &req, false); err != nil {
		s.respondErr(w, err)
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		s.respondError(w, http.StatusBadRequest, "No message provided")
		return
	}

	s.respondJSON(w, http.StatusOK, models.ChatResponse{
		Reply: "I received your message: " + req.Message,
	})
}
