package api

import (
	"bytes"
	"net/http"
	"time"

	"github.com/fmuoria/interview-coach/internal/export"
	"github.com/fmuoria/interview-coach/internal/models"
	"github.com/fmuoria/interview-coach/internal/storage"
)

// handleResults lists finished interviews, optionally for one user
func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	if s.results == nil {
		s.respondError(w, http.StatusServiceUnavailable, "interview history is not enabled")
		return
	}

	list, err := s.results.ListInterviews(r.Context(), r.URL.Query().Get("user_id"))
	if err != nil {
		s.respondErr(w, err)
		return
	}
	if list == nil {
		list = []storage.InterviewRecord{}
	}

	s.respondJSON(w, http.StatusOK, models.ResultsResponse{
		Interviews: list,
		Count:      len(list),
		Timestamp:  time.Now().Format(time.RFC3339),
	})
}

// handleExportResults downloads finished interviews as an Excel workbook
func (s *Server) handleExportResults(w http.ResponseWriter, r *http.Request) {
	if s.results == nil {
		s.respondError(w, http.StatusServiceUnavailable, "interview history is not enabled")
		return
	}

	list, err := s.results.ListInterviews(r.Context(), r.URL.Query().Get("user_id"))
	if err != nil {
		s.respondErr(w, err)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteResults(list, &buf); err != nil {
		s.respondErr(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="interview_results.xlsx"`)
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}
