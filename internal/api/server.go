package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/fmuoria/interview-coach/internal/auth"
	"github.com/fmuoria/interview-coach/internal/interview"
	"github.com/fmuoria/interview-coach/internal/scoring"
	"github.com/fmuoria/interview-coach/internal/storage"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

// Results stores and lists finished interviews.
type Results interface {
	SaveInterview(ctx context.Context, rec storage.InterviewRecord) error
	ListInterviews(ctx context.Context, userID string) ([]storage.InterviewRecord, error)
}

// Options wire the optional parts of the server. Nil Auth or Results
// disable the routes that need them.
type Options struct {
	Auth           *auth.Service
	Results        Results
	Limiter        *ClientLimiter
	AllowedOrigins []string
}

// Server handles HTTP requests
type Server struct {
	manager *interview.Manager
	scorer  scoring.Scorer
	labels  scoring.Labels
	auth    *auth.Service
	results Results
	limiter *ClientLimiter
	origins []string
}

// NewServer creates a new API server. scorer and labels also back the
// session-less prediction endpoint.
func NewServer(manager *interview.Manager, scorer scoring.Scorer, labels scoring.Labels, opts Options) *Server {
	return &Server{
		manager: manager,
		scorer:  scorer,
		labels:  labels,
		auth:    opts.Auth,
		results: opts.Results,
		limiter: opts.Limiter,
		origins: opts.AllowedOrigins,
	}
}

// Router returns the HTTP router
func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /start-interview", s.handleStartInterview)
	mux.HandleFunc("POST /submit-answer", s.handleSubmitAnswer)
	mux.HandleFunc("GET /sessions/{id}", s.handleSession)

	mux.HandleFunc("POST /api/predict", s.handlePredict)
	mux.HandleFunc("POST /api/predict/{$}", s.handlePredict)
	mux.HandleFunc("POST /api/chatbot", s.handleChatbot)
	mux.HandleFunc("POST /api/chatbot/{$}", s.handleChatbot)

	mux.HandleFunc("POST /api/auth/signup", s.handleSignup)
	mux.HandleFunc("POST /api/auth/login", s.handleLogin)
	mux.HandleFunc("POST /api/auth/google", s.handleGoogleLogin)
	// paths used by the web frontend
	mux.HandleFunc("POST /login", s.handleLogin)
	mux.HandleFunc("POST /google-login", s.handleGoogleLogin)
	mux.HandleFunc("GET /api/auth/google/login", s.handleGoogleRedirect)
	mux.HandleFunc("GET /api/auth/google/callback", s.handleGoogleCallback)

	mux.HandleFunc("GET /api/results", s.handleResults)
	mux.HandleFunc("GET /api/results/export", s.handleExportResults)

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.Handle("/", s.notFound(mux))

	var h http.Handler = mux
	h = s.rateLimitMiddleware(h)
	h = s.corsMiddleware(h)
	return s.loggingMiddleware(h)
}

// handleRoot provides API information
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"message":   "Backend is running successfully",
		"service":   "Interview Coach",
		"version":   "1.0.0",
		"questions": s.manager.Questions(),
		"endpoints": map[string]string{
			"POST /start-interview":         "Start an interview and get the first question",
			"POST /submit-answer":           "Answer the current question",
			"GET /sessions/{id}":            "Inspect an interview session",
			"POST /api/predict":             "Score a single answer",
			"POST /api/chatbot":             "Echo chatbot",
			"POST /api/auth/signup":         "Create an account",
			"POST /api/auth/login":          "Sign in with email and password",
			"POST /api/auth/google":         "Sign in with a Google ID token",
			"POST /login":                   "Alias of POST /api/auth/login",
			"POST /google-login":            "Alias of POST /api/auth/google",
			"GET /api/auth/google/login":    "Start Google sign-in",
			"GET /api/results":              "List finished interviews",
			"GET /api/results/export":       "Download finished interviews as Excel",
			"GET /health":                   "Health check",
			"GET /api/auth/google/callback": "Google sign-in callback",
		},
	})
}

// notFound answers requests no route claims. A path served under another
// method gets 405 with an Allow header instead.
func (s *Server) notFound(mux *http.ServeMux) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var allow []string
		for _, method := range []string{http.MethodGet, http.MethodPost} {
			if method == r.Method {
				continue
			}
			alt := r.Clone(r.Context())
			alt.Method = method
			if _, pattern := mux.Handler(alt); pattern != "" && pattern != "/" {
				allow = append(allow, method)
			}
		}
		if len(allow) > 0 {
			w.Header().Set("Allow", strings.Join(allow, ", "))
			s.respondError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		s.respondError(w, http.StatusNotFound, "not found")
	}
}

// handleHealth provides a health check endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}

// decodeJSON reads a JSON body into v. An empty body is allowed when
// optional is set.
func decodeJSON(r *http.Request, v any, optional bool) error {
	err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(v)
	if errors.Is(err, io.EOF) && optional {
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: malformed JSON body: %v", interview.ErrInvalidInput, err)
	}
	return nil
}

// statusFor maps domain errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, interview.ErrInvalidInput), errors.Is(err, auth.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, interview.ErrSessionNotFound), errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, interview.ErrSessionFinished), errors.Is(err, auth.ErrEmailTaken):
		return http.StatusConflict
	case errors.Is(err, interview.ErrScoring):
		return http.StatusBadGateway
	case errors.Is(err, interview.ErrConfiguration), errors.Is(err, auth.ErrGoogleDisabled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// respondJSON sends a JSON response
func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Failed to encode JSON response: %v", err)
	}
}

// respondError sends an error response
func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{
		"error": message,
	})
}

// respondErr sends err with the status it maps to
func (s *Server) respondErr(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Printf("Internal error: %v", err)
	}
	s.respondError(w, status, err.Error())
}
