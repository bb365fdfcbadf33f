package api

import (
	"net/http"

	"github.com/fmuoria/interview-coach/internal/auth"
	"github.com/fmuoria/interview-coach/internal/models"
)

const stateCookie = "oauth_state"

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	if s.auth == nil {
		s.respondError(w, http.StatusServiceUnavailable, "accounts are not enabled")
		return
	}
	var req models.SignupRequest
	if err := decodeJSON(r, &req, false); err != nil {
		s.respondErr(w, err)
		return
	}

	u, err := s.auth.Signup(r.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, models.AuthResponse{User: u})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if s.auth == nil {
		s.respondError(w, http.StatusServiceUnavailable, "accounts are not enabled")
		return
	}
	var req models.LoginRequest
	if err := decodeJSON(r, &req, false); err != nil {
		s.respondErr(w, err)
		return
	}

	u, err := s.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, models.AuthResponse{User: u})
}

// handleGoogleLogin accepts an ID token obtained by the frontend
func (s *Server) handleGoogleLogin(w http.ResponseWriter, r *http.Request) {
	if s.auth == nil {
		s.respondErr(w, auth.ErrGoogleDisabled)
		return
	}
	var req models.GoogleLoginRequest
	if err := decodeJSON(r, &req, false); err != nil {
		s.respondErr(w, err)
		return
	}

	u, err := s.auth.GoogleLogin(r.Context(), req.Token())
	if err != nil {
		s.respondErr(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, models.AuthResponse{User: u})
}

// handleGoogleRedirect starts the authorization code flow
func (s *Server) handleGoogleRedirect(w http.ResponseWriter, r *http.Request) {
	if s.auth == nil || s.auth.Google() == nil {
		s.respondErr(w, auth.ErrGoogleDisabled)
		return
	}

	state := auth.NewState()
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/api/auth/google",
		MaxAge:   600,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, s.auth.Google().AuthCodeURL(state), http.StatusFound)
}

func (s *Server) handleGoogleCallback(w http.ResponseWriter, r *http.Request) {
	if s.auth == nil || s.auth.Google() == nil {
		s.respondErr(w, auth.ErrGoogleDisabled)
		return
	}

	q := r.URL.Query()
	if e := q.Get("error"); e != "" {
		s.respondError(w, http.StatusUnauthorized, "google sign-in failed: "+e)
		return
	}

	c, err := r.Cookie(stateCookie)
	if err != nil || c.Value == "" || c.Value != q.Get("state") {
		s.respondError(w, http.StatusBadRequest, "invalid oauth state")
		return
	}
	// state is single use
	http.SetCookie(w, &http.Cookie{Name: stateCookie, Path: "/api/auth/google", MaxAge: -1})

	u, err := s.auth.GoogleCallback(r.Context(), q.Get("code"))
	if err != nil {
		s.respondErr(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, models.AuthResponse{User: u})
}
