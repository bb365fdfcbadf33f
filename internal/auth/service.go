// Package auth handles email/password accounts and Google sign-in.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/mail"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/fmuoria/interview-coach/internal/storage"
)

const minPasswordLen = 8

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrGoogleDisabled is returned by Google operations when no client
	// id is configured.
	ErrGoogleDisabled = errors.New("google sign-in is not configured")
)

// Users is the account storage the service needs.
type Users interface {
	CreateUser(ctx context.Context, u storage.User) (storage.User, error)
	GetUserByEmail(ctx context.Context, email string) (storage.User, error)
	UpsertGoogleUser(ctx context.Context, sub, email, name string) (storage.User, error)
}

// Service signs users up and in.
type Service struct {
	users  Users
	google *GoogleAuth
	cost   int
}

// NewService creates a service; google may be nil when Google sign-in
// is not configured.
func NewService(users Users, google *GoogleAuth) *Service {
	return &Service{
		users:  users,
		google: google,
		cost:   bcrypt.DefaultCost,
	}
}

// Google returns the Google sign-in helper, or nil.
func (s *Service) Google() *GoogleAuth { return s.google }

func (s *Service) Signup(ctx context.Context, email, password, name string) (storage.User, error) {
	email = strings.TrimSpace(email)
	if _, err := mail.ParseAddress(email); err != nil || strings.ContainsAny(email, "<> ") {
		return storage.User{}, fmt.Errorf("%w: a valid email is required", ErrInvalidInput)
	}
	if len(password) < minPasswordLen {
		return storage.User{}, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, minPasswordLen)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return storage.User{}, fmt.Errorf("hash password: %w", err)
	}

	u, err := s.users.CreateUser(ctx, storage.User{
		Email:        email,
		Name:         strings.TrimSpace(name),
		PasswordHash: string(hash),
	})
	if errors.Is(err, storage.ErrDuplicate) {
		return storage.User{}, ErrEmailTaken
	}
	if err != nil {
		return storage.User{}, err
	}

	log.Printf("[auth] signup user=%d", u.ID)
	return u, nil
}

func (s *Service) Login(ctx context.Context, email, password string) (storage.User, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return storage.User{}, fmt.Errorf("%w: email and password are required", ErrInvalidInput)
	}

	u, err := s.users.GetUserByEmail(ctx, email)
	if errors.Is(err, storage.ErrNotFound) {
		return storage.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return storage.User{}, err
	}
	// Google-only accounts have no password
	if u.PasswordHash == "" {
		return storage.User{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return storage.User{}, ErrInvalidCredentials
	}
	return u, nil
}

// GoogleLogin verifies a Google ID token and signs its owner in,
// creating the account on first use.
func (s *Service) GoogleLogin(ctx context.Context, idToken string) (storage.User, error) {
	if s.google == nil {
		return storage.User{}, ErrGoogleDisabled
	}
	if strings.TrimSpace(idToken) == "" {
		return storage.User{}, fmt.Errorf("%w: id token is required", ErrInvalidInput)
	}

	id, err := s.google.Verify(ctx, idToken)
	if err != nil {
		log.Printf("[auth] google token rejected: %v", err)
		return storage.User{}, ErrInvalidCredentials
	}

	u, err := s.users.UpsertGoogleUser(ctx, id.Subject, id.Email, id.Name)
	if err != nil {
		return storage.User{}, err
	}
	log.Printf("[auth] google login user=%d", u.ID)
	return u, nil
}

// GoogleCallback completes the authorization code flow.
func (s *Service) GoogleCallback(ctx context.Context, code string) (storage.User, error) {
	if s.google == nil {
		return storage.User{}, ErrGoogleDisabled
	}
	idToken, err := s.google.Exchange(ctx, code)
	if err != nil {
		log.Printf("[auth] google code exchange failed: %v", err)
		return storage.User{}, ErrInvalidCredentials
	}
	return s.GoogleLogin(ctx, idToken)
}
