package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/idtoken"
)

// TokenValidator checks a Google ID token for audience.
type TokenValidator func(ctx context.Context, idToken, audience string) (*idtoken.Payload, error)

// Identity is the verified owner of a Google ID token.
type Identity struct {
	Subject string
	Email   string
	Name    string
}

// GoogleAuth runs the OAuth2 authorization code flow against Google and
// verifies the ID tokens it yields.
type GoogleAuth struct {
	config   *oauth2.Config
	validate TokenValidator
}

// NewGoogleAuth creates a Google sign-in helper for a web client.
func NewGoogleAuth(clientID, clientSecret, redirectURL string) (*GoogleAuth, error) {
	if clientID == "" {
		return nil, ErrGoogleDisabled
	}
	return &GoogleAuth{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		},
		validate: idtoken.Validate,
	}, nil
}

// NewState returns a random value for the OAuth state parameter.
func NewState() string {
	return uuid.NewString()
}

// AuthCodeURL is where the browser is sent to sign in.
func (g *GoogleAuth) AuthCodeURL(state string) string {
	return g.config.AuthCodeURL(state, oauth2.SetAuthURLParam("prompt", "select_account"))
}

// Exchange trades an authorization code for the ID token in the token
// response.
func (g *GoogleAuth) Exchange(ctx context.Context, code string) (string, error) {
	if code == "" {
		return "", errors.New("missing authorization code")
	}
	tok, err := g.config.Exchange(ctx, code)
	if err != nil {
		return "", fmt.Errorf("unable to exchange code: %w", err)
	}
	idToken, _ := tok.Extra("id_token").(string)
	if idToken == "" {
		return "", errors.New("token response has no id_token")
	}
	return idToken, nil
}

// Verify checks the token signature, expiry and audience and returns
// its owner. Unverified emails are rejected.
func (g *GoogleAuth) Verify(ctx context.Context, idToken string) (Identity, error) {
	payload, err := g.validate(ctx, idToken, g.config.ClientID)
	if err != nil {
		return Identity{}, fmt.Errorf("invalid id token: %w", err)
	}

	id := Identity{Subject: payload.Subject}
	id.Email, _ = payload.Claims["email"].(string)
	id.Name, _ = payload.Claims["name"].(string)
	if verified, ok := payload.Claims["email_verified"].(bool); ok && !verified {
		return Identity{}, errors.New("google email is not verified")
	}
	if id.Subject == "" || id.Email == "" {
		return Identity{}, errors.New("id token is missing subject or email")
	}
	return id, nil
}
