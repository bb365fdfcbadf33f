package secrets

import (
	"errors"
	"strings"

	"github.com/zalando/go-keyring"
)

const (
	// KeyringService groups the app's secrets in the OS keychain.
	KeyringService = "interview-coach"
)

// GoogleKeyringAccount is the keychain account holding the OAuth client
// secret for clientID.
func GoogleKeyringAccount(clientID string) string {
	return "google:oauth:" + clientID
}

// GoogleClientSecret returns configured when set, otherwise the secret
// stored in the keychain for clientID.
func GoogleClientSecret(clientID, configured string) (string, error) {
	if s := strings.TrimSpace(configured); s != "" {
		return s, nil
	}
	if strings.TrimSpace(clientID) == "" {
		return "", errors.New("google client id is empty")
	}

	s, err := keyring.Get(KeyringService, GoogleKeyringAccount(clientID))
	if err == nil && strings.TrimSpace(s) != "" {
		return s, nil
	}

	return "", errors.New("google client secret not found (set it in keychain or via GOOGLE_CLIENT_SECRET)")
}

func SetGoogleClientSecret(clientID, secret string) error {
	if strings.TrimSpace(clientID) == "" {
		return errors.New("google client id is empty")
	}
	if strings.TrimSpace(secret) == "" {
		return errors.New("secret is empty")
	}
	return keyring.Set(KeyringService, GoogleKeyringAccount(clientID), secret)
}

func DeleteGoogleClientSecret(clientID string) error {
	if strings.TrimSpace(clientID) == "" {
		return errors.New("google client id is empty")
	}
	return keyring.Delete(KeyringService, GoogleKeyringAccount(clientID))
}
