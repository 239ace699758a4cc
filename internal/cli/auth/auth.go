package auth

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

const (
	service = "storelane-cli"
)

// ErrNoToken is returned when no token is stored for the host.
// Callers treat this as "anonymous", not as a failure.
var ErrNoToken = errors.New("no stored token")

// getKeyringKey returns a unique key for storing session tokens per API host
func getKeyringKey(host string) string {
	return fmt.Sprintf("token-%s", host)
}

// SaveToken persists the session token securely in the OS keychain/credential manager
func SaveToken(host, token string) error {
	key := getKeyringKey(host)
	if err := keyring.Set(service, key, token); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	return nil
}

// LoadToken retrieves the session token from the OS keychain/credential manager
func LoadToken(host string) (string, error) {
	key := getKeyringKey(host)
	token, err := keyring.Get(service, key)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrNoToken
		}
		return "", fmt.Errorf("failed to load token: %w", err)
	}
	return token, nil
}

// DeleteToken removes the session token from the OS keychain/credential manager
func DeleteToken(host string) error {
	key := getKeyringKey(host)
	if err := keyring.Delete(service, key); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil // Already deleted
		}
		return fmt.Errorf("failed to delete token: %w", err)
	}
	return nil
}
