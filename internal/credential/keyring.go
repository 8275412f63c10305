package credential

import (
	"errors"
	"fmt"

	"github.com/99designs/keyring"
)

const serviceName = "infomodule"

// SessionTokenKey is the fixed keyring key holding the backend session token.
const SessionTokenKey = "session-token"

// Open returns a keyring for the application. dir is the fallback
// directory for the encrypted file backend.
func Open(dir string) (keyring.Keyring, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  dir,
		FilePasswordFunc:         keyring.FixedStringPrompt("infomodule-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return ring, nil
}

// TokenStore persists the session token in a keyring.
type TokenStore struct {
	ring keyring.Keyring
}

// NewTokenStore wraps ring.
func NewTokenStore(ring keyring.Keyring) *TokenStore {
	return &TokenStore{ring: ring}
}

// Token returns the stored session token, or "" when none is stored.
func (s *TokenStore) Token() (string, error) {
	item, err := s.ring.Get(SessionTokenKey)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("getting credential %q: %w", SessionTokenKey, err)
	}
	return string(item.Data), nil
}

// SaveToken stores token, replacing any previous value.
func (s *TokenStore) SaveToken(token string) error {
	err := s.ring.Set(keyring.Item{
		Key:   SessionTokenKey,
		Data:  []byte(token),
		Label: "Information Module session",
	})
	if err != nil {
		return fmt.Errorf("setting credential %q: %w", SessionTokenKey, err)
	}
	return nil
}

// ClearToken removes the stored token. A missing token is not an error.
func (s *TokenStore) ClearToken() error {
	err := s.ring.Remove(SessionTokenKey)
	if err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return fmt.Errorf("deleting credential %q: %w", SessionTokenKey, err)
	}
	return nil
}
