package auth

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"
)

// Token holds an auth token for one kvault server, keyed by server address.
type Token struct {
	Address string    `json:"address"`
	Value   string    `json:"value"`
	SavedAt time.Time `json:"saved_at"`
}

// TokenStore is the interface for storing and retrieving server tokens.
type TokenStore interface {
	// Store saves a token for its server address.
	Store(token *Token) error

	// Retrieve gets the token for a server address.
	Retrieve(address string) (*Token, error)

	// List returns all stored tokens.
	List() ([]*Token, error)

	// Delete removes the token for a server address.
	Delete(address string) error

	// Exists checks whether a token exists for a server address.
	Exists(address string) bool
}

// Manager layers token stores with fallback: system keyring first, encrypted
// file second, environment variables as a read-only last resort.
type Manager struct {
	stores []TokenStore
}

// NewManager creates a token manager with the available storage backends.
func NewManager() (*Manager, error) {
	var stores []TokenStore

	keyringStore, err := NewKeyringStore()
	if err == nil {
		stores = append(stores, keyringStore)
	}

	configDir, err := getConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get config directory: %w", err)
	}

	encryptedStore, err := NewEncryptedFileStore(filepath.Join(configDir, "tokens.enc"))
	if err != nil {
		return nil, fmt.Errorf("failed to create encrypted store: %w", err)
	}
	stores = append(stores, encryptedStore)

	stores = append(stores, NewEnvStore())

	return &Manager{stores: stores}, nil
}

// Store saves a token using the first store that accepts it.
func (m *Manager) Store(token *Token) error {
	if token == nil || token.Address == "" {
		return ErrInvalidToken
	}
	if token.Value == "" {
		return errors.New("token value is required")
	}

	token.SavedAt = time.Now()

	var lastErr error
	for _, store := range m.stores {
		if err := store.Store(token); err == nil {
			return nil
		} else {
			lastErr = err
		}
	}

	if lastErr != nil {
		return fmt.Errorf("failed to store token: %w", lastErr)
	}
	return errors.New("no available token stores")
}

// Retrieve gets the token for a server from the first store that has one.
func (m *Manager) Retrieve(address string) (*Token, error) {
	for _, store := range m.stores {
		if token, err := store.Retrieve(address); err == nil && token != nil {
			return token, nil
		}
	}
	return nil, fmt.Errorf("token not found for server: %s", address)
}

// List returns all stored tokens across stores, newest per address.
func (m *Manager) List() ([]*Token, error) {
	byAddress := make(map[string]*Token)

	for _, store := range m.stores {
		tokens, err := store.List()
		if err != nil {
			continue
		}
		for _, token := range tokens {
			if existing, ok := byAddress[token.Address]; !ok || token.SavedAt.After(existing.SavedAt) {
				byAddress[token.Address] = token
			}
		}
	}

	var result []*Token
	for _, token := range byAddress {
		result = append(result, token)
	}

	return result, nil
}

// Delete removes the token for a server address from all stores.
func (m *Manager) Delete(address string) error {
	var deleted bool
	var lastErr error

	for _, store := range m.stores {
		if err := store.Delete(address); err == nil {
			deleted = true
		} else {
			lastErr = err
		}
	}

	if !deleted && lastErr != nil {
		return fmt.Errorf("failed to delete token: %w", lastErr)
	}
	if !deleted {
		return fmt.Errorf("token not found for server: %s", address)
	}

	return nil
}

// getConfigDir returns the kvault configuration directory, creating it if needed.
func getConfigDir() (string, error) {
	var configDir string

	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configDir = filepath.Join(home, "Library", "Application Support", "kvault")
	case "windows":
		configDir = filepath.Join(os.Getenv("APPDATA"), "kvault")
	default:
		if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
			configDir = filepath.Join(xdgConfig, "kvault")
		} else {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			configDir = filepath.Join(home, ".config", "kvault")
		}
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	return configDir, nil
}

// SanitizeToken returns a copy of the token with the secret value masked.
func SanitizeToken(token *Token) *Token {
	if token == nil {
		return nil
	}

	return &Token{
		Address: token.Address,
		Value:   maskString(token.Value),
		SavedAt: token.SavedAt,
	}
}

// maskString masks all but the first 4 and last 4 characters of a string.
func maskString(s string) string {
	if len(s) <= 8 {
		return "********"
	}
	return s[:4] + "..." + s[len(s)-4:]
}

// Errors
var (
	ErrTokenNotFound    = errors.New("token not found")
	ErrInvalidToken     = errors.New("invalid token")
	ErrStoreUnavailable = errors.New("token store unavailable")
)
