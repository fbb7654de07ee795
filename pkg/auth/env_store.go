package auth

import (
	"os"
	"time"
)

// EnvStore implements TokenStore from environment variables. Read-only; it
// exists so scripted environments can inject a token without touching the
// keyring or the encrypted file.
type EnvStore struct{}

// NewEnvStore creates an environment-variable token store.
func NewEnvStore() *EnvStore {
	return &EnvStore{}
}

// Store is not supported for environment variables.
func (e *EnvStore) Store(token *Token) error {
	return ErrStoreUnavailable
}

// Retrieve builds a token from KVAULT_TOKEN and KVAULT_ADDR.
func (e *EnvStore) Retrieve(address string) (*Token, error) {
	value := os.Getenv("KVAULT_TOKEN")
	if value == "" {
		return nil, ErrTokenNotFound
	}

	envAddr := os.Getenv("KVAULT_ADDR")
	if address != "" && envAddr != "" && envAddr != address {
		return nil, ErrTokenNotFound
	}
	if address == "" {
		address = envAddr
	}

	return &Token{
		Address: address,
		Value:   value,
		SavedAt: time.Now(),
	}, nil
}

// List returns the environment token if one is set.
func (e *EnvStore) List() ([]*Token, error) {
	token, err := e.Retrieve("")
	if err != nil {
		return []*Token{}, nil
	}
	return []*Token{token}, nil
}

// Delete is not supported for environment variables.
func (e *EnvStore) Delete(address string) error {
	return ErrStoreUnavailable
}

// Exists checks whether an environment token is set.
func (e *EnvStore) Exists(address string) bool {
	_, err := e.Retrieve(address)
	return err == nil
}
