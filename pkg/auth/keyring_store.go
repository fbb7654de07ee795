package auth

import (
	"encoding/json"
	"fmt"

	"github.com/zalando/go-keyring"
)

const (
	keyringService = "kvault"
	keyringPrefix  = "token_"
)

// KeyringStore implements TokenStore using the system keychain.
type KeyringStore struct{}

// NewKeyringStore creates a keyring-based token store, probing availability.
func NewKeyringStore() (*KeyringStore, error) {
	testKey := "test_availability"
	err := keyring.Set(keyringService, testKey, "test")
	if err != nil {
		return nil, fmt.Errorf("keyring not available: %w", err)
	}
	_ = keyring.Delete(keyringService, testKey)

	return &KeyringStore{}, nil
}

// Store saves a token to the system keychain.
func (k *KeyringStore) Store(token *Token) error {
	if token == nil || token.Address == "" {
		return ErrInvalidToken
	}

	data, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("failed to marshal token: %w", err)
	}

	key := keyringPrefix + token.Address
	if err := keyring.Set(keyringService, key, string(data)); err != nil {
		return fmt.Errorf("failed to store in keyring: %w", err)
	}

	return nil
}

// Retrieve gets a token from the system keychain.
func (k *KeyringStore) Retrieve(address string) (*Token, error) {
	if address == "" {
		return nil, ErrInvalidToken
	}

	key := keyringPrefix + address
	data, err := keyring.Get(keyringService, key)
	if err != nil {
		if err == keyring.ErrNotFound {
			return nil, ErrTokenNotFound
		}
		return nil, fmt.Errorf("failed to retrieve from keyring: %w", err)
	}

	var token Token
	if err := json.Unmarshal([]byte(data), &token); err != nil {
		return nil, fmt.Errorf("failed to unmarshal token: %w", err)
	}

	return &token, nil
}

// List is unsupported: go-keyring cannot enumerate keys portably.
func (k *KeyringStore) List() ([]*Token, error) {
	return []*Token{}, nil
}

// Delete removes a token from the system keychain.
func (k *KeyringStore) Delete(address string) error {
	if address == "" {
		return ErrInvalidToken
	}

	key := keyringPrefix + address
	if err := keyring.Delete(keyringService, key); err != nil {
		if err == keyring.ErrNotFound {
			return ErrTokenNotFound
		}
		return fmt.Errorf("failed to delete from keyring: %w", err)
	}

	return nil
}

// Exists checks whether a token exists in the keychain.
func (k *KeyringStore) Exists(address string) bool {
	token, err := k.Retrieve(address)
	return err == nil && token != nil
}
