package auth

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestTokenManager(t *testing.T) {
	// Use mock manager for reliable testing
	manager, mockStore := NewMockManager()

	token := &Token{
		Address: "https://kvault.example.com:8300",
		Value:   "s.test_token_1234567890",
	}

	err := manager.Store(token)
	if err != nil {
		t.Errorf("Failed to store token: %v", err)
	}
	if token.SavedAt.IsZero() {
		t.Error("Expected SavedAt to be set on store")
	}

	retrieved, err := manager.Retrieve("https://kvault.example.com:8300")
	if err != nil {
		t.Fatalf("Failed to retrieve token: %v", err)
	}
	if retrieved.Address != token.Address {
		t.Errorf("Address mismatch: got %s, want %s", retrieved.Address, token.Address)
	}
	if retrieved.Value != token.Value {
		t.Errorf("Value mismatch: got %s, want %s", retrieved.Value, token.Value)
	}

	tokens, err := manager.List()
	if err != nil {
		t.Errorf("Failed to list tokens: %v", err)
	}
	if len(tokens) != 1 {
		t.Errorf("Expected 1 token in list, got %d", len(tokens))
	}

	err = manager.Delete("https://kvault.example.com:8300")
	if err != nil {
		t.Errorf("Failed to delete token: %v", err)
	}

	if _, err = manager.Retrieve("https://kvault.example.com:8300"); err == nil {
		t.Error("Expected error retrieving deleted token")
	}

	if mockStore.Count() != 0 {
		t.Errorf("Expected 0 tokens after deletion, got %d", mockStore.Count())
	}
}

func TestManagerRejectsInvalidTokens(t *testing.T) {
	manager, _ := NewMockManager()

	if err := manager.Store(nil); err == nil {
		t.Error("Expected error storing nil token")
	}
	if err := manager.Store(&Token{Value: "s.orphan"}); err == nil {
		t.Error("Expected error storing token without address")
	}
	if err := manager.Store(&Token{Address: "https://kvault.example.com"}); err == nil {
		t.Error("Expected error storing token without value")
	}
}

func TestManagerFallsBackAcrossStores(t *testing.T) {
	failing := NewMockStore()
	failing.StoreError = errors.New("keyring locked")
	failing.RetrieveError = errors.New("keyring locked")

	working := NewMockStore()

	manager := NewMockManagerWithStores(failing, working)

	token := &Token{
		Address: "https://kvault.internal:8300",
		Value:   "s.fallback",
	}

	if err := manager.Store(token); err != nil {
		t.Fatalf("Expected store to fall back to the second backend: %v", err)
	}
	if working.Count() != 1 {
		t.Errorf("Expected the second store to hold the token, count = %d", working.Count())
	}

	retrieved, err := manager.Retrieve("https://kvault.internal:8300")
	if err != nil {
		t.Fatalf("Expected retrieve to fall back: %v", err)
	}
	if retrieved.Value != "s.fallback" {
		t.Errorf("Unexpected token value: %s", retrieved.Value)
	}
}

func TestManagerListPicksNewestPerAddress(t *testing.T) {
	older := NewMockStore()
	newer := NewMockStore()

	_ = older.Store(&Token{
		Address: "https://kvault.internal:8300",
		Value:   "s.old",
		SavedAt: time.Now().Add(-time.Hour),
	})
	_ = newer.Store(&Token{
		Address: "https://kvault.internal:8300",
		Value:   "s.new",
		SavedAt: time.Now(),
	})

	manager := NewMockManagerWithStores(older, newer)

	tokens, err := manager.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(tokens) != 1 {
		t.Fatalf("Expected 1 token, got %d", len(tokens))
	}
	if tokens[0].Value != "s.new" {
		t.Errorf("Expected the newest token, got %s", tokens[0].Value)
	}
}

func TestSanitizeToken(t *testing.T) {
	token := &Token{
		Address: "https://kvault.example.com:8300",
		Value:   "s.verysecrettokenvalue",
		SavedAt: time.Now(),
	}

	sanitized := SanitizeToken(token)
	if sanitized.Value == token.Value {
		t.Error("Token value should be masked")
	}
	if sanitized.Address != token.Address {
		t.Error("Address should not be masked")
	}

	if SanitizeToken(nil) != nil {
		t.Error("Expected nil for nil input")
	}
}

func TestMaskString(t *testing.T) {
	if got := maskString("short"); got != "********" {
		t.Errorf("Short values should be fully masked, got %q", got)
	}

	masked := maskString("s.1234567890abcdef")
	if masked != "s.12...cdef" {
		t.Errorf("Unexpected mask: %q", masked)
	}
}

func TestEncryptedFileStore(t *testing.T) {
	tempFile := filepath.Join(t.TempDir(), "tokens.enc")

	t.Setenv("KVAULT_PASSPHRASE", "test_passphrase_123")

	store, err := NewEncryptedFileStore(tempFile)
	if err != nil {
		t.Fatalf("Failed to create encrypted store: %v", err)
	}

	token := &Token{
		Address: "https://kvault.example.com:8300",
		Value:   "s.encrypted_token_value",
		SavedAt: time.Now(),
	}

	if err := store.Store(token); err != nil {
		t.Fatalf("Failed to store in encrypted file: %v", err)
	}

	retrieved, err := store.Retrieve("https://kvault.example.com:8300")
	if err != nil {
		t.Fatalf("Failed to retrieve from encrypted file: %v", err)
	}
	if retrieved.Value != token.Value {
		t.Error("Token value mismatch after encryption round trip")
	}

	// Verify the file on disk does not hold the plaintext token
	fileContent, err := os.ReadFile(tempFile)
	if err != nil {
		t.Fatal(err)
	}
	if bytes.Contains(fileContent, []byte("s.encrypted_token_value")) {
		t.Error("File contains plaintext token value")
	}

	// Listing and deletion
	tokens, err := store.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(tokens) != 1 {
		t.Errorf("Expected 1 token, got %d", len(tokens))
	}

	if err := store.Delete("https://kvault.example.com:8300"); err != nil {
		t.Errorf("Failed to delete token: %v", err)
	}
	if store.Exists("https://kvault.example.com:8300") {
		t.Error("Expected token to be gone after deletion")
	}
}

func TestEncryptedFileStoreMultipleServers(t *testing.T) {
	tempFile := filepath.Join(t.TempDir(), "tokens.enc")
	t.Setenv("KVAULT_PASSPHRASE", "test_passphrase_123")

	store, err := NewEncryptedFileStore(tempFile)
	if err != nil {
		t.Fatal(err)
	}

	_ = store.Store(&Token{Address: "https://a.example.com", Value: "s.aaa"})
	_ = store.Store(&Token{Address: "https://b.example.com", Value: "s.bbb"})

	a, err := store.Retrieve("https://a.example.com")
	if err != nil || a.Value != "s.aaa" {
		t.Errorf("Unexpected token for server a: %v, %v", a, err)
	}
	b, err := store.Retrieve("https://b.example.com")
	if err != nil || b.Value != "s.bbb" {
		t.Errorf("Unexpected token for server b: %v, %v", b, err)
	}
}

func TestEnvStore(t *testing.T) {
	t.Setenv("KVAULT_TOKEN", "s.env_token")
	t.Setenv("KVAULT_ADDR", "https://env.example.com:8300")

	store := NewEnvStore()

	token, err := store.Retrieve("https://env.example.com:8300")
	if err != nil {
		t.Fatalf("Failed to retrieve env token: %v", err)
	}
	if token.Value != "s.env_token" {
		t.Errorf("Unexpected token value: %s", token.Value)
	}

	// A different address must not pick up the env token
	if _, err := store.Retrieve("https://other.example.com"); err == nil {
		t.Error("Expected error for a mismatched address")
	}

	// The env store is read-only
	if err := store.Store(token); !errors.Is(err, ErrStoreUnavailable) {
		t.Errorf("Expected ErrStoreUnavailable, got %v", err)
	}
	if err := store.Delete("https://env.example.com:8300"); !errors.Is(err, ErrStoreUnavailable) {
		t.Errorf("Expected ErrStoreUnavailable, got %v", err)
	}
}

func TestEnvStoreEmpty(t *testing.T) {
	t.Setenv("KVAULT_TOKEN", "")

	store := NewEnvStore()
	if _, err := store.Retrieve("https://any.example.com"); !errors.Is(err, ErrTokenNotFound) {
		t.Errorf("Expected ErrTokenNotFound, got %v", err)
	}
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	key := make([]byte, 32)
	for i := range key {
		key[i] = byte(i)
	}

	plaintext := []byte(`{"https://a":{"value":"s.secret"}}`)

	sealed, err := encrypt(plaintext, key)
	if err != nil {
		t.Fatal(err)
	}
	if bytes.Contains(sealed, []byte("s.secret")) {
		t.Error("Sealed payload contains plaintext")
	}

	opened, err := decrypt(sealed, key)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(opened, plaintext) {
		t.Error("Round trip produced different plaintext")
	}

	// Tampering must fail authentication
	sealed[len(sealed)-1] ^= 0xff
	if _, err := decrypt(sealed, key); err == nil {
		t.Error("Expected tampered ciphertext to fail decryption")
	}
}
