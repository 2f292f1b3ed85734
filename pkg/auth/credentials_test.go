package auth

import (
	"path/filepath"
	"testing"
	"time"
)

func testAccount(name string) *Account {
	return &Account{
		Name:     name,
		Email:    name + "@example.com",
		Host:     "imap.example.com",
		Port:     993,
		Username: name + "@example.com",
		Password: "app-password",
		UseTLS:   true,
	}
}

func TestManagerStoreAndRetrieve(t *testing.T) {
	manager, _ := NewMockManager()

	account := testAccount("work")
	if err := manager.Store(account); err != nil {
		t.Fatalf("Failed to store: %v", err)
	}
	if account.LastModified.IsZero() {
		t.Error("Expected LastModified set on store")
	}

	retrieved, err := manager.Retrieve("work")
	if err != nil {
		t.Fatalf("Failed to retrieve: %v", err)
	}
	if retrieved.Host != "imap.example.com" || retrieved.Password != "app-password" {
		t.Errorf("Retrieved account mismatch: %+v", retrieved)
	}
}

func TestManagerValidation(t *testing.T) {
	manager, _ := NewMockManager()

	cases := []struct {
		name   string
		mutate func(*Account)
	}{
		{"missing name", func(a *Account) { a.Name = "" }},
		{"missing host", func(a *Account) { a.Host = "" }},
		{"missing username", func(a *Account) { a.Username = "" }},
		{"missing password", func(a *Account) { a.Password = "" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			account := testAccount("x")
			tc.mutate(account)
			if err := manager.Store(account); err == nil {
				t.Error("Expected validation error")
			}
		})
	}
}

func TestManagerFallbackAcrossStores(t *testing.T) {
	broken := NewMockStore()
	broken.StoreError = ErrStoreUnavailable
	broken.RetrieveError = ErrStoreUnavailable
	working := NewMockStore()
	manager := NewMockManagerWithStores(broken, working)

	if err := manager.Store(testAccount("work")); err != nil {
		t.Fatalf("Expected fallback store to succeed: %v", err)
	}
	if broken.Count() != 0 || working.Count() != 1 {
		t.Errorf("Expected account in fallback store, got %d/%d", broken.Count(), working.Count())
	}

	if _, err := manager.Retrieve("work"); err != nil {
		t.Errorf("Expected retrieve via fallback: %v", err)
	}
}

func TestManagerDelete(t *testing.T) {
	manager, store := NewMockManager()

	if err := manager.Store(testAccount("work")); err != nil {
		t.Fatalf("Failed to store: %v", err)
	}
	if err := manager.Delete("work"); err != nil {
		t.Fatalf("Failed to delete: %v", err)
	}
	if store.Exists("work") {
		t.Error("Expected account gone")
	}
	if err := manager.Delete("work"); err == nil {
		t.Error("Expected error deleting missing account")
	}
}

func TestManagerListPrefersNewest(t *testing.T) {
	older := NewMockStore()
	newer := NewMockStore()
	manager := NewMockManagerWithStores(older, newer)

	stale := testAccount("work")
	stale.Host = "old.example.com"
	stale.LastModified = time.Now().Add(-time.Hour)
	if err := older.Store(stale); err != nil {
		t.Fatalf("Failed to seed older store: %v", err)
	}

	fresh := testAccount("work")
	fresh.Host = "new.example.com"
	fresh.LastModified = time.Now()
	if err := newer.Store(fresh); err != nil {
		t.Fatalf("Failed to seed newer store: %v", err)
	}

	accounts, err := manager.List()
	if err != nil {
		t.Fatalf("Failed to list: %v", err)
	}
	if len(accounts) != 1 {
		t.Fatalf("Expected deduplicated list, got %d entries", len(accounts))
	}
	if accounts[0].Host != "new.example.com" {
		t.Errorf("Expected most recent version, got host %s", accounts[0].Host)
	}
}

func TestEncryptedFileStore(t *testing.T) {
	t.Setenv("MAILEXPORT_PASSPHRASE", "test-passphrase")
	path := filepath.Join(t.TempDir(), "credentials.enc")

	store, err := NewEncryptedFileStore(path)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}

	account := testAccount("personal")
	account.LastModified = time.Now()
	if err := store.Store(account); err != nil {
		t.Fatalf("Failed to store: %v", err)
	}

	// A fresh store instance with the same passphrase can read it back
	reopened, err := NewEncryptedFileStore(path)
	if err != nil {
		t.Fatalf("Failed to reopen store: %v", err)
	}
	retrieved, err := reopened.Retrieve("personal")
	if err != nil {
		t.Fatalf("Failed to retrieve: %v", err)
	}
	if retrieved.Password != "app-password" {
		t.Errorf("Password lost in round trip: %+v", retrieved)
	}

	// The wrong passphrase cannot decrypt
	t.Setenv("MAILEXPORT_PASSPHRASE", "wrong")
	wrong, err := NewEncryptedFileStore(path)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	if _, err := wrong.Retrieve("personal"); err == nil {
		t.Error("Expected decryption failure with wrong passphrase")
	}

	t.Setenv("MAILEXPORT_PASSPHRASE", "test-passphrase")
	if err := store.Delete("personal"); err != nil {
		t.Fatalf("Failed to delete: %v", err)
	}
	if store.Exists("personal") {
		t.Error("Expected account gone after delete")
	}
}

func TestEnvironmentStore(t *testing.T) {
	t.Setenv("MAILEXPORT_IMAP_HOST", "imap.env.example.com")
	t.Setenv("MAILEXPORT_IMAP_PORT", "143")
	t.Setenv("MAILEXPORT_IMAP_TLS", "false")
	t.Setenv("MAILEXPORT_USERNAME", "env@example.com")
	t.Setenv("MAILEXPORT_PASSWORD", "env-password")

	store := NewEnvironmentStore()

	account, err := store.Retrieve("")
	if err != nil {
		t.Fatalf("Failed to retrieve: %v", err)
	}
	if account.Name != "default" {
		t.Errorf("Expected default name, got %s", account.Name)
	}
	if account.Host != "imap.env.example.com" || account.Port != 143 || account.UseTLS {
		t.Errorf("Environment account mismatch: %+v", account)
	}

	if err := store.Store(account); err != ErrStoreUnavailable {
		t.Errorf("Expected store unavailable, got %v", err)
	}
	if err := store.Delete("default"); err != ErrStoreUnavailable {
		t.Errorf("Expected delete unavailable, got %v", err)
	}
}

func TestEnvironmentStoreMissingVars(t *testing.T) {
	t.Setenv("MAILEXPORT_IMAP_HOST", "")
	t.Setenv("MAILEXPORT_USERNAME", "")
	t.Setenv("MAILEXPORT_PASSWORD", "")

	store := NewEnvironmentStore()
	if _, err := store.Retrieve(""); err != ErrCredentialsNotFound {
		t.Errorf("Expected credentials not found, got %v", err)
	}
	if store.Exists("") {
		t.Error("Expected no environment credentials")
	}
}
