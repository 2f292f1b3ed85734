package auth

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// EnvironmentStore implements CredentialStore using environment
// variables. It supports exactly one account and cannot write.
type EnvironmentStore struct{}

// NewEnvironmentStore creates a new environment-based credential store
func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

// Store is not supported for environment variables
func (e *EnvironmentStore) Store(account *Account) error {
	return ErrStoreUnavailable
}

// Retrieve gets credentials from environment variables
func (e *EnvironmentStore) Retrieve(name string) (*Account, error) {
	host := os.Getenv("MAILEXPORT_IMAP_HOST")
	username := os.Getenv("MAILEXPORT_USERNAME")
	password := os.Getenv("MAILEXPORT_PASSWORD")

	if host == "" || username == "" || password == "" {
		return nil, ErrCredentialsNotFound
	}

	port := 993
	if p := os.Getenv("MAILEXPORT_IMAP_PORT"); p != "" {
		if n, err := strconv.Atoi(p); err == nil {
			port = n
		}
	}
	useTLS := true
	if tls := os.Getenv("MAILEXPORT_IMAP_TLS"); tls != "" {
		useTLS = strings.EqualFold(tls, "true") || tls == "1"
	}

	// Environment variables don't store a name, so we use "default"
	// or the one the caller asked for.
	if name == "" {
		name = "default"
	}

	return &Account{
		Name:         name,
		Email:        username,
		Host:         host,
		Port:         port,
		Username:     username,
		Password:     password,
		UseTLS:       useTLS,
		LastModified: time.Now(),
	}, nil
}

// List returns a single account if environment variables are set
func (e *EnvironmentStore) List() ([]*Account, error) {
	account, err := e.Retrieve("")
	if err != nil {
		return []*Account{}, nil
	}
	return []*Account{account}, nil
}

// Delete is not supported for environment variables
func (e *EnvironmentStore) Delete(name string) error {
	return ErrStoreUnavailable
}

// Exists checks if environment credentials exist
func (e *EnvironmentStore) Exists(name string) bool {
	return os.Getenv("MAILEXPORT_IMAP_HOST") != "" &&
		os.Getenv("MAILEXPORT_USERNAME") != "" &&
		os.Getenv("MAILEXPORT_PASSWORD") != ""
}
