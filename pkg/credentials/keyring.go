// Package credentials resolves GitHub passwords from the system keyring or
// an interactive prompt.
package credentials

import (
	"errors"
	"fmt"
	"os"

	"github.com/99designs/keyring"
	log "github.com/charmbracelet/log"
	"golang.org/x/term"

	errUtils "github.com/timid-ci/timid-github/errors"
)

// ServiceKey returns the keyring service key for a GitHub API endpoint.
func ServiceKey(apiURL string) string {
	return "timid-github!" + apiURL
}

// Store is the credential capability consumed by the extension.
type Store interface {
	// Get resolves a password for user under service. Returns
	// ErrCredentialsNotFound when no entry exists.
	Get(service, user string) (string, error)

	// Set persists a password for user under service.
	Set(service, user, password string) error
}

// keyringStore backs Store with the platform keyring via 99designs/keyring.
type keyringStore struct{}

// NewStore returns the platform keyring store.
func NewStore() Store {
	return keyringStore{}
}

func (keyringStore) open(service string) (keyring.Keyring, error) {
	return keyring.Open(keyring.Config{ServiceName: service})
}

func (s keyringStore) Get(service, user string) (string, error) {
	ring, err := s.open(service)
	if err != nil {
		// Lookup is best-effort: an unavailable keyring backend reads as
		// "no stored credentials".
		log.Debug("keyring unavailable", "service", service, "error", err)
		return "", errUtils.ErrCredentialsNotFound
	}

	item, err := ring.Get(user)
	if err != nil {
		if errors.Is(err, keyring.ErrKeyNotFound) {
			return "", errUtils.ErrCredentialsNotFound
		}
		return "", err
	}
	return string(item.Data), nil
}

func (s keyringStore) Set(service, user, password string) error {
	ring, err := s.open(service)
	if err != nil {
		return err
	}
	return ring.Set(keyring.Item{
		Key:  user,
		Data: []byte(password),
	})
}

// Prompt reads a password interactively with echo disabled. Fails when
// stdin is not a terminal.
func Prompt(label string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", errUtils.ErrNoTerminal
	}

	fmt.Fprintf(os.Stderr, "%s> ", label)
	password, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	return string(password), nil
}
