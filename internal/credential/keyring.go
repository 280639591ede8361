// Package credential keeps dashboard secrets (database auth, archive and
// mailbox passwords) out of the YAML config by storing them in the system
// keyring.
package credential

import (
	"errors"
	"fmt"

	"github.com/99designs/keyring"
)

const serviceName = "orderdash"

// Well-known keys.
const (
	KeyFirebaseAuth = "firebase-auth"
	KeyS3Secret     = "s3-secret"
	KeyIMAPPassword = "imap-password"
)

// Getter looks up a secret by key.
type Getter interface {
	Get(key string) (string, error)
}

// GetterFunc adapts a function to Getter.
type GetterFunc func(key string) (string, error)

// Get calls f(key).
func (f GetterFunc) Get(key string) (string, error) { return f(key) }

// System is the Getter backed by the system keyring.
var System Getter = GetterFunc(Get)

func openKeyring() (keyring.Keyring, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.SecretServiceBackend,
			keyring.KeychainBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  "~/.config/orderdash/credentials",
		FilePasswordFunc:         keyring.FixedStringPrompt("orderdash-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return ring, nil
}

// Get returns the secret stored under key.
func Get(key string) (string, error) {
	ring, err := openKeyring()
	if err != nil {
		return "", err
	}
	item, err := ring.Get(key)
	if err != nil {
		return "", fmt.Errorf("getting credential %q: %w", key, err)
	}
	return string(item.Data), nil
}

// Optional returns the secret stored under key, or "" when none is stored.
// Public databases need no auth, so a missing secret is not an error there.
func Optional(g Getter, key string) (string, error) {
	if key == "" {
		return "", nil
	}
	v, err := g.Get(key)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return "", nil
	}
	return v, err
}

// Set stores value under key.
func Set(key, value string) error {
	ring, err := openKeyring()
	if err != nil {
		return err
	}
	if err := ring.Set(keyring.Item{
		Key:   key,
		Data:  []byte(value),
		Label: "orderdash " + key,
	}); err != nil {
		return fmt.Errorf("setting credential %q: %w", key, err)
	}
	return nil
}

// Delete removes the secret stored under key.
func Delete(key string) error {
	ring, err := openKeyring()
	if err != nil {
		return err
	}
	if err := ring.Remove(key); err != nil {
		return fmt.Errorf("deleting credential %q: %w", key, err)
	}
	return nil
}
