// Package auth keeps the secure-mode database key. The key is created once,
// stored in the OS keychain and may be overridden from the environment.
package auth

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/zalando/go-keyring"
)

// EnvDBKey overrides the keychain when set.
const EnvDBKey = "DUTYCAL_DB_KEY"

const dbKeyBytes = 32

var (
	keyringGet    = keyring.Get
	keyringSet    = keyring.Set
	keyringDelete = keyring.Delete
	randRead      = rand.Read
)

var errEmptyKey = errors.New("db key is empty")

// keychainItem names where the key lives in the OS credential store.
type keychainItem struct {
	service string
	account string
}

func currentItem() keychainItem {
	return keychainItem{
		service: envOrDefault("DUTYCAL_KEYCHAIN_SERVICE", "dutycal"),
		account: envOrDefault("DUTYCAL_KEYCHAIN_ACCOUNT", "db_key"),
	}
}

func (it keychainItem) String() string {
	return fmt.Sprintf("service=%q account=%q", it.service, it.account)
}

func (it keychainItem) read() (string, error) {
	secret, err := keyringGet(it.service, it.account)
	if err != nil {
		return "", fmt.Errorf("read keychain item %s: %w", it, err)
	}
	return strings.TrimSpace(secret), nil
}

func (it keychainItem) write(secret string) error {
	if err := keyringSet(it.service, it.account, secret); err != nil {
		return fmt.Errorf("store keychain item %s: %w", it, err)
	}
	return nil
}

func (it keychainItem) remove() error {
	err := keyringDelete(it.service, it.account)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("delete keychain item %s: %w", it, err)
	}
	return nil
}

// LoadDBKey returns DUTYCAL_DB_KEY if set, otherwise the keychain entry.
func LoadDBKey() (string, error) {
	if key := strings.TrimSpace(os.Getenv(EnvDBKey)); key != "" {
		return key, nil
	}
	key, err := currentItem().read()
	if err != nil {
		return "", err
	}
	if key == "" {
		return "", errEmptyKey
	}
	return key, nil
}

// SaveDBKey stores key in the keychain.
func SaveDBKey(key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return errEmptyKey
	}
	return currentItem().write(key)
}

// EnsureDBKey returns the existing key, or generates and stores a new one.
// created reports a fresh key; any database encrypted under an older key is
// unreadable from then on.
func EnsureDBKey() (key string, created bool, err error) {
	if key, err := LoadDBKey(); err == nil {
		return key, false, nil
	}

	key, err = newDBKey()
	if err != nil {
		return "", false, err
	}
	if err := SaveDBKey(key); err != nil {
		return "", false, err
	}
	return key, true, nil
}

// RemoveDBKey deletes the stored key. A missing item is not an error.
func RemoveDBKey() error {
	return currentItem().remove()
}

func newDBKey() (string, error) {
	buf := make([]byte, dbKeyBytes)
	if _, err := randRead(buf); err != nil {
		return "", fmt.Errorf("generate db key: %w", err)
	}
	return base64.RawStdEncoding.EncodeToString(buf), nil
}

func envOrDefault(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}
