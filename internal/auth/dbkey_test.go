package auth

import (
	"errors"
	"strings"
	"testing"

	"github.com/zalando/go-keyring"
)

func TestLoadDBKeyUsesEnvVarFirst(t *testing.T) {
	t.Setenv("DUTYCAL_DB_KEY", "  env-key  ")

	origGet := keyringGet
	defer func() { keyringGet = origGet }()

	keyringCalled := false
	keyringGet = func(service, user string) (string, error) {
		keyringCalled = true
		return "keyring-key", nil
	}

	got, err := LoadDBKey()
	if err != nil {
		t.Fatalf("LoadDBKey() unexpected error: %v", err)
	}
	if got != "env-key" {
		t.Fatalf("LoadDBKey() = %q, want %q", got, "env-key")
	}
	if keyringCalled {
		t.Fatal("LoadDBKey() called keyringGet even though DUTYCAL_DB_KEY was set")
	}
}

func TestLoadDBKeyFallsBackToKeyring(t *testing.T) {
	t.Setenv("DUTYCAL_DB_KEY", "")
	t.Setenv("DUTYCAL_KEYCHAIN_SERVICE", "svc")
	t.Setenv("DUTYCAL_KEYCHAIN_ACCOUNT", "acct")

	origGet := keyringGet
	defer func() { keyringGet = origGet }()

	var gotService, gotUser string
	keyringGet = func(service, user string) (string, error) {
		gotService = service
		gotUser = user
		return "  keyring-key  ", nil
	}

	got, err := LoadDBKey()
	if err != nil {
		t.Fatalf("LoadDBKey() unexpected error: %v", err)
	}
	if got != "keyring-key" {
		t.Fatalf("LoadDBKey() = %q, want %q", got, "keyring-key")
	}
	if gotService != "svc" || gotUser != "acct" {
		t.Fatalf("keyringGet called with (%q, %q), want (%q, %q)", gotService, gotUser, "svc", "acct")
	}
}

func TestLoadDBKeyReturnsErrorWhenKeyringFails(t *testing.T) {
	t.Setenv("DUTYCAL_DB_KEY", "")

	origGet := keyringGet
	defer func() { keyringGet = origGet }()

	keyringGet = func(service, user string) (string, error) {
		return "", errors.New("boom")
	}

	_, err := LoadDBKey()
	if err == nil {
		t.Fatal("LoadDBKey() error = nil, want non-nil")
	}
	if !strings.Contains(err.Error(), "read keychain item") {
		t.Fatalf("LoadDBKey() error = %q, expected keyring read context", err.Error())
	}
}

func TestLoadDBKeyReturnsErrorWhenKeyEmpty(t *testing.T) {
	t.Setenv("DUTYCAL_DB_KEY", "")

	origGet := keyringGet
	defer func() { keyringGet = origGet }()

	keyringGet = func(service, user string) (string, error) {
		return "   ", nil
	}

	_, err := LoadDBKey()
	if err == nil {
		t.Fatal("LoadDBKey() error = nil, want non-nil")
	}
	if !errors.Is(err, errEmptyKey) {
		t.Fatalf("LoadDBKey() error = %v, want %v", err, errEmptyKey)
	}
}

func TestSaveDBKeySavesTrimmedKey(t *testing.T) {
	t.Setenv("DUTYCAL_KEYCHAIN_SERVICE", "svc")
	t.Setenv("DUTYCAL_KEYCHAIN_ACCOUNT", "acct")

	origSet := keyringSet
	defer func() { keyringSet = origSet }()

	var gotService, gotUser, gotSecret string
	keyringSet = func(service, user, secret string) error {
		gotService = service
		gotUser = user
		gotSecret = secret
		return nil
	}

	if err := SaveDBKey("  my-key  "); err != nil {
		t.Fatalf("SaveDBKey() unexpected error: %v", err)
	}
	if gotService != "svc" || gotUser != "acct" || gotSecret != "my-key" {
		t.Fatalf(
			"SaveDBKey() called keyringSet with (%q, %q, %q), want (%q, %q, %q)",
			gotService, gotUser, gotSecret, "svc", "acct", "my-key",
		)
	}
}

func TestSaveDBKeyRejectsEmptyKey(t *testing.T) {
	origSet := keyringSet
	defer func() { keyringSet = origSet }()

	called := false
	keyringSet = func(service, user, secret string) error {
		called = true
		return nil
	}

	err := SaveDBKey("   ")
	if err == nil {
		t.Fatal("SaveDBKey() error = nil, want non-nil")
	}
	if !errors.Is(err, errEmptyKey) {
		t.Fatalf("SaveDBKey() error = %v, want %v", err, errEmptyKey)
	}
	if called {
		t.Fatal("SaveDBKey() called keyringSet for empty key")
	}
}

func TestRemoveDBKeyIgnoresMissingItem(t *testing.T) {
	origDelete := keyringDelete
	defer func() { keyringDelete = origDelete }()

	keyringDelete = func(service, user string) error {
		return keyring.ErrNotFound
	}
	if err := RemoveDBKey(); err != nil {
		t.Fatalf("RemoveDBKey() unexpected error: %v", err)
	}

	keyringDelete = func(service, user string) error {
		return errors.New("locked")
	}
	if err := RemoveDBKey(); err == nil {
		t.Fatal("RemoveDBKey() error = nil, want non-nil")
	}
}

func stubKeychain(t *testing.T) map[string]string {
	t.Helper()
	origGet, origSet := keyringGet, keyringSet
	t.Cleanup(func() { keyringGet, keyringSet = origGet, origSet })

	items := map[string]string{}
	keyringGet = func(service, user string) (string, error) {
		v, ok := items[service+"/"+user]
		if !ok {
			return "", keyring.ErrNotFound
		}
		return v, nil
	}
	keyringSet = func(service, user, secret string) error {
		items[service+"/"+user] = secret
		return nil
	}
	return items
}

func TestEnsureDBKeyCreatesOnceThenReuses(t *testing.T) {
	t.Setenv("DUTYCAL_DB_KEY", "")
	t.Setenv("DUTYCAL_KEYCHAIN_SERVICE", "")
	t.Setenv("DUTYCAL_KEYCHAIN_ACCOUNT", "")
	items := stubKeychain(t)

	first, created, err := EnsureDBKey()
	if err != nil {
		t.Fatalf("EnsureDBKey() unexpected error: %v", err)
	}
	if !created {
		t.Fatal("EnsureDBKey() created = false on empty keychain, want true")
	}
	if len(first) != 43 || strings.Contains(first, "=") {
		t.Fatalf("EnsureDBKey() = %q, want 43 unpadded base64 chars", first)
	}
	if items["dutycal/db_key"] != first {
		t.Fatalf("keychain holds %q, want %q", items["dutycal/db_key"], first)
	}

	second, created, err := EnsureDBKey()
	if err != nil {
		t.Fatalf("second EnsureDBKey() unexpected error: %v", err)
	}
	if created || second != first {
		t.Fatalf("second EnsureDBKey() = (%q, %v), want (%q, false)", second, created, first)
	}
}

func TestEnsureDBKeyPrefersEnvKey(t *testing.T) {
	t.Setenv("DUTYCAL_DB_KEY", "env-key")
	items := stubKeychain(t)

	key, created, err := EnsureDBKey()
	if err != nil {
		t.Fatalf("EnsureDBKey() unexpected error: %v", err)
	}
	if key != "env-key" || created {
		t.Fatalf("EnsureDBKey() = (%q, %v), want (%q, false)", key, created, "env-key")
	}
	if len(items) != 0 {
		t.Fatalf("EnsureDBKey() wrote %d keychain items, want 0", len(items))
	}
}

func TestEnsureDBKeyReportsGeneratorFailure(t *testing.T) {
	t.Setenv("DUTYCAL_DB_KEY", "")
	items := stubKeychain(t)

	origRead := randRead
	defer func() { randRead = origRead }()
	randRead = func([]byte) (int, error) {
		return 0, errors.New("no entropy")
	}

	if _, _, err := EnsureDBKey(); err == nil {
		t.Fatal("EnsureDBKey() error = nil, want non-nil")
	}
	if len(items) != 0 {
		t.Fatal("EnsureDBKey() stored a key after generator failure")
	}
}
