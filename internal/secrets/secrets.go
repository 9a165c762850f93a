// Package secrets provides secure per-profile token storage on top of the
// OS secret store, with an in-memory fallback for systems without one.
package secrets

import (
	"errors"
	"os"
	"sync"
)

const (
	// ServicePrefix is the prefix used for secret store service names.
	// Each profile has its own service entry: "Vikflow - <profile_name>".
	ServicePrefix = "Vikflow"

	// TestKeyringEnvVar is the environment variable that, when set to a
	// directory path, switches to a file-based store instead of the OS
	// secret store. Intended for tests only, never for production use.
	TestKeyringEnvVar = "VIKFLOW_TEST_KEYRING_DIR"
)

var (
	// ErrUnavailable is returned when no secure secret store is available.
	ErrUnavailable = errors.New("secure secret store is not available on this system")
	// ErrNotFound is returned when a secret is not found in the store.
	ErrNotFound = errors.New("secret not found in store")
	// ErrAccessDenied is returned when access to the secret store is denied.
	ErrAccessDenied = errors.New("access to secret store denied")
)

// Store represents a secure secret storage backend. Implementations cover
// the Windows Credential Manager, the macOS Keychain and the Linux Secret
// Service (all through the OS keyring), plus a process-local fallback.
type Store interface {
	// IsAvailable checks if the store is usable.
	IsAvailable() error
	// Set stores a secret for the given profile name.
	Set(key, secret string) error
	// Get retrieves the secret for the given profile name.
	Get(key string) (string, error)
	// Delete removes the secret for the given profile name.
	Delete(key string) error
	// Backend names the backend for profile metadata records.
	Backend() string
}

var (
	selectOnce sync.Once
	selected   Store
)

// Select returns the secret store for this process. The backend is probed
// once per process lifetime: the native OS store when it responds, the
// in-memory fallback otherwise. Secrets held by the fallback never touch
// disk and last only for the lifetime of the process.
func Select() Store {
	selectOnce.Do(func() {
		selected = newStore()
	})
	return selected
}

func newStore() Store {
	if testDir := os.Getenv(TestKeyringEnvVar); testDir != "" {
		fileStore, err := newFileStore(testDir)
		if err == nil {
			return fileStore
		}
		// Unusable test directory, fall through to the regular probe.
	}

	native := &keyringStore{}
	if err := native.IsAvailable(); err != nil {
		return NewMemoryStore()
	}
	return native
}

// serviceName returns the secret store service name for a profile.
// This creates unique, identifiable entries in the OS store.
func serviceName(profile string) string {
	return ServicePrefix + " - " + profile
}
