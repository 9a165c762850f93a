package secrets

import (
	"errors"
	"fmt"
	"runtime"

	gokeyring "github.com/zalando/go-keyring"

	"github.com/vikflow/vikflow/internal/utils"
)

// BackendKeyring identifies the native OS secret store backend.
const BackendKeyring = "keyring"

// keyringStore implements Store using the OS secret store: Credential
// Manager on Windows, Keychain on macOS, the D-Bus Secret Service on Linux.
type keyringStore struct{}

// Backend implements Store.
func (k *keyringStore) Backend() string { return BackendKeyring }

// IsAvailable checks if a secure secret store is available on this system.
func (k *keyringStore) IsAvailable() error {
	// Probe with a get; ErrNotFound means the store answered, which is all
	// we need to know.
	_, err := gokeyring.Get(serviceName("__availability_check__"), "probe")
	if err != nil {
		if errors.Is(err, gokeyring.ErrNotFound) {
			return nil
		}

		errStr := err.Error()

		if runtime.GOOS == "linux" {
			if utils.ContainsAny(errStr, "secret service", "dbus", "org.freedesktop.secrets") {
				return fmt.Errorf("%w: D-Bus secret service not available - install and start gnome-keyring, kwallet, or another secret service provider", ErrUnavailable)
			}
		}

		if runtime.GOOS == "darwin" {
			if utils.ContainsAny(errStr, "keychain", "security") {
				return fmt.Errorf("%w: macOS Keychain not accessible", ErrUnavailable)
			}
		}

		if runtime.GOOS == "windows" {
			if utils.ContainsAny(errStr, "credential", "wincred") {
				return fmt.Errorf("%w: Windows Credential Manager not accessible", ErrUnavailable)
			}
		}

		// Other probe errors: treat as available, the actual operations
		// will produce a better error message.
		return nil
	}

	return nil
}

// Set stores a secret in the OS store. The key is the profile name, which
// becomes both the service suffix and the account name.
func (k *keyringStore) Set(key, secret string) error {
	if key == "" {
		return errors.New("key cannot be empty")
	}
	if secret == "" {
		return errors.New("secret cannot be empty")
	}

	if err := gokeyring.Set(serviceName(key), key, secret); err != nil {
		return wrapKeyringError(err, "failed to store secret")
	}
	return nil
}

// Get retrieves a secret from the OS store.
func (k *keyringStore) Get(key string) (string, error) {
	if key == "" {
		return "", errors.New("key cannot be empty")
	}

	secret, err := gokeyring.Get(serviceName(key), key)
	if err != nil {
		if errors.Is(err, gokeyring.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", wrapKeyringError(err, "failed to retrieve secret")
	}
	return secret, nil
}

// Delete removes a secret from the OS store. Deleting an absent entry is
// not an error.
func (k *keyringStore) Delete(key string) error {
	if key == "" {
		return errors.New("key cannot be empty")
	}

	if err := gokeyring.Delete(serviceName(key), key); err != nil {
		if errors.Is(err, gokeyring.ErrNotFound) {
			return nil
		}
		return wrapKeyringError(err, "failed to delete secret")
	}
	return nil
}

// wrapKeyringError wraps a backend error with context. Only the profile
// name ever reaches the caller through the key; secret values must never
// appear in these messages.
func wrapKeyringError(err error, context string) error {
	if err == nil {
		return nil
	}

	errStr := err.Error()

	if utils.ContainsAny(errStr, "denied", "permission", "not allowed", "unauthorized") {
		return fmt.Errorf("%w: %s: %v", ErrAccessDenied, context, err)
	}

	if utils.ContainsAny(errStr, "no keyring", "unavailable", "secret service") {
		return fmt.Errorf("%w: %s: %v", ErrUnavailable, context, err)
	}

	return fmt.Errorf("%s: %w", context, err)
}
