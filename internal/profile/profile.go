// Package profile manages named Vikunja connection profiles. Non-secret
// metadata is kept in a YAML file; tokens are delegated to the secret store
// and are never written into the metadata file.
package profile

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// AuthMethod records how a profile's token was obtained.
type AuthMethod string

const (
	// AuthMethodToken means the token was supplied directly at login.
	AuthMethodToken AuthMethod = "token"
	// AuthMethodLogin means the token was exchanged from a username and
	// password. The credential pair itself is never stored.
	AuthMethodLogin AuthMethod = "login"
)

var (
	// ErrNotFound is returned when a profile does not exist.
	ErrNotFound = errors.New("profile not found")
	// ErrInvalidName is returned when a profile name is not valid.
	ErrInvalidName = errors.New("invalid profile name")
	// ErrInvalidBaseURL is returned when a base URL is not a valid
	// http/https URL.
	ErrInvalidBaseURL = errors.New("invalid base URL")
)

// Profile is the non-secret record for one Vikunja instance. The token
// itself lives in the secret store, keyed by the profile name; the record
// only carries a marker naming which backend holds it.
type Profile struct {
	// Name is the unique identifier for this profile.
	Name string `yaml:"name"`
	// BaseURL is the Vikunja API base URL.
	BaseURL string `yaml:"base_url"`
	// AuthMethod records how the token was obtained.
	AuthMethod AuthMethod `yaml:"auth_method,omitempty"`
	// TLSSkipVerify disables TLS certificate verification.
	TLSSkipVerify bool `yaml:"tls_skip_verify,omitempty"`
	// DefaultListID is the list used by task creation when no list is
	// named. Zero means no default.
	DefaultListID int64 `yaml:"default_list_id,omitempty"`
	// SecretBackend names the secret store backend holding the token.
	SecretBackend string `yaml:"secret_backend,omitempty"`
}

// VerifyTLS reports whether TLS certificates should be verified.
func (p *Profile) VerifyTLS() bool {
	return !p.TLSSkipVerify
}

// Validate checks the profile's name and base URL.
func (p *Profile) Validate() error {
	if err := ValidateName(p.Name); err != nil {
		return err
	}
	return ValidateBaseURL(p.BaseURL)
}

// ValidateName checks that a profile name is usable as a store key.
func ValidateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidName)
	}
	return nil
}

// ValidateBaseURL checks that a base URL is a well-formed http/https URL.
func ValidateBaseURL(baseURL string) error {
	if baseURL == "" {
		return fmt.Errorf("%w: base URL is required", ErrInvalidBaseURL)
	}

	parsed, err := url.Parse(baseURL)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidBaseURL, err)
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("%w: base URL must use http or https scheme, got %q", ErrInvalidBaseURL, parsed.Scheme)
	}

	if parsed.Host == "" {
		return fmt.Errorf("%w: base URL must have a host", ErrInvalidBaseURL)
	}

	return nil
}
