package profile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/vikflow/vikflow/internal/secrets"
)

// state is the on-disk shape of the metadata file: an active-profile
// pointer plus profiles in insertion order.
type state struct {
	Active   string    `yaml:"active,omitempty"`
	Profiles []Profile `yaml:"profiles"`
}

// Store persists profile metadata and delegates tokens to a secret store.
type Store struct {
	path    string
	secrets secrets.Store
	state   state
}

// NewStore loads the metadata file at path, creating an empty store when
// the file does not exist yet.
func NewStore(path string, sec secrets.Store) (*Store, error) {
	s := &Store{path: path, secrets: sec}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("failed to read profiles file: %w", err)
	}

	if err := yaml.Unmarshal(data, &s.state); err != nil {
		return nil, fmt.Errorf("failed to parse profiles file: %w", err)
	}

	return s, nil
}

// Save validates and upserts a profile, stores its token in the secret
// store, and persists the metadata file. An existing profile of the same
// name is overwritten in place, keeping its position. The first profile
// saved becomes active.
func (s *Store) Save(prof Profile, token string) error {
	if err := prof.Validate(); err != nil {
		return err
	}

	prof.BaseURL = strings.TrimRight(prof.BaseURL, "/")
	prof.SecretBackend = s.secrets.Backend()

	if token != "" {
		if err := s.secrets.Set(prof.Name, token); err != nil {
			return fmt.Errorf("failed to store token for profile %q: %w", prof.Name, err)
		}
	}

	replaced := false
	for i := range s.state.Profiles {
		if s.state.Profiles[i].Name == prof.Name {
			s.state.Profiles[i] = prof
			replaced = true
			break
		}
	}
	if !replaced {
		s.state.Profiles = append(s.state.Profiles, prof)
	}

	if s.state.Active == "" {
		s.state.Active = prof.Name
	}

	return s.persist()
}

// Get returns a profile by name.
func (s *Store) Get(name string) (Profile, error) {
	for _, prof := range s.state.Profiles {
		if prof.Name == name {
			return prof, nil
		}
	}
	return Profile{}, fmt.Errorf("%w: %q", ErrNotFound, name)
}

// List returns all profiles in insertion order.
func (s *Store) List() []Profile {
	out := make([]Profile, len(s.state.Profiles))
	copy(out, s.state.Profiles)
	return out
}

// SetActive makes the named profile the active one.
func (s *Store) SetActive(name string) error {
	if _, err := s.Get(name); err != nil {
		return err
	}
	s.state.Active = name
	return s.persist()
}

// ActiveName returns the active profile name, empty when none is set.
func (s *Store) ActiveName() string {
	return s.state.Active
}

// Active returns the active profile.
func (s *Store) Active() (Profile, error) {
	if s.state.Active == "" {
		return Profile{}, fmt.Errorf("%w: no active profile configured", ErrNotFound)
	}
	return s.Get(s.state.Active)
}

// Secret returns the token stored for the named profile.
func (s *Store) Secret(name string) (string, error) {
	if _, err := s.Get(name); err != nil {
		return "", err
	}
	return s.secrets.Get(name)
}

// Delete removes a profile and its stored token. Deleting an absent
// profile returns ErrNotFound and leaves the metadata file untouched.
func (s *Store) Delete(name string) error {
	idx := -1
	for i, prof := range s.state.Profiles {
		if prof.Name == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("%w: %q", ErrNotFound, name)
	}

	s.state.Profiles = append(s.state.Profiles[:idx], s.state.Profiles[idx+1:]...)

	if s.state.Active == name {
		if len(s.state.Profiles) > 0 {
			s.state.Active = s.state.Profiles[0].Name
		} else {
			s.state.Active = ""
		}
	}

	if err := s.secrets.Delete(name); err != nil && !errors.Is(err, secrets.ErrNotFound) {
		return fmt.Errorf("failed to delete token for profile %q: %w", name, err)
	}

	return s.persist()
}

// FilePath returns the metadata file path.
func (s *Store) FilePath() string {
	return s.path
}

// persist writes the metadata file atomically: marshal to a temp file in
// the same directory, then rename over the destination. A crash mid-write
// never leaves a partial file behind.
func (s *Store) persist() error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create profiles directory: %w", err)
	}

	data, err := yaml.Marshal(&s.state)
	if err != nil {
		return fmt.Errorf("failed to marshal profiles: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".profiles-*.yaml")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write profiles: %w", err)
	}
	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to set profiles file mode: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace profiles file: %w", err)
	}

	return nil
}
