// Package settings persists the portal credentials and organization id
// between runs in a small JSON file under the user config directory.
package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// DefaultOrgID is the organization used when none has been configured.
const DefaultOrgID = "843"

const fileName = "settings.json"

type payload struct {
	Token string `json:"token,omitempty"`
	OrgID string `json:"orgId,omitempty"`
}

// Store reads and writes persisted settings. The zero value is not usable;
// construct with NewStore or NewStoreAt.
type Store struct {
	path string
}

// NewStore places the settings file under the user config directory.
func NewStore() (*Store, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return nil, fmt.Errorf("resolve config dir: %w", err)
	}
	return NewStoreAt(filepath.Join(base, "riverstats", fileName)), nil
}

// NewStoreAt uses an explicit file path. Mainly for tests.
func NewStoreAt(path string) *Store {
	return &Store{path: path}
}

// Token returns the saved bearer token, or empty when none is set.
// Satisfies the gateway token source.
func (s *Store) Token() (string, error) {
	p, err := s.load()
	if err != nil {
		return "", err
	}
	return p.Token, nil
}

// SetToken saves the bearer token.
func (s *Store) SetToken(token string) error {
	return s.update(func(p *payload) { p.Token = token })
}

// OrgID returns the saved organization id, falling back to DefaultOrgID.
func (s *Store) OrgID() (string, error) {
	p, err := s.load()
	if err != nil {
		return "", err
	}
	if p.OrgID == "" {
		return DefaultOrgID, nil
	}
	return p.OrgID, nil
}

// SetOrgID saves the organization id. An empty value reverts to the default.
func (s *Store) SetOrgID(orgID string) error {
	return s.update(func(p *payload) { p.OrgID = orgID })
}

// Clear removes all saved settings.
func (s *Store) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("clear settings: %w", err)
	}
	return nil
}

func (s *Store) load() (payload, error) {
	var p payload
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return p, nil
	}
	if err != nil {
		return p, fmt.Errorf("read settings: %w", err)
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return p, fmt.Errorf("parse settings: %w", err)
	}
	return p, nil
}

func (s *Store) update(fn func(*payload)) error {
	p, err := s.load()
	if err != nil {
		return err
	}
	fn(&p)
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return nil
}
