package analysis

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ProfileStore manages named scoring profiles stored as YAML files
type ProfileStore struct {
	dataDir string
}

// NewProfileStore creates a new profile store rooted at dataDir
func NewProfileStore(dataDir string) *ProfileStore {
	return &ProfileStore{dataDir: dataDir}
}

func (s *ProfileStore) path(name string) string {
	return filepath.Join(s.dataDir, fmt.Sprintf("%s.yaml", name))
}

// LoadProfile loads a named scoring profile. Missing files yield the default
// profile; fields absent from the file keep their default values.
func (s *ProfileStore) LoadProfile(name string) (*ScoringConfig, error) {
	cfg := DefaultScoringConfig()

	data, err := os.ReadFile(s.path(name))
	if os.IsNotExist(err) {
		return &cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read scoring profile: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to decode scoring profile %s: %w", name, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("scoring profile %s: %w", name, err)
	}

	return &cfg, nil
}

// SaveProfile validates and writes a named scoring profile
func (s *ProfileStore) SaveProfile(name string, cfg *ScoringConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	filePath := s.path(name)
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return fmt.Errorf("failed to create profile directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode scoring profile: %w", err)
	}
	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write scoring profile: %w", err)
	}

	return nil
}
