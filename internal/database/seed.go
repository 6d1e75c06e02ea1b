package database

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadSeed parses a YAML fixture of entities and trust edges
func LoadSeed(path string) (*Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}

	var seed Seed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("failed to parse seed file %s: %w", path, err)
	}
	return &seed, nil
}

// Import stores every entity, then every trust edge. Entities without an
// id get a generated one.
func (r *Repository) Import(ctx context.Context, seed *Seed) error {
	for i := range seed.Entities {
		e := &seed.Entities[i]
		if e.ID == "" {
			generated := NewEntity(e.Name)
			e.ID = generated.ID
		}
		if err := r.SaveEntity(ctx, e); err != nil {
			return fmt.Errorf("entity %s: %w", e.ID, err)
		}
	}

	for _, edge := range seed.Trust {
		if err := r.SetTrust(ctx, edge); err != nil {
			return fmt.Errorf("trust %s->%s: %w", edge.From, edge.To, err)
		}
	}

	slog.Info("Seed imported", "entities", len(seed.Entities), "trust_edges", len(seed.Trust))
	return nil
}

// SeedIfEmpty imports the fixture at path when the database has no entities
func (r *Repository) SeedIfEmpty(ctx context.Context, path string) error {
	n, err := r.CountEntities(ctx)
	if err != nil {
		return err
	}
	if n > 0 || path == "" {
		return nil
	}

	seed, err := LoadSeed(path)
	if err != nil {
		return err
	}
	return r.Import(ctx, seed)
}
