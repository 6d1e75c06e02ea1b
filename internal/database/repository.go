package database

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/ZanzyTHEbar/collab-o-meter/internal/errors"
	"github.com/ZanzyTHEbar/collab-o-meter/internal/types"
)

// Repository serves profiles and candidate lists from the entity tables
type Repository struct {
	db *DB
}

// NewRepository creates a new repository
func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

// Get returns the profile of id or a not-found error
func (r *Repository) Get(ctx context.Context, id types.EntityID) (types.EntityProfile, error) {
	entity, err := r.GetEntity(ctx, string(id))
	if err != nil {
		return types.EntityProfile{}, err
	}
	return entity.Profile(), nil
}

// GetEntity loads the entity row and its tags
func (r *Repository) GetEntity(ctx context.Context, id string) (*Entity, error) {
	stmt, err := r.db.GetPreparedStatement("get_entity")
	if err != nil {
		return nil, err
	}

	var e Entity
	err = stmt.QueryRowContext(ctx, id).Scan(
		&e.ID, &e.Name, &e.Industry, &e.Country, &e.Region, &e.CreatedAt, &e.UpdatedAt,
	)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.NewNotFoundError("entity", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query entity: %w", err)
	}

	tagStmt, err := r.db.GetPreparedStatement("get_entity_tags")
	if err != nil {
		return nil, err
	}
	rows, err := tagStmt.QueryContext(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query tags: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var kind, tag string
		if err := rows.Scan(&kind, &tag); err != nil {
			return nil, fmt.Errorf("failed to scan tag: %w", err)
		}
		switch kind {
		case tagExpertise:
			e.Expertise = append(e.Expertise, tag)
		case tagNeed:
			e.Needs = append(e.Needs, tag)
		case tagOffer:
			e.Offers = append(e.Offers, tag)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read tags: %w", err)
	}

	return &e, nil
}

// SaveEntity inserts or replaces an entity and its tags atomically
func (r *Repository) SaveEntity(ctx context.Context, e *Entity) error {
	if e.ID == "" {
		return errors.NewValidationError("entity id must not be empty")
	}
	if e.Name == "" {
		e.Name = e.ID
	}

	now := time.Now()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	e.UpdatedAt = now

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO entities (id, name, industry, country, region, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			industry = excluded.industry,
			country = excluded.country,
			region = excluded.region,
			updated_at = excluded.updated_at
	`, e.ID, e.Name, e.Industry, e.Country, e.Region, e.CreatedAt, e.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save entity: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM entity_tags WHERE entity_id = ?`, e.ID); err != nil {
		return fmt.Errorf("failed to clear tags: %w", err)
	}

	for kind, tags := range e.tags() {
		for _, raw := range tags {
			tag := normalizeTag(raw)
			if tag == "" {
				continue
			}
			_, err := tx.ExecContext(ctx, `
				INSERT OR IGNORE INTO entity_tags (entity_id, kind, tag) VALUES (?, ?, ?)
			`, e.ID, kind, tag)
			if err != nil {
				return fmt.Errorf("failed to save tag: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit entity: %w", err)
	}
	return nil
}

// List returns every entity except id, in id order
func (r *Repository) List(ctx context.Context, id types.EntityID) ([]types.EntityID, error) {
	if _, err := r.GetEntity(ctx, string(id)); err != nil {
		return nil, err
	}
	return r.queryIDs(ctx, "list_candidates", string(id))
}

// FindBySkill returns entities whose expertise contains skill
func (r *Repository) FindBySkill(ctx context.Context, skill string) ([]types.EntityID, error) {
	return r.queryIDs(ctx, "find_by_skill", normalizeTag(skill))
}

func (r *Repository) queryIDs(ctx context.Context, statement string, arg string) ([]types.EntityID, error) {
	stmt, err := r.db.GetPreparedStatement(statement)
	if err != nil {
		return nil, err
	}

	rows, err := stmt.QueryContext(ctx, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", statement, err)
	}
	defer rows.Close()

	ids := []types.EntityID{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan id: %w", err)
		}
		ids = append(ids, types.EntityID(id))
	}
	return ids, rows.Err()
}

// SetTrust records the directed trust score from -> to
func (r *Repository) SetTrust(ctx context.Context, edge TrustEdge) error {
	if edge.From == "" || edge.To == "" || edge.From == edge.To {
		return errors.NewValidationError("trust edge needs two distinct entities", edge.From+"->"+edge.To)
	}
	if edge.Score < 0 || edge.Score > 1 {
		return errors.NewValidationError("trust score must be within [0,1]", edge.Score)
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO trust_edges (from_id, to_id, score, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(from_id, to_id) DO UPDATE SET
			score = excluded.score,
			updated_at = excluded.updated_at
	`, edge.From, edge.To, edge.Score, time.Now())
	if err != nil {
		return fmt.Errorf("failed to save trust edge: %w", err)
	}
	return nil
}

// CountEntities returns the number of stored entities
func (r *Repository) CountEntities(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM entities`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count entities: %w", err)
	}
	return n, nil
}
