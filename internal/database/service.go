package database

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"

	"github.com/ZanzyTHEbar/collab-o-meter/internal/types"
)

// NeutralIndirectTrust is reported when no two-hop path connects a pair
const NeutralIndirectTrust = 0.5

// TrustService derives trust assessments from the trust_edges graph
type TrustService struct {
	repo *Repository
}

// NewTrustService creates a new trust service
func NewTrustService(repo *Repository) *TrustService {
	return &TrustService{repo: repo}
}

// Assess returns the direct edge a -> b if one exists and the best two-hop
// product through any third entity. Both entities must exist.
func (s *TrustService) Assess(ctx context.Context, a, b types.EntityID) (types.TrustAssessment, error) {
	for _, id := range []types.EntityID{a, b} {
		if _, err := s.repo.GetEntity(ctx, string(id)); err != nil {
			return types.TrustAssessment{}, err
		}
	}

	var assessment types.TrustAssessment

	direct, err := s.repo.db.GetPreparedStatement("get_trust")
	if err != nil {
		return assessment, err
	}
	var score float64
	switch err := direct.QueryRowContext(ctx, string(a), string(b)).Scan(&score); {
	case err == nil:
		assessment.DirectTrust = &score
	case stderrors.Is(err, sql.ErrNoRows):
	default:
		return assessment, fmt.Errorf("failed to query trust: %w", err)
	}

	indirect, err := s.repo.db.GetPreparedStatement("get_indirect_trust")
	if err != nil {
		return assessment, err
	}
	var best sql.NullFloat64
	if err := indirect.QueryRowContext(ctx, string(a), string(b)).Scan(&best); err != nil {
		return assessment, fmt.Errorf("failed to query indirect trust: %w", err)
	}
	assessment.IndirectTrust = NeutralIndirectTrust
	if best.Valid {
		assessment.IndirectTrust = best.Float64
	}

	return assessment, nil
}
