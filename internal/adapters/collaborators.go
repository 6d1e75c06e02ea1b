package adapters

import (
	"context"

	"github.com/ZanzyTHEbar/collab-o-meter/internal/engine"
	"github.com/ZanzyTHEbar/collab-o-meter/internal/types"
)

// ProfileRepository guards an engine.ProfileRepository
type ProfileRepository struct {
	next  engine.ProfileRepository
	guard *Guard
}

func NewProfileRepository(next engine.ProfileRepository, guard *Guard) *ProfileRepository {
	return &ProfileRepository{next: next, guard: guard}
}

func (r *ProfileRepository) Get(ctx context.Context, id types.EntityID) (types.EntityProfile, error) {
	return call(ctx, r.guard, ServiceProfiles, "get", func(ctx context.Context) (types.EntityProfile, error) {
		return r.next.Get(ctx, id)
	})
}

// CandidateDirectory guards an engine.CandidateDirectory
type CandidateDirectory struct {
	next  engine.CandidateDirectory
	guard *Guard
}

func NewCandidateDirectory(next engine.CandidateDirectory, guard *Guard) *CandidateDirectory {
	return &CandidateDirectory{next: next, guard: guard}
}

func (d *CandidateDirectory) List(ctx context.Context, id types.EntityID) ([]types.EntityID, error) {
	return call(ctx, d.guard, ServiceDirectory, "list", func(ctx context.Context) ([]types.EntityID, error) {
		return d.next.List(ctx, id)
	})
}

func (d *CandidateDirectory) FindBySkill(ctx context.Context, skill string) ([]types.EntityID, error) {
	return call(ctx, d.guard, ServiceDirectory, "find_by_skill", func(ctx context.Context) ([]types.EntityID, error) {
		return d.next.FindBySkill(ctx, skill)
	})
}

// TrustService guards an engine.TrustService
type TrustService struct {
	next  engine.TrustService
	guard *Guard
}

func NewTrustService(next engine.TrustService, guard *Guard) *TrustService {
	return &TrustService{next: next, guard: guard}
}

func (s *TrustService) Assess(ctx context.Context, a, b types.EntityID) (types.TrustAssessment, error) {
	return call(ctx, s.guard, ServiceTrust, "assess", func(ctx context.Context) (types.TrustAssessment, error) {
		return s.next.Assess(ctx, a, b)
	})
}

// Guarded wraps every collaborator of deps, leaving Cache untouched
func Guarded(deps engine.Dependencies, guard *Guard) engine.Dependencies {
	out := deps
	if deps.Profiles != nil {
		out.Profiles = NewProfileRepository(deps.Profiles, guard)
	}
	if deps.Directory != nil {
		out.Directory = NewCandidateDirectory(deps.Directory, guard)
	}
	if deps.Trust != nil {
		out.Trust = NewTrustService(deps.Trust, guard)
	}
	return out
}
