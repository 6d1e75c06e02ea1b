package database

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ZanzyTHEbar/collab-o-meter/internal/types"
)

// Tag kinds stored in entity_tags
const (
	tagExpertise = "expertise"
	tagNeed      = "need"
	tagOffer     = "offer"
)

// Entity is a stored profile row plus its tags
type Entity struct {
	ID        string    `json:"id" yaml:"id" db:"id"`
	Name      string    `json:"name" yaml:"name" db:"name"`
	Industry  string    `json:"industry,omitempty" yaml:"industry,omitempty" db:"industry"`
	Country   string    `json:"country,omitempty" yaml:"country,omitempty" db:"country"`
	Region    string    `json:"region,omitempty" yaml:"region,omitempty" db:"region"`
	Expertise []string  `json:"expertise" yaml:"expertise"`
	Needs     []string  `json:"needs" yaml:"needs"`
	Offers    []string  `json:"offers" yaml:"offers"`
	CreatedAt time.Time `json:"created_at" yaml:"-" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" yaml:"-" db:"updated_at"`
}

// TrustEdge is a directed trust score in [0,1]
type TrustEdge struct {
	From      string    `json:"from" yaml:"from" db:"from_id"`
	To        string    `json:"to" yaml:"to" db:"to_id"`
	Score     float64   `json:"score" yaml:"score" db:"score"`
	UpdatedAt time.Time `json:"updated_at" yaml:"-" db:"updated_at"`
}

// Seed is the YAML fixture loaded into an empty database
type Seed struct {
	Entities []Entity    `yaml:"entities"`
	Trust    []TrustEdge `yaml:"trust"`
}

// NewEntity creates an entity with a generated ID
func NewEntity(name string) *Entity {
	now := time.Now()
	return &Entity{
		ID:        uuid.New().String(),
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Profile converts the row into the engine's read model
func (e *Entity) Profile() types.EntityProfile {
	return types.EntityProfile{
		ID:        types.EntityID(e.ID),
		Name:      e.Name,
		Industry:  e.Industry,
		Expertise: types.NewTagSet(e.Expertise...),
		Needs:     types.NewTagSet(e.Needs...),
		Offers:    types.NewTagSet(e.Offers...),
		Location:  types.Location{Country: e.Country, Region: e.Region},
	}
}

func (e *Entity) tags() map[string][]string {
	return map[string][]string{
		tagExpertise: e.Expertise,
		tagNeed:      e.Needs,
		tagOffer:     e.Offers,
	}
}

// normalizeTag matches the casing the preprocessor applies, so skill lookups hit
func normalizeTag(t string) string {
	return strings.ToLower(strings.Join(strings.Fields(t), " "))
}
