package models

import (
	"time"

	"github.com/uptrace/bun"
)

// AllowedMutation declares that a catalog item accepts a mutation, with
// optional per-item overrides taking precedence over the mutation defaults.
type AllowedMutation struct {
	MutationID string   `json:"mutation_id"`
	Multiplier *float64 `json:"multiplier,omitempty"`
	ImageURL   string   `json:"image_url,omitempty"`
}

// AllowedTrait declares that a catalog item accepts a trait, with an
// optional per-item multiplier override.
type AllowedTrait struct {
	TraitID    string   `json:"trait_id"`
	Multiplier *float64 `json:"multiplier,omitempty"`
}

// CatalogItem is a tradeable item definition. The catalog is owned by the
// admin subsystem; this service only reads it.
type CatalogItem struct {
	bun.BaseModel `bun:"table:catalog_items,alias:ci"`

	ID               string            `bun:"id,pk" json:"id"`
	Name             string            `bun:"name,notnull" json:"name"`
	ImageURL         string            `bun:"image_url" json:"image_url,omitempty"`
	BaseValueLGC     float64           `bun:"base_value_lgc,notnull" json:"base_value_lgc"`
	DemandTier       string            `bun:"demand_tier" json:"demand_tier,omitempty"`
	AllowedMutations []AllowedMutation `bun:"allowed_mutations,type:jsonb" json:"allowed_mutations,omitempty"`
	AllowedTraits    []AllowedTrait    `bun:"allowed_traits,type:jsonb" json:"allowed_traits,omitempty"`
	CreatedAt        time.Time         `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt        time.Time         `bun:"updated_at,notnull,default:current_timestamp" json:"updated_at"`
}
