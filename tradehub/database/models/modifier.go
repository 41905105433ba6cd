package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Mutation is a single-select value modifier. A trade item carries at most
// one mutation.
type Mutation struct {
	bun.BaseModel `bun:"table:mutations,alias:m"`

	ID         string    `bun:"id,pk" json:"id"`
	Name       string    `bun:"name,notnull" json:"name"`
	Multiplier float64   `bun:"multiplier,notnull" json:"multiplier"`
	ImageURL   string    `bun:"image_url" json:"image_url,omitempty"`
	CreatedAt  time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt  time.Time `bun:"updated_at,notnull,default:current_timestamp" json:"updated_at"`
}

// Trait is a multi-select value modifier. Traits stack with each other and
// with the mutation.
type Trait struct {
	bun.BaseModel `bun:"table:traits,alias:tr"`

	ID         string    `bun:"id,pk" json:"id"`
	Name       string    `bun:"name,notnull" json:"name"`
	Multiplier float64   `bun:"multiplier,notnull" json:"multiplier"`
	ImageURL   string    `bun:"image_url" json:"image_url,omitempty"`
	CreatedAt  time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt  time.Time `bun:"updated_at,notnull,default:current_timestamp" json:"updated_at"`
}
