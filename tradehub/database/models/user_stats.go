package models

import (
	"time"

	"github.com/uptrace/bun"
)

// UserStats tracks per-user trade counters. Updated fire-and-forget on
// lifecycle transitions; a failed update never rolls back a transition.
type UserStats struct {
	bun.BaseModel `bun:"table:user_stats,alias:us"`

	UserID          string    `bun:"user_id,pk" json:"user_id"`
	TradesPosted    int64     `bun:"trades_posted,notnull,default:0" json:"trades_posted"`
	TradesCompleted int64     `bun:"trades_completed,notnull,default:0" json:"trades_completed"`
	TradesFailed    int64     `bun:"trades_failed,notnull,default:0" json:"trades_failed"`
	UpdatedAt       time.Time `bun:"updated_at,notnull,default:current_timestamp" json:"updated_at"`
}
