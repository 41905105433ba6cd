package models

import (
	"time"

	"github.com/uptrace/bun"
)

type TradeStatus string

const (
	TradeActive    TradeStatus = "active"
	TradePending   TradeStatus = "pending"
	TradeCompleted TradeStatus = "completed"
	TradeFailed    TradeStatus = "failed"
	TradeCancelled TradeStatus = "cancelled"
	TradeExpired   TradeStatus = "expired"
)

// IsTerminal reports whether no further transitions may leave the status.
func (s TradeStatus) IsTerminal() bool {
	switch s {
	case TradeCompleted, TradeFailed, TradeCancelled, TradeExpired:
		return true
	}
	return false
}

type FailReason string

const (
	FailOwnerDeclined  FailReason = "owner_declined"
	FailJoinerDeclined FailReason = "joiner_declined"
	FailCancelled      FailReason = "cancelled"
	FailExpired        FailReason = "expired"
)

// TradeItemSnapshot is the resolved value state of one item at post time.
// Snapshots never change after the trade is created; later catalog or
// modifier edits do not touch posted trades.
type TradeItemSnapshot struct {
	CatalogID     string   `json:"catalog_id"`
	Name          string   `json:"name"`
	ImageURL      string   `json:"image_url,omitempty"`
	BaseValueLGC  float64  `json:"base_value_lgc"`
	MutationID    string   `json:"mutation_id,omitempty"`
	TraitIDs      []string `json:"trait_ids,omitempty"`
	FinalValueLGC float64  `json:"final_value_lgc"`
}

type Trade struct {
	bun.BaseModel `bun:"table:trades,alias:t"`

	ID              int64               `bun:"id,pk,autoincrement" json:"-"`
	TradeID         string              `bun:"trade_id,notnull,unique" json:"trade_id"`
	OwnerID         string              `bun:"owner_id,notnull" json:"owner_id"`
	JoinerID        string              `bun:"joiner_id" json:"joiner_id,omitempty"`
	OfferingItems   []TradeItemSnapshot `bun:"offering_items,type:jsonb,notnull" json:"offering_items"`
	LookingForItems []TradeItemSnapshot `bun:"looking_for_items,type:jsonb,notnull" json:"looking_for_items"`
	Status          TradeStatus         `bun:"status,notnull" json:"status"`
	OwnerAccepted   bool                `bun:"owner_accepted,notnull,default:false" json:"owner_accepted"`
	JoinerAccepted  bool                `bun:"joiner_accepted,notnull,default:false" json:"joiner_accepted"`
	FailReason      FailReason          `bun:"fail_reason" json:"fail_reason,omitempty"`
	Views           int64               `bun:"views,notnull,default:0" json:"views"`
	CreatedAt       time.Time           `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
	ExpiresAt       time.Time           `bun:"expires_at,notnull" json:"expires_at"`
	JoinedAt        time.Time           `bun:"joined_at,nullzero" json:"joined_at,omitempty"`
	CompletedAt     time.Time           `bun:"completed_at,nullzero" json:"completed_at,omitempty"`
	FailedAt        time.Time           `bun:"failed_at,nullzero" json:"failed_at,omitempty"`
	UpdatedAt       time.Time           `bun:"updated_at,notnull,default:current_timestamp" json:"updated_at"`
}

// IsParticipant reports whether userID is the owner or the joiner.
func (t *Trade) IsParticipant(userID string) bool {
	return userID != "" && (userID == t.OwnerID || userID == t.JoinerID)
}

// AcceptedBy reports whether the given participant has already accepted.
func (t *Trade) AcceptedBy(userID string) bool {
	switch userID {
	case t.OwnerID:
		return t.OwnerAccepted
	case t.JoinerID:
		return t.JoinerID != "" && t.JoinerAccepted
	}
	return false
}

// OfferingTotalLGC sums the snapshotted final values on the offering side.
func (t *Trade) OfferingTotalLGC() float64 {
	return snapshotTotal(t.OfferingItems)
}

// LookingForTotalLGC sums the snapshotted final values on the looking-for side.
func (t *Trade) LookingForTotalLGC() float64 {
	return snapshotTotal(t.LookingForItems)
}

func snapshotTotal(items []TradeItemSnapshot) float64 {
	var total float64
	for _, item := range items {
		total += item.FinalValueLGC
	}
	return total
}
