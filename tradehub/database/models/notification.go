package models

import (
	"time"

	"github.com/uptrace/bun"
)

type NotificationKind string

const (
	NotificationTradeJoined    NotificationKind = "trade_joined"
	NotificationTradeCompleted NotificationKind = "trade_completed"
	NotificationTradeFailed    NotificationKind = "trade_failed"
	NotificationTradeExpired   NotificationKind = "trade_expired"
)

// Notification is a user-facing message persisted on trade transitions.
// Delivery is owned by the surrounding UI; this service only writes rows.
type Notification struct {
	bun.BaseModel `bun:"table:notifications,alias:n"`

	ID        int64            `bun:"id,pk,autoincrement" json:"id"`
	UserID    string           `bun:"user_id,notnull" json:"user_id"`
	Kind      NotificationKind `bun:"kind,notnull" json:"kind"`
	TradeID   string           `bun:"trade_id,notnull" json:"trade_id"`
	Message   string           `bun:"message,notnull" json:"message"`
	Read      bool             `bun:"read,notnull,default:false" json:"read"`
	CreatedAt time.Time        `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
}
