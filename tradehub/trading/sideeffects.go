package trading

import (
	"context"
	"fmt"
	"time"

	"log/slog"

	"github.com/lucentgarden/tradehub/tradehub/database/models"
	"github.com/lucentgarden/tradehub/tradehub/database/repositories"
)

const sideEffectTimeout = 10 * time.Second

// SideEffects receives lifecycle events after a transition has committed.
// Implementations must never fail the transition: errors are logged and
// swallowed.
type SideEffects interface {
	TradePosted(trade *models.Trade)
	TradeJoined(trade *models.Trade)
	TradeCompleted(trade *models.Trade)
	TradeFailed(trade *models.Trade)
	TradeExpired(trade *models.Trade)
}

// StoreSideEffects writes stats counters and notification rows on a
// background goroutine per event. The store is the reconciliation point if
// a write is lost.
type StoreSideEffects struct {
	stats         repositories.UserStatsRepository
	notifications repositories.NotificationRepository
}

func NewStoreSideEffects(stats repositories.UserStatsRepository, notifications repositories.NotificationRepository) *StoreSideEffects {
	return &StoreSideEffects{stats: stats, notifications: notifications}
}

func (e *StoreSideEffects) TradePosted(trade *models.Trade) {
	go e.run("trade_posted", trade.TradeID, func(ctx context.Context) error {
		return e.stats.IncrementPosted(ctx, trade.OwnerID)
	})
}

func (e *StoreSideEffects) TradeJoined(trade *models.Trade) {
	go e.run("trade_joined", trade.TradeID, func(ctx context.Context) error {
		return e.notifications.Create(ctx, &models.Notification{
			UserID:  trade.OwnerID,
			Kind:    models.NotificationTradeJoined,
			TradeID: trade.TradeID,
			Message: fmt.Sprintf("Someone joined your trade %s", trade.TradeID),
		})
	})
}

func (e *StoreSideEffects) TradeCompleted(trade *models.Trade) {
	go e.run("trade_completed", trade.TradeID, func(ctx context.Context) error {
		var firstErr error
		for _, userID := range []string{trade.OwnerID, trade.JoinerID} {
			if userID == "" {
				continue
			}
			if err := e.stats.IncrementCompleted(ctx, userID); err != nil && firstErr == nil {
				firstErr = err
			}
			err := e.notifications.Create(ctx, &models.Notification{
				UserID:  userID,
				Kind:    models.NotificationTradeCompleted,
				TradeID: trade.TradeID,
				Message: fmt.Sprintf("Trade %s completed", trade.TradeID),
			})
			if err != nil && firstErr == nil {
				firstErr = err
			}
		}
		return firstErr
	})
}

func (e *StoreSideEffects) TradeFailed(trade *models.Trade) {
	go e.run("trade_failed", trade.TradeID, func(ctx context.Context) error {
		var firstErr error
		for _, userID := range []string{trade.OwnerID, trade.JoinerID} {
			if userID == "" {
				continue
			}
			if err := e.stats.IncrementFailed(ctx, userID); err != nil && firstErr == nil {
				firstErr = err
			}
			err := e.notifications.Create(ctx, &models.Notification{
				UserID:  userID,
				Kind:    models.NotificationTradeFailed,
				TradeID: trade.TradeID,
				Message: fmt.Sprintf("Trade %s fell through (%s)", trade.TradeID, trade.FailReason),
			})
			if err != nil && firstErr == nil {
				firstErr = err
			}
		}
		return firstErr
	})
}

func (e *StoreSideEffects) TradeExpired(trade *models.Trade) {
	go e.run("trade_expired", trade.TradeID, func(ctx context.Context) error {
		return e.notifications.Create(ctx, &models.Notification{
			UserID:  trade.OwnerID,
			Kind:    models.NotificationTradeExpired,
			TradeID: trade.TradeID,
			Message: fmt.Sprintf("Your trade %s expired without a taker", trade.TradeID),
		})
	})
}

func (e *StoreSideEffects) run(event, tradeID string, fn func(ctx context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), sideEffectTimeout)
	defer cancel()

	if err := fn(ctx); err != nil {
		slog.Error("Side effect failed",
			slog.String("type", "sys"),
			slog.String("event", event),
			slog.String("trade_id", tradeID),
			slog.Any("error", err),
		)
	}
}
