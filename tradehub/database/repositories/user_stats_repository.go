package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lucentgarden/tradehub/tradehub/database/models"
	"github.com/uptrace/bun"
)

type UserStatsRepository interface {
	Get(ctx context.Context, userID string) (*models.UserStats, error)
	IncrementPosted(ctx context.Context, userID string) error
	IncrementCompleted(ctx context.Context, userID string) error
	IncrementFailed(ctx context.Context, userID string) error
}

type userStatsRepository struct {
	db *bun.DB
}

func NewUserStatsRepository(db *bun.DB) UserStatsRepository {
	return &userStatsRepository{db: db}
}

func (r *userStatsRepository) Get(ctx context.Context, userID string) (*models.UserStats, error) {
	stats := new(models.UserStats)
	err := r.db.NewSelect().
		Model(stats).
		Where("user_id = ?", userID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user stats: %w", err)
	}
	return stats, nil
}

func (r *userStatsRepository) IncrementPosted(ctx context.Context, userID string) error {
	return r.increment(ctx, userID, "trades_posted")
}

func (r *userStatsRepository) IncrementCompleted(ctx context.Context, userID string) error {
	return r.increment(ctx, userID, "trades_completed")
}

func (r *userStatsRepository) IncrementFailed(ctx context.Context, userID string) error {
	return r.increment(ctx, userID, "trades_failed")
}

func (r *userStatsRepository) increment(ctx context.Context, userID, column string) error {
	stats := &models.UserStats{UserID: userID}
	switch column {
	case "trades_posted":
		stats.TradesPosted = 1
	case "trades_completed":
		stats.TradesCompleted = 1
	case "trades_failed":
		stats.TradesFailed = 1
	}

	_, err := r.db.NewInsert().
		Model(stats).
		On("CONFLICT (user_id) DO UPDATE").
		Set(fmt.Sprintf("%s = us.%s + 1", column, column)).
		Set("updated_at = CURRENT_TIMESTAMP").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to increment %s: %w", column, err)
	}
	return nil
}
