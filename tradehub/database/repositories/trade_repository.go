package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lucentgarden/tradehub/tradehub/database/models"
	"github.com/uptrace/bun"
)

// ErrStaleTransition is returned when a conditional status update matched no
// row: the trade either does not exist or has already left the expected
// status. Callers re-read the row to tell the two apart.
var ErrStaleTransition = errors.New("trade not in expected status")

// TradeQuery narrows List results. Zero values mean "no filter".
type TradeQuery struct {
	Status  models.TradeStatus
	OwnerID string
	UserID  string // matches owner or joiner
	Limit   int
	Offset  int
}

type TradeRepository interface {
	Create(ctx context.Context, trade *models.Trade) error
	GetByTradeID(ctx context.Context, tradeID string) (*models.Trade, error)
	TradeIDExists(ctx context.Context, tradeID string) (bool, error)
	List(ctx context.Context, q TradeQuery) ([]*models.Trade, error)
	IncrementViews(ctx context.Context, tradeID string) error

	Join(ctx context.Context, tradeID, joinerID string, now time.Time) (*models.Trade, error)
	Accept(ctx context.Context, tradeID, userID string, asOwner bool, now time.Time) (*models.Trade, error)
	Fail(ctx context.Context, tradeID string, reason models.FailReason, now time.Time) (*models.Trade, error)
	Cancel(ctx context.Context, tradeID, ownerID string, now time.Time) (*models.Trade, error)
	Expire(ctx context.Context, tradeID string, now time.Time) (*models.Trade, error)
	ListExpired(ctx context.Context, now time.Time, limit int) ([]*models.Trade, error)
}

type tradeRepository struct {
	db *bun.DB
}

func NewTradeRepository(db *bun.DB) TradeRepository {
	return &tradeRepository{db: db}
}

func (r *tradeRepository) Create(ctx context.Context, trade *models.Trade) error {
	_, err := r.db.NewInsert().
		Model(trade).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create trade: %w", err)
	}
	return nil
}

func (r *tradeRepository) GetByTradeID(ctx context.Context, tradeID string) (*models.Trade, error) {
	trade := new(models.Trade)
	err := r.db.NewSelect().
		Model(trade).
		Where("trade_id = ?", tradeID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get trade: %w", err)
	}
	return trade, nil
}

func (r *tradeRepository) TradeIDExists(ctx context.Context, tradeID string) (bool, error) {
	exists, err := r.db.NewSelect().
		Model((*models.Trade)(nil)).
		Where("trade_id = ?", tradeID).
		Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to check trade id: %w", err)
	}
	return exists, nil
}

func (r *tradeRepository) List(ctx context.Context, q TradeQuery) ([]*models.Trade, error) {
	var trades []*models.Trade
	query := r.db.NewSelect().
		Model(&trades).
		Order("created_at DESC")

	if q.Status != "" {
		query = query.Where("status = ?", q.Status)
	}
	if q.OwnerID != "" {
		query = query.Where("owner_id = ?", q.OwnerID)
	}
	if q.UserID != "" {
		query = query.Where("(owner_id = ? OR joiner_id = ?)", q.UserID, q.UserID)
	}
	if q.Limit > 0 {
		query = query.Limit(q.Limit)
	}
	if q.Offset > 0 {
		query = query.Offset(q.Offset)
	}

	if err := query.Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to list trades: %w", err)
	}
	return trades, nil
}

func (r *tradeRepository) IncrementViews(ctx context.Context, tradeID string) error {
	_, err := r.db.NewUpdate().
		Model((*models.Trade)(nil)).
		Set("views = views + 1").
		Where("trade_id = ?", tradeID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to increment views: %w", err)
	}
	return nil
}

// Join moves an active trade to pending and records the joiner. The status
// guard makes concurrent joins race on the row: exactly one update matches.
func (r *tradeRepository) Join(ctx context.Context, tradeID, joinerID string, now time.Time) (*models.Trade, error) {
	trade := new(models.Trade)
	res, err := r.db.NewUpdate().
		Model(trade).
		Set("joiner_id = ?", joinerID).
		Set("status = ?", models.TradePending).
		Set("joined_at = ?", now).
		Set("updated_at = ?", now).
		Where("trade_id = ?", tradeID).
		Where("status = ?", models.TradeActive).
		Returning("*").
		Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to join trade: %w", err)
	}
	return checkTransition(res, trade)
}

// Accept records one participant's acceptance. When the other side has
// already accepted, the same statement flips the trade to completed, so the
// completing transition happens exactly once even under concurrent accepts.
func (r *tradeRepository) Accept(ctx context.Context, tradeID, userID string, asOwner bool, now time.Time) (*models.Trade, error) {
	acceptCol := "joiner_accepted"
	otherCol := "owner_accepted"
	if asOwner {
		acceptCol, otherCol = otherCol, acceptCol
	}

	trade := new(models.Trade)
	res, err := r.db.NewUpdate().
		Model(trade).
		Set(acceptCol+" = TRUE").
		Set(fmt.Sprintf("status = CASE WHEN %s THEN ? ELSE status END", otherCol), models.TradeCompleted).
		Set(fmt.Sprintf("completed_at = CASE WHEN %s THEN ? ELSE completed_at END", otherCol), now).
		Set("updated_at = ?", now).
		Where("trade_id = ?", tradeID).
		Where("status = ?", models.TradePending).
		Where(acceptCol + " = FALSE").
		Returning("*").
		Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to accept trade: %w", err)
	}
	return checkTransition(res, trade)
}

// Fail moves a pending trade to failed with the given reason.
func (r *tradeRepository) Fail(ctx context.Context, tradeID string, reason models.FailReason, now time.Time) (*models.Trade, error) {
	trade := new(models.Trade)
	res, err := r.db.NewUpdate().
		Model(trade).
		Set("status = ?", models.TradeFailed).
		Set("fail_reason = ?", reason).
		Set("failed_at = ?", now).
		Set("updated_at = ?", now).
		Where("trade_id = ?", tradeID).
		Where("status = ?", models.TradePending).
		Returning("*").
		Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fail trade: %w", err)
	}
	return checkTransition(res, trade)
}

// Cancel moves an active trade to cancelled. Only the owner's ID matches.
func (r *tradeRepository) Cancel(ctx context.Context, tradeID, ownerID string, now time.Time) (*models.Trade, error) {
	trade := new(models.Trade)
	res, err := r.db.NewUpdate().
		Model(trade).
		Set("status = ?", models.TradeCancelled).
		Set("fail_reason = ?", models.FailCancelled).
		Set("failed_at = ?", now).
		Set("updated_at = ?", now).
		Where("trade_id = ?", tradeID).
		Where("owner_id = ?", ownerID).
		Where("status = ?", models.TradeActive).
		Returning("*").
		Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to cancel trade: %w", err)
	}
	return checkTransition(res, trade)
}

// Expire moves an active trade past its deadline to expired.
func (r *tradeRepository) Expire(ctx context.Context, tradeID string, now time.Time) (*models.Trade, error) {
	trade := new(models.Trade)
	res, err := r.db.NewUpdate().
		Model(trade).
		Set("status = ?", models.TradeExpired).
		Set("fail_reason = ?", models.FailExpired).
		Set("failed_at = ?", now).
		Set("updated_at = ?", now).
		Where("trade_id = ?", tradeID).
		Where("status = ?", models.TradeActive).
		Where("expires_at <= ?", now).
		Returning("*").
		Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to expire trade: %w", err)
	}
	return checkTransition(res, trade)
}

func (r *tradeRepository) ListExpired(ctx context.Context, now time.Time, limit int) ([]*models.Trade, error) {
	var trades []*models.Trade
	query := r.db.NewSelect().
		Model(&trades).
		Where("status = ?", models.TradeActive).
		Where("expires_at <= ?", now).
		Order("expires_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to list expired trades: %w", err)
	}
	return trades, nil
}

func checkTransition(res sql.Result, trade *models.Trade) (*models.Trade, error) {
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return nil, ErrStaleTransition
	}
	return trade, nil
}
