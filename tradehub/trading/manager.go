package trading

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"log/slog"

	"github.com/lucentgarden/tradehub/tradehub/catalog"
	"github.com/lucentgarden/tradehub/tradehub/database/models"
	"github.com/lucentgarden/tradehub/tradehub/database/repositories"
	"github.com/lucentgarden/tradehub/tradehub/valuation"
	"github.com/sahilm/fuzzy"
	"golang.org/x/sync/errgroup"
)

const sweepConcurrency = 4

// ItemSelection is a caller's pick of one catalog item plus modifiers.
type ItemSelection struct {
	CatalogID  string   `json:"catalog_id"`
	MutationID string   `json:"mutation_id,omitempty"`
	TraitIDs   []string `json:"trait_ids,omitempty"`
}

// ListQuery narrows trade listings. Offering and LookingFor fuzzy-match
// item names on the respective side.
type ListQuery struct {
	Status     models.TradeStatus
	UserID     string
	Offering   string
	LookingFor string
	Limit      int
	Offset     int
}

type ManagerConfig struct {
	ListingTTL      time.Duration
	MaxItemsPerSide int
}

// Manager drives the trade lifecycle. Every mutating operation is a single
// conditional update against the store; concurrent callers race on the row
// and the loser gets a conflict error.
type Manager struct {
	trades   repositories.TradeRepository
	catalog  catalog.Accessor
	notifier *Notifier
	effects  SideEffects
	clock    catalog.Clock
	cfg      ManagerConfig
}

func NewManager(trades repositories.TradeRepository, cat catalog.Accessor, notifier *Notifier, effects SideEffects, clock catalog.Clock, cfg ManagerConfig) *Manager {
	if clock == nil {
		clock = catalog.SystemClock{}
	}
	if cfg.MaxItemsPerSide <= 0 {
		cfg.MaxItemsPerSide = 9
	}
	if cfg.ListingTTL <= 0 {
		cfg.ListingTTL = 72 * time.Hour
	}
	return &Manager{
		trades:   trades,
		catalog:  cat,
		notifier: notifier,
		effects:  effects,
		clock:    clock,
		cfg:      cfg,
	}
}

// Notifier exposes the transition event stream for transport adapters.
func (m *Manager) Notifier() *Notifier { return m.notifier }

// Post creates a new active trade with value snapshots resolved at post
// time.
func (m *Manager) Post(ctx context.Context, ownerID string, offering, lookingFor []ItemSelection) (*models.Trade, error) {
	if err := m.validateSide("offering", offering); err != nil {
		return nil, err
	}
	if err := m.validateSide("looking_for", lookingFor); err != nil {
		return nil, err
	}

	offeringItems, err := m.buildSnapshots(ctx, offering)
	if err != nil {
		return nil, err
	}
	lookingForItems, err := m.buildSnapshots(ctx, lookingFor)
	if err != nil {
		return nil, err
	}

	tradeID, err := m.generateTradeID(ctx)
	if err != nil {
		return nil, err
	}

	now := m.clock.Now()
	trade := &models.Trade{
		TradeID:         tradeID,
		OwnerID:         ownerID,
		OfferingItems:   offeringItems,
		LookingForItems: lookingForItems,
		Status:          models.TradeActive,
		CreatedAt:       now,
		ExpiresAt:       now.Add(m.cfg.ListingTTL),
		UpdatedAt:       now,
	}
	if err := m.trades.Create(ctx, trade); err != nil {
		return nil, err
	}

	m.publish(trade)
	m.effects.TradePosted(trade)
	return trade, nil
}

// Get fetches a trade by its public id. countView records a best-effort
// view; a failed increment never fails the read.
func (m *Manager) Get(ctx context.Context, tradeID string, countView bool) (*models.Trade, error) {
	trade, err := m.trades.GetByTradeID(ctx, tradeID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, NewNotFoundError("trade %s not found", tradeID)
		}
		return nil, err
	}

	if countView {
		if err := m.trades.IncrementViews(ctx, tradeID); err != nil {
			slog.Warn("Failed to count trade view",
				slog.String("type", "db"),
				slog.String("trade_id", tradeID),
				slog.Any("error", err),
			)
		} else {
			trade.Views++
		}
	}
	return trade, nil
}

// List returns trades matching the query. Name filters fuzzy-match against
// the snapshotted item names of the relevant side.
func (m *Manager) List(ctx context.Context, q ListQuery) ([]*models.Trade, error) {
	trades, err := m.trades.List(ctx, repositories.TradeQuery{
		Status: q.Status,
		UserID: q.UserID,
		Limit:  q.Limit,
		Offset: q.Offset,
	})
	if err != nil {
		return nil, err
	}

	if q.Offering != "" {
		trades = filterByItemName(trades, q.Offering, func(t *models.Trade) []models.TradeItemSnapshot {
			return t.OfferingItems
		})
	}
	if q.LookingFor != "" {
		trades = filterByItemName(trades, q.LookingFor, func(t *models.Trade) []models.TradeItemSnapshot {
			return t.LookingForItems
		})
	}
	return trades, nil
}

// Join moves an active trade to pending with the caller as joiner. Owners
// cannot join their own trades. Of two racing joiners exactly one wins; the
// other gets a conflict.
func (m *Manager) Join(ctx context.Context, tradeID, callerID string) (*models.Trade, error) {
	trade, err := m.mustGet(ctx, tradeID)
	if err != nil {
		return nil, err
	}
	if trade.OwnerID == callerID {
		return nil, NewConflictError("cannot join your own trade")
	}

	updated, err := m.trades.Join(ctx, tradeID, callerID, m.clock.Now())
	if err != nil {
		if errors.Is(err, repositories.ErrStaleTransition) {
			return nil, NewConflictError("trade %s is no longer open", tradeID)
		}
		return nil, err
	}

	m.publish(updated)
	m.effects.TradeJoined(updated)
	return updated, nil
}

// Accept records the caller's acceptance on a pending trade. When the other
// side has already accepted, the same store update completes the trade, so
// completion side effects fire exactly once. Re-accepting is a no-op.
func (m *Manager) Accept(ctx context.Context, tradeID, callerID string) (*models.Trade, error) {
	trade, err := m.mustGet(ctx, tradeID)
	if err != nil {
		return nil, err
	}
	if !trade.IsParticipant(callerID) {
		return nil, NewAuthorizationError("caller is not a participant of trade %s", tradeID)
	}

	updated, err := m.trades.Accept(ctx, tradeID, callerID, callerID == trade.OwnerID, m.clock.Now())
	if err != nil {
		if errors.Is(err, repositories.ErrStaleTransition) {
			return m.acceptNoOp(ctx, tradeID, callerID)
		}
		return nil, err
	}

	m.publish(updated)
	if updated.Status == models.TradeCompleted {
		m.effects.TradeCompleted(updated)
	}
	return updated, nil
}

// acceptNoOp distinguishes "already accepted" (idempotent success) from a
// genuine precondition failure after a zero-row conditional update.
func (m *Manager) acceptNoOp(ctx context.Context, tradeID, callerID string) (*models.Trade, error) {
	trade, err := m.mustGet(ctx, tradeID)
	if err != nil {
		return nil, err
	}
	if trade.AcceptedBy(callerID) &&
		(trade.Status == models.TradePending || trade.Status == models.TradeCompleted) {
		return trade, nil
	}
	return nil, NewConflictError("trade %s is not pending", tradeID)
}

// Decline fails a pending trade. Either participant may decline; the fail
// reason records which side walked away.
func (m *Manager) Decline(ctx context.Context, tradeID, callerID string) (*models.Trade, error) {
	trade, err := m.mustGet(ctx, tradeID)
	if err != nil {
		return nil, err
	}
	if !trade.IsParticipant(callerID) {
		return nil, NewAuthorizationError("caller is not a participant of trade %s", tradeID)
	}

	reason := models.FailJoinerDeclined
	if callerID == trade.OwnerID {
		reason = models.FailOwnerDeclined
	}

	updated, err := m.trades.Fail(ctx, tradeID, reason, m.clock.Now())
	if err != nil {
		if errors.Is(err, repositories.ErrStaleTransition) {
			return nil, NewConflictError("trade %s is not pending", tradeID)
		}
		return nil, err
	}

	m.publish(updated)
	m.effects.TradeFailed(updated)
	return updated, nil
}

// Cancel terminates the caller's own active listing. There is no
// counterpart to notify.
func (m *Manager) Cancel(ctx context.Context, tradeID, callerID string) (*models.Trade, error) {
	trade, err := m.mustGet(ctx, tradeID)
	if err != nil {
		return nil, err
	}
	if trade.OwnerID != callerID {
		return nil, NewAuthorizationError("only the owner may cancel trade %s", tradeID)
	}

	updated, err := m.trades.Cancel(ctx, tradeID, callerID, m.clock.Now())
	if err != nil {
		if errors.Is(err, repositories.ErrStaleTransition) {
			return nil, NewConflictError("trade %s is not active", tradeID)
		}
		return nil, err
	}

	m.publish(updated)
	return updated, nil
}

// Expire moves an overdue active trade to expired. Expiring a trade that
// already left active is a no-op, so sweeps may overlap safely.
func (m *Manager) Expire(ctx context.Context, tradeID string) (*models.Trade, error) {
	updated, err := m.trades.Expire(ctx, tradeID, m.clock.Now())
	if err != nil {
		if errors.Is(err, repositories.ErrStaleTransition) {
			trade, err := m.mustGet(ctx, tradeID)
			if err != nil {
				return nil, err
			}
			return trade, nil
		}
		return nil, err
	}

	m.publish(updated)
	m.effects.TradeExpired(updated)
	return updated, nil
}

// SweepExpired expires every overdue active trade and reports how many
// transitions committed. Each trade's state machine is independent, so the
// batch runs concurrently; trades that raced out of active are skipped.
func (m *Manager) SweepExpired(ctx context.Context, limit int) (int, error) {
	due, err := m.trades.ListExpired(ctx, m.clock.Now(), limit)
	if err != nil {
		return 0, err
	}

	var expired atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(sweepConcurrency)

	for _, trade := range due {
		trade := trade
		g.Go(func() error {
			updated, err := m.trades.Expire(gctx, trade.TradeID, m.clock.Now())
			if err != nil {
				if errors.Is(err, repositories.ErrStaleTransition) {
					return nil
				}
				return err
			}
			m.publish(updated)
			m.effects.TradeExpired(updated)
			expired.Add(1)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return int(expired.Load()), err
	}
	return int(expired.Load()), nil
}

// PreviewValue resolves a selection exactly the way Post would, without
// persisting anything, so clients can show the value before submitting.
func (m *Manager) PreviewValue(ctx context.Context, selection ItemSelection) (*models.TradeItemSnapshot, error) {
	snapshot, err := m.buildSnapshot(ctx, selection)
	if err != nil {
		return nil, err
	}
	return &snapshot, nil
}

func (m *Manager) mustGet(ctx context.Context, tradeID string) (*models.Trade, error) {
	trade, err := m.trades.GetByTradeID(ctx, tradeID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, NewNotFoundError("trade %s not found", tradeID)
		}
		return nil, err
	}
	return trade, nil
}

func (m *Manager) validateSide(side string, items []ItemSelection) error {
	if len(items) == 0 {
		return NewValidationError("%s side must contain at least one item", side)
	}
	if len(items) > m.cfg.MaxItemsPerSide {
		return NewValidationError("%s side exceeds %d items", side, m.cfg.MaxItemsPerSide)
	}
	for _, item := range items {
		if item.CatalogID == "" {
			return NewValidationError("%s side contains an item without a catalog id", side)
		}
	}
	return nil
}

func (m *Manager) buildSnapshots(ctx context.Context, selections []ItemSelection) ([]models.TradeItemSnapshot, error) {
	snapshots := make([]models.TradeItemSnapshot, 0, len(selections))
	for _, sel := range selections {
		snapshot, err := m.buildSnapshot(ctx, sel)
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, snapshot)
	}
	return snapshots, nil
}

// buildSnapshot resolves one selection. Unknown catalog items are a
// validation error; unknown or disallowed modifiers degrade gracefully to
// "no modifier".
func (m *Manager) buildSnapshot(ctx context.Context, sel ItemSelection) (models.TradeItemSnapshot, error) {
	item, err := m.catalog.Item(ctx, sel.CatalogID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.TradeItemSnapshot{}, NewValidationError("unknown catalog item %s", sel.CatalogID)
		}
		return models.TradeItemSnapshot{}, err
	}

	var mutations []*models.Mutation
	if sel.MutationID != "" {
		mutation, err := m.catalog.Mutation(ctx, sel.MutationID)
		if err != nil && !errors.Is(err, repositories.ErrNotFound) {
			return models.TradeItemSnapshot{}, err
		}
		if err == nil {
			mutations = append(mutations, mutation)
		}
	}

	var traits []*models.Trait
	for _, traitID := range sel.TraitIDs {
		trait, err := m.catalog.Trait(ctx, traitID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				continue
			}
			return models.TradeItemSnapshot{}, err
		}
		traits = append(traits, trait)
	}

	return valuation.BuildSnapshot(mutations, traits, item, sel.MutationID, sel.TraitIDs), nil
}

func (m *Manager) publish(trade *models.Trade) {
	if m.notifier == nil {
		return
	}
	m.notifier.Publish(TradeChanged{TradeID: trade.TradeID, Record: trade})
}

func filterByItemName(trades []*models.Trade, query string, side func(*models.Trade) []models.TradeItemSnapshot) []*models.Trade {
	var filtered []*models.Trade
	for _, trade := range trades {
		names := make([]string, 0, len(side(trade)))
		for _, item := range side(trade) {
			names = append(names, item.Name)
		}
		if len(fuzzy.Find(query, names)) > 0 {
			filtered = append(filtered, trade)
		}
	}
	return filtered
}
