package trading

import (
	"context"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/lucentgarden/tradehub/tradehub/database/models"
	"github.com/lucentgarden/tradehub/tradehub/database/repositories"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// fakeTradeRepo mirrors the store's conditional-update contract in memory:
// each transition checks the guard and mutates under one lock, the way a
// single conditional UPDATE would.
type fakeTradeRepo struct {
	mu     sync.Mutex
	trades map[string]*models.Trade
}

func newFakeTradeRepo() *fakeTradeRepo {
	return &fakeTradeRepo{trades: make(map[string]*models.Trade)}
}

func copyTrade(t *models.Trade) *models.Trade {
	c := *t
	return &c
}

func (r *fakeTradeRepo) Create(_ context.Context, trade *models.Trade) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.trades[trade.TradeID] = copyTrade(trade)
	return nil
}

func (r *fakeTradeRepo) GetByTradeID(_ context.Context, tradeID string) (*models.Trade, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	trade, ok := r.trades[tradeID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return copyTrade(trade), nil
}

func (r *fakeTradeRepo) TradeIDExists(_ context.Context, tradeID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.trades[tradeID]
	return ok, nil
}

func (r *fakeTradeRepo) List(_ context.Context, q repositories.TradeQuery) ([]*models.Trade, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Trade
	for _, trade := range r.trades {
		if q.Status != "" && trade.Status != q.Status {
			continue
		}
		if q.OwnerID != "" && trade.OwnerID != q.OwnerID {
			continue
		}
		if q.UserID != "" && trade.OwnerID != q.UserID && trade.JoinerID != q.UserID {
			continue
		}
		out = append(out, copyTrade(trade))
	}
	return out, nil
}

func (r *fakeTradeRepo) IncrementViews(_ context.Context, tradeID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if trade, ok := r.trades[tradeID]; ok {
		trade.Views++
	}
	return nil
}

func (r *fakeTradeRepo) Join(_ context.Context, tradeID, joinerID string, now time.Time) (*models.Trade, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	trade, ok := r.trades[tradeID]
	if !ok || trade.Status != models.TradeActive {
		return nil, repositories.ErrStaleTransition
	}
	trade.JoinerID = joinerID
	trade.Status = models.TradePending
	trade.JoinedAt = now
	trade.UpdatedAt = now
	return copyTrade(trade), nil
}

func (r *fakeTradeRepo) Accept(_ context.Context, tradeID, _ string, asOwner bool, now time.Time) (*models.Trade, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	trade, ok := r.trades[tradeID]
	if !ok || trade.Status != models.TradePending {
		return nil, repositories.ErrStaleTransition
	}
	if asOwner {
		if trade.OwnerAccepted {
			return nil, repositories.ErrStaleTransition
		}
		trade.OwnerAccepted = true
		if trade.JoinerAccepted {
			trade.Status = models.TradeCompleted
			trade.CompletedAt = now
		}
	} else {
		if trade.JoinerAccepted {
			return nil, repositories.ErrStaleTransition
		}
		trade.JoinerAccepted = true
		if trade.OwnerAccepted {
			trade.Status = models.TradeCompleted
			trade.CompletedAt = now
		}
	}
	trade.UpdatedAt = now
	return copyTrade(trade), nil
}

func (r *fakeTradeRepo) Fail(_ context.Context, tradeID string, reason models.FailReason, now time.Time) (*models.Trade, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	trade, ok := r.trades[tradeID]
	if !ok || trade.Status != models.TradePending {
		return nil, repositories.ErrStaleTransition
	}
	trade.Status = models.TradeFailed
	trade.FailReason = reason
	trade.FailedAt = now
	trade.UpdatedAt = now
	return copyTrade(trade), nil
}

func (r *fakeTradeRepo) Cancel(_ context.Context, tradeID, ownerID string, now time.Time) (*models.Trade, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	trade, ok := r.trades[tradeID]
	if !ok || trade.OwnerID != ownerID || trade.Status != models.TradeActive {
		return nil, repositories.ErrStaleTransition
	}
	trade.Status = models.TradeCancelled
	trade.FailReason = models.FailCancelled
	trade.FailedAt = now
	trade.UpdatedAt = now
	return copyTrade(trade), nil
}

func (r *fakeTradeRepo) Expire(_ context.Context, tradeID string, now time.Time) (*models.Trade, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	trade, ok := r.trades[tradeID]
	if !ok || trade.Status != models.TradeActive || trade.ExpiresAt.After(now) {
		return nil, repositories.ErrStaleTransition
	}
	trade.Status = models.TradeExpired
	trade.FailReason = models.FailExpired
	trade.FailedAt = now
	trade.UpdatedAt = now
	return copyTrade(trade), nil
}

func (r *fakeTradeRepo) ListExpired(_ context.Context, now time.Time, limit int) ([]*models.Trade, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Trade
	for _, trade := range r.trades {
		if trade.Status == models.TradeActive && !trade.ExpiresAt.After(now) {
			out = append(out, copyTrade(trade))
			if limit > 0 && len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

type fakeCatalog struct {
	items     map[string]*models.CatalogItem
	mutations map[string]*models.Mutation
	traits    map[string]*models.Trait
}

func (c *fakeCatalog) Item(_ context.Context, id string) (*models.CatalogItem, error) {
	if item, ok := c.items[id]; ok {
		return item, nil
	}
	return nil, repositories.ErrNotFound
}

func (c *fakeCatalog) Mutation(_ context.Context, id string) (*models.Mutation, error) {
	if m, ok := c.mutations[id]; ok {
		return m, nil
	}
	return nil, repositories.ErrNotFound
}

func (c *fakeCatalog) Trait(_ context.Context, id string) (*models.Trait, error) {
	if t, ok := c.traits[id]; ok {
		return t, nil
	}
	return nil, repositories.ErrNotFound
}

func (c *fakeCatalog) Items(_ context.Context) ([]*models.CatalogItem, error) {
	var out []*models.CatalogItem
	for _, item := range c.items {
		out = append(out, item)
	}
	return out, nil
}

// recordingEffects counts lifecycle events synchronously so tests can
// assert exactly-once delivery without sleeping.
type recordingEffects struct {
	mu        sync.Mutex
	posted    int
	joined    int
	completed int
	failed    int
	expired   int
}

func (e *recordingEffects) TradePosted(*models.Trade) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.posted++
}

func (e *recordingEffects) TradeJoined(*models.Trade) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.joined++
}

func (e *recordingEffects) TradeCompleted(*models.Trade) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.completed++
}

func (e *recordingEffects) TradeFailed(*models.Trade) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.failed++
}

func (e *recordingEffects) TradeExpired(*models.Trade) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.expired++
}

func (e *recordingEffects) counts() (posted, joined, completed, failed, expired int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.posted, e.joined, e.completed, e.failed, e.expired
}

func testCatalog() *fakeCatalog {
	return &fakeCatalog{
		items: map[string]*models.CatalogItem{
			"sword": {
				ID:           "sword",
				Name:         "Sword",
				BaseValueLGC: 5,
				AllowedMutations: []models.AllowedMutation{
					{MutationID: "golden"},
				},
			},
			"shield": {
				ID:           "shield",
				Name:         "Shield",
				BaseValueLGC: 10,
			},
		},
		mutations: map[string]*models.Mutation{
			"golden": {ID: "golden", Name: "Golden", Multiplier: 2},
		},
		traits: map[string]*models.Trait{},
	}
}

func newTestManager(t *testing.T) (*Manager, *fakeTradeRepo, *recordingEffects, *fakeClock) {
	t.Helper()
	repo := newFakeTradeRepo()
	effects := &recordingEffects{}
	clock := &fakeClock{now: time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)}
	manager := NewManager(repo, testCatalog(), NewNotifier(), effects, clock, ManagerConfig{
		ListingTTL:      72 * time.Hour,
		MaxItemsPerSide: 9,
	})
	return manager, repo, effects, clock
}

func TestPostCreatesActiveTradeWithSnapshots(t *testing.T) {
	manager, _, effects, clock := newTestManager(t)
	ctx := context.Background()

	trade, err := manager.Post(ctx, "owner",
		[]ItemSelection{{CatalogID: "sword", MutationID: "golden"}},
		[]ItemSelection{{CatalogID: "shield"}},
	)
	if err != nil {
		t.Fatalf("Post: %v", err)
	}

	if trade.Status != models.TradeActive {
		t.Errorf("status = %s, want active", trade.Status)
	}
	if trade.OfferingTotalLGC() != 10 {
		t.Errorf("offering total = %v, want 10", trade.OfferingTotalLGC())
	}
	if trade.LookingForTotalLGC() != 10 {
		t.Errorf("looking-for total = %v, want 10", trade.LookingForTotalLGC())
	}
	if want := clock.Now().Add(72 * time.Hour); !trade.ExpiresAt.Equal(want) {
		t.Errorf("expires_at = %v, want %v", trade.ExpiresAt, want)
	}
	if posted, _, _, _, _ := effects.counts(); posted != 1 {
		t.Errorf("posted effects = %d, want 1", posted)
	}
}

func TestPostValidation(t *testing.T) {
	manager, _, _, _ := newTestManager(t)
	ctx := context.Background()

	tests := []struct {
		name       string
		offering   []ItemSelection
		lookingFor []ItemSelection
	}{
		{
			name:       "empty offering side",
			offering:   nil,
			lookingFor: []ItemSelection{{CatalogID: "shield"}},
		},
		{
			name:       "empty looking-for side",
			offering:   []ItemSelection{{CatalogID: "sword"}},
			lookingFor: nil,
		},
		{
			name:       "too many items",
			offering:   make([]ItemSelection, 10),
			lookingFor: []ItemSelection{{CatalogID: "shield"}},
		},
		{
			name:       "unknown catalog item",
			offering:   []ItemSelection{{CatalogID: "ghost"}},
			lookingFor: []ItemSelection{{CatalogID: "shield"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := manager.Post(ctx, "owner", tt.offering, tt.lookingFor)
			if !IsValidation(err) {
				t.Errorf("got err %v, want validation error", err)
			}
		})
	}
}

func TestPostDisallowedModifierDegradesGracefully(t *testing.T) {
	manager, _, _, _ := newTestManager(t)

	// shield does not allow the golden mutation; the selection resolves
	// to no mutation instead of erroring.
	trade, err := manager.Post(context.Background(), "owner",
		[]ItemSelection{{CatalogID: "shield", MutationID: "golden"}},
		[]ItemSelection{{CatalogID: "sword"}},
	)
	if err != nil {
		t.Fatalf("Post: %v", err)
	}
	if got := trade.OfferingItems[0]; got.MutationID != "" || got.FinalValueLGC != 10 {
		t.Errorf("snapshot = %+v, want no mutation at base value", got)
	}
}

func TestJoinTransitionsToPending(t *testing.T) {
	manager, _, effects, _ := newTestManager(t)
	ctx := context.Background()

	trade := mustPost(t, manager)
	joined, err := manager.Join(ctx, trade.TradeID, "joiner")
	if err != nil {
		t.Fatalf("Join: %v", err)
	}
	if joined.Status != models.TradePending {
		t.Errorf("status = %s, want pending", joined.Status)
	}
	if joined.JoinerID != "joiner" {
		t.Errorf("joiner = %q, want joiner", joined.JoinerID)
	}
	if joined.JoinedAt.IsZero() {
		t.Error("joined_at not set")
	}
	if _, j, _, _, _ := effects.counts(); j != 1 {
		t.Errorf("joined effects = %d, want 1", j)
	}
}

func TestJoinRejections(t *testing.T) {
	manager, _, _, _ := newTestManager(t)
	ctx := context.Background()

	trade := mustPost(t, manager)

	if _, err := manager.Join(ctx, trade.TradeID, "owner"); !IsConflict(err) {
		t.Errorf("owner join: got %v, want conflict", err)
	}
	if _, err := manager.Join(ctx, "TMISSING1", "joiner"); !IsNotFound(err) {
		t.Errorf("missing trade: got %v, want not found", err)
	}

	if _, err := manager.Join(ctx, trade.TradeID, "joiner"); err != nil {
		t.Fatalf("Join: %v", err)
	}
	if _, err := manager.Join(ctx, trade.TradeID, "latecomer"); !IsConflict(err) {
		t.Errorf("join pending trade: got %v, want conflict", err)
	}
}

func TestConcurrentJoinHasExactlyOneWinner(t *testing.T) {
	manager, repo, _, _ := newTestManager(t)
	ctx := context.Background()

	trade := mustPost(t, manager)

	const racers = 8
	errs := make([]error, racers)
	var wg sync.WaitGroup
	for i := 0; i < racers; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = manager.Join(ctx, trade.TradeID, "joiner-"+string(rune('a'+i)))
		}()
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		switch {
		case err == nil:
			winners++
		case IsConflict(err):
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if winners != 1 {
		t.Fatalf("winners = %d, want exactly 1", winners)
	}

	stored, err := repo.GetByTradeID(ctx, trade.TradeID)
	if err != nil {
		t.Fatalf("GetByTradeID: %v", err)
	}
	if stored.Status != models.TradePending || stored.JoinerID == "" {
		t.Errorf("stored trade = %s joiner %q, want pending with joiner", stored.Status, stored.JoinerID)
	}
}

func TestAcceptBothSidesCompletesOnce(t *testing.T) {
	manager, _, effects, _ := newTestManager(t)
	ctx := context.Background()

	trade := mustPost(t, manager)
	if _, err := manager.Join(ctx, trade.TradeID, "joiner"); err != nil {
		t.Fatalf("Join: %v", err)
	}

	first, err := manager.Accept(ctx, trade.TradeID, "joiner")
	if err != nil {
		t.Fatalf("Accept joiner: %v", err)
	}
	if first.Status != models.TradePending {
		t.Errorf("after one accept status = %s, want pending", first.Status)
	}

	second, err := manager.Accept(ctx, trade.TradeID, "owner")
	if err != nil {
		t.Fatalf("Accept owner: %v", err)
	}
	if second.Status != models.TradeCompleted {
		t.Errorf("after both accepts status = %s, want completed", second.Status)
	}
	if second.CompletedAt.IsZero() {
		t.Error("completed_at not set")
	}
	if _, _, completed, _, _ := effects.counts(); completed != 1 {
		t.Errorf("completed effects = %d, want 1", completed)
	}
}

func TestAcceptIdempotent(t *testing.T) {
	manager, _, effects, _ := newTestManager(t)
	ctx := context.Background()

	trade := mustPost(t, manager)
	if _, err := manager.Join(ctx, trade.TradeID, "joiner"); err != nil {
		t.Fatalf("Join: %v", err)
	}
	if _, err := manager.Accept(ctx, trade.TradeID, "joiner"); err != nil {
		t.Fatalf("Accept: %v", err)
	}

	again, err := manager.Accept(ctx, trade.TradeID, "joiner")
	if err != nil {
		t.Fatalf("re-accept: %v", err)
	}
	if again.Status != models.TradePending || !again.JoinerAccepted {
		t.Errorf("re-accept returned %s accepted=%v, want unchanged pending record", again.Status, again.JoinerAccepted)
	}

	// Re-accepting after completion is also a no-op and fires no second
	// completion side effect.
	if _, err := manager.Accept(ctx, trade.TradeID, "owner"); err != nil {
		t.Fatalf("Accept owner: %v", err)
	}
	final, err := manager.Accept(ctx, trade.TradeID, "joiner")
	if err != nil {
		t.Fatalf("accept after completion: %v", err)
	}
	if final.Status != models.TradeCompleted {
		t.Errorf("status = %s, want completed", final.Status)
	}
	if _, _, completed, _, _ := effects.counts(); completed != 1 {
		t.Errorf("completed effects = %d, want 1", completed)
	}
}

func TestAcceptAuthorization(t *testing.T) {
	manager, _, _, _ := newTestManager(t)
	ctx := context.Background()

	trade := mustPost(t, manager)
	if _, err := manager.Join(ctx, trade.TradeID, "joiner"); err != nil {
		t.Fatalf("Join: %v", err)
	}

	if _, err := manager.Accept(ctx, trade.TradeID, "stranger"); !IsAuthorization(err) {
		t.Errorf("stranger accept: got %v, want authorization error", err)
	}
}

func TestDeclineRecordsWhichSideWalked(t *testing.T) {
	manager, _, effects, _ := newTestManager(t)
	ctx := context.Background()

	tests := []struct {
		caller string
		want   models.FailReason
	}{
		{caller: "owner", want: models.FailOwnerDeclined},
		{caller: "joiner", want: models.FailJoinerDeclined},
	}

	for _, tt := range tests {
		t.Run(tt.caller, func(t *testing.T) {
			trade := mustPost(t, manager)
			if _, err := manager.Join(ctx, trade.TradeID, "joiner"); err != nil {
				t.Fatalf("Join: %v", err)
			}

			failed, err := manager.Decline(ctx, trade.TradeID, tt.caller)
			if err != nil {
				t.Fatalf("Decline: %v", err)
			}
			if failed.Status != models.TradeFailed {
				t.Errorf("status = %s, want failed", failed.Status)
			}
			if failed.FailReason != tt.want {
				t.Errorf("fail reason = %s, want %s", failed.FailReason, tt.want)
			}
		})
	}

	if _, _, _, failedEffects, _ := effects.counts(); failedEffects != 2 {
		t.Errorf("failed effects = %d, want 2", failedEffects)
	}
}

func TestDeclineAfterDeclineConflicts(t *testing.T) {
	manager, _, _, _ := newTestManager(t)
	ctx := context.Background()

	trade := mustPost(t, manager)
	if _, err := manager.Join(ctx, trade.TradeID, "joiner"); err != nil {
		t.Fatalf("Join: %v", err)
	}
	if _, err := manager.Decline(ctx, trade.TradeID, "joiner"); err != nil {
		t.Fatalf("Decline: %v", err)
	}

	if _, err := manager.Decline(ctx, trade.TradeID, "owner"); !IsConflict(err) {
		t.Errorf("second decline: got %v, want conflict", err)
	}
	if _, err := manager.Accept(ctx, trade.TradeID, "owner"); !IsConflict(err) {
		t.Errorf("accept after decline: got %v, want conflict", err)
	}
}

func TestCancelOwnerOnly(t *testing.T) {
	manager, _, _, _ := newTestManager(t)
	ctx := context.Background()

	trade := mustPost(t, manager)

	if _, err := manager.Cancel(ctx, trade.TradeID, "stranger"); !IsAuthorization(err) {
		t.Errorf("stranger cancel: got %v, want authorization error", err)
	}

	cancelled, err := manager.Cancel(ctx, trade.TradeID, "owner")
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if cancelled.Status != models.TradeCancelled {
		t.Errorf("status = %s, want cancelled", cancelled.Status)
	}

	if _, err := manager.Cancel(ctx, trade.TradeID, "owner"); !IsConflict(err) {
		t.Errorf("cancel terminal trade: got %v, want conflict", err)
	}
}

func TestCancelPendingConflicts(t *testing.T) {
	manager, _, _, _ := newTestManager(t)
	ctx := context.Background()

	trade := mustPost(t, manager)
	if _, err := manager.Join(ctx, trade.TradeID, "joiner"); err != nil {
		t.Fatalf("Join: %v", err)
	}

	if _, err := manager.Cancel(ctx, trade.TradeID, "owner"); !IsConflict(err) {
		t.Errorf("cancel pending trade: got %v, want conflict", err)
	}
}

func TestSweepExpiredIsIdempotent(t *testing.T) {
	manager, _, effects, clock := newTestManager(t)
	ctx := context.Background()

	overdue := mustPost(t, manager)
	fresh := mustPost(t, manager)

	clock.Advance(73 * time.Hour)

	// The fresh trade was posted at the same instant, so give it a later
	// deadline by joining it out of the sweep's reach.
	if _, err := manager.Join(ctx, fresh.TradeID, "joiner"); err != nil {
		t.Fatalf("Join: %v", err)
	}

	expired, err := manager.SweepExpired(ctx, 0)
	if err != nil {
		t.Fatalf("SweepExpired: %v", err)
	}
	if expired != 1 {
		t.Fatalf("expired = %d, want 1", expired)
	}

	got, err := manager.Get(ctx, overdue.TradeID, false)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != models.TradeExpired {
		t.Errorf("status = %s, want expired", got.Status)
	}

	// Second sweep finds nothing.
	expired, err = manager.SweepExpired(ctx, 0)
	if err != nil {
		t.Fatalf("second SweepExpired: %v", err)
	}
	if expired != 0 {
		t.Errorf("second sweep expired = %d, want 0", expired)
	}
	if _, _, _, _, expiredEffects := effects.counts(); expiredEffects != 1 {
		t.Errorf("expired effects = %d, want 1", expiredEffects)
	}
}

func TestExpireBeforeDeadlineIsNoOp(t *testing.T) {
	manager, _, _, _ := newTestManager(t)
	ctx := context.Background()

	trade := mustPost(t, manager)
	got, err := manager.Expire(ctx, trade.TradeID)
	if err != nil {
		t.Fatalf("Expire: %v", err)
	}
	if got.Status != models.TradeActive {
		t.Errorf("status = %s, want still active", got.Status)
	}
}

func TestEndToEndLifecycle(t *testing.T) {
	manager, _, effects, _ := newTestManager(t)
	ctx := context.Background()

	trade, err := manager.Post(ctx, "owner",
		[]ItemSelection{{CatalogID: "sword", MutationID: "golden"}},
		[]ItemSelection{{CatalogID: "shield"}},
	)
	if err != nil {
		t.Fatalf("Post: %v", err)
	}
	if trade.OfferingTotalLGC() != 10 || trade.LookingForTotalLGC() != 10 {
		t.Fatalf("totals = %v/%v, want 10/10", trade.OfferingTotalLGC(), trade.LookingForTotalLGC())
	}

	if _, err := manager.Join(ctx, trade.TradeID, "joiner"); err != nil {
		t.Fatalf("Join: %v", err)
	}
	if _, err := manager.Accept(ctx, trade.TradeID, "owner"); err != nil {
		t.Fatalf("Accept owner: %v", err)
	}
	final, err := manager.Accept(ctx, trade.TradeID, "joiner")
	if err != nil {
		t.Fatalf("Accept joiner: %v", err)
	}

	if final.Status != models.TradeCompleted {
		t.Errorf("status = %s, want completed", final.Status)
	}
	if final.CompletedAt.IsZero() {
		t.Error("completed_at not set")
	}
	posted, joined, completed, failed, expired := effects.counts()
	if posted != 1 || joined != 1 || completed != 1 || failed != 0 || expired != 0 {
		t.Errorf("effects = %d/%d/%d/%d/%d, want 1/1/1/0/0", posted, joined, completed, failed, expired)
	}
}

func TestListFiltersByItemName(t *testing.T) {
	manager, _, _, _ := newTestManager(t)
	ctx := context.Background()

	if _, err := manager.Post(ctx, "owner",
		[]ItemSelection{{CatalogID: "sword"}},
		[]ItemSelection{{CatalogID: "shield"}},
	); err != nil {
		t.Fatalf("Post: %v", err)
	}
	if _, err := manager.Post(ctx, "owner",
		[]ItemSelection{{CatalogID: "shield"}},
		[]ItemSelection{{CatalogID: "sword"}},
	); err != nil {
		t.Fatalf("Post: %v", err)
	}

	trades, err := manager.List(ctx, ListQuery{Offering: "swrd"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(trades) != 1 {
		t.Fatalf("got %d trades, want 1", len(trades))
	}
	if trades[0].OfferingItems[0].Name != "Sword" {
		t.Errorf("offering item = %q, want Sword", trades[0].OfferingItems[0].Name)
	}
}

func TestPreviewValueMatchesSnapshot(t *testing.T) {
	manager, _, _, _ := newTestManager(t)
	ctx := context.Background()

	preview, err := manager.PreviewValue(ctx, ItemSelection{CatalogID: "sword", MutationID: "golden"})
	if err != nil {
		t.Fatalf("PreviewValue: %v", err)
	}

	trade, err := manager.Post(ctx, "owner",
		[]ItemSelection{{CatalogID: "sword", MutationID: "golden"}},
		[]ItemSelection{{CatalogID: "shield"}},
	)
	if err != nil {
		t.Fatalf("Post: %v", err)
	}

	if !reflect.DeepEqual(*preview, trade.OfferingItems[0]) {
		t.Errorf("preview %+v differs from persisted snapshot %+v", *preview, trade.OfferingItems[0])
	}
}

func mustPost(t *testing.T, manager *Manager) *models.Trade {
	t.Helper()
	trade, err := manager.Post(context.Background(), "owner",
		[]ItemSelection{{CatalogID: "sword"}},
		[]ItemSelection{{CatalogID: "shield"}},
	)
	if err != nil {
		t.Fatalf("Post: %v", err)
	}
	return trade
}
