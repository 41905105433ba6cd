package catalog

import (
	"context"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"github.com/lucentgarden/tradehub/tradehub/database/models"
	"github.com/lucentgarden/tradehub/tradehub/database/repositories"
)

// Clock abstracts time for cache expiry so tests can drive it.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// Accessor is the read surface over the item catalog and its modifiers.
type Accessor interface {
	Item(ctx context.Context, id string) (*models.CatalogItem, error)
	Mutation(ctx context.Context, id string) (*models.Mutation, error)
	Trait(ctx context.Context, id string) (*models.Trait, error)
	Items(ctx context.Context) ([]*models.CatalogItem, error)
}

type cacheEntry struct {
	value     interface{}
	fetchedAt time.Time
}

// CachedAccessor serves catalog reads through a bounded TTL cache. The
// catalog changes rarely, so slightly stale reads are acceptable; posted
// trades snapshot values anyway.
type CachedAccessor struct {
	repo  repositories.CatalogRepository
	cache *lru.Cache
	ttl   time.Duration
	clock Clock
}

func NewCachedAccessor(repo repositories.CatalogRepository, size int, ttl time.Duration, clock Clock) (*CachedAccessor, error) {
	if size <= 0 {
		size = 512
	}
	cache, err := lru.New(size)
	if err != nil {
		return nil, fmt.Errorf("failed to create catalog cache: %w", err)
	}
	if clock == nil {
		clock = SystemClock{}
	}
	return &CachedAccessor{
		repo:  repo,
		cache: cache,
		ttl:   ttl,
		clock: clock,
	}, nil
}

func (a *CachedAccessor) Item(ctx context.Context, id string) (*models.CatalogItem, error) {
	key := "item:" + id
	if v, ok := a.lookup(key); ok {
		return v.(*models.CatalogItem), nil
	}
	item, err := a.repo.GetItem(ctx, id)
	if err != nil {
		return nil, err
	}
	a.store(key, item)
	return item, nil
}

func (a *CachedAccessor) Mutation(ctx context.Context, id string) (*models.Mutation, error) {
	key := "mutation:" + id
	if v, ok := a.lookup(key); ok {
		return v.(*models.Mutation), nil
	}
	mutation, err := a.repo.GetMutation(ctx, id)
	if err != nil {
		return nil, err
	}
	a.store(key, mutation)
	return mutation, nil
}

func (a *CachedAccessor) Trait(ctx context.Context, id string) (*models.Trait, error) {
	key := "trait:" + id
	if v, ok := a.lookup(key); ok {
		return v.(*models.Trait), nil
	}
	trait, err := a.repo.GetTrait(ctx, id)
	if err != nil {
		return nil, err
	}
	a.store(key, trait)
	return trait, nil
}

// Items bypasses the cache: the full listing is only used by browse
// endpoints where freshness matters more than the single round trip.
func (a *CachedAccessor) Items(ctx context.Context) ([]*models.CatalogItem, error) {
	return a.repo.ListItems(ctx)
}

func (a *CachedAccessor) lookup(key string) (interface{}, bool) {
	v, ok := a.cache.Get(key)
	if !ok {
		return nil, false
	}
	entry := v.(cacheEntry)
	if a.ttl > 0 && a.clock.Now().Sub(entry.fetchedAt) >= a.ttl {
		a.cache.Remove(key)
		return nil, false
	}
	return entry.value, true
}

func (a *CachedAccessor) store(key string, value interface{}) {
	a.cache.Add(key, cacheEntry{value: value, fetchedAt: a.clock.Now()})
}
