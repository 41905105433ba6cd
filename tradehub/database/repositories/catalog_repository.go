package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lucentgarden/tradehub/tradehub/database/models"
	"github.com/uptrace/bun"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

type CatalogRepository interface {
	GetItem(ctx context.Context, id string) (*models.CatalogItem, error)
	GetMutation(ctx context.Context, id string) (*models.Mutation, error)
	GetTrait(ctx context.Context, id string) (*models.Trait, error)
	ListItems(ctx context.Context) ([]*models.CatalogItem, error)
	ListMutations(ctx context.Context) ([]*models.Mutation, error)
	ListTraits(ctx context.Context) ([]*models.Trait, error)
	UpsertItem(ctx context.Context, item *models.CatalogItem) error
	UpsertMutation(ctx context.Context, mutation *models.Mutation) error
	UpsertTrait(ctx context.Context, trait *models.Trait) error
}

type catalogRepository struct {
	db *bun.DB
}

func NewCatalogRepository(db *bun.DB) CatalogRepository {
	return &catalogRepository{db: db}
}

func (r *catalogRepository) GetItem(ctx context.Context, id string) (*models.CatalogItem, error) {
	item := new(models.CatalogItem)
	err := r.db.NewSelect().
		Model(item).
		Where("id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get catalog item: %w", err)
	}
	return item, nil
}

func (r *catalogRepository) GetMutation(ctx context.Context, id string) (*models.Mutation, error) {
	mutation := new(models.Mutation)
	err := r.db.NewSelect().
		Model(mutation).
		Where("id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get mutation: %w", err)
	}
	return mutation, nil
}

func (r *catalogRepository) GetTrait(ctx context.Context, id string) (*models.Trait, error) {
	trait := new(models.Trait)
	err := r.db.NewSelect().
		Model(trait).
		Where("id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get trait: %w", err)
	}
	return trait, nil
}

func (r *catalogRepository) ListItems(ctx context.Context) ([]*models.CatalogItem, error) {
	var items []*models.CatalogItem
	err := r.db.NewSelect().
		Model(&items).
		Order("name ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list catalog items: %w", err)
	}
	return items, nil
}

func (r *catalogRepository) ListMutations(ctx context.Context) ([]*models.Mutation, error) {
	var mutations []*models.Mutation
	err := r.db.NewSelect().
		Model(&mutations).
		Order("id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list mutations: %w", err)
	}
	return mutations, nil
}

func (r *catalogRepository) ListTraits(ctx context.Context) ([]*models.Trait, error) {
	var traits []*models.Trait
	err := r.db.NewSelect().
		Model(&traits).
		Order("id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list traits: %w", err)
	}
	return traits, nil
}

func (r *catalogRepository) UpsertItem(ctx context.Context, item *models.CatalogItem) error {
	_, err := r.db.NewInsert().
		Model(item).
		On("CONFLICT (id) DO UPDATE").
		Set("name = EXCLUDED.name").
		Set("image_url = EXCLUDED.image_url").
		Set("base_value_lgc = EXCLUDED.base_value_lgc").
		Set("demand_tier = EXCLUDED.demand_tier").
		Set("allowed_mutations = EXCLUDED.allowed_mutations").
		Set("allowed_traits = EXCLUDED.allowed_traits").
		Set("updated_at = CURRENT_TIMESTAMP").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to upsert catalog item: %w", err)
	}
	return nil
}

func (r *catalogRepository) UpsertMutation(ctx context.Context, mutation *models.Mutation) error {
	_, err := r.db.NewInsert().
		Model(mutation).
		On("CONFLICT (id) DO UPDATE").
		Set("name = EXCLUDED.name").
		Set("multiplier = EXCLUDED.multiplier").
		Set("image_url = EXCLUDED.image_url").
		Set("updated_at = CURRENT_TIMESTAMP").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to upsert mutation: %w", err)
	}
	return nil
}

func (r *catalogRepository) UpsertTrait(ctx context.Context, trait *models.Trait) error {
	_, err := r.db.NewInsert().
		Model(trait).
		On("CONFLICT (id) DO UPDATE").
		Set("name = EXCLUDED.name").
		Set("multiplier = EXCLUDED.multiplier").
		Set("image_url = EXCLUDED.image_url").
		Set("updated_at = CURRENT_TIMESTAMP").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to upsert trait: %w", err)
	}
	return nil
}
