// Package migration imports the legacy document-store catalog export into
// Postgres. The legacy admin tool kept items, mutations and traits in
// MongoDB; this importer reads either a live database or JSON dump files
// and upserts everything through the catalog repository.
package migration

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"log/slog"

	"github.com/lucentgarden/tradehub/tradehub/database/models"
	"github.com/lucentgarden/tradehub/tradehub/database/repositories"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// ImportStats counts what one run touched.
type ImportStats struct {
	Mutations int
	Traits    int
	Items     int
	Skipped   int
	StartTime time.Time
	EndTime   time.Time
}

type Importer struct {
	catalog repositories.CatalogRepository
	dataDir string

	// Optional direct Mongo access
	mongoDB *mongo.Database

	stats ImportStats
}

func NewImporter(catalog repositories.CatalogRepository, dataDir string) *Importer {
	return &Importer{
		catalog: catalog,
		dataDir: dataDir,
	}
}

// UseMongo enables direct-from-Mongo import mode.
func (im *Importer) UseMongo(client *mongo.Client, dbName string) {
	if client != nil && dbName != "" {
		im.mongoDB = client.Database(dbName)
	}
}

// Stats returns the counters of the last run.
func (im *Importer) Stats() ImportStats { return im.stats }

// legacy document shapes, shared by the Mongo and JSON paths
type legacyModifier struct {
	ID         string  `bson:"_id" json:"id"`
	Name       string  `bson:"name" json:"name"`
	Multiplier float64 `bson:"multiplier" json:"multiplier"`
	ImageURL   string  `bson:"image" json:"image"`
}

type legacyAllowedMutation struct {
	MutationID string   `bson:"mutationId" json:"mutationId"`
	Multiplier *float64 `bson:"multiplier" json:"multiplier"`
	ImageURL   string   `bson:"image" json:"image"`
}

type legacyAllowedTrait struct {
	TraitID    string   `bson:"traitId" json:"traitId"`
	Multiplier *float64 `bson:"multiplier" json:"multiplier"`
}

type legacyItem struct {
	ID               string                  `bson:"_id" json:"id"`
	Name             string                  `bson:"name" json:"name"`
	ImageURL         string                  `bson:"image" json:"image"`
	BaseValue        float64                 `bson:"baseValue" json:"baseValue"`
	DemandTier       string                  `bson:"demand" json:"demand"`
	AllowedMutations []legacyAllowedMutation `bson:"allowedMutations" json:"allowedMutations"`
	AllowedTraits    []legacyAllowedTrait    `bson:"allowedTraits" json:"allowedTraits"`
}

// ImportAll runs the full import. Modifiers go first so items never
// reference ids that are not there yet.
func (im *Importer) ImportAll(ctx context.Context) error {
	im.stats = ImportStats{StartTime: time.Now()}

	steps := []struct {
		name string
		fn   func(context.Context) error
	}{
		{"mutations", im.importMutations},
		{"traits", im.importTraits},
		{"items", im.importItems},
	}

	for _, step := range steps {
		slog.Info("Starting import step",
			slog.String("type", "sys"),
			slog.String("step", step.name),
		)
		if err := step.fn(ctx); err != nil {
			return fmt.Errorf("import failed at step %s: %w", step.name, err)
		}
	}

	im.stats.EndTime = time.Now()
	slog.Info("Catalog import completed",
		slog.String("type", "sys"),
		slog.Int("mutations", im.stats.Mutations),
		slog.Int("traits", im.stats.Traits),
		slog.Int("items", im.stats.Items),
		slog.Int("skipped", im.stats.Skipped),
		slog.Duration("took", im.stats.EndTime.Sub(im.stats.StartTime)),
	)
	return nil
}

func (im *Importer) importMutations(ctx context.Context) error {
	docs, err := im.loadDocs(ctx, "mutations")
	if err != nil {
		return err
	}

	for _, raw := range docs {
		var lm legacyModifier
		if err := decodeDoc(raw, &lm); err != nil || lm.ID == "" || lm.Multiplier <= 0 {
			im.stats.Skipped++
			continue
		}
		now := time.Now()
		err := im.catalog.UpsertMutation(ctx, &models.Mutation{
			ID:         lm.ID,
			Name:       lm.Name,
			Multiplier: lm.Multiplier,
			ImageURL:   lm.ImageURL,
			CreatedAt:  now,
			UpdatedAt:  now,
		})
		if err != nil {
			return err
		}
		im.stats.Mutations++
	}
	return nil
}

func (im *Importer) importTraits(ctx context.Context) error {
	docs, err := im.loadDocs(ctx, "traits")
	if err != nil {
		return err
	}

	for _, raw := range docs {
		var lt legacyModifier
		if err := decodeDoc(raw, &lt); err != nil || lt.ID == "" || lt.Multiplier <= 0 {
			im.stats.Skipped++
			continue
		}
		now := time.Now()
		err := im.catalog.UpsertTrait(ctx, &models.Trait{
			ID:         lt.ID,
			Name:       lt.Name,
			Multiplier: lt.Multiplier,
			ImageURL:   lt.ImageURL,
			CreatedAt:  now,
			UpdatedAt:  now,
		})
		if err != nil {
			return err
		}
		im.stats.Traits++
	}
	return nil
}

func (im *Importer) importItems(ctx context.Context) error {
	docs, err := im.loadDocs(ctx, "items")
	if err != nil {
		return err
	}

	for _, raw := range docs {
		var li legacyItem
		if err := decodeDoc(raw, &li); err != nil || li.ID == "" {
			im.stats.Skipped++
			continue
		}

		item := &models.CatalogItem{
			ID:           li.ID,
			Name:         li.Name,
			ImageURL:     li.ImageURL,
			BaseValueLGC: li.BaseValue,
			DemandTier:   li.DemandTier,
		}
		for _, am := range li.AllowedMutations {
			if am.MutationID == "" {
				continue
			}
			item.AllowedMutations = append(item.AllowedMutations, models.AllowedMutation{
				MutationID: am.MutationID,
				Multiplier: am.Multiplier,
				ImageURL:   am.ImageURL,
			})
		}
		for _, at := range li.AllowedTraits {
			if at.TraitID == "" {
				continue
			}
			item.AllowedTraits = append(item.AllowedTraits, models.AllowedTrait{
				TraitID:    at.TraitID,
				Multiplier: at.Multiplier,
			})
		}
		now := time.Now()
		item.CreatedAt = now
		item.UpdatedAt = now

		if err := im.catalog.UpsertItem(ctx, item); err != nil {
			return err
		}
		im.stats.Items++
	}
	return nil
}

// rawDoc carries one legacy document from either source. Exactly one field
// is set.
type rawDoc struct {
	bson bson.Raw
	json json.RawMessage
}

func decodeDoc(raw rawDoc, out interface{}) error {
	if raw.bson != nil {
		return bson.Unmarshal(raw.bson, out)
	}
	return json.Unmarshal(raw.json, out)
}

// loadDocs reads every document of one collection, preferring live Mongo
// and falling back to a <name>.json dump in the data directory.
func (im *Importer) loadDocs(ctx context.Context, collection string) ([]rawDoc, error) {
	if im.mongoDB != nil {
		return im.loadFromMongo(ctx, collection)
	}
	return im.loadFromJSON(collection)
}

func (im *Importer) loadFromMongo(ctx context.Context, collection string) ([]rawDoc, error) {
	cur, err := im.mongoDB.Collection(collection).Find(ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", collection, err)
	}
	defer cur.Close(ctx)

	var docs []rawDoc
	for cur.Next(ctx) {
		raw := make(bson.Raw, len(cur.Current))
		copy(raw, cur.Current)
		docs = append(docs, rawDoc{bson: raw})
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}
	return docs, nil
}

func (im *Importer) loadFromJSON(collection string) ([]rawDoc, error) {
	path := filepath.Join(im.dataDir, collection+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			slog.Warn("Dump file not found, skipping collection",
				slog.String("type", "sys"),
				slog.String("path", path),
			)
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var rows []json.RawMessage
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	docs := make([]rawDoc, 0, len(rows))
	for _, row := range rows {
		docs = append(docs, rawDoc{json: row})
	}
	return docs, nil
}
