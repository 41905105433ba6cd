// Package valuation computes item values from base values and modifier
// selections. Everything here is pure: the same inputs always produce the
// same outputs, so server-side snapshots and preview responses agree.
package valuation

import (
	"math"

	"github.com/lucentgarden/tradehub/tradehub/database/models"
)

// NoMutation is the resolved form of "no mutation selected": multiplier 1
// and no image override.
var NoMutation = ResolvedMutation{Multiplier: 1}

// ResolvedMutation is a mutation merged with any per-item override.
type ResolvedMutation struct {
	ID         string
	Name       string
	Multiplier float64
	ImageURL   string
}

// ResolvedTrait is a trait merged with any per-item override.
type ResolvedTrait struct {
	ID         string
	Name       string
	Multiplier float64
}

// AllowedMutationIDs returns the mutation ids the item permits, in
// declaration order.
func AllowedMutationIDs(item *models.CatalogItem) []string {
	ids := make([]string, 0, len(item.AllowedMutations))
	for _, am := range item.AllowedMutations {
		ids = append(ids, am.MutationID)
	}
	return ids
}

// AllowedTraitIDs returns the trait ids the item permits, in declaration
// order.
func AllowedTraitIDs(item *models.CatalogItem) []string {
	ids := make([]string, 0, len(item.AllowedTraits))
	for _, at := range item.AllowedTraits {
		ids = append(ids, at.TraitID)
	}
	return ids
}

// ResolveMutation resolves a selected mutation against the item's allowed
// set. A nil selection, an unknown id, or an id the item does not permit all
// resolve to NoMutation rather than an error. Per-item overrides take
// precedence over the mutation's defaults.
func ResolveMutation(candidates []*models.Mutation, item *models.CatalogItem, selectedID string) ResolvedMutation {
	if selectedID == "" {
		return NoMutation
	}

	var allowed *models.AllowedMutation
	for i := range item.AllowedMutations {
		if item.AllowedMutations[i].MutationID == selectedID {
			allowed = &item.AllowedMutations[i]
			break
		}
	}
	if allowed == nil {
		return NoMutation
	}

	var def *models.Mutation
	for _, c := range candidates {
		if c.ID == selectedID {
			def = c
			break
		}
	}
	if def == nil {
		return NoMutation
	}

	resolved := ResolvedMutation{
		ID:         def.ID,
		Name:       def.Name,
		Multiplier: def.Multiplier,
		ImageURL:   def.ImageURL,
	}
	if allowed.Multiplier != nil {
		resolved.Multiplier = *allowed.Multiplier
	}
	if allowed.ImageURL != "" {
		resolved.ImageURL = allowed.ImageURL
	}
	return resolved
}

// ResolveTraits filters the selection down to traits the item permits and
// merges per-item overrides. Disallowed and unknown ids are dropped
// silently. Output order follows the item's allowed-trait declaration
// order, not the selection order, so resolution is idempotent.
func ResolveTraits(candidates []*models.Trait, item *models.CatalogItem, selectedIDs []string) []ResolvedTrait {
	if len(selectedIDs) == 0 {
		return nil
	}

	selected := make(map[string]bool, len(selectedIDs))
	for _, id := range selectedIDs {
		selected[id] = true
	}

	defs := make(map[string]*models.Trait, len(candidates))
	for _, c := range candidates {
		defs[c.ID] = c
	}

	var resolved []ResolvedTrait
	for i := range item.AllowedTraits {
		at := &item.AllowedTraits[i]
		if !selected[at.TraitID] {
			continue
		}
		def, ok := defs[at.TraitID]
		if !ok {
			continue
		}
		rt := ResolvedTrait{
			ID:         def.ID,
			Name:       def.Name,
			Multiplier: def.Multiplier,
		}
		if at.Multiplier != nil {
			rt.Multiplier = *at.Multiplier
		}
		resolved = append(resolved, rt)
	}
	return resolved
}

// FinalValueLGC multiplies the base value by the mutation multiplier and by
// every trait multiplier. The result is clamped to a non-negative finite
// number; a zero base always yields zero.
func FinalValueLGC(baseValueLGC float64, mutation ResolvedMutation, traits []ResolvedTrait) float64 {
	value := baseValueLGC * mutation.Multiplier
	for _, t := range traits {
		value *= t.Multiplier
	}
	if value < 0 || math.IsNaN(value) || math.IsInf(value, 0) {
		return 0
	}
	return value
}

// DisplayImage picks the image to show for the resolved selection: the
// mutation's (possibly overridden) image when present, else the item's own.
func DisplayImage(item *models.CatalogItem, mutation ResolvedMutation) string {
	if mutation.ImageURL != "" {
		return mutation.ImageURL
	}
	return item.ImageURL
}

// BuildSnapshot resolves a full selection into the immutable snapshot stored
// on a trade item. Later catalog or modifier edits never change it.
func BuildSnapshot(mutations []*models.Mutation, traits []*models.Trait, item *models.CatalogItem, selectedMutationID string, selectedTraitIDs []string) models.TradeItemSnapshot {
	mutation := ResolveMutation(mutations, item, selectedMutationID)
	resolvedTraits := ResolveTraits(traits, item, selectedTraitIDs)

	traitIDs := make([]string, 0, len(resolvedTraits))
	for _, t := range resolvedTraits {
		traitIDs = append(traitIDs, t.ID)
	}

	return models.TradeItemSnapshot{
		CatalogID:     item.ID,
		Name:          item.Name,
		ImageURL:      DisplayImage(item, mutation),
		BaseValueLGC:  item.BaseValueLGC,
		MutationID:    mutation.ID,
		TraitIDs:      traitIDs,
		FinalValueLGC: FinalValueLGC(item.BaseValueLGC, mutation, resolvedTraits),
	}
}
