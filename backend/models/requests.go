package models

import "github.com/lucentgarden/tradehub/tradehub/trading"

// TradeItemRequest selects one catalog item plus modifiers.
type TradeItemRequest struct {
	CatalogID  string   `json:"catalog_id"`
	MutationID string   `json:"mutation_id,omitempty"`
	TraitIDs   []string `json:"trait_ids,omitempty"`
}

// PostTradeRequest is the payload for creating a trade listing.
type PostTradeRequest struct {
	Offering   []TradeItemRequest `json:"offering"`
	LookingFor []TradeItemRequest `json:"looking_for"`
}

// PreviewValueRequest asks for the resolved value of one selection without
// creating anything.
type PreviewValueRequest struct {
	Item TradeItemRequest `json:"item"`
}

// ToSelections converts request items to engine selections.
func ToSelections(items []TradeItemRequest) []trading.ItemSelection {
	selections := make([]trading.ItemSelection, 0, len(items))
	for _, item := range items {
		selections = append(selections, trading.ItemSelection{
			CatalogID:  item.CatalogID,
			MutationID: item.MutationID,
			TraitIDs:   item.TraitIDs,
		})
	}
	return selections
}
