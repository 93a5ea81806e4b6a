package service

import (
	"context"

	"github.com/eleven-am/larder/internal/models"
	"github.com/eleven-am/larder/internal/store"
)

const (
	FoodTypeCollection = "collection"
	FoodTypeItem       = "item"
)

// FoodResult is one entry of a combined search. Exactly one of Collection
// and Item is set, matching Type.
type FoodResult struct {
	Type       string
	Collection *models.FoodCollection
	Item       *models.FoodItem
}

// SearchQuery filters both kinds of food. Barcode only applies to items.
// Offset and limit apply to each kind separately.
type SearchQuery struct {
	Name    string
	Barcode string
	store.Page
}

// Search looks through collections and items at once
type Search struct {
	base
}

// Combined returns the matching collections followed by the matching items
func (s *Search) Combined(ctx context.Context, actor models.User, q SearchQuery) ([]FoodResult, error) {
	if err := active(actor); err != nil {
		return nil, err
	}

	results := []FoodResult{}
	err := s.view(ctx, func(tx store.Tx) error {
		found, err := tx.ListCollections(ctx, store.CollectionFilter{Name: q.Name, Page: q.Page})
		if err != nil {
			return err
		}
		collections, err := withIngredients(ctx, tx, found)
		if err != nil {
			return err
		}
		items, err := tx.ListFoodItems(ctx, store.FoodItemFilter{Name: q.Name, Barcode: q.Barcode, Page: q.Page})
		if err != nil {
			return err
		}

		for i := range collections {
			results = append(results, FoodResult{Type: FoodTypeCollection, Collection: &collections[i]})
		}
		for i := range items {
			results = append(results, FoodResult{Type: FoodTypeItem, Item: &items[i]})
		}
		return nil
	})
	return results, err
}
