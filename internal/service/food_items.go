package service

import (
	"context"
	"errors"

	"github.com/eleven-am/larder/internal/models"
	"github.com/eleven-am/larder/internal/store"
)

// FoodItems manages single foods. Editing an item never rewrites the
// collections that already use it.
type FoodItems struct {
	base
}

// Get returns any food item to an active actor
func (s *FoodItems) Get(ctx context.Context, actor models.User, id int64) (models.FoodItem, error) {
	if err := active(actor); err != nil {
		return models.FoodItem{}, err
	}

	var item models.FoodItem
	err := s.view(ctx, func(tx store.Tx) error {
		var err error
		item, err = tx.GetFoodItem(ctx, id)
		return missing(err, "food item", id)
	})
	return item, err
}

// List never returns a nil slice
func (s *FoodItems) List(ctx context.Context, actor models.User, filter store.FoodItemFilter) ([]models.FoodItem, error) {
	if err := active(actor); err != nil {
		return nil, err
	}

	var items []models.FoodItem
	err := s.view(ctx, func(tx store.Tx) error {
		var err error
		items, err = tx.ListFoodItems(ctx, filter)
		return err
	})
	if items == nil && err == nil {
		items = []models.FoodItem{}
	}
	return items, err
}

// Create validates and stores a new item owned by actor
func (s *FoodItems) Create(ctx context.Context, actor models.User, spec models.FoodItemSpec) (models.FoodItem, error) {
	if err := active(actor); err != nil {
		return models.FoodItem{}, err
	}
	item, err := models.NewFoodItem(spec, actor.ID)
	if err != nil {
		return models.FoodItem{}, classify(err)
	}

	draft := item
	err = s.write(ctx, func(tx store.Tx) error {
		created := draft
		if err := tx.CreateFoodItem(ctx, &created); err != nil {
			return err
		}
		item = created
		return nil
	})
	if err != nil {
		return models.FoodItem{}, err
	}

	s.log.Info("food item created", "id", item.ID, "creator_id", actor.ID)
	return item, nil
}

// Update merges the patch into the stored item. The zero-calorie rule only
// applies at creation and is not re-run here.
func (s *FoodItems) Update(ctx context.Context, actor models.User, id int64, patch models.FoodItemPatch) (models.FoodItem, error) {
	if err := active(actor); err != nil {
		return models.FoodItem{}, err
	}

	var updated models.FoodItem
	err := s.write(ctx, func(tx store.Tx) error {
		item, err := tx.GetFoodItem(ctx, id)
		if err != nil {
			return missing(err, "food item", id)
		}
		if err := owned(actor, item.CreatorID, "update this food item"); err != nil {
			return err
		}
		if updated, err = patch.Apply(item); err != nil {
			return err
		}
		return tx.UpdateFoodItem(ctx, &updated)
	})
	if err != nil {
		return models.FoodItem{}, err
	}

	s.log.Info("food item updated", "id", id, "actor_id", actor.ID)
	return updated, nil
}

// Delete refuses while any ingredient or meal still references the item
func (s *FoodItems) Delete(ctx context.Context, actor models.User, id int64) error {
	if err := active(actor); err != nil {
		return err
	}

	err := s.write(ctx, func(tx store.Tx) error {
		item, err := tx.GetFoodItem(ctx, id)
		if err != nil {
			return missing(err, "food item", id)
		}
		if err := owned(actor, item.CreatorID, "delete this food item"); err != nil {
			return err
		}
		if err := tx.DeleteFoodItem(ctx, id); err != nil {
			if errors.Is(err, store.ErrReferenced) {
				return &Error{
					Kind:    KindReferentialIntegrity,
					Message: "food item is used by a food collection or a meal and cannot be deleted",
					IDs:     []int64{id},
					Err:     err,
				}
			}
			return err
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.log.Info("food item deleted", "id", id, "actor_id", actor.ID)
	return nil
}
