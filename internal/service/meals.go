package service

import (
	"context"
	"fmt"

	"github.com/eleven-am/larder/internal/models"
	"github.com/eleven-am/larder/internal/nutrition"
	"github.com/eleven-am/larder/internal/policy"
	"github.com/eleven-am/larder/internal/store"
	"github.com/shopspring/decimal"
)

// MealInput is a new meal as submitted. A nil Calories is derived from the
// referenced food's per-100g calories and FoodAmount.
type MealInput struct {
	Calories         *decimal.Decimal
	FoodAmount       decimal.Decimal
	FoodItemID       *int64
	FoodCollectionID *int64
	CreatedAt        models.Date
	IsShared         bool
	Mealtime         int
}

// MealUpdate addresses one meal of a batch update
type MealUpdate struct {
	ID    int64
	Patch models.MealPatch
}

// MealQuery selects meals to list. IDs, when present, lists shared meals
// and takes precedence over Date, which lists the actor's own meals.
type MealQuery struct {
	Date *models.Date
	IDs  []int64
}

// Meals logs what users eat
type Meals struct {
	base
}

// List resolves the query to the actor's meals of one day or to shared meals
// by id
func (s *Meals) List(ctx context.Context, actor models.User, q MealQuery) ([]models.Meal, error) {
	if err := active(actor); err != nil {
		return nil, err
	}

	filter := store.MealFilter{IDs: q.IDs, SharedOnly: true}
	if len(q.IDs) == 0 {
		if q.Date == nil {
			return nil, newError(KindValidation, "date is required when no meal ids are given")
		}
		filter = store.MealFilter{CreatorID: &actor.ID, Date: q.Date}
	}

	var meals []models.Meal
	err := s.view(ctx, func(tx store.Tx) error {
		var err error
		meals, err = tx.ListMeals(ctx, filter)
		return err
	})
	return meals, err
}

// Get returns a meal the actor created, any meal for an admin, or any shared
// meal
func (s *Meals) Get(ctx context.Context, actor models.User, id int64) (models.Meal, error) {
	if err := active(actor); err != nil {
		return models.Meal{}, err
	}

	var meal models.Meal
	err := s.view(ctx, func(tx store.Tx) error {
		var err error
		if meal, err = tx.GetMeal(ctx, id); err != nil {
			return missing(err, "meal", id)
		}
		if !policy.CanViewMeal(actor, meal) {
			return &Error{Kind: KindForbidden, Message: "you don't have access to this meal", Err: policy.ErrNotOwner}
		}
		return nil
	})
	return meal, err
}

// Create logs a single meal
func (s *Meals) Create(ctx context.Context, actor models.User, in MealInput) (models.Meal, error) {
	meals, err := s.CreateMany(ctx, actor, []MealInput{in})
	if err != nil {
		return models.Meal{}, err
	}
	return meals[0], nil
}

// CreateMany logs every meal or none of them
func (s *Meals) CreateMany(ctx context.Context, actor models.User, inputs []MealInput) ([]models.Meal, error) {
	if err := active(actor); err != nil {
		return nil, err
	}

	var created []models.Meal
	err := s.write(ctx, func(tx store.Tx) error {
		batch := make([]models.Meal, 0, len(inputs))
		for i, in := range inputs {
			meal, err := buildMeal(ctx, tx, actor, in)
			if err != nil {
				return inBatch(err, i, len(inputs))
			}
			if err := tx.CreateMeal(ctx, &meal); err != nil {
				return inBatch(classify(err), i, len(inputs))
			}
			batch = append(batch, meal)
		}
		created = batch
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("meals created", "count", len(created), "creator_id", actor.ID)
	return created, nil
}

// Update patches a single meal
func (s *Meals) Update(ctx context.Context, actor models.User, id int64, patch models.MealPatch) (models.Meal, error) {
	meals, err := s.UpdateMany(ctx, actor, []MealUpdate{{ID: id, Patch: patch}})
	if err != nil {
		return models.Meal{}, err
	}
	return meals[0], nil
}

// UpdateMany applies every patch or none of them. The exactly-one food rule
// is checked on each merged meal.
func (s *Meals) UpdateMany(ctx context.Context, actor models.User, updates []MealUpdate) ([]models.Meal, error) {
	if err := active(actor); err != nil {
		return nil, err
	}

	var updated []models.Meal
	err := s.write(ctx, func(tx store.Tx) error {
		batch := make([]models.Meal, 0, len(updates))
		for i, u := range updates {
			meal, err := tx.GetMeal(ctx, u.ID)
			if err != nil {
				return missing(err, "meal", u.ID)
			}
			if err := owned(actor, meal.CreatorID, "update the meal"); err != nil {
				return err
			}
			merged, err := u.Patch.Apply(meal)
			if err != nil {
				return inBatch(classify(err), i, len(updates))
			}
			if u.Patch.ChangesFood() {
				if _, err := foodProfile(ctx, tx, merged.FoodItemID, merged.FoodCollectionID); err != nil {
					return err
				}
			}
			if err := tx.UpdateMeal(ctx, &merged); err != nil {
				return inBatch(classify(err), i, len(updates))
			}
			batch = append(batch, merged)
		}
		updated = batch
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("meals updated", "count", len(updated), "actor_id", actor.ID)
	return updated, nil
}

// Delete removes a meal the actor owns
func (s *Meals) Delete(ctx context.Context, actor models.User, id int64) error {
	if err := active(actor); err != nil {
		return err
	}

	err := s.write(ctx, func(tx store.Tx) error {
		meal, err := tx.GetMeal(ctx, id)
		if err != nil {
			return missing(err, "meal", id)
		}
		if err := owned(actor, meal.CreatorID, "delete the meal"); err != nil {
			return err
		}
		return tx.DeleteMeal(ctx, id)
	})
	if err != nil {
		return err
	}

	s.log.Info("meal deleted", "id", id, "actor_id", actor.ID)
	return nil
}

// buildMeal checks the referenced food exists and fills in calories when the
// input leaves them out
func buildMeal(ctx context.Context, tx store.Tx, actor models.User, in MealInput) (models.Meal, error) {
	spec := models.MealSpec{
		FoodAmount:       in.FoodAmount,
		FoodItemID:       in.FoodItemID,
		FoodCollectionID: in.FoodCollectionID,
		CreatedAt:        in.CreatedAt,
		IsShared:         in.IsShared,
		Mealtime:         in.Mealtime,
	}
	if in.FoodItemID != nil && in.FoodCollectionID != nil {
		return models.Meal{}, newError(KindValidation, "meal can include food item or food collection, not both")
	}

	if in.FoodItemID != nil || in.FoodCollectionID != nil {
		profile, err := foodProfile(ctx, tx, in.FoodItemID, in.FoodCollectionID)
		if err != nil {
			return models.Meal{}, err
		}
		if in.Calories == nil {
			spec.Calories = nutrition.Scale(profile, in.FoodAmount).Calories
		}
	}
	if in.Calories != nil {
		spec.Calories = *in.Calories
	}

	meal, err := models.NewMeal(spec, actor.ID)
	if err != nil {
		return models.Meal{}, classify(err)
	}
	return meal, nil
}

// foodProfile loads the per-100g nutrition of whichever food is referenced
func foodProfile(ctx context.Context, tx store.Tx, itemID, collectionID *int64) (nutrition.Profile, error) {
	switch {
	case itemID != nil:
		item, err := tx.GetFoodItem(ctx, *itemID)
		if err != nil {
			return nutrition.Profile{}, missing(err, "food item", *itemID)
		}
		return item.Profile(), nil
	case collectionID != nil:
		c, err := tx.GetCollection(ctx, *collectionID)
		if err != nil {
			return nutrition.Profile{}, missing(err, "food collection", *collectionID)
		}
		return c.Profile(), nil
	}
	return nutrition.Profile{}, nil
}

// inBatch prefixes the position of the failing entry when more than one
// meal was submitted
func inBatch(err error, index, size int) error {
	se, ok := err.(*Error)
	if !ok || size < 2 {
		return err
	}
	prefixed := *se
	prefixed.Message = fmt.Sprintf("meal %d: %s", index, se.Message)
	return &prefixed
}
