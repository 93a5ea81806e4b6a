package service

import (
	"context"
	"strings"

	"github.com/eleven-am/larder/internal/models"
	"github.com/eleven-am/larder/internal/nutrition"
	"github.com/eleven-am/larder/internal/store"
	"github.com/shopspring/decimal"
)

// CollectionInput is a new food collection as submitted
type CollectionInput struct {
	Name          string
	PortionWeight decimal.NullDecimal
	Ingredients   []nutrition.IngredientInput
}

// CollectionPatch is a partial update. A nil Ingredients leaves the
// ingredient set and the derived nutrition untouched; any non-nil slice,
// empty included, replaces the set and recomputes nutrition. A null
// PortionWeight clears it.
type CollectionPatch struct {
	Name          *string
	PortionWeight models.Optional[decimal.Decimal]
	Ingredients   []nutrition.IngredientInput
}

// Collections manages food collections and keeps their nutrition in step
// with their ingredients
type Collections struct {
	base
}

// Get returns the collection with its ingredients
func (s *Collections) Get(ctx context.Context, actor models.User, id int64) (models.FoodCollection, error) {
	if err := active(actor); err != nil {
		return models.FoodCollection{}, err
	}

	var collection models.FoodCollection
	err := s.view(ctx, func(tx store.Tx) error {
		c, err := tx.GetCollection(ctx, id)
		if err != nil {
			return missing(err, "food collection", id)
		}
		loaded, err := withIngredients(ctx, tx, []models.FoodCollection{c})
		if err != nil {
			return err
		}
		collection = loaded[0]
		return nil
	})
	return collection, err
}

// List pages through collections, each with its ingredients
func (s *Collections) List(ctx context.Context, actor models.User, filter store.CollectionFilter) ([]models.FoodCollection, error) {
	if err := active(actor); err != nil {
		return nil, err
	}

	var collections []models.FoodCollection
	err := s.view(ctx, func(tx store.Tx) error {
		found, err := tx.ListCollections(ctx, filter)
		if err != nil {
			return err
		}
		collections, err = withIngredients(ctx, tx, found)
		return err
	})
	return collections, err
}

// Create validates the ingredient list, allocates the collection, resolves
// every food item, aggregates nutrition and persists it all in one
// transaction. A missing food item aborts the whole write.
func (s *Collections) Create(ctx context.Context, actor models.User, in CollectionInput) (models.FoodCollection, error) {
	if err := active(actor); err != nil {
		return models.FoodCollection{}, err
	}
	if err := nutrition.ValidateIngredients(in.Ingredients); err != nil {
		return models.FoodCollection{}, classify(err)
	}
	collection, err := models.NewFoodCollection(in.Name, in.PortionWeight, actor.ID)
	if err != nil {
		return models.FoodCollection{}, classify(err)
	}

	draft := collection
	err = s.write(ctx, func(tx store.Tx) error {
		c := draft
		if err := tx.CreateCollection(ctx, &c); err != nil {
			return err
		}
		if err := replaceIngredients(ctx, tx, &c, in.Ingredients); err != nil {
			return err
		}
		collection = c
		return nil
	})
	if err != nil {
		return models.FoodCollection{}, err
	}

	s.log.Info("food collection created",
		"id", collection.ID,
		"ingredients", len(collection.Ingredients),
		"creator_id", actor.ID)
	return collection, nil
}

// Update applies the patch. Replacing the ingredients recomputes the
// nutrition; renaming alone keeps it.
func (s *Collections) Update(ctx context.Context, actor models.User, id int64, patch CollectionPatch) (models.FoodCollection, error) {
	if err := active(actor); err != nil {
		return models.FoodCollection{}, err
	}

	var collection models.FoodCollection
	err := s.write(ctx, func(tx store.Tx) error {
		c, err := tx.GetCollection(ctx, id)
		if err != nil {
			return missing(err, "food collection", id)
		}
		if err := owned(actor, c.CreatorID, "update this food collection"); err != nil {
			return err
		}

		if patch.Name != nil {
			c.Name = strings.TrimSpace(*patch.Name)
		}
		if patch.PortionWeight.Set {
			c.PortionWeight = models.NullDecimalOf(patch.PortionWeight)
		}
		if err := c.Validate(); err != nil {
			return err
		}

		if patch.Ingredients != nil {
			if err := nutrition.ValidateIngredients(patch.Ingredients); err != nil {
				return err
			}
			if err := replaceIngredients(ctx, tx, &c, patch.Ingredients); err != nil {
				return err
			}
			collection = c
			return nil
		}

		if err := tx.UpdateCollection(ctx, &c); err != nil {
			return err
		}
		loaded, err := withIngredients(ctx, tx, []models.FoodCollection{c})
		if err != nil {
			return err
		}
		collection = loaded[0]
		return nil
	})
	if err != nil {
		return models.FoodCollection{}, err
	}

	s.log.Info("food collection updated",
		"id", collection.ID,
		"ingredients_replaced", patch.Ingredients != nil)
	return collection, nil
}

// Delete removes the collection together with its ingredients and the meals
// that log it
func (s *Collections) Delete(ctx context.Context, actor models.User, id int64) error {
	if err := active(actor); err != nil {
		return err
	}

	err := s.write(ctx, func(tx store.Tx) error {
		c, err := tx.GetCollection(ctx, id)
		if err != nil {
			return missing(err, "food collection", id)
		}
		if err := owned(actor, c.CreatorID, "delete this food collection"); err != nil {
			return err
		}
		return tx.DeleteCollection(ctx, id)
	})
	if err != nil {
		return err
	}

	s.log.Info("food collection deleted", "id", id, "actor_id", actor.ID)
	return nil
}

// replaceIngredients resolves the inputs against the current food items,
// stores them as the collection's whole ingredient set and writes the
// aggregated nutrition back onto the collection.
func replaceIngredients(ctx context.Context, tx store.Tx, c *models.FoodCollection, inputs []nutrition.IngredientInput) error {
	ids := make([]int64, len(inputs))
	for i, in := range inputs {
		ids[i] = in.FoodItemID
	}
	items, err := tx.GetFoodItems(ctx, ids)
	if err != nil {
		return err
	}

	ingredients := make([]models.Ingredient, len(inputs))
	portions := make([]nutrition.Portion, len(inputs))
	for i, in := range inputs {
		item, ok := items[in.FoodItemID]
		if !ok {
			return notFound("food item", in.FoodItemID)
		}
		ingredients[i] = models.Ingredient{
			FoodCollectionID: c.ID,
			FoodItemID:       item.ID,
			Amount:           in.Amount,
			FoodItem:         item.Summary(),
		}
		portions[i] = nutrition.Portion{Profile: item.Profile(), Amount: in.Amount}
	}

	c.ApplyTotals(nutrition.Aggregate(portions))
	if !nutrition.ValidWeight(c.TotalWeight) {
		return newError(KindValidation, "total weight %s exceeds the storable maximum", c.TotalWeight)
	}

	if err := tx.ReplaceIngredients(ctx, c.ID, ingredients); err != nil {
		return err
	}
	if err := tx.UpdateCollection(ctx, c); err != nil {
		return err
	}
	c.Ingredients = ingredients
	return nil
}

// withIngredients attaches each collection's ingredients and their food item
// summaries using one ingredient query and one food item query
func withIngredients(ctx context.Context, tx store.Tx, collections []models.FoodCollection) ([]models.FoodCollection, error) {
	if len(collections) == 0 {
		return []models.FoodCollection{}, nil
	}

	ids := make([]int64, len(collections))
	for i, c := range collections {
		ids[i] = c.ID
	}
	ingredients, err := tx.ListIngredients(ctx, ids...)
	if err != nil {
		return nil, err
	}

	itemIDs := make([]int64, 0, len(ingredients))
	for _, in := range ingredients {
		itemIDs = append(itemIDs, in.FoodItemID)
	}
	items, err := tx.GetFoodItems(ctx, itemIDs)
	if err != nil {
		return nil, err
	}

	byCollection := make(map[int64][]models.Ingredient, len(collections))
	for _, in := range ingredients {
		if item, ok := items[in.FoodItemID]; ok {
			in.FoodItem = item.Summary()
		}
		byCollection[in.FoodCollectionID] = append(byCollection[in.FoodCollectionID], in)
	}

	out := make([]models.FoodCollection, len(collections))
	for i, c := range collections {
		c.Ingredients = byCollection[c.ID]
		if c.Ingredients == nil {
			c.Ingredients = []models.Ingredient{}
		}
		out[i] = c
	}
	return out, nil
}
