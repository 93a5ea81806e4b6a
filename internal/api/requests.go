package api

import (
	"github.com/eleven-am/larder/internal/models"
	"github.com/eleven-am/larder/internal/nutrition"
	"github.com/eleven-am/larder/internal/service"
	"github.com/shopspring/decimal"
)

type credentials struct {
	Username string `json:"username" form:"username" binding:"required"`
	Password string `json:"password" form:"password" binding:"required"`
}

type userPatchRequest struct {
	Username *string `json:"username"`
	Password *string `json:"password"`
	IsActive *bool   `json:"is_active"`
	IsAdmin  *bool   `json:"is_admin"`
}

func (r userPatchRequest) patch() service.UserPatch {
	return service.UserPatch{
		Username: r.Username,
		Password: r.Password,
		IsActive: r.IsActive,
		IsAdmin:  r.IsAdmin,
	}
}

type foodItemRequest struct {
	Name          string              `json:"name"`
	Brand         *string             `json:"brand"`
	Calories      decimal.Decimal     `json:"calories"`
	Fats          decimal.Decimal     `json:"fats"`
	Carbs         decimal.Decimal     `json:"carbs"`
	Protein       decimal.Decimal     `json:"protein"`
	PortionWeight decimal.NullDecimal `json:"portion_weight"`
	Barcode       *string             `json:"barcode"`
	EditLocked    bool                `json:"edit_locked"`
}

func (r foodItemRequest) spec() models.FoodItemSpec {
	return models.FoodItemSpec{
		Name:          r.Name,
		Brand:         r.Brand,
		Calories:      r.Calories,
		Fats:          r.Fats,
		Carbs:         r.Carbs,
		Protein:       r.Protein,
		PortionWeight: r.PortionWeight,
		Barcode:       r.Barcode,
		EditLocked:    r.EditLocked,
	}
}

type foodItemPatchRequest struct {
	Name          *string                          `json:"name"`
	Brand         models.Optional[string]          `json:"brand"`
	Calories      *decimal.Decimal                 `json:"calories"`
	Fats          *decimal.Decimal                 `json:"fats"`
	Carbs         *decimal.Decimal                 `json:"carbs"`
	Protein       *decimal.Decimal                 `json:"protein"`
	PortionWeight models.Optional[decimal.Decimal] `json:"portion_weight"`
	Barcode       models.Optional[string]          `json:"barcode"`
	EditLocked    *bool                            `json:"edit_locked"`
}

func (r foodItemPatchRequest) patch() models.FoodItemPatch {
	return models.FoodItemPatch{
		Name:          r.Name,
		Brand:         r.Brand,
		Calories:      r.Calories,
		Fats:          r.Fats,
		Carbs:         r.Carbs,
		Protein:       r.Protein,
		PortionWeight: r.PortionWeight,
		Barcode:       r.Barcode,
		EditLocked:    r.EditLocked,
	}
}

type ingredientRequest struct {
	FoodItemID int64           `json:"food_item_id"`
	Amount     decimal.Decimal `json:"amount"`
}

// inputs keeps the nil versus empty distinction: an absent list stays nil
func inputs(in []ingredientRequest) []nutrition.IngredientInput {
	if in == nil {
		return nil
	}
	out := make([]nutrition.IngredientInput, len(in))
	for i, r := range in {
		out[i] = nutrition.IngredientInput{FoodItemID: r.FoodItemID, Amount: r.Amount}
	}
	return out
}

type collectionRequest struct {
	Name          string              `json:"name"`
	PortionWeight decimal.NullDecimal `json:"portion_weight"`
	Ingredients   []ingredientRequest `json:"ingredients"`
}

func (r collectionRequest) input() service.CollectionInput {
	ingredients := inputs(r.Ingredients)
	if ingredients == nil {
		ingredients = []nutrition.IngredientInput{}
	}
	return service.CollectionInput{
		Name:          r.Name,
		PortionWeight: r.PortionWeight,
		Ingredients:   ingredients,
	}
}

type collectionPatchRequest struct {
	Name          *string                          `json:"name"`
	PortionWeight models.Optional[decimal.Decimal] `json:"portion_weight"`
	Ingredients   []ingredientRequest              `json:"ingredients"`
}

func (r collectionPatchRequest) patch() service.CollectionPatch {
	return service.CollectionPatch{
		Name:          r.Name,
		PortionWeight: r.PortionWeight,
		Ingredients:   inputs(r.Ingredients),
	}
}

type mealRequest struct {
	Calories         *decimal.Decimal `json:"calories"`
	FoodAmount       decimal.Decimal  `json:"food_amount"`
	FoodItemID       *int64           `json:"food_item_id"`
	FoodCollectionID *int64           `json:"food_collection_id"`
	CreatedAt        models.Date      `json:"created_at"`
	IsShared         bool             `json:"is_shared"`
	Mealtime         int              `json:"mealtime"`
}

func (r mealRequest) input() service.MealInput {
	return service.MealInput{
		Calories:         r.Calories,
		FoodAmount:       r.FoodAmount,
		FoodItemID:       r.FoodItemID,
		FoodCollectionID: r.FoodCollectionID,
		CreatedAt:        r.CreatedAt,
		IsShared:         r.IsShared,
		Mealtime:         r.Mealtime,
	}
}

type mealPatchRequest struct {
	ID               int64            `json:"id"`
	Calories         *decimal.Decimal `json:"calories"`
	FoodAmount       *decimal.Decimal `json:"food_amount"`
	FoodItemID       *int64           `json:"food_item_id"`
	FoodCollectionID *int64           `json:"food_collection_id"`
	CreatedAt        *models.Date     `json:"created_at"`
	IsShared         *bool            `json:"is_shared"`
	Mealtime         *int             `json:"mealtime"`
}

func (r mealPatchRequest) patch() models.MealPatch {
	return models.MealPatch{
		Calories:         r.Calories,
		FoodAmount:       r.FoodAmount,
		FoodItemID:       r.FoodItemID,
		FoodCollectionID: r.FoodCollectionID,
		CreatedAt:        r.CreatedAt,
		IsShared:         r.IsShared,
		Mealtime:         r.Mealtime,
	}
}

// collectionEntry and itemEntry tag combined search results with their kind
type collectionEntry struct {
	Type string `json:"type"`
	models.FoodCollection
}

type itemEntry struct {
	Type string `json:"type"`
	models.FoodItem
}

func combinedEntries(results []service.FoodResult) []interface{} {
	out := make([]interface{}, 0, len(results))
	for _, r := range results {
		switch {
		case r.Collection != nil:
			out = append(out, collectionEntry{Type: r.Type, FoodCollection: *r.Collection})
		case r.Item != nil:
			out = append(out, itemEntry{Type: r.Type, FoodItem: *r.Item})
		}
	}
	return out
}
