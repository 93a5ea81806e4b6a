package models

import (
	"github.com/shopspring/decimal"
)

const (
	MinMealtime = 1
	MaxMealtime = 5
)

// Meal is a logged amount of exactly one food item or food collection
type Meal struct {
	ID               int64           `db:"id" json:"id"`
	Calories         decimal.Decimal `db:"calories" json:"calories"`
	FoodAmount       decimal.Decimal `db:"food_amount" json:"food_amount"`
	FoodItemID       *int64          `db:"food_item_id" json:"food_item_id"`
	FoodCollectionID *int64          `db:"food_collection_id" json:"food_collection_id"`
	CreatedAt        Date            `db:"created_at" json:"created_at"`
	IsShared         bool            `db:"is_shared" json:"is_shared"`
	Mealtime         int             `db:"mealtime" json:"mealtime"`
	CreatorID        int64           `db:"creator_id" json:"creator_id"`
}

// MealSpec carries the fields of a new meal once its calories are known
type MealSpec struct {
	Calories         decimal.Decimal
	FoodAmount       decimal.Decimal
	FoodItemID       *int64
	FoodCollectionID *int64
	CreatedAt        Date
	IsShared         bool
	Mealtime         int
}

// NewMeal validates spec and builds an unsaved meal
func NewMeal(spec MealSpec, creatorID int64) (Meal, error) {
	meal := Meal{
		Calories:         spec.Calories,
		FoodAmount:       spec.FoodAmount,
		FoodItemID:       spec.FoodItemID,
		FoodCollectionID: spec.FoodCollectionID,
		CreatedAt:        spec.CreatedAt,
		IsShared:         spec.IsShared,
		Mealtime:         spec.Mealtime,
		CreatorID:        creatorID,
	}
	if err := meal.Validate(); err != nil {
		return Meal{}, err
	}
	return meal, nil
}

// Validate enforces the meal invariants. It runs on creation and again
// after every partial update.
func (m Meal) Validate() error {
	if (m.FoodItemID == nil) == (m.FoodCollectionID == nil) {
		return invalid("", "meal must reference exactly one of food_item_id or food_collection_id")
	}
	if m.Mealtime < MinMealtime || m.Mealtime > MaxMealtime {
		return invalid("mealtime", "must be between %d and %d, got %d", MinMealtime, MaxMealtime, m.Mealtime)
	}
	if m.CreatedAt.IsZero() {
		return invalid("created_at", "is required")
	}
	if err := checkWeight("calories", m.Calories); err != nil {
		return err
	}
	return checkWeight("food_amount", m.FoodAmount)
}

// MealPatch holds the fields a partial update changes. Setting one food
// reference clears the other; setting both is rejected.
type MealPatch struct {
	Calories         *decimal.Decimal
	FoodAmount       *decimal.Decimal
	FoodItemID       *int64
	FoodCollectionID *int64
	CreatedAt        *Date
	IsShared         *bool
	Mealtime         *int
}

func (p MealPatch) Apply(meal Meal) (Meal, error) {
	if p.FoodItemID != nil && p.FoodCollectionID != nil {
		return Meal{}, invalid("", "meal can include food item or food collection, not both")
	}
	if p.FoodItemID != nil {
		id := *p.FoodItemID
		meal.FoodItemID = &id
		meal.FoodCollectionID = nil
	}
	if p.FoodCollectionID != nil {
		id := *p.FoodCollectionID
		meal.FoodCollectionID = &id
		meal.FoodItemID = nil
	}
	if p.Calories != nil {
		meal.Calories = *p.Calories
	}
	if p.FoodAmount != nil {
		meal.FoodAmount = *p.FoodAmount
	}
	if p.CreatedAt != nil {
		meal.CreatedAt = *p.CreatedAt
	}
	if p.IsShared != nil {
		meal.IsShared = *p.IsShared
	}
	if p.Mealtime != nil {
		meal.Mealtime = *p.Mealtime
	}

	if err := meal.Validate(); err != nil {
		return Meal{}, err
	}
	return meal, nil
}

// ChangesFood reports whether the patch points the meal at another food
func (p MealPatch) ChangesFood() bool {
	return p.FoodItemID != nil || p.FoodCollectionID != nil
}
