package models

import (
	"strings"

	"github.com/eleven-am/larder/internal/nutrition"
	"github.com/shopspring/decimal"
)

// FoodCollection is a recipe. Its nutrition fields are derived from its
// ingredients when they are written and never set directly.
type FoodCollection struct {
	ID            int64               `db:"id" json:"id"`
	Name          string              `db:"name" json:"name"`
	PortionWeight decimal.NullDecimal `db:"portion_weight" json:"portion_weight"`
	Calories      decimal.Decimal     `db:"calories" json:"calories"`
	Fats          decimal.Decimal     `db:"fats" json:"fats"`
	Carbs         decimal.Decimal     `db:"carbs" json:"carbs"`
	Protein       decimal.Decimal     `db:"protein" json:"protein"`
	TotalWeight   decimal.Decimal     `db:"total_weight" json:"total_weight"`
	CreatorID     int64               `db:"creator_id" json:"creator_id"`
	EditLocked    bool                `db:"edit_locked" json:"edit_locked"`

	Ingredients []Ingredient `db:"-" json:"ingredients"`
}

// Ingredient is a weighted food item inside one collection
type Ingredient struct {
	FoodCollectionID int64           `db:"food_collection_id" json:"food_collection_id"`
	FoodItemID       int64           `db:"food_item_id" json:"food_item_id"`
	Amount           decimal.Decimal `db:"amount" json:"amount"`

	FoodItem *FoodItemSummary `db:"-" json:"food_item,omitempty"`
}

// NewFoodCollection builds an unsaved collection with zero nutrition
func NewFoodCollection(name string, portionWeight decimal.NullDecimal, creatorID int64) (FoodCollection, error) {
	c := FoodCollection{
		Name:          strings.TrimSpace(name),
		PortionWeight: portionWeight,
		CreatorID:     creatorID,
		Ingredients:   []Ingredient{},
	}
	if err := c.Validate(); err != nil {
		return FoodCollection{}, err
	}
	return c, nil
}

func (c FoodCollection) Validate() error {
	if err := checkName(c.Name); err != nil {
		return err
	}
	return checkOptionalWeight("portion_weight", c.PortionWeight)
}

// ApplyTotals stores an aggregation result on the collection
func (c *FoodCollection) ApplyTotals(t nutrition.Totals) {
	c.Calories = t.Calories
	c.Fats = t.Fats
	c.Carbs = t.Carbs
	c.Protein = t.Protein
	c.TotalWeight = t.TotalWeight
}

// Profile returns the derived per-100g nutrition
func (c FoodCollection) Profile() nutrition.Profile {
	return nutrition.Profile{
		Calories: c.Calories,
		Fats:     c.Fats,
		Carbs:    c.Carbs,
		Protein:  c.Protein,
	}
}
