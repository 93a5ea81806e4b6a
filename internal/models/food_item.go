package models

import (
	"strings"

	"github.com/eleven-am/larder/internal/nutrition"
	"github.com/shopspring/decimal"
)

const (
	maxNameLength    = 255
	maxBarcodeLength = 64
)

// FoodItem is a single food with nutrition per 100g
type FoodItem struct {
	ID            int64               `db:"id" json:"id"`
	Name          string              `db:"name" json:"name"`
	Brand         *string             `db:"brand" json:"brand"`
	Calories      decimal.Decimal     `db:"calories" json:"calories"`
	Fats          decimal.Decimal     `db:"fats" json:"fats"`
	Carbs         decimal.Decimal     `db:"carbs" json:"carbs"`
	Protein       decimal.Decimal     `db:"protein" json:"protein"`
	PortionWeight decimal.NullDecimal `db:"portion_weight" json:"portion_weight"`
	Barcode       *string             `db:"barcode" json:"barcode"`
	CreatorID     int64               `db:"creator_id" json:"creator_id"`
	EditLocked    bool                `db:"edit_locked" json:"edit_locked"`
}

// FoodItemSpec carries the client-supplied fields of a new food item
type FoodItemSpec struct {
	Name          string
	Brand         *string
	Calories      decimal.Decimal
	Fats          decimal.Decimal
	Carbs         decimal.Decimal
	Protein       decimal.Decimal
	PortionWeight decimal.NullDecimal
	Barcode       *string
	EditLocked    bool
}

// NewFoodItem validates spec and builds an unsaved food item. A zero-calorie
// item has its macros forced to zero.
func NewFoodItem(spec FoodItemSpec, creatorID int64) (FoodItem, error) {
	item := FoodItem{
		Name:          strings.TrimSpace(spec.Name),
		Brand:         spec.Brand,
		Calories:      spec.Calories,
		Fats:          spec.Fats,
		Carbs:         spec.Carbs,
		Protein:       spec.Protein,
		PortionWeight: spec.PortionWeight,
		Barcode:       spec.Barcode,
		CreatorID:     creatorID,
		EditLocked:    spec.EditLocked,
	}

	if item.Calories.IsZero() {
		item.Fats = decimal.Zero
		item.Carbs = decimal.Zero
		item.Protein = decimal.Zero
	}

	if err := item.Validate(); err != nil {
		return FoodItem{}, err
	}
	return item, nil
}

// Validate checks the field constraints shared by create and update
func (f FoodItem) Validate() error {
	if err := checkName(f.Name); err != nil {
		return err
	}
	if f.Brand != nil && len(*f.Brand) > maxNameLength {
		return invalid("brand", "must be at most %d characters", maxNameLength)
	}
	if f.Barcode != nil && len(*f.Barcode) > maxBarcodeLength {
		return invalid("barcode", "must be at most %d characters", maxBarcodeLength)
	}
	if err := checkProfile(f.Profile()); err != nil {
		return err
	}
	return checkOptionalWeight("portion_weight", f.PortionWeight)
}

// Profile returns the per-100g nutrition of the item
func (f FoodItem) Profile() nutrition.Profile {
	return nutrition.Profile{
		Calories: f.Calories,
		Fats:     f.Fats,
		Carbs:    f.Carbs,
		Protein:  f.Protein,
	}
}

// FoodItemSummary is the food item view embedded in ingredients
type FoodItemSummary struct {
	ID            int64               `json:"id"`
	Name          string              `json:"name"`
	Brand         *string             `json:"brand"`
	Calories      decimal.Decimal     `json:"calories"`
	Fats          decimal.Decimal     `json:"fats"`
	Carbs         decimal.Decimal     `json:"carbs"`
	Protein       decimal.Decimal     `json:"protein"`
	PortionWeight decimal.NullDecimal `json:"portion_weight"`
}

func (f FoodItem) Summary() *FoodItemSummary {
	return &FoodItemSummary{
		ID:            f.ID,
		Name:          f.Name,
		Brand:         f.Brand,
		Calories:      f.Calories,
		Fats:          f.Fats,
		Carbs:         f.Carbs,
		Protein:       f.Protein,
		PortionWeight: f.PortionWeight,
	}
}

// FoodItemPatch holds the fields a partial update changes. Nil fields and
// unset optionals are left alone; a null optional clears the column.
type FoodItemPatch struct {
	Name          *string
	Brand         Optional[string]
	Calories      *decimal.Decimal
	Fats          *decimal.Decimal
	Carbs         *decimal.Decimal
	Protein       *decimal.Decimal
	PortionWeight Optional[decimal.Decimal]
	Barcode       Optional[string]
	EditLocked    *bool
}

// Apply returns item with the patch merged in and validated. The
// zero-calorie rule is not re-applied.
func (p FoodItemPatch) Apply(item FoodItem) (FoodItem, error) {
	if p.Name != nil {
		item.Name = strings.TrimSpace(*p.Name)
	}
	if p.Brand.Set {
		item.Brand = p.Brand.Ptr()
	}
	if p.Calories != nil {
		item.Calories = *p.Calories
	}
	if p.Fats != nil {
		item.Fats = *p.Fats
	}
	if p.Carbs != nil {
		item.Carbs = *p.Carbs
	}
	if p.Protein != nil {
		item.Protein = *p.Protein
	}
	if p.PortionWeight.Set {
		item.PortionWeight = NullDecimalOf(p.PortionWeight)
	}
	if p.Barcode.Set {
		item.Barcode = p.Barcode.Ptr()
	}
	if p.EditLocked != nil {
		item.EditLocked = *p.EditLocked
	}

	if err := item.Validate(); err != nil {
		return FoodItem{}, err
	}
	return item, nil
}

func checkName(name string) error {
	if strings.TrimSpace(name) == "" {
		return invalid("name", "must not be empty")
	}
	if len(name) > maxNameLength {
		return invalid("name", "must be at most %d characters", maxNameLength)
	}
	return nil
}

func checkWeight(field string, v decimal.Decimal) error {
	if !nutrition.ValidWeight(v) {
		return invalid(field, "must be a non-negative value with at most %d decimals, got %s", nutrition.Places, v.String())
	}
	return nil
}

func checkOptionalWeight(field string, v decimal.NullDecimal) error {
	if !v.Valid {
		return nil
	}
	return checkWeight(field, v.Decimal)
}

func checkProfile(p nutrition.Profile) error {
	if err := checkWeight("calories", p.Calories); err != nil {
		return err
	}
	if err := checkWeight("fats", p.Fats); err != nil {
		return err
	}
	if err := checkWeight("carbs", p.Carbs); err != nil {
		return err
	}
	return checkWeight("protein", p.Protein)
}
